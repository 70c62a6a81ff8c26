package entity

import (
	"fmt"
	"math"
	"strings"
)

// AlertCondition is the direction of a price crossing.
type AlertCondition string

const (
	ConditionAbove AlertCondition = "above"
	ConditionBelow AlertCondition = "below"
)

// Valid reports whether c is a known condition.
func (c AlertCondition) Valid() bool {
	return c == ConditionAbove || c == ConditionBelow
}

// Alert fires when a ticker's price crosses TargetPrice in the given direction.
// A ticker has at most one alert per condition.
type Alert struct {
	Ticker      string         `json:"ticker"`
	TargetPrice float64        `json:"targetPrice"`
	Condition   AlertCondition `json:"condition"`
}

// ID identifies a specific trigger of this alert.
func (a Alert) ID() string {
	return fmt.Sprintf("%s-%s-%s", a.Ticker, a.Condition, FormatPrice(a.TargetPrice))
}

// Met reports whether price satisfies the alert. Equality never fires.
func (a Alert) Met(price float64) bool {
	switch a.Condition {
	case ConditionAbove:
		return price > a.TargetPrice
	case ConditionBelow:
		return price < a.TargetPrice
	}
	return false
}

// Validate checks the alert fields.
func (a Alert) Validate() error {
	if err := ValidateTicker(a.Ticker); err != nil {
		return err
	}
	// NaN compares false both ways, so test for the positive case.
	if !(a.TargetPrice > 0) || math.IsInf(a.TargetPrice, 1) {
		return &ValidationError{Field: "targetPrice", Message: "target price must be a positive finite number"}
	}
	if !a.Condition.Valid() {
		return &ValidationError{Field: "condition", Message: "condition must be above or below"}
	}
	return nil
}

// Quote is an observed price for a ticker.
type Quote struct {
	Ticker string  `json:"ticker"`
	Price  float64 `json:"price"`
}

// NormalizeTicker trims and upper-cases a ticker symbol.
func NormalizeTicker(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}

// FormatPrice renders a price the way notifications show it.
func FormatPrice(p float64) string {
	s := fmt.Sprintf("%.2f", p)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
