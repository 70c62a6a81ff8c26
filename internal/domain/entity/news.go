// Package entity defines the core domain types of the market dashboard:
// generated news summaries, their citations, and price alerts.
package entity

// Sentiment is the market mood attached to a summary.
// Values outside the three known ones are carried through unchanged.
type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNegative Sentiment = "Negative"
	SentimentNeutral  Sentiment = "Neutral"
)

// Valid reports whether s is one of the known sentiments.
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	}
	return false
}

// Citation is a grounding reference as returned by a generator.
// Both fields may be empty.
type Citation struct {
	URI   string
	Title string
}

// RawResponse is the output of a single generation call.
type RawResponse struct {
	Text      string
	Citations []Citation
}

// Source is a citation kept for display. Lists of sources never repeat a URI.
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// ParsedResult is the structured record decoded from a generated reply.
// Sentiment and Ticker are empty when the reply did not supply them.
type ParsedResult struct {
	Summary   string    `json:"summary"`
	Sentiment Sentiment `json:"sentiment,omitempty"`
	Ticker    string    `json:"ticker,omitempty"`
}

// NewsCategory identifies one of the dashboard news panels.
type NewsCategory string

const (
	CategoryMarketMovers  NewsCategory = "MarketMovers"
	CategoryGlobalMacro   NewsCategory = "GlobalMacro"
	CategoryIntradayPulse NewsCategory = "IntradayPulse"
)

// Categories lists every category in refresh order.
func Categories() []NewsCategory {
	return []NewsCategory{CategoryMarketMovers, CategoryGlobalMacro, CategoryIntradayPulse}
}

// Title returns the display title of c.
func (c NewsCategory) Title() string {
	switch c {
	case CategoryMarketMovers:
		return "Indian Market Movers"
	case CategoryGlobalMacro:
		return "Macro Economy (India)"
	case CategoryIntradayPulse:
		return "India Intraday Pulse"
	}
	return string(c)
}

// ParseCategory returns the category named s.
func ParseCategory(s string) (NewsCategory, error) {
	for _, c := range Categories() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", &ValidationError{Field: "category", Message: "unknown category " + s}
}

// NewsData is the state of one news panel or search result.
type NewsData struct {
	Content     string    `json:"content"`
	Sources     []Source  `json:"sources"`
	Loading     bool      `json:"loading"`
	Error       string    `json:"error,omitempty"`
	Sentiment   Sentiment `json:"sentiment,omitempty"`
	StockTicker string    `json:"stockTicker,omitempty"`
}
