// Package alert manages price alerts and evaluates them against quotes.
package alert

import "errors"

// ErrAlertNotFound indicates that no alert exists for the ticker and condition.
var ErrAlertNotFound = errors.New("alert not found")
