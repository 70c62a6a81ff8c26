package news

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	manualInterval = "manual"
	maxQueryLength = 200

	// MinPollInterval keeps scheduled refreshes well under provider quotas.
	MinPollInterval = time.Minute
)

var errQueryTooLong = fmt.Errorf("search query is too long (max %d characters)", maxQueryLength)

// ParseInterval parses a poll interval. "manual", "off" and "0" disable polling.
func ParseInterval(s string) (time.Duration, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case manualInterval, "off", "0":
		return 0, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.New("interval is invalid: use a duration such as 5m, or manual")
	}
	if d < MinPollInterval {
		return 0, fmt.Errorf("interval must be at least %s", MinPollInterval)
	}
	return d, nil
}
