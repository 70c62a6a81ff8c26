package entity

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
)

// maxURLLength defines the maximum allowed length for webhook URLs.
const maxURLLength = 2048

// tickerPattern matches NSE/BSE style symbols such as RELIANCE.NS or M&M.BSE.
var tickerPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9&\-]{0,19}(\.[A-Z]{1,4})?$`)

// ValidateTicker checks that t is an upper-case exchange symbol.
func ValidateTicker(t string) error {
	if t == "" {
		return &ValidationError{Field: "ticker", Message: "ticker is required"}
	}
	if !tickerPattern.MatchString(t) {
		return &ValidationError{Field: "ticker", Message: fmt.Sprintf("invalid ticker %q", t)}
	}
	return nil
}

// ValidateWebhookURL validates a notification webhook URL.
// It requires https and a public host, so a misconfigured webhook cannot
// be pointed at internal services.
func ValidateWebhookURL(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "webhook_url", Message: "URL is required"}
	}

	if len(rawURL) > maxURLLength {
		return &ValidationError{
			Field:   "webhook_url",
			Message: fmt.Sprintf("url must not exceed %d characters", maxURLLength),
		}
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse URL: %w", err)
	}

	if parsedURL.Scheme != "https" {
		return &ValidationError{Field: "webhook_url", Message: "URL must use https scheme"}
	}

	if parsedURL.Host == "" {
		return &ValidationError{Field: "webhook_url", Message: "URL must have a valid host"}
	}

	if ip := net.ParseIP(parsedURL.Hostname()); ip != nil && isPrivateIP(ip) {
		return &ValidationError{
			Field:   "webhook_url",
			Message: "url cannot point to private network",
		}
	}
	if parsedURL.Hostname() == "localhost" {
		return &ValidationError{
			Field:   "webhook_url",
			Message: "url cannot point to private network",
		}
	}

	return nil
}

// isPrivateIP checks if an IP address is loopback, link-local or in a private range.
func isPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsPrivate()
}
