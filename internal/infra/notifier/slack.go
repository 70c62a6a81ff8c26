package notifier

import (
	"context"
	"fmt"
	"time"
)

// SlackConfig contains configuration for Slack webhook notifications.
type SlackConfig struct {
	// Enabled indicates whether Slack notifications are enabled
	Enabled bool

	// WebhookURL is the Slack Incoming Webhook URL (includes authentication token)
	WebhookURL string

	// Timeout is the HTTP request timeout for Slack API calls
	Timeout time.Duration
}

// SlackNotifier sends messages to Slack via Incoming Webhook.
type SlackNotifier struct {
	*webhook
	now func() time.Time
}

// NewSlackNotifier creates a SlackNotifier limited to 1 request/second with
// burst of 1 (the Slack webhook limit).
func NewSlackNotifier(config SlackConfig) *SlackNotifier {
	return &SlackNotifier{
		webhook: newWebhook("slack", config.WebhookURL, config.Timeout, NewRateLimiter(1.0, 1)),
		now:     time.Now,
	}
}

// SlackWebhookPayload represents the JSON payload sent to Slack webhook using Block Kit.
type SlackWebhookPayload struct {
	Text   string       `json:"text"`   // Fallback text (required)
	Blocks []SlackBlock `json:"blocks"` // Rich formatting blocks
}

// SlackBlock represents a Slack Block Kit block.
type SlackBlock struct {
	Type     string            `json:"type"`               // "section", "context"
	Text     *SlackTextObject  `json:"text,omitempty"`     // Text content (for section)
	Elements []SlackTextObject `json:"elements,omitempty"` // Elements (for context)
}

// SlackTextObject represents a text object in Slack Block Kit.
type SlackTextObject struct {
	Type string `json:"type"` // "mrkdwn" or "plain_text"
	Text string `json:"text"`
}

const (
	// Slack Block Kit limits
	maxSectionTextLength = 3000
	maxFallbackLength    = 150

	slackTruncationSuffix = "..."
)

// Name implements Channel.
func (s *SlackNotifier) Name() string { return "slack" }

// buildBlockKitPayload wraps message in a section block followed by a
// context block with the send time.
func (s *SlackNotifier) buildBlockKitPayload(message string) SlackWebhookPayload {
	contextText := fmt.Sprintf("Market Pulse • %s", s.now().UTC().Format(time.RFC3339))

	return SlackWebhookPayload{
		Text: truncateText(message, maxFallbackLength, slackTruncationSuffix),
		Blocks: []SlackBlock{
			{
				Type: "section",
				Text: &SlackTextObject{
					Type: "mrkdwn",
					Text: truncateText(message, maxSectionTextLength, slackTruncationSuffix),
				},
			},
			{
				Type:     "context",
				Elements: []SlackTextObject{{Type: "mrkdwn", Text: contextText}},
			},
		},
	}
}

// Notify posts message to the Slack webhook.
func (s *SlackNotifier) Notify(ctx context.Context, message string) error {
	return s.deliver(ctx, s.buildBlockKitPayload(message))
}
