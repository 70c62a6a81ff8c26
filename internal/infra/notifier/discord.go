package notifier

import (
	"context"
	"strings"
	"time"
)

// DiscordConfig contains configuration for Discord webhook notifications.
type DiscordConfig struct {
	// Enabled indicates whether Discord notifications are enabled
	Enabled bool

	// WebhookURL is the Discord webhook URL (includes authentication token)
	WebhookURL string

	// Timeout is the HTTP request timeout for Discord API calls
	Timeout time.Duration
}

// DiscordNotifier sends messages to a Discord channel webhook as embeds.
type DiscordNotifier struct {
	*webhook
	now func() time.Time
}

// NewDiscordNotifier creates a DiscordNotifier limited to 0.5 req/s
// (30 req/min, the Discord webhook limit) with burst of 3.
func NewDiscordNotifier(config DiscordConfig) *DiscordNotifier {
	return &DiscordNotifier{
		webhook: newWebhook("discord", config.WebhookURL, config.Timeout, NewRateLimiter(0.5, 3)),
		now:     time.Now,
	}
}

// DiscordWebhookPayload represents the JSON payload sent to Discord webhook.
type DiscordWebhookPayload struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

// DiscordEmbed represents a Discord embed message.
type DiscordEmbed struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Color       int                `json:"color"`
	Footer      DiscordEmbedFooter `json:"footer"`
	Timestamp   string             `json:"timestamp"`
}

// DiscordEmbedFooter represents the footer of a Discord embed.
type DiscordEmbedFooter struct {
	Text string `json:"text"`
}

const (
	// Discord limits
	maxDescriptionLength = 4096
	truncationSuffix     = "..."

	discordTitle = "Market Pulse"

	// Green for gains, blue for everything else.
	discordGreenColor = 5763719
	discordBlueColor  = 5793266
)

// Name implements Channel.
func (d *DiscordNotifier) Name() string { return "discord" }

func (d *DiscordNotifier) buildEmbedPayload(message string) DiscordWebhookPayload {
	color := discordBlueColor
	if strings.HasPrefix(message, "📈") {
		color = discordGreenColor
	}

	return DiscordWebhookPayload{
		Embeds: []DiscordEmbed{{
			Title:       discordTitle,
			Description: truncateText(message, maxDescriptionLength, truncationSuffix),
			Color:       color,
			Footer:      DiscordEmbedFooter{Text: "market-pulse"},
			Timestamp:   d.now().UTC().Format(time.RFC3339),
		}},
	}
}

// Notify posts message to the Discord webhook.
func (d *DiscordNotifier) Notify(ctx context.Context, message string) error {
	return d.deliver(ctx, d.buildEmbedPayload(message))
}
