package notifier

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Multi sends every message to all channels concurrently.
// A failing channel does not prevent delivery to the others.
type Multi struct {
	channels []Channel
}

// NewMulti creates a Multi over channels.
func NewMulti(channels ...Channel) *Multi {
	return &Multi{channels: channels}
}

// Len returns the number of channels.
func (m *Multi) Len() int { return len(m.channels) }

// Notify delivers message to every channel and joins their errors.
func (m *Multi) Notify(ctx context.Context, message string) error {
	errs := make([]error, len(m.channels))
	var wg sync.WaitGroup
	for i, ch := range m.channels {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ch.Notify(ctx, message); err != nil {
				errs[i] = fmt.Errorf("%s: %w", ch.Name(), err)
			}
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

// Name implements Channel.
func (m *Multi) Name() string { return "multi" }

// Channels returns a notifier for each enabled webhook, in the order
// Slack, Discord.
func Channels(slack SlackConfig, discord DiscordConfig) []Channel {
	var channels []Channel
	if slack.Enabled && slack.WebhookURL != "" {
		channels = append(channels, NewSlackNotifier(slack))
	}
	if discord.Enabled && discord.WebhookURL != "" {
		channels = append(channels, NewDiscordNotifier(discord))
	}
	return channels
}

// FromConfig builds a single notifier for the enabled webhooks. It returns
// a NoOpNotifier when none are enabled.
func FromConfig(slack SlackConfig, discord DiscordConfig) Channel {
	channels := Channels(slack, discord)
	switch len(channels) {
	case 0:
		return NewNoOpNotifier()
	case 1:
		return channels[0]
	}
	return NewMulti(channels...)
}
