// Package notifier delivers dashboard messages (new pulses and triggered
// price alerts) to chat webhooks.
//
// Slack and Discord notifiers rate limit, retry and circuit-break their own
// webhook calls. Multi fans a message out to several notifiers and NoOp is
// used when nothing is configured.
package notifier

import "context"

// Notifier sends a plain-text message.
// Implementations must respect context cancellation and return a non-nil
// error only when the message was not delivered.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Channel is a Notifier with a name used in logs and metrics.
type Channel interface {
	Notifier
	Name() string
}
