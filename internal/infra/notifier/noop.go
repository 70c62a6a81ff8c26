package notifier

import "context"

// NoOpNotifier discards every message. It is used when no webhook is configured.
type NoOpNotifier struct{}

// NewNoOpNotifier creates a new NoOpNotifier.
func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

// Notify does nothing and returns nil.
func (n *NoOpNotifier) Notify(context.Context, string) error {
	return nil
}

// Name implements Channel.
func (n *NoOpNotifier) Name() string { return "noop" }
