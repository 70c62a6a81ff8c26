// Package notify dispatches dashboard notifications to chat channels in the
// background, so refreshes and quote evaluation never wait on a webhook.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"market-pulse/internal/handler/http/requestid"
	"market-pulse/internal/infra/notifier"
)

const (
	workerPoolTimeout   = 5 * time.Second  // Timeout for acquiring worker slot
	notificationTimeout = 30 * time.Second // Timeout for individual notification
)

// ErrShutdown is returned by Notify after Shutdown has been called.
var ErrShutdown = errors.New("notification service is shut down")

// breakerState is implemented by channels that carry a circuit breaker.
type breakerState interface {
	CircuitOpen() bool
}

// ChannelHealthStatus represents the health status of a notification channel.
type ChannelHealthStatus struct {
	Name               string `json:"name"`
	CircuitBreakerOpen bool   `json:"circuitBreakerOpen"`
}

// Service sends each message to every channel asynchronously.
type Service struct {
	channels   []notifier.Channel
	workerPool chan struct{} // Semaphore for limiting concurrent notifications
	wg         sync.WaitGroup

	mu             sync.RWMutex
	closed         bool
	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
}

// NewService creates a notification service.
//
// Parameters:
//   - channels: Notification channels (Slack, Discord)
//   - maxConcurrent: Maximum concurrent deliveries (recommended: 4-10)
func NewService(channels []notifier.Channel, maxConcurrent int) *Service {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())
	SetChannelsEnabled(len(channels))
	return &Service{
		channels:       channels,
		workerPool:     make(chan struct{}, maxConcurrent),
		shutdownCtx:    shutdownCtx,
		shutdownCancel: shutdownCancel,
	}
}

// Notify queues message for every channel and returns immediately.
// Delivery failures are logged, not returned. The caller's request id is
// carried into the background sends; its cancellation is not.
func (s *Service) Notify(ctx context.Context, message string) error {
	requestID := requestid.FromContext(ctx)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		for _, ch := range s.channels {
			RecordDropped(ch.Name(), "shutdown")
		}
		return ErrShutdown
	}

	if len(s.channels) == 0 {
		slog.Debug("No notification channels enabled", slog.String("request_id", requestID))
		return nil
	}

	slog.Info("Dispatching notification",
		slog.String("request_id", requestID),
		slog.Int("channels", len(s.channels)))

	for _, ch := range s.channels {
		s.wg.Add(1)
		go s.notifyChannel(requestID, ch, message)
	}
	return nil
}

func (s *Service) notifyChannel(requestID string, channel notifier.Channel, message string) {
	defer s.wg.Done()

	activeNotifications.Inc()
	defer activeNotifications.Dec()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic in notification channel",
				slog.String("request_id", requestID),
				slog.String("channel", channel.Name()),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	// Acquire worker slot (with timeout to prevent piling up goroutines)
	timer := time.NewTimer(workerPoolTimeout)
	defer timer.Stop()
	select {
	case s.workerPool <- struct{}{}:
		defer func() { <-s.workerPool }()
	case <-timer.C:
		slog.Warn("Notification dropped: worker pool full",
			slog.String("request_id", requestID),
			slog.String("channel", channel.Name()))
		RecordDropped(channel.Name(), "pool_full")
		return
	case <-s.shutdownCtx.Done():
		RecordDropped(channel.Name(), "shutdown")
		return
	}

	if b, ok := channel.(breakerState); ok && b.CircuitOpen() {
		slog.Warn("Channel temporarily disabled due to circuit breaker",
			slog.String("request_id", requestID),
			slog.String("channel", channel.Name()))
		RecordDropped(channel.Name(), "circuit_open")
		return
	}

	ctx, cancel := context.WithTimeout(s.shutdownCtx, notificationTimeout)
	defer cancel()
	ctx = requestid.WithRequestID(ctx, requestID)

	startTime := time.Now()
	RecordDispatch(channel.Name())
	err := channel.Notify(ctx, message)
	duration := time.Since(startTime)
	RecordDuration(channel.Name(), duration)

	if err != nil {
		slog.Warn("Channel notification failed",
			slog.String("request_id", requestID),
			slog.String("channel", channel.Name()),
			slog.Duration("send_duration", duration),
			slog.Any("error", err))
		return
	}
	slog.Info("Channel notification sent successfully",
		slog.String("request_id", requestID),
		slog.String("channel", channel.Name()),
		slog.Duration("send_duration", duration))
}

// ChannelHealth returns the breaker state of every channel.
func (s *Service) ChannelHealth() []ChannelHealthStatus {
	statuses := make([]ChannelHealthStatus, 0, len(s.channels))
	for _, ch := range s.channels {
		open := false
		if b, ok := ch.(breakerState); ok {
			open = b.CircuitOpen()
		}
		statuses = append(statuses, ChannelHealthStatus{Name: ch.Name(), CircuitBreakerOpen: open})
	}
	return statuses
}

// Shutdown stops accepting messages and waits for in-flight deliveries
// until ctx is done. In-flight sends are cancelled when ctx expires.
func (s *Service) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down notification service")

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.shutdownCancel()
		slog.Info("Notification service shutdown complete")
		return nil
	case <-ctx.Done():
		s.shutdownCancel()
		slog.Warn("Notification service shutdown timeout")
		return ctx.Err()
	}
}
