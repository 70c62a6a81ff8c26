package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Refresher is the part of Dashboard the poller drives.
type Refresher interface {
	RefreshAll(ctx context.Context, isPoll bool)
}

// Poller refreshes the dashboard on a fixed interval using a cron scheduler.
// An interval of zero means manual refresh only.
type Poller struct {
	target  Refresher
	timeout time.Duration

	mu       sync.Mutex
	cron     *cron.Cron
	entry    cron.EntryID
	interval time.Duration
	ctx      context.Context
}

// NewPoller creates a stopped Poller. timeout bounds each refresh; zero means
// the refresh is bounded only by the context passed to Start.
func NewPoller(target Refresher, interval, timeout time.Duration) *Poller {
	return &Poller{
		target:   target,
		timeout:  timeout,
		interval: interval,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
}

// Start schedules refreshes until ctx is done or Stop is called.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	p.ctx = ctx
	err := p.scheduleLocked(p.interval)
	p.mu.Unlock()
	if err != nil {
		return err
	}

	p.cron.Start()
	slog.Info("dashboard poller started", slog.Duration("interval", p.interval))

	go func() {
		<-ctx.Done()
		p.Stop()
	}()
	return nil
}

// Stop halts scheduling and waits for a running refresh to finish.
func (p *Poller) Stop() {
	<-p.cron.Stop().Done()
}

// Interval returns the current interval.
func (p *Poller) Interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}

// SetInterval replaces the schedule. Zero disables polling.
func (p *Poller) SetInterval(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("poll interval must not be negative: %v", d)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctx == nil {
		p.interval = d
		return nil
	}
	if err := p.scheduleLocked(d); err != nil {
		return err
	}
	slog.Info("dashboard poll interval changed", slog.Duration("interval", d))
	return nil
}

func (p *Poller) scheduleLocked(d time.Duration) error {
	if p.entry != 0 {
		p.cron.Remove(p.entry)
		p.entry = 0
	}
	p.interval = d
	if d == 0 {
		return nil
	}
	id, err := p.cron.AddFunc(fmt.Sprintf("@every %s", d), p.run)
	if err != nil {
		return fmt.Errorf("schedule dashboard poll: %w", err)
	}
	p.entry = id
	return nil
}

func (p *Poller) run() {
	p.mu.Lock()
	ctx := p.ctx
	p.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	p.target.RefreshAll(ctx, true)
}
