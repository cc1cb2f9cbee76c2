/*
scheduler.go - Background dues scheduler loop

PURPOSE:
  Periodically runs the dues backfill so every member is billed up to
  the current month even when no admin is logged in around a month
  boundary. The underlying backfill is idempotent, so running it more
  often than needed is harmless.

CONFIGURATION:
  - CheckInterval: How often to run (default: 1 hour)
  - Enabled: Whether the loop is active (default: true)

USAGE:
  loop := NewSchedulerLoop(handler, logger)
  loop.Start()
  // ... later
  loop.Stop()
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/hoa-ledger/ledger"
)

// SchedulerLoop drives the dues scheduler on a fixed interval.
type SchedulerLoop struct {
	Handler       *Handler
	CheckInterval time.Duration
	Enabled       bool
	Log           *zap.Logger

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewSchedulerLoop creates a loop with the default hourly interval.
func NewSchedulerLoop(handler *Handler, log *zap.Logger) *SchedulerLoop {
	return &SchedulerLoop{
		Handler:       handler,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		Log:           log,
		stop:          make(chan struct{}),
	}
}

// Start begins the loop. Runs one pass immediately.
func (sl *SchedulerLoop) Start() {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if !sl.Enabled {
		sl.Log.Info("scheduler disabled, not starting")
		return
	}

	sl.ticker = time.NewTicker(sl.CheckInterval)
	sl.wg.Add(1)
	go sl.run()

	sl.Log.Info("scheduler started", zap.Duration("interval", sl.CheckInterval))
}

// Stop stops the loop and waits for the current pass to finish.
func (sl *SchedulerLoop) Stop() {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if sl.ticker != nil {
		sl.ticker.Stop()
		close(sl.stop)
		sl.wg.Wait()
		sl.Log.Info("scheduler stopped")
	}
}

// RunNow performs one pass outside the ticker.
func (sl *SchedulerLoop) RunNow(ctx context.Context) (int, error) {
	return sl.Handler.Scheduler.EnsureDuesUpToDate(ctx, ledger.MonthKeyOf(time.Now()))
}

func (sl *SchedulerLoop) run() {
	defer sl.wg.Done()

	sl.pass()
	for {
		select {
		case <-sl.ticker.C:
			sl.pass()
		case <-sl.stop:
			return
		}
	}
}

func (sl *SchedulerLoop) pass() {
	created, err := sl.RunNow(context.Background())
	if err != nil {
		sl.Log.Error("scheduler pass failed", zap.Error(err))
		return
	}
	if created > 0 {
		sl.Log.Info("scheduler pass billed new months", zap.Int("entriesCreated", created))
	}
}
