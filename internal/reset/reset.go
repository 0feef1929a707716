// Package reset clears stale verification records once per day at a
// configured local wall-clock time.
package reset

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/groblegark/mindful/internal/events"
	"github.com/groblegark/mindful/internal/model"
	"github.com/groblegark/mindful/internal/store"
)

// Scheduler polls the clock and, once the configured reset time has passed
// on a day it has not yet handled, deletes every verification record that
// does not carry today's date. Missed windows (process down at reset time)
// are caught up on the next poll after startup.
type Scheduler struct {
	store     store.Store
	publisher events.Publisher
	loc       *time.Location
	hour      int
	minute    int
	interval  time.Duration
	logger    *slog.Logger

	lastRun model.Date // zero until the first successful reset
	now     func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a daily reset scheduler. hour and minute are in loc;
// interval is the polling cadence.
func NewScheduler(s store.Store, publisher events.Publisher, loc *time.Location, hour, minute int, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		store:     s,
		publisher: publisher,
		loc:       loc,
		hour:      hour,
		minute:    minute,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
	}
}

// Start begins polling. It checks once immediately, then on each tick.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for any in-flight reset to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	s.checkOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkOnce(ctx)
		}
	}
}

// checkOnce fires the reset when local time has reached today's target and
// today has not been handled yet. lastRun only advances on success, so a
// failed reset is retried on the next tick.
func (s *Scheduler) checkOnce(ctx context.Context) {
	nowLocal := s.now().In(s.loc)
	today := model.DateOf(nowLocal)

	target := time.Date(nowLocal.Year(), nowLocal.Month(), nowLocal.Day(), s.hour, s.minute, 0, 0, s.loc)
	if nowLocal.Before(target) {
		return
	}
	if !s.lastRun.IsZero() && !s.lastRun.Before(today) {
		return
	}

	cleared, err := s.store.ClearStale(ctx, today)
	if err != nil {
		s.logger.Error("daily reset failed", "day", today.String(), "err", err)
		return
	}
	s.lastRun = today

	if err := s.publisher.Publish(ctx, events.TopicResetCompleted, events.ResetCompleted{
		Day:     today.String(),
		Cleared: cleared,
	}); err != nil {
		s.logger.Warn("failed to publish reset event", "day", today.String(), "err", err)
	}

	s.logger.Info("daily reset completed", "day", today.String(), "cleared", cleared)
}
