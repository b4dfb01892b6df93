package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"articly/pkg/logger"
)

// manualRunTimeout bounds an administrative aggregation trigger
const manualRunTimeout = 5 * time.Minute

// scheduledRunTimeout bounds a scheduled aggregation run
const scheduledRunTimeout = 15 * time.Minute

// AggregationScheduler fires the daily aggregation once per calendar day at a
// configured UTC clock time. Start is idempotent: the schedule has one stable
// identity and registering it again is a no-op, so process restarts cannot
// stack duplicate schedules.
type AggregationScheduler struct {
	analytics Aggregator
	logger    *logger.Logger
	runHour   int
	runMinute int

	mu        sync.Mutex
	isRunning bool
	active    atomic.Bool // a scheduled occurrence currently in flight
	stopCh    chan struct{}
	done      chan struct{}
}

// NewAggregationScheduler creates a scheduler firing daily at hour:minute UTC
func NewAggregationScheduler(analytics Aggregator, log *logger.Logger, hour, minute int) *AggregationScheduler {
	return &AggregationScheduler{
		analytics: analytics,
		logger:    log,
		runHour:   hour,
		runMinute: minute,
	}
}

// Start registers the daily schedule. Calling Start on an already running
// scheduler is a no-op.
func (s *AggregationScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		s.logger.Debug("Aggregation schedule already registered, skipping")
		return nil
	}

	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop()

	s.isRunning = true
	s.logger.WithFields(map[string]interface{}{
		"run_at": time.Date(0, 1, 1, s.runHour, s.runMinute, 0, 0, time.UTC).Format("15:04"),
	}).Info("Aggregation scheduler started")
	return nil
}

// Stop cancels the schedule and waits for the loop to exit
func (s *AggregationScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	close(s.stopCh)

	select {
	case <-s.done:
	case <-ctx.Done():
		s.logger.Warn("Aggregation scheduler did not stop before shutdown deadline")
	}

	s.isRunning = false
	s.logger.Info("Aggregation scheduler stopped")
	return nil
}

// RunNow runs aggregation for yesterday synchronously with a bounded timeout.
// Manual runs may overlap a scheduled run; daily aggregation is an idempotent
// overwrite, so concurrent runs for the same day converge on the same rows.
func (s *AggregationScheduler) RunNow(ctx context.Context) (int, error) {
	runCtx, cancel := context.WithTimeout(ctx, manualRunTimeout)
	defer cancel()

	return s.analytics.AggregateYesterday(runCtx)
}

// EnqueueRun dispatches an aggregation run for yesterday in the background;
// the outcome is only observed in logs
func (s *AggregationScheduler) EnqueueRun() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), manualRunTimeout)
		defer cancel()

		count, err := s.analytics.AggregateYesterday(ctx)
		if err != nil {
			s.logger.WithError(err).Error("Enqueued aggregation run failed")
			return
		}
		s.logger.WithField("articles", count).Info("Enqueued aggregation run completed")
	}()
}

// loop sleeps until each daily occurrence and runs it
func (s *AggregationScheduler) loop() {
	defer close(s.done)

	for {
		next := s.nextRunAfter(time.Now().UTC())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-timer.C:
			s.runScheduled()
		case <-s.stopCh:
			timer.Stop()
			return
		}
	}
}

// runScheduled executes one scheduled occurrence, skipping if the previous
// occurrence is still in flight
func (s *AggregationScheduler) runScheduled() {
	if !s.active.CompareAndSwap(false, true) {
		s.logger.Warn("Previous scheduled aggregation still running, skipping this occurrence")
		return
	}
	defer s.active.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), scheduledRunTimeout)
	defer cancel()

	count, err := s.analytics.AggregateYesterday(ctx)
	if err != nil {
		// Leave partial rows as-is; the next run recomputes and corrects them
		s.logger.WithError(err).Error("Scheduled aggregation run failed")
		return
	}

	s.logger.WithField("articles", count).Info("Scheduled aggregation run completed")
}

// nextRunAfter returns the next daily occurrence of the configured clock time
// strictly after t
func (s *AggregationScheduler) nextRunAfter(t time.Time) time.Time {
	t = t.UTC()
	next := time.Date(t.Year(), t.Month(), t.Day(), s.runHour, s.runMinute, 0, 0, time.UTC)
	if !next.After(t) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
