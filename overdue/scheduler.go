package overdue

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/labinf/libraryapi/core"
)

// DefaultHourUTC is the time-of-day boundary at which the daily sweep fires.
const DefaultHourUTC = 0

const (
	logMsgSweepSkipped = "overdue sweep: previous run still in flight, skipping"
	logMsgSweepFailed  = "overdue sweep: run failed"
	logMsgSchedulerUp  = "overdue sweep: scheduler started"
	logAttrNextRun     = "next_run"
	logAttrHourUTC     = "hour_utc"
)

// Job is one recurring unit of work.
type Job interface {
	Run(ctx context.Context) error
}

// Scheduler fires a Job once a day at a fixed UTC hour. The clock is
// injected so tests drive it with simulated time instead of waiting.
//
// Runs never overlap: the loop executes the job synchronously, and an
// in-flight guard refuses a second concurrent trigger. A run that fails is
// logged; the scheduler keeps its cadence.
type Scheduler struct {
	job      Job
	clock    core.Clock
	hourUTC  int
	logger   Logger
	inFlight atomic.Bool
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithClock replaces the wall clock, for tests.
func WithClock(clock core.Clock) SchedulerOption {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

// WithHourUTC sets the UTC hour-of-day boundary at which the job fires.
func WithHourUTC(hour int) SchedulerOption {
	return func(s *Scheduler) {
		s.hourUTC = hour
	}
}

// WithLogger sets the logger.
func WithLogger(logger Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// NewScheduler creates a Scheduler for the given job.
func NewScheduler(job Job, options ...SchedulerOption) *Scheduler {
	scheduler := &Scheduler{
		job:     job,
		clock:   core.SystemClock{},
		hourUTC: DefaultHourUTC,
	}

	for _, option := range options {
		option(scheduler)
	}

	return scheduler
}

// Run blocks, firing the job at each daily boundary, until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	if s.logger != nil {
		s.logger.Info(logMsgSchedulerUp, logAttrHourUTC, s.hourUTC)
	}

	for {
		now := s.clock.Now()
		next := NextRun(now, s.hourUTC)

		select {
		case <-ctx.Done():
			return
		case <-s.clock.After(next.Sub(now)):
			s.runOnce(ctx)
		}
	}
}

// runOnce executes the job unless a previous run is still executing.
func (s *Scheduler) runOnce(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		if s.logger != nil {
			s.logger.Warn(logMsgSweepSkipped)
		}

		return
	}
	defer s.inFlight.Store(false)

	if err := s.job.Run(ctx); err != nil {
		if s.logger != nil {
			s.logger.Error(logMsgSweepFailed, logAttrErr, err.Error())
		}
	}
}

// NextRun returns the next instant at hourUTC:00:00 UTC strictly after now.
func NextRun(now time.Time, hourUTC int) time.Time {
	year, month, day := now.UTC().Date()
	next := time.Date(year, month, day, hourUTC, 0, 0, 0, time.UTC)

	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}

	return next
}
