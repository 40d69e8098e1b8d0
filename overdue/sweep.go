// Package overdue implements the recurring sweep that reminds customers of
// overdue loans, and the daily scheduler that triggers it.
package overdue

import (
	"context"
	"time"

	"github.com/labinf/libraryapi/core"
)

const (
	// DefaultThresholdDays is how many whole days a loan may be out before
	// the sweep considers it overdue.
	DefaultThresholdDays = 3

	// DefaultMessage is the reminder sent when no template is configured.
	DefaultMessage = "You have an overdue book loan. Please return it to the library."
)

// LoanSource supplies the outstanding loans lent on or before the cutoff day.
type LoanSource interface {
	Overdue(ctx context.Context, cutoff time.Time) ([]core.Loan, error)
}

// Notifier delivers one message to a list of recipients. Fire-and-forget:
// the sweep assumes no delivery guarantee.
type Notifier interface {
	Send(ctx context.Context, message string, recipients []string) error
}

// Clock provides the current time for the cutoff computation.
type Clock interface {
	Now() time.Time
}

// Logger for sweep progress and failures.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

const (
	logMsgNothingOverdue    = "overdue sweep: no overdue loans"
	logMsgRemindersSent     = "overdue sweep: reminders sent"
	logMsgNotifierFailed    = "overdue sweep: sending reminders failed"
	logAttrOverdueLoans     = "overdue_loans"
	logAttrRecipients       = "recipients"
	logAttrCutoff           = "cutoff"
	logAttrErr              = "error"
	logMsgSweepStoreFailure = "overdue sweep: loading overdue loans failed"
)

// Sweep scans outstanding loans past the configured age threshold and sends
// one reminder batch. It mutates no state and is rerun every cycle; a loan
// that stays overdue is reminded again the next day by design.
type Sweep struct {
	loans         LoanSource
	notifier      Notifier
	clock         Clock
	thresholdDays int
	message       string
	logger        Logger
}

// SweepOption configures a Sweep.
type SweepOption func(*Sweep)

// WithSweepClock replaces the wall clock, for tests.
func WithSweepClock(clock Clock) SweepOption {
	return func(s *Sweep) {
		s.clock = clock
	}
}

// WithThresholdDays sets the overdue age threshold in whole days.
func WithThresholdDays(days int) SweepOption {
	return func(s *Sweep) {
		s.thresholdDays = days
	}
}

// WithMessage sets the reminder message template.
func WithMessage(message string) SweepOption {
	return func(s *Sweep) {
		s.message = message
	}
}

// WithSweepLogger sets the logger.
func WithSweepLogger(logger Logger) SweepOption {
	return func(s *Sweep) {
		s.logger = logger
	}
}

// NewSweep creates a Sweep with the default clock, threshold, and message.
func NewSweep(loans LoanSource, notifier Notifier, options ...SweepOption) *Sweep {
	sweep := &Sweep{
		loans:         loans,
		notifier:      notifier,
		clock:         core.SystemClock{},
		thresholdDays: DefaultThresholdDays,
		message:       DefaultMessage,
	}

	for _, option := range options {
		option(sweep)
	}

	return sweep
}

// Run executes one sweep cycle: select, collect emails, send once.
//
// A storage failure propagates to the caller. A notifier failure does not:
// it is logged and the cycle completes, because the sweep has no state to
// roll back and the next cycle retries the whole selection anyway.
func (s *Sweep) Run(ctx context.Context) error {
	cutoff := core.OverdueCutoff(s.clock.Now(), s.thresholdDays)

	overdueLoans, err := s.loans.Overdue(ctx, cutoff)
	if err != nil {
		if s.logger != nil {
			s.logger.Error(logMsgSweepStoreFailure, logAttrErr, err.Error())
		}

		return err
	}

	if len(overdueLoans) == 0 {
		if s.logger != nil {
			s.logger.Debug(logMsgNothingOverdue, logAttrCutoff, cutoff.Format(time.DateOnly))
		}

		return nil
	}

	recipients := core.RecipientEmails(overdueLoans)

	if sendErr := s.notifier.Send(ctx, s.message, recipients); sendErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgNotifierFailed,
				logAttrErr, sendErr.Error(),
				logAttrRecipients, len(recipients))
		}

		return nil
	}

	if s.logger != nil {
		s.logger.Info(logMsgRemindersSent,
			logAttrOverdueLoans, len(overdueLoans),
			logAttrRecipients, len(recipients),
			logAttrCutoff, cutoff.Format(time.DateOnly))
	}

	return nil
}
