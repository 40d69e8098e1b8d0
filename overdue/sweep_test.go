package overdue_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labinf/libraryapi/core"
	"github.com/labinf/libraryapi/overdue"
	"github.com/labinf/libraryapi/testutil"
)

type loanSourceStub struct {
	loans   []core.Loan
	err     error
	cutoffs []time.Time
}

func (s *loanSourceStub) Overdue(_ context.Context, cutoff time.Time) ([]core.Loan, error) {
	s.cutoffs = append(s.cutoffs, cutoff)

	if s.err != nil {
		return nil, s.err
	}

	return core.SelectOverdue(s.loans, cutoff), nil
}

func Test_Sweep_SendsOneBatchWithAllRecipients(t *testing.T) {
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	clock := testutil.NewClockStub(now)
	notifier := testutil.NewNotifierSpy()

	source := &loanSourceStub{loans: []core.Loan{
		overdueLoan("anna@example.org", now, 5),
		overdueLoan("bob@example.org", now, 3),
		overdueLoan("carol@example.org", now, 1),
	}}

	sweep := overdue.NewSweep(source, notifier, overdue.WithSweepClock(clock))

	require.NoError(t, sweep.Run(context.Background()))

	calls := notifier.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, overdue.DefaultMessage, calls[0].Message)
	assert.Equal(t, []string{"anna@example.org", "bob@example.org"}, calls[0].Recipients)
}

func Test_Sweep_UsesConfiguredThresholdAndMessage(t *testing.T) {
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	clock := testutil.NewClockStub(now)
	notifier := testutil.NewNotifierSpy()

	source := &loanSourceStub{loans: []core.Loan{
		overdueLoan("anna@example.org", now, 8),
		overdueLoan("bob@example.org", now, 5),
	}}

	sweep := overdue.NewSweep(source, notifier,
		overdue.WithSweepClock(clock),
		overdue.WithThresholdDays(7),
		overdue.WithMessage("Bring it back."),
	)

	require.NoError(t, sweep.Run(context.Background()))

	require.Len(t, source.cutoffs, 1)
	assert.Equal(t, core.OverdueCutoff(now, 7), source.cutoffs[0])

	calls := notifier.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Bring it back.", calls[0].Message)
	assert.Equal(t, []string{"anna@example.org"}, calls[0].Recipients)
}

func Test_Sweep_NothingOverdue_DoesNotNotify(t *testing.T) {
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	clock := testutil.NewClockStub(now)
	notifier := testutil.NewNotifierSpy()

	source := &loanSourceStub{loans: []core.Loan{
		overdueLoan("anna@example.org", now, 1),
	}}

	sweep := overdue.NewSweep(source, notifier, overdue.WithSweepClock(clock))

	require.NoError(t, sweep.Run(context.Background()))
	assert.Zero(t, notifier.CallCount())
}

func Test_Sweep_NotifierFailure_IsLoggedNotPropagated(t *testing.T) {
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	clock := testutil.NewClockStub(now)
	logSpy := testutil.NewLogHandlerSpy()

	notifier := testutil.NewNotifierSpy()
	notifier.FailWith(errors.New("relay unavailable"))

	source := &loanSourceStub{loans: []core.Loan{
		overdueLoan("anna@example.org", now, 5),
	}}

	sweep := overdue.NewSweep(source, notifier,
		overdue.WithSweepClock(clock),
		overdue.WithSweepLogger(slog.New(logSpy)),
	)

	assert.NoError(t, sweep.Run(context.Background()))
	assert.Equal(t, 1, notifier.CallCount())
	assert.True(t, logSpy.HasMessage("overdue sweep: sending reminders failed"))
}

func Test_Sweep_StoreFailure_Propagates(t *testing.T) {
	storeErr := errors.New("connection reset")
	notifier := testutil.NewNotifierSpy()
	source := &loanSourceStub{err: storeErr}

	sweep := overdue.NewSweep(source, notifier)

	assert.ErrorIs(t, sweep.Run(context.Background()), storeErr)
	assert.Zero(t, notifier.CallCount())
}

func Test_Sweep_RemindsAgainOnTheNextCycle(t *testing.T) {
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	clock := testutil.NewClockStub(now)
	notifier := testutil.NewNotifierSpy()

	source := &loanSourceStub{loans: []core.Loan{
		overdueLoan("anna@example.org", now, 5),
	}}

	sweep := overdue.NewSweep(source, notifier, overdue.WithSweepClock(clock))

	require.NoError(t, sweep.Run(context.Background()))
	clock.Advance(24 * time.Hour)
	require.NoError(t, sweep.Run(context.Background()))

	assert.Equal(t, 2, notifier.CallCount())
}

func overdueLoan(email string, now time.Time, daysAgo int) core.Loan {
	return core.Loan{
		ID:            uuid.New(),
		BookID:        uuid.New(),
		Customer:      "Customer",
		CustomerEmail: email,
		LoanDate:      core.ToLoanDate(now).AddDate(0, 0, -daysAgo),
		Status:        core.StatusOutstanding,
	}
}
