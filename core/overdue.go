package core

import "time"

// OverdueCutoff computes the newest loan date that still counts as overdue:
// loans from the cutoff day or earlier have been out for at least
// thresholdDays whole days.
func OverdueCutoff(now time.Time, thresholdDays int) time.Time {
	return ToLoanDate(now).AddDate(0, 0, -thresholdDays)
}

// SelectOverdue returns the loans that are still outstanding and were lent
// on or before the cutoff day. Pure filter, preserves input order.
func SelectOverdue(loans []Loan, cutoff time.Time) []Loan {
	selected := make([]Loan, 0)

	for _, loan := range loans {
		if !loan.IsOutstanding() {
			continue
		}
		if loan.LoanDate.After(cutoff) {
			continue
		}
		selected = append(selected, loan)
	}

	return selected
}

// RecipientEmails collects the customer email of each loan, in order.
// Duplicates are kept: one reminder per overdue loan is the intended
// behavior of the daily sweep.
func RecipientEmails(loans []Loan) []string {
	emails := make([]string, 0, len(loans))

	for _, loan := range loans {
		emails = append(emails, loan.CustomerEmail)
	}

	return emails
}
