/*
Package recurring expands series templates into concrete ledger entries.

The expansion algorithm is pure: given a series, the set of already
generated occurrence keys and a horizon, it returns the occurrence dates
that are due. All mutation goes through the ledger engine, so generation
is idempotent and safe to run from a scheduler at any frequency.

MONTHLY STEPPING:
  Monthly and yearly series keep the start date's day-of-month as the
  anchor. A series anchored on the 31st falls on the 30th (or 28th/29th)
  in shorter months, then returns to the 31st - the anchor never drifts.
*/
package recurring

import (
	"time"

	"github.com/google/uuid"

	"github.com/warp/ledger-engine/ledger"
)

// Expand returns the due occurrence dates for a series: every scheduled
// date from the series start through the horizon that has no occurrence
// record yet. Paused/archived/stopped series expand to nothing.
func Expand(s ledger.RecurringSeries, existing map[string]bool, today ledger.Date, horizonMonths int) []ledger.Date {
	if !s.Generates() || !s.Frequency.Valid() || s.StartDate.IsZero() {
		return nil
	}

	horizon := today.AddMonths(horizonMonths)
	if s.EndDate != nil && s.EndDate.Before(horizon) {
		horizon = *s.EndDate
	}

	var due []ledger.Date
	for n := 0; ; n++ {
		date := occurrenceDate(s, n)
		if date.After(horizon) {
			break
		}
		if existing[ledger.OccurrenceKey(s.ID, date)] {
			continue
		}
		due = append(due, date)
	}
	return due
}

// occurrenceDate returns the n-th scheduled date (n=0 is the start date).
func occurrenceDate(s ledger.RecurringSeries, n int) ledger.Date {
	start := s.StartDate
	switch s.Frequency.Kind {
	case ledger.FreqDaily:
		return start.AddDays(n)
	case ledger.FreqWeekly:
		return start.AddDays(7 * n)
	case ledger.FreqMonthly:
		return ledger.ClampedDate(start.Year(), start.Month()+time.Month(n), start.Day())
	case ledger.FreqYearly:
		return ledger.ClampedDate(start.Year()+n, start.Month(), start.Day())
	case ledger.FreqCustom:
		return start.AddDays(s.Frequency.IntervalDays * n)
	}
	return start
}

// Materialize builds the concrete transaction and occurrence record for
// one due date.
func Materialize(s ledger.RecurringSeries, date ledger.Date, now time.Time) (ledger.Transaction, ledger.RecurringOccurrence) {
	occurrenceID := ledger.OccurrenceID(uuid.NewString())

	tx := ledger.Transaction{
		Date:            date,
		Description:     s.Description,
		Amount:          s.Amount,
		Currency:        s.Currency,
		Type:            s.Type,
		CategoryID:      s.CategoryID,
		SubcategoryID:   s.SubcategoryID,
		AccountID:       s.AccountID,
		TargetAccountID: s.TargetAccountID,
		SeriesID:        s.ID,
		OccurrenceID:    occurrenceID,
		CreatedAt:       now,
	}
	tx.ID = tx.ComputeID()

	occ := ledger.RecurringOccurrence{
		ID:            occurrenceID,
		SeriesID:      s.ID,
		Date:          date,
		TransactionID: tx.ID,
	}
	return tx, occ
}
