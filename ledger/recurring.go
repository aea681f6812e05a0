/*
recurring.go - Recurring series and occurrence records

PURPOSE:
  Data model for subscription/recurring templates. The pure expansion
  algorithm lives in the recurring package; this file owns the types and
  the subscription status state machine.

STATE MACHINE:
  active <-> paused -> archived
  archived is terminal: no transitions out of it.
  Generation only runs for active series.
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// FREQUENCY
// =============================================================================

type FrequencyKind string

const (
	FreqDaily   FrequencyKind = "daily"
	FreqWeekly  FrequencyKind = "weekly"
	FreqMonthly FrequencyKind = "monthly"
	FreqYearly  FrequencyKind = "yearly"
	FreqCustom  FrequencyKind = "custom" // every IntervalDays days
)

type Frequency struct {
	Kind         FrequencyKind
	IntervalDays int // used by FreqCustom only
}

func (f Frequency) Valid() bool {
	switch f.Kind {
	case FreqDaily, FreqWeekly, FreqMonthly, FreqYearly:
		return true
	case FreqCustom:
		return f.IntervalDays > 0
	}
	return false
}

// =============================================================================
// SUBSCRIPTION STATUS
// =============================================================================

type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPaused   SubscriptionStatus = "paused"
	SubscriptionArchived SubscriptionStatus = "archived"
)

// CanTransitionTo enforces active <-> paused -> archived, archived terminal.
func (s SubscriptionStatus) CanTransitionTo(next SubscriptionStatus) bool {
	if s == next {
		return false
	}
	switch s {
	case SubscriptionActive:
		return next == SubscriptionPaused || next == SubscriptionArchived
	case SubscriptionPaused:
		return next == SubscriptionActive || next == SubscriptionArchived
	case SubscriptionArchived:
		return false
	}
	return false
}

// SubscriptionMeta is optional subscription bookkeeping on a series.
type SubscriptionMeta struct {
	Status             SubscriptionStatus
	ReminderDaysBefore []int  // notify N days before the next occurrence
	Brand              string // brand/logo reference for the presentation layer
}

// =============================================================================
// RECURRING SERIES - Template for generated transactions
// =============================================================================

type RecurringSeries struct {
	ID            SeriesID
	Description   string
	Amount        decimal.Decimal // always > 0
	Currency      Currency
	Type          TransactionType
	CategoryID    CategoryID
	SubcategoryID SubcategoryID

	// Account binding is optional: a series without a bound account
	// generates unassigned transactions.
	AccountID       AccountID
	TargetAccountID AccountID

	Frequency Frequency
	StartDate Date
	EndDate   *Date
	Active    bool

	Subscription *SubscriptionMeta

	CreatedAt time.Time
}

// Generates reports whether the generator should expand this series:
// it must be active, and if it carries subscription metadata the
// subscription status must be active as well.
func (s RecurringSeries) Generates() bool {
	if !s.Active {
		return false
	}
	if s.Subscription != nil && s.Subscription.Status != SubscriptionActive {
		return false
	}
	return true
}

// =============================================================================
// RECURRING OCCURRENCE - Join record for idempotent generation
// =============================================================================

// RecurringOccurrence links a generated transaction back to its series and
// logical occurrence date. Generation never produces a second transaction
// for a (series, date) pair that already has an occurrence.
type RecurringOccurrence struct {
	ID            OccurrenceID
	SeriesID      SeriesID
	Date          Date
	TransactionID TransactionID
}

// OccurrenceKey is the idempotence key for generation.
func OccurrenceKey(seriesID SeriesID, date Date) string {
	return string(seriesID) + "@" + date.String()
}
