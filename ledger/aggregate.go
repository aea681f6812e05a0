/*
aggregate.go - Incremental category and monthly totals

PURPOSE:
  Maintains O(1)-to-update running totals so report renders never scan
  the full transaction set. Totals are caches of a fold over the
  transactions - they hold nothing that cannot be rebuilt.

BUCKETS:
  Category totals: expense contributions keyed by category.
  Monthly totals:  income and expense per (year, month).
  Transfer-like entries move value between accounts and contribute to
  neither bucket. Deposit interest counts as income.

CURRENCY:
  Everything is expressed in one base currency via the synchronous
  best-effort rate. The fallback (no rate known -> amount unchanged) is
  deterministic, so an incremental sequence and a full rebuild always
  agree. Rebuild is the only correct path after a bulk import or a base
  currency change.
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// YearMonth keys the monthly aggregation bucket.
type YearMonth struct {
	Year  int
	Month time.Month
}

// MonthlyTotal is the aggregate for one calendar month, in base currency.
type MonthlyTotal struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// Net returns income minus expense.
func (m MonthlyTotal) Net() decimal.Decimal { return m.Income.Sub(m.Expense) }

// Aggregates owns the running totals. Not safe for concurrent use; the
// Engine serializes access like every other pipeline step.
type Aggregates struct {
	base      Currency
	converter Converter

	category map[CategoryID]decimal.Decimal
	monthly  map[YearMonth]MonthlyTotal
}

func NewAggregates(base Currency, converter Converter) *Aggregates {
	return &Aggregates{
		base:      base,
		converter: converter,
		category:  make(map[CategoryID]decimal.Decimal),
		monthly:   make(map[YearMonth]MonthlyTotal),
	}
}

func (a *Aggregates) BaseCurrency() Currency { return a.base }

// =============================================================================
// INCREMENTAL MAINTENANCE
// =============================================================================

// ApplyAdded folds a new transaction into the relevant buckets.
func (a *Aggregates) ApplyAdded(tx Transaction) {
	a.apply(tx, false)
}

// ApplyDeleted subtracts a removed transaction's contribution.
func (a *Aggregates) ApplyDeleted(tx Transaction) {
	a.apply(tx, true)
}

// ApplyUpdated subtracts the old contribution and adds the new one. The
// two may land in different buckets when category or date changed.
func (a *Aggregates) ApplyUpdated(old, updated Transaction) {
	a.apply(old, true)
	a.apply(updated, false)
}

func (a *Aggregates) apply(tx Transaction, reverse bool) {
	if tx.IsTransferLike() {
		return
	}

	amount := convertBestEffort(a.converter, tx.Amount, tx.Currency, a.base)
	if reverse {
		amount = amount.Neg()
	}

	ym := tx.Date.YearMonth()
	total := a.monthly[ym]
	if tx.IsIncomeLike() {
		total.Income = total.Income.Add(amount)
	} else {
		total.Expense = total.Expense.Add(amount)
		if tx.CategoryID != "" {
			a.category[tx.CategoryID] = a.category[tx.CategoryID].Add(amount)
		}
	}
	a.monthly[ym] = total
}

// =============================================================================
// REBUILD - Full O(N) recompute
// =============================================================================

// Rebuild recomputes every bucket from scratch. The only correct path
// after bulk import, base currency change, or detected drift.
func (a *Aggregates) Rebuild(txs []Transaction, base Currency) {
	a.base = base
	a.category = make(map[CategoryID]decimal.Decimal)
	a.monthly = make(map[YearMonth]MonthlyTotal)
	for _, tx := range txs {
		a.apply(tx, false)
	}
}

// =============================================================================
// READS
// =============================================================================

// CategoryTotal returns the expense total for one category.
func (a *Aggregates) CategoryTotal(id CategoryID) decimal.Decimal {
	return a.category[id]
}

// CategoryTotals returns a copy of the per-category expense totals.
func (a *Aggregates) CategoryTotals() map[CategoryID]decimal.Decimal {
	out := make(map[CategoryID]decimal.Decimal, len(a.category))
	for k, v := range a.category {
		out[k] = v
	}
	return out
}

// MonthlyFor returns the totals for one (year, month) bucket.
func (a *Aggregates) MonthlyFor(ym YearMonth) MonthlyTotal {
	return a.monthly[ym]
}

// MonthlyTotals returns a copy of every monthly bucket.
func (a *Aggregates) MonthlyTotals() map[YearMonth]MonthlyTotal {
	out := make(map[YearMonth]MonthlyTotal, len(a.monthly))
	for k, v := range a.monthly {
		out[k] = v
	}
	return out
}
