/*
summary.go - Cached range and per-day summaries

PURPOSE:
  Serves the summary reads the UI hits on every render: totals over an
  arbitrary date range, and expense totals per day. Both are pure folds
  over the transaction list, memoized in bounded LRU caches so repeated
  renders of the same period cost O(1).

INVALIDATION:
  Invalidation is targeted, not wholesale: a mutation on date D drops
  the day entry for D and only the range entries whose span contains D.
  Ranges that cannot have changed stay warm. A base currency change
  invalidates everything.

KEYS:
  Day entries are keyed by the ISO date. Range entries are keyed
  "from..to"; the key is parsed back during invalidation so the cache
  itself stays a plain string-keyed LRU.
*/
package ledger

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/ledger-engine/cache"
)

// RangeSummary is the aggregate over one inclusive date range, expressed
// in the base currency.
type RangeSummary struct {
	From     Date
	To       Date
	Income   decimal.Decimal
	Expense  decimal.Decimal
	Transfer decimal.Decimal
	Count    int
}

// Net returns income minus expense.
func (s RangeSummary) Net() decimal.Decimal { return s.Income.Sub(s.Expense) }

// Summarizer owns the memoized summary computations. Reads take the
// transaction list as input so the Summarizer holds no ledger state of
// its own - it is a cache over a fold, nothing more.
type Summarizer struct {
	base      Currency
	converter Converter

	ranges *cache.LRU[string, RangeSummary]
	days   *cache.LRU[string, decimal.Decimal]
}

// NewSummarizer creates a summarizer with bounded caches. Typical
// capacities are small: a UI cycles through a handful of periods.
func NewSummarizer(base Currency, converter Converter, rangeCapacity, dayCapacity int) *Summarizer {
	return &Summarizer{
		base:      base,
		converter: converter,
		ranges:    cache.New[string, RangeSummary](rangeCapacity),
		days:      cache.New[string, decimal.Decimal](dayCapacity),
	}
}

// =============================================================================
// READS
// =============================================================================

// Range returns the summary for the inclusive [from, to] span, computing
// and caching it on miss.
func (s *Summarizer) Range(txs []Transaction, from, to Date) RangeSummary {
	key := rangeKey(from, to)
	if hit, ok := s.ranges.Get(key); ok {
		return hit
	}

	out := RangeSummary{From: from, To: to}
	for _, tx := range txs {
		if tx.Date.Before(from) || tx.Date.After(to) {
			continue
		}
		out.Count++
		amount := convertBestEffort(s.converter, tx.Amount, tx.Currency, s.base)
		switch {
		case tx.IsTransferLike():
			out.Transfer = out.Transfer.Add(amount)
		case tx.IsIncomeLike():
			out.Income = out.Income.Add(amount)
		default:
			out.Expense = out.Expense.Add(amount)
		}
	}

	s.ranges.Set(key, out)
	return out
}

// DayExpense returns the expense total for a single day.
func (s *Summarizer) DayExpense(txs []Transaction, day Date) decimal.Decimal {
	key := day.String()
	if hit, ok := s.days.Get(key); ok {
		return hit
	}

	total := decimal.Zero
	for _, tx := range txs {
		if !tx.Date.Equal(day) || tx.IsTransferLike() || tx.IsIncomeLike() {
			continue
		}
		total = total.Add(convertBestEffort(s.converter, tx.Amount, tx.Currency, s.base))
	}

	s.days.Set(key, total)
	return total
}

// =============================================================================
// INVALIDATION
// =============================================================================

// InvalidateDate drops the day entry for d and every range entry whose
// span contains d. Entries for unrelated periods are untouched.
func (s *Summarizer) InvalidateDate(d Date) {
	s.days.Remove(d.String())

	for _, key := range s.ranges.Keys() {
		from, to, ok := parseRangeKey(key)
		if !ok {
			s.ranges.Remove(key)
			continue
		}
		if d.AfterOrEqual(from) && d.BeforeOrEqual(to) {
			s.ranges.Remove(key)
		}
	}
}

// InvalidateAll drops every cached entry.
func (s *Summarizer) InvalidateAll() {
	s.ranges.Clear()
	s.days.Clear()
}

// SetBase switches the reporting currency. All cached values are in the
// old currency, so everything goes.
func (s *Summarizer) SetBase(base Currency) {
	s.base = base
	s.InvalidateAll()
}

func rangeKey(from, to Date) string {
	return from.String() + ".." + to.String()
}

func parseRangeKey(key string) (from, to Date, ok bool) {
	parts := strings.SplitN(key, "..", 2)
	if len(parts) != 2 {
		return Date{}, Date{}, false
	}
	f, err := ParseDate(parts[0])
	if err != nil {
		return Date{}, Date{}, false
	}
	t, err := ParseDate(parts[1])
	if err != nil {
		return Date{}, Date{}, false
	}
	return f, t, true
}
