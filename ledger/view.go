/*
view.go - Sectioned, paginated read model for transaction lists

PURPOSE:
  The list screen shows transactions grouped by day, newest day first,
  newest entry first within a day. The view pre-computes the section
  skeleton (day headers + row IDs) once per rebuild so section and row
  counts are O(1), but materializes full rows lazily through a lookup
  callback - a table with thousands of entries only ever pays for the
  rows actually rendered.

LIFECYCLE:
  The view is an immutable value. The engine rebuilds it after each
  coalesced change notification and swaps the pointer; readers holding
  the old view keep a consistent (if momentarily stale) picture.
*/
package ledger

import "sort"

// RowLookup resolves a transaction ID to its current row. It returns
// false when the ID no longer exists (deleted since the last rebuild).
type RowLookup func(id TransactionID) (Transaction, bool)

// ViewSection is one day header plus the IDs of its rows, newest first.
type ViewSection struct {
	Day Date
	IDs []TransactionID
}

// SectionedView groups transaction IDs by day in descending order.
type SectionedView struct {
	sections []ViewSection
	total    int
	lookup   RowLookup
}

// BuildSectionedView constructs the skeleton from the given transactions.
// Input order does not matter; the view sorts internally.
func BuildSectionedView(txs []Transaction, lookup RowLookup) *SectionedView {
	byDay := make(map[Date][]Transaction)
	for _, tx := range txs {
		byDay[tx.Date] = append(byDay[tx.Date], tx)
	}

	days := make([]Date, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	view := &SectionedView{lookup: lookup}
	for _, day := range days {
		rows := byDay[day]
		sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })
		ids := make([]TransactionID, len(rows))
		for i, tx := range rows {
			ids[i] = tx.ID
		}
		view.sections = append(view.sections, ViewSection{Day: day, IDs: ids})
		view.total += len(ids)
	}
	return view
}

// =============================================================================
// STRUCTURE READS - all O(1)
// =============================================================================

// SectionCount returns the number of day sections.
func (v *SectionedView) SectionCount() int { return len(v.sections) }

// TotalRows returns the row count across all sections.
func (v *SectionedView) TotalRows() int { return v.total }

// SectionDay returns the day header for section i.
func (v *SectionedView) SectionDay(i int) Date { return v.sections[i].Day }

// SectionLen returns the row count of section i.
func (v *SectionedView) SectionLen(i int) int { return len(v.sections[i].IDs) }

// =============================================================================
// ROW MATERIALIZATION - lazy, via lookup
// =============================================================================

// Row materializes one row. The second return is false when the indexes
// are out of range or the underlying transaction has since been deleted.
func (v *SectionedView) Row(section, row int) (Transaction, bool) {
	if section < 0 || section >= len(v.sections) {
		return Transaction{}, false
	}
	ids := v.sections[section].IDs
	if row < 0 || row >= len(ids) {
		return Transaction{}, false
	}
	return v.lookup(ids[row])
}

// Page flattens the view and materializes rows [offset, offset+limit).
// Rows whose transaction has disappeared are skipped, so a page may be
// shorter than limit even mid-list.
func (v *SectionedView) Page(offset, limit int) []Transaction {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || offset >= v.total {
		return nil
	}

	out := make([]Transaction, 0, limit)
	skip := offset
	for _, section := range v.sections {
		if skip >= len(section.IDs) {
			skip -= len(section.IDs)
			continue
		}
		for _, id := range section.IDs[skip:] {
			tx, ok := v.lookup(id)
			if !ok {
				continue
			}
			out = append(out, tx)
			if len(out) == limit {
				return out
			}
		}
		skip = 0
	}
	return out
}
