/*
state.go - Canonical in-memory collections

PURPOSE:
  State is the single source of truth for the current session. It holds
  transactions, accounts, categories, recurring series and occurrences.
  Mutation happens only through the Engine's apply pipeline; State itself
  is not safe for concurrent use and carries no lock - the Engine's
  single-writer serialization is the concurrency guarantee.

OWNERSHIP:
  State owns the collections. The Coordinator owns numeric balances.
  Aggregates own their totals. Nothing reaches into another component's
  storage; all cross-component communication is the pipeline's fixed
  step sequence.
*/
package ledger

import "sort"

type State struct {
	transactions []Transaction
	txIndex      map[TransactionID]int

	accounts      map[AccountID]Account
	categories    map[CategoryID]Category
	subcategories map[SubcategoryID]Subcategory

	series map[SeriesID]RecurringSeries
	// occurrences indexed by idempotence key (seriesID@date)
	occurrences map[string]RecurringOccurrence
}

func NewState() *State {
	return &State{
		txIndex:       make(map[TransactionID]int),
		accounts:      make(map[AccountID]Account),
		categories:    make(map[CategoryID]Category),
		subcategories: make(map[SubcategoryID]Subcategory),
		series:        make(map[SeriesID]RecurringSeries),
		occurrences:   make(map[string]RecurringOccurrence),
	}
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func (s *State) addTransaction(tx Transaction) {
	s.txIndex[tx.ID] = len(s.transactions)
	s.transactions = append(s.transactions, tx)
}

func (s *State) replaceTransaction(tx Transaction) bool {
	i, ok := s.txIndex[tx.ID]
	if !ok {
		return false
	}
	s.transactions[i] = tx
	return true
}

func (s *State) removeTransaction(id TransactionID) (Transaction, bool) {
	i, ok := s.txIndex[id]
	if !ok {
		return Transaction{}, false
	}
	removed := s.transactions[i]
	last := len(s.transactions) - 1
	if i != last {
		s.transactions[i] = s.transactions[last]
		s.txIndex[s.transactions[i].ID] = i
	}
	s.transactions = s.transactions[:last]
	delete(s.txIndex, id)
	return removed, true
}

func (s *State) transaction(id TransactionID) (Transaction, bool) {
	i, ok := s.txIndex[id]
	if !ok {
		return Transaction{}, false
	}
	return s.transactions[i], true
}

// transactionList returns a defensive copy sorted by date then creation time.
func (s *State) transactionList() []Transaction {
	out := make([]Transaction, len(s.transactions))
	copy(out, s.transactions)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *State) transactionCount() int { return len(s.transactions) }

// =============================================================================
// ACCOUNTS
// =============================================================================

func (s *State) putAccount(a Account)                  { s.accounts[a.ID] = a }
func (s *State) dropAccount(id AccountID)              { delete(s.accounts, id) }
func (s *State) account(id AccountID) (Account, bool)  { a, ok := s.accounts[id]; return a, ok }
func (s *State) hasAccount(id AccountID) bool          { _, ok := s.accounts[id]; return ok }

func (s *State) accountList() []Account {
	out := make([]Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// =============================================================================
// CATEGORIES
// =============================================================================

func (s *State) putCategory(c Category)                   { s.categories[c.ID] = c }
func (s *State) dropCategory(id CategoryID)               { delete(s.categories, id) }
func (s *State) hasCategory(id CategoryID) bool           { _, ok := s.categories[id]; return ok }
func (s *State) putSubcategory(sc Subcategory)            { s.subcategories[sc.ID] = sc }
func (s *State) hasSubcategory(id SubcategoryID) bool     { _, ok := s.subcategories[id]; return ok }

func (s *State) categoryList() []Category {
	out := make([]Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *State) subcategoryList() []Subcategory {
	out := make([]Subcategory, 0, len(s.subcategories))
	for _, sc := range s.subcategories {
		out = append(out, sc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// subcategoryLinks derives the persisted transaction-subcategory join.
func (s *State) subcategoryLinks() []TransactionSubcategoryLink {
	var out []TransactionSubcategoryLink
	for _, tx := range s.transactions {
		if tx.SubcategoryID != "" {
			out = append(out, TransactionSubcategoryLink{
				TransactionID: tx.ID,
				SubcategoryID: tx.SubcategoryID,
			})
		}
	}
	return out
}

// =============================================================================
// RECURRING SERIES / OCCURRENCES
// =============================================================================

func (s *State) putSeries(sr RecurringSeries)              { s.series[sr.ID] = sr }
func (s *State) dropSeries(id SeriesID)                    { delete(s.series, id) }
func (s *State) seriesByID(id SeriesID) (RecurringSeries, bool) {
	sr, ok := s.series[id]
	return sr, ok
}

func (s *State) seriesList() []RecurringSeries {
	out := make([]RecurringSeries, 0, len(s.series))
	for _, sr := range s.series {
		out = append(out, sr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *State) putOccurrence(o RecurringOccurrence) {
	s.occurrences[OccurrenceKey(o.SeriesID, o.Date)] = o
}

func (s *State) hasOccurrence(seriesID SeriesID, date Date) bool {
	_, ok := s.occurrences[OccurrenceKey(seriesID, date)]
	return ok
}

func (s *State) dropOccurrence(seriesID SeriesID, date Date) {
	delete(s.occurrences, OccurrenceKey(seriesID, date))
}

// occurrenceKeys returns the idempotence key set for one series.
func (s *State) occurrenceKeys(seriesID SeriesID) map[string]bool {
	out := make(map[string]bool)
	for k, o := range s.occurrences {
		if o.SeriesID == seriesID {
			out[k] = true
		}
	}
	return out
}

func (s *State) occurrenceList() []RecurringOccurrence {
	out := make([]RecurringOccurrence, 0, len(s.occurrences))
	for _, o := range s.occurrences {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *State) dropSeriesOccurrences(id SeriesID) {
	for k, o := range s.occurrences {
		if o.SeriesID == id {
			delete(s.occurrences, k)
		}
	}
}

// seriesTransactions returns the live transactions linked to a series.
func (s *State) seriesTransactions(id SeriesID) []Transaction {
	var out []Transaction
	for _, tx := range s.transactions {
		if tx.SeriesID == id {
			out = append(out, tx)
		}
	}
	return out
}
