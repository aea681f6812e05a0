// Package store provides Repository implementations.
package store

import (
	"context"
	"sync"

	"github.com/warp/ledger-engine/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements ledger.Repository and ledger.SyncSaver with plain
// copies of each collection.
type Memory struct {
	mu sync.RWMutex

	accounts      []ledger.Account
	categories    []ledger.Category
	subcategories []ledger.Subcategory
	transactions  []ledger.Transaction
	links         []ledger.TransactionSubcategoryLink
	series        []ledger.RecurringSeries
	occurrences   []ledger.RecurringOccurrence

	// saveCalls counts collection saves, syncSaves counts SaveAllSync
	// invocations. Exposed through accessors for scheduling tests.
	saveCalls int
	syncSaves int
}

// SaveCallCount reports how many per-collection saves ran.
func (m *Memory) SaveCallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saveCalls
}

// SyncSaveCount reports how many atomic full saves ran.
func (m *Memory) SyncSaveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.syncSaves
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) LoadAccounts(context.Context) ([]ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copySlice(m.accounts), nil
}

func (m *Memory) SaveAccounts(_ context.Context, accounts []ledger.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts = copySlice(accounts)
	m.saveCalls++
	return nil
}

func (m *Memory) LoadCategories(context.Context) ([]ledger.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copySlice(m.categories), nil
}

func (m *Memory) SaveCategories(_ context.Context, categories []ledger.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories = copySlice(categories)
	m.saveCalls++
	return nil
}

func (m *Memory) LoadSubcategories(context.Context) ([]ledger.Subcategory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copySlice(m.subcategories), nil
}

func (m *Memory) SaveSubcategories(_ context.Context, subcategories []ledger.Subcategory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subcategories = copySlice(subcategories)
	m.saveCalls++
	return nil
}

func (m *Memory) LoadTransactions(context.Context) ([]ledger.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copySlice(m.transactions), nil
}

func (m *Memory) SaveTransactions(_ context.Context, txs []ledger.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions = copySlice(txs)
	m.saveCalls++
	return nil
}

func (m *Memory) LoadSubcategoryLinks(context.Context) ([]ledger.TransactionSubcategoryLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copySlice(m.links), nil
}

func (m *Memory) SaveSubcategoryLinks(_ context.Context, links []ledger.TransactionSubcategoryLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = copySlice(links)
	m.saveCalls++
	return nil
}

func (m *Memory) LoadSeries(context.Context) ([]ledger.RecurringSeries, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copySlice(m.series), nil
}

func (m *Memory) SaveSeries(_ context.Context, series []ledger.RecurringSeries) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series = copySlice(series)
	m.saveCalls++
	return nil
}

func (m *Memory) LoadOccurrences(context.Context) ([]ledger.RecurringOccurrence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copySlice(m.occurrences), nil
}

func (m *Memory) SaveOccurrences(_ context.Context, occurrences []ledger.RecurringOccurrence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.occurrences = copySlice(occurrences)
	m.saveCalls++
	return nil
}

// DeleteTransaction removes a single record immediately.
func (m *Memory) DeleteTransaction(_ context.Context, id ledger.TransactionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, tx := range m.transactions {
		if tx.ID == id {
			m.transactions = append(m.transactions[:i], m.transactions[i+1:]...)
			break
		}
	}
	return nil
}

// SaveAllSync persists the whole snapshot in dependency order.
func (m *Memory) SaveAllSync(_ context.Context, snapshot ledger.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts = copySlice(snapshot.Accounts)
	m.categories = copySlice(snapshot.Categories)
	m.subcategories = copySlice(snapshot.Subcategories)
	m.transactions = copySlice(snapshot.Transactions)
	m.links = copySlice(snapshot.SubcategoryLinks)
	m.series = copySlice(snapshot.Series)
	m.occurrences = copySlice(snapshot.Occurrences)
	m.syncSaves++
	return nil
}

func copySlice[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
