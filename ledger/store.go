/*
store.go - Persistence interface for ledger entities

PURPOSE:
  Defines the boundary between the engine and the backing repository.
  The repository exposes per-entity-type load/save operations; the
  engine batches saves asynchronously and uses the synchronous variant
  for import completion and shutdown safety.

CAPABILITIES:
  SyncSaver is an explicit capability interface implemented only by
  backends that can offer an atomic, dependency-ordered synchronous
  save. It is selected at construction time - never discovered through
  runtime type inspection of the repository.

DELETION:
  DeleteTransaction is an immediate single-record delete so a deletion
  survives an abrupt process kill even before the next batched save.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite backend (Repository + SyncSaver)
  - ledger/store: in-memory backend for tests/dev
*/
package ledger

import "context"

// Snapshot carries every persisted collection, in the dependency order
// the synchronous save must follow.
type Snapshot struct {
	Accounts         []Account
	Categories       []Category
	Subcategories    []Subcategory
	Transactions     []Transaction
	SubcategoryLinks []TransactionSubcategoryLink
	Series           []RecurringSeries
	Occurrences      []RecurringOccurrence
}

// Repository is the persistence collaborator. All save operations
// replace the full collection for that entity type; the engine owns
// dirty tracking and batching.
type Repository interface {
	LoadAccounts(ctx context.Context) ([]Account, error)
	SaveAccounts(ctx context.Context, accounts []Account) error

	LoadCategories(ctx context.Context) ([]Category, error)
	SaveCategories(ctx context.Context, categories []Category) error

	LoadSubcategories(ctx context.Context) ([]Subcategory, error)
	SaveSubcategories(ctx context.Context, subcategories []Subcategory) error

	LoadTransactions(ctx context.Context) ([]Transaction, error)
	SaveTransactions(ctx context.Context, txs []Transaction) error

	LoadSubcategoryLinks(ctx context.Context) ([]TransactionSubcategoryLink, error)
	SaveSubcategoryLinks(ctx context.Context, links []TransactionSubcategoryLink) error

	LoadSeries(ctx context.Context) ([]RecurringSeries, error)
	SaveSeries(ctx context.Context, series []RecurringSeries) error

	LoadOccurrences(ctx context.Context) ([]RecurringOccurrence, error)
	SaveOccurrences(ctx context.Context, occurrences []RecurringOccurrence) error

	// DeleteTransaction removes a single record immediately.
	DeleteTransaction(ctx context.Context, id TransactionID) error
}

// SyncSaver is the synchronous-save capability: one atomic pass over the
// whole snapshot in dependency order (accounts -> categories ->
// subcategories -> transactions -> links -> series -> occurrences).
type SyncSaver interface {
	SaveAllSync(ctx context.Context, snapshot Snapshot) error
}
