/*
pipeline.go - The Engine: single-writer apply pipeline

PURPOSE:
  Engine is the one mutation entry point for the whole ledger. Every
  write validates first (state untouched on failure), then runs a fixed
  side-effect sequence:

    1. mutate canonical state
    2. apply the balance delta (Coordinator)
    3. targeted cache invalidation (Summarizer + read view)
    4. incremental aggregate maintenance
    5. mark entities dirty / schedule batched persistence
    6. coalesced change notification

  The order never varies per event type. A reader that observes step N's
  effect can rely on steps 1..N-1 having happened.

CONCURRENCY:
  One mutex serializes all writes and state reads - the single logical
  writer. Long-running work (currency lookups, disk writes) happens off
  the lock: balance conversion on the Coordinator's worker, persistence
  on timer-driven flushes.

IMPORT MODE:
  BeginImport suspends per-operation aggregate updates, persistence and
  notifications. FinishImport rebuilds aggregates from scratch (the only
  correct path after a bulk load), saves synchronously, and emits one
  notification for the whole batch.

PERSISTENCE:
  Saves are batched per entity type behind a short delay. Shutdown and
  import completion use the SyncSaver capability when the repository was
  constructed with one - the capability is wired explicitly, never
  discovered by runtime type inspection.
*/
package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Dirty-entity keys for batched persistence.
const (
	entityAccounts      = "accounts"
	entityCategories    = "categories"
	entitySubcategories = "subcategories"
	entityTransactions  = "transactions"
	entityLinks         = "subcategory_links"
	entitySeries        = "series"
	entityOccurrences   = "occurrences"
)

// Options configures an Engine. Zero values get sensible defaults.
type Options struct {
	BaseCurrency Currency
	Converter    Converter

	// SyncSaver is the synchronous-save capability, wired at construction.
	// Leave nil for repositories that cannot provide an atomic full save.
	SyncSaver SyncSaver

	Logger *logrus.Entry

	NotifyDebounce time.Duration
	SaveDelay      time.Duration

	RangeCacheSize int
	DayCacheSize   int
}

type Engine struct {
	mu    sync.Mutex
	state *State

	repo      Repository
	syncSaver SyncSaver

	coord      *Coordinator
	aggs       *Aggregates
	summarizer *Summarizer
	notifier   *Notifier
	log        *logrus.Entry

	base Currency

	view      *SectionedView
	viewStale bool

	importing bool
	closed    bool

	dirty     map[string]bool
	saveDelay time.Duration
	saveTimer *time.Timer
}

func NewEngine(repo Repository, opts Options) *Engine {
	if opts.BaseCurrency == "" {
		opts.BaseCurrency = "USD"
	}
	if opts.Converter == nil {
		opts.Converter = NewStaticConverter()
	}
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if opts.NotifyDebounce <= 0 {
		opts.NotifyDebounce = 100 * time.Millisecond
	}
	if opts.SaveDelay <= 0 {
		opts.SaveDelay = 500 * time.Millisecond
	}
	if opts.RangeCacheSize <= 0 {
		opts.RangeCacheSize = 32
	}
	if opts.DayCacheSize <= 0 {
		opts.DayCacheSize = 64
	}

	log := opts.Logger.WithField("component", "engine")
	return &Engine{
		state:      NewState(),
		repo:       repo,
		syncSaver:  opts.SyncSaver,
		coord:      NewCoordinator(opts.Converter, opts.Logger),
		aggs:       NewAggregates(opts.BaseCurrency, opts.Converter),
		summarizer: NewSummarizer(opts.BaseCurrency, opts.Converter, opts.RangeCacheSize, opts.DayCacheSize),
		notifier:   NewNotifier(opts.NotifyDebounce),
		log:        log,
		base:       opts.BaseCurrency,
		viewStale:  true,
		dirty:      make(map[string]bool),
		saveDelay:  opts.SaveDelay,
	}
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Load hydrates state from the repository and rebuilds every derived
// structure. Call once before serving.
func (e *Engine) Load(ctx context.Context) error {
	accounts, err := e.repo.LoadAccounts(ctx)
	if err != nil {
		return &PersistenceError{Entity: entityAccounts, Cause: err}
	}
	categories, err := e.repo.LoadCategories(ctx)
	if err != nil {
		return &PersistenceError{Entity: entityCategories, Cause: err}
	}
	subcategories, err := e.repo.LoadSubcategories(ctx)
	if err != nil {
		return &PersistenceError{Entity: entitySubcategories, Cause: err}
	}
	txs, err := e.repo.LoadTransactions(ctx)
	if err != nil {
		return &PersistenceError{Entity: entityTransactions, Cause: err}
	}
	series, err := e.repo.LoadSeries(ctx)
	if err != nil {
		return &PersistenceError{Entity: entitySeries, Cause: err}
	}
	occurrences, err := e.repo.LoadOccurrences(ctx)
	if err != nil {
		return &PersistenceError{Entity: entityOccurrences, Cause: err}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.state = NewState()
	for _, a := range accounts {
		e.state.putAccount(a)
	}
	for _, c := range categories {
		e.state.putCategory(c)
	}
	for _, sc := range subcategories {
		e.state.putSubcategory(sc)
	}
	for _, tx := range txs {
		e.state.addTransaction(tx)
	}
	for _, sr := range series {
		e.state.putSeries(sr)
	}
	for _, o := range occurrences {
		e.state.putOccurrence(o)
	}

	e.coord.RegisterAccounts(accounts)
	for _, tx := range txs {
		e.coord.ApplyAdd(tx, PriorityNormal)
	}
	e.aggs.Rebuild(e.state.transactionList(), e.base)
	e.summarizer.InvalidateAll()
	e.viewStale = true

	e.log.WithFields(logrus.Fields{
		"accounts":     len(accounts),
		"transactions": len(txs),
		"series":       len(series),
	}).Info("ledger loaded")
	return nil
}

// Close flushes pending work and persists a final snapshot. After Close
// the engine must not be used.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	if e.saveTimer != nil {
		e.saveTimer.Stop()
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.coord.Close()
	e.notifier.Close()

	if err := e.persistSnapshot(ctx, snap); err != nil {
		return err
	}
	e.log.Info("ledger closed")
	return nil
}

// Subscribe returns a channel receiving one coalesced notification per
// burst of changes.
func (e *Engine) Subscribe() <-chan struct{} {
	return e.notifier.Subscribe()
}

// WaitBalances blocks until all queued balance work has been applied.
// Intended for tests and shutdown paths.
func (e *Engine) WaitBalances() {
	e.coord.WaitIdle()
}

// =============================================================================
// TRANSACTIONS - write path
// =============================================================================

// AddTransaction validates and appends one entry. The returned value
// carries the assigned id and creation timestamp.
func (e *Engine) AddTransaction(tx Transaction) (Transaction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	if err := e.validateTransactionLocked(tx); err != nil {
		return Transaction{}, err
	}
	if tx.ID == "" {
		tx.ID = tx.ComputeID()
	}
	tx = e.denormalizeLocked(tx)

	e.applyLocked(TransactionAdded{Tx: tx}, PriorityHigh)
	return tx, nil
}

// UpdateTransaction replaces the entry with the given id. The payload id
// must match; a linked entry cannot drop its series link.
func (e *Engine) UpdateTransaction(id TransactionID, tx Transaction) (Transaction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if tx.ID != "" && tx.ID != id {
		return Transaction{}, ErrIDMismatch
	}
	old, ok := e.state.transaction(id)
	if !ok {
		return Transaction{}, ErrTransactionNotFound
	}
	if old.SeriesID != "" && tx.SeriesID == "" {
		return Transaction{}, ErrCannotRemoveRecurringLink
	}
	if err := e.validateTransactionLocked(tx); err != nil {
		return Transaction{}, err
	}

	tx.ID = id
	tx.CreatedAt = old.CreatedAt
	tx.OccurrenceID = old.OccurrenceID
	tx = e.denormalizeLocked(tx)

	e.applyLocked(TransactionUpdated{Old: old, New: tx}, PriorityHigh)
	return tx, nil
}

// DeleteTransaction removes one entry. The repository delete is issued
// immediately so the removal survives an abrupt kill before the next
// batched save. Protected entries are refused.
func (e *Engine) DeleteTransaction(ctx context.Context, id TransactionID) error {
	e.mu.Lock()

	tx, ok := e.state.transaction(id)
	if !ok {
		e.mu.Unlock()
		return ErrTransactionNotFound
	}
	if tx.IsProtected() {
		e.mu.Unlock()
		return ErrCannotDeleteProtected
	}

	// The occurrence record stays: regeneration must not resurrect a
	// deliberately deleted entry.
	e.applyLocked(TransactionDeleted{Tx: tx}, PriorityHigh)
	e.mu.Unlock()

	if err := e.repo.DeleteTransaction(ctx, id); err != nil {
		e.log.WithError(err).WithField("transaction", id).Error("immediate delete failed")
		return &PersistenceError{Entity: entityTransactions, Cause: err}
	}
	return nil
}

// AddGenerated appends generator output: transactions plus their
// occurrence records, as one burst at background priority.
func (e *Engine) AddGenerated(txs []Transaction, occurrences []RecurringOccurrence) {
	if len(txs) == 0 && len(occurrences) == 0 {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, o := range occurrences {
		e.state.putOccurrence(o)
	}
	if len(txs) > 0 {
		e.applyLocked(TransactionsBulkAdded{Txs: txs}, PriorityNormal)
	}
	e.markDirtyLocked(entityOccurrences)
}

func (e *Engine) validateTransactionLocked(tx Transaction) error {
	if !tx.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if tx.AccountID != "" && !e.state.hasAccount(tx.AccountID) {
		return ErrAccountNotFound
	}
	if tx.IsTransferLike() {
		if tx.TargetAccountID == "" || !e.state.hasAccount(tx.TargetAccountID) {
			return ErrTargetAccountNotFound
		}
	} else if tx.CategoryID != "" && !e.state.hasCategory(tx.CategoryID) {
		return ErrCategoryNotFound
	}
	return nil
}

// denormalizeLocked fills display names from the referenced accounts.
func (e *Engine) denormalizeLocked(tx Transaction) Transaction {
	if a, ok := e.state.account(tx.AccountID); ok {
		tx.AccountName = a.Name
	}
	if a, ok := e.state.account(tx.TargetAccountID); ok {
		tx.TargetAccountName = a.Name
		if tx.TargetCurrency == "" {
			tx.TargetCurrency = a.Currency
		}
	}
	return tx
}

// =============================================================================
// APPLY - the fixed side-effect sequence
// =============================================================================

func (e *Engine) applyLocked(ev Event, priority Priority) {
	switch ev := ev.(type) {
	case TransactionAdded:
		e.state.addTransaction(ev.Tx)
		e.coord.ApplyAdd(ev.Tx, priority)
		e.invalidateDatesLocked(ev.Tx.Date)
		if !e.importing {
			e.aggs.ApplyAdded(ev.Tx)
		}

	case TransactionUpdated:
		e.state.replaceTransaction(ev.New)
		e.coord.ApplyUpdate(ev.Old, ev.New, priority)
		e.invalidateDatesLocked(ev.Old.Date, ev.New.Date)
		if !e.importing {
			e.aggs.ApplyUpdated(ev.Old, ev.New)
		}

	case TransactionDeleted:
		e.state.removeTransaction(ev.Tx.ID)
		e.coord.ApplyRemove(ev.Tx, priority)
		e.invalidateDatesLocked(ev.Tx.Date)
		if !e.importing {
			e.aggs.ApplyDeleted(ev.Tx)
		}

	case TransactionsBulkAdded:
		for _, tx := range ev.Txs {
			e.state.addTransaction(tx)
			e.coord.ApplyAdd(tx, priority)
			e.invalidateDatesLocked(tx.Date)
			if !e.importing {
				e.aggs.ApplyAdded(tx)
			}
		}
	}

	e.markDirtyLocked(entityTransactions, entityLinks)
	e.notifyLocked()
}

func (e *Engine) invalidateDatesLocked(dates ...Date) {
	for _, d := range dates {
		e.summarizer.InvalidateDate(d)
	}
	e.viewStale = true
}

func (e *Engine) notifyLocked() {
	if e.importing {
		return
	}
	e.notifier.Ping()
}

// =============================================================================
// IMPORT MODE
// =============================================================================

// BeginImport suspends per-operation aggregates, saves and notifications
// until FinishImport.
func (e *Engine) BeginImport() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.importing = true
	e.log.Info("import started")
}

// FinishImport rebuilds aggregates, persists synchronously and emits one
// notification for the whole batch.
func (e *Engine) FinishImport(ctx context.Context) error {
	e.mu.Lock()
	if !e.importing {
		e.mu.Unlock()
		return ErrImportNotActive
	}
	e.importing = false

	e.aggs.Rebuild(e.state.transactionList(), e.base)
	e.summarizer.InvalidateAll()
	e.viewStale = true
	e.dirty = make(map[string]bool)
	count := e.state.transactionCount()
	snap := e.snapshotLocked()
	e.mu.Unlock()

	if err := e.persistSnapshot(ctx, snap); err != nil {
		return err
	}
	e.notifier.Ping()
	e.log.WithField("transactions", count).Info("import finished")
	return nil
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func (e *Engine) CreateAccount(a Account) (Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if a.ID == "" {
		a.ID = AccountID(uuid.NewString())
	}
	if a.Mode == "" {
		a.Mode = BalanceDerived
	}
	e.state.putAccount(a)
	e.coord.RegisterAccounts([]Account{a})
	e.markDirtyLocked(entityAccounts)
	e.notifyLocked()
	return a, nil
}

func (e *Engine) UpdateAccount(a Account) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.hasAccount(a.ID) {
		return ErrAccountNotFound
	}
	e.state.putAccount(a)
	e.coord.RegisterAccounts([]Account{a})
	e.markDirtyLocked(entityAccounts)
	e.notifyLocked()
	return nil
}

func (e *Engine) DeleteAccount(id AccountID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.hasAccount(id) {
		return ErrAccountNotFound
	}
	e.state.dropAccount(id)
	e.coord.RemoveAccount(id)
	e.markDirtyLocked(entityAccounts)
	e.notifyLocked()
	return nil
}

// SetInitialBalance replaces the account's baseline. Accumulated
// transaction deltas stay in effect.
func (e *Engine) SetInitialBalance(id AccountID, amount decimal.Decimal) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.state.account(id)
	if !ok {
		return ErrAccountNotFound
	}
	a.InitialBalance = amount
	e.state.putAccount(a)
	e.coord.SetInitialBalance(amount, id)
	e.markDirtyLocked(entityAccounts)
	e.notifyLocked()
	return nil
}

// SetManualBalance flips the account to manual mode with the given figure.
func (e *Engine) SetManualBalance(id AccountID, amount decimal.Decimal) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.state.account(id)
	if !ok {
		return ErrAccountNotFound
	}
	a.Mode = BalanceManual
	a.InitialBalance = amount
	e.state.putAccount(a)
	e.coord.SetInitialBalance(amount, id)
	e.coord.MarkManual(id)
	e.markDirtyLocked(entityAccounts)
	e.notifyLocked()
	return nil
}

func (e *Engine) Accounts() []Account {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.accountList()
}

func (e *Engine) Account(id AccountID) (Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	a, ok := e.state.account(id)
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return a, nil
}

// Balance returns the authoritative current balance for one account.
func (e *Engine) Balance(id AccountID) (decimal.Decimal, error) {
	if b, ok := e.coord.Balance(id); ok {
		return b, nil
	}
	return decimal.Zero, ErrAccountNotFound
}

// Balances returns every tracked balance.
func (e *Engine) Balances() map[AccountID]decimal.Decimal {
	return e.coord.Balances()
}

// =============================================================================
// CATEGORIES
// =============================================================================

func (e *Engine) CreateCategory(name string) (Category, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c := Category{ID: CategoryID(uuid.NewString()), Name: name}
	e.state.putCategory(c)
	e.markDirtyLocked(entityCategories)
	e.notifyLocked()
	return c, nil
}

func (e *Engine) CreateSubcategory(parent CategoryID, name string) (Subcategory, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.hasCategory(parent) {
		return Subcategory{}, ErrCategoryNotFound
	}
	sc := Subcategory{ID: SubcategoryID(uuid.NewString()), CategoryID: parent, Name: name}
	e.state.putSubcategory(sc)
	e.markDirtyLocked(entitySubcategories)
	e.notifyLocked()
	return sc, nil
}

func (e *Engine) Categories() []Category {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.categoryList()
}

func (e *Engine) Subcategories() []Subcategory {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.subcategoryList()
}

// =============================================================================
// RECURRING SERIES - engine primitives (orchestration in recurring pkg)
// =============================================================================

func (e *Engine) CreateSeries(s RecurringSeries) (RecurringSeries, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.validateSeriesLocked(s); err != nil {
		return RecurringSeries{}, err
	}
	if s.ID == "" {
		s.ID = SeriesID(uuid.NewString())
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	e.state.putSeries(s)
	e.markDirtyLocked(entitySeries)
	e.notifyLocked()
	return s, nil
}

func (e *Engine) UpdateSeries(s RecurringSeries) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.state.seriesByID(s.ID); !ok {
		return ErrSeriesNotFound
	}
	if err := e.validateSeriesLocked(s); err != nil {
		return err
	}
	e.state.putSeries(s)
	e.markDirtyLocked(entitySeries)
	e.notifyLocked()
	return nil
}

// SetSubscriptionStatus runs the status state machine.
func (e *Engine) SetSubscriptionStatus(id SeriesID, next SubscriptionStatus) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.state.seriesByID(id)
	if !ok {
		return ErrSeriesNotFound
	}
	if s.Subscription == nil {
		s.Subscription = &SubscriptionMeta{Status: SubscriptionActive}
	}
	if !s.Subscription.Status.CanTransitionTo(next) {
		return &StatusTransitionError{From: s.Subscription.Status, To: next}
	}
	meta := *s.Subscription
	meta.Status = next
	s.Subscription = &meta
	e.state.putSeries(s)
	e.markDirtyLocked(entitySeries)
	e.notifyLocked()
	return nil
}

// StopSeries deactivates a series. Existing transactions stay.
func (e *Engine) StopSeries(id SeriesID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.state.seriesByID(id)
	if !ok {
		return ErrSeriesNotFound
	}
	s.Active = false
	e.state.putSeries(s)
	e.markDirtyLocked(entitySeries)
	e.notifyLocked()
	return nil
}

// DeleteSeries removes the series and its occurrence records. Linked
// transactions stay but their link survives only as an orphaned id.
func (e *Engine) DeleteSeries(id SeriesID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.state.seriesByID(id); !ok {
		return ErrSeriesNotFound
	}
	e.state.dropSeries(id)
	e.state.dropSeriesOccurrences(id)
	e.markDirtyLocked(entitySeries, entityOccurrences)
	e.notifyLocked()
	return nil
}

// DeleteSeriesTransactionsFrom removes the series' transactions dated on
// or after the cutoff, occurrence records included so regeneration under
// a changed definition starts clean.
func (e *Engine) DeleteSeriesTransactionsFrom(id SeriesID, cutoff Date) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.state.seriesByID(id); !ok {
		return 0, ErrSeriesNotFound
	}

	removed := 0
	for _, tx := range e.state.seriesTransactions(id) {
		if tx.Date.Before(cutoff) {
			continue
		}
		e.state.dropOccurrence(id, tx.Date)
		e.applyLocked(TransactionDeleted{Tx: tx}, PriorityNormal)
		removed++
	}
	if removed > 0 {
		e.markDirtyLocked(entityOccurrences)
	}
	return removed, nil
}

func (e *Engine) Series(id SeriesID) (RecurringSeries, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.state.seriesByID(id)
	if !ok {
		return RecurringSeries{}, ErrSeriesNotFound
	}
	return s, nil
}

func (e *Engine) SeriesList() []RecurringSeries {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.seriesList()
}

// SeriesOccurrenceKeys returns the idempotence key set for one series.
func (e *Engine) SeriesOccurrenceKeys(id SeriesID) map[string]bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.occurrenceKeys(id)
}

func (e *Engine) validateSeriesLocked(s RecurringSeries) error {
	if s.Description == "" || !s.Amount.IsPositive() || !s.Frequency.Valid() {
		return ErrInvalidSeriesData
	}
	if s.StartDate.IsZero() {
		return ErrInvalidStartDate
	}
	if s.EndDate != nil && s.EndDate.Before(s.StartDate) {
		return ErrInvalidSeriesData
	}
	if s.AccountID != "" && !e.state.hasAccount(s.AccountID) {
		return ErrAccountNotFound
	}
	if s.TargetAccountID != "" && !e.state.hasAccount(s.TargetAccountID) {
		return ErrTargetAccountNotFound
	}
	return nil
}

// =============================================================================
// READS
// =============================================================================

// Transactions returns a sorted copy of every entry.
func (e *Engine) Transactions() []Transaction {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.transactionList()
}

func (e *Engine) Transaction(id TransactionID) (Transaction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	tx, ok := e.state.transaction(id)
	if !ok {
		return Transaction{}, ErrTransactionNotFound
	}
	return tx, nil
}

// Summary returns cached totals for the inclusive date range.
func (e *Engine) Summary(from, to Date) RangeSummary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.summarizer.Range(e.state.transactionList(), from, to)
}

// DayExpense returns the cached expense total for one day.
func (e *Engine) DayExpense(day Date) decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.summarizer.DayExpense(e.state.transactionList(), day)
}

func (e *Engine) CategoryTotals() map[CategoryID]decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.aggs.CategoryTotals()
}

func (e *Engine) MonthlyTotals() map[YearMonth]MonthlyTotal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.aggs.MonthlyTotals()
}

func (e *Engine) MonthlySummary(ym YearMonth) MonthlyTotal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.aggs.MonthlyFor(ym)
}

// View returns the current sectioned read model, rebuilding lazily after
// changes. Returned views are immutable snapshots of the grouping.
func (e *Engine) View() *SectionedView {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.viewStale || e.view == nil {
		e.view = BuildSectionedView(e.state.transactionList(), e.lookupRow)
		e.viewStale = false
	}
	return e.view
}

func (e *Engine) lookupRow(id TransactionID) (Transaction, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.transaction(id)
}

// BaseCurrency returns the reporting currency.
func (e *Engine) BaseCurrency() Currency {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.base
}

// SetBaseCurrency switches the reporting currency and rebuilds every
// derived figure in the new currency.
func (e *Engine) SetBaseCurrency(base Currency) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.base = base
	e.aggs.Rebuild(e.state.transactionList(), base)
	e.summarizer.SetBase(base)
	e.viewStale = true
	e.notifyLocked()
}

// =============================================================================
// PERSISTENCE - dirty tracking and batched flushes
// =============================================================================

func (e *Engine) markDirtyLocked(entities ...string) {
	for _, entity := range entities {
		e.dirty[entity] = true
	}
	if e.importing || e.closed {
		return
	}
	if e.saveTimer == nil {
		e.saveTimer = time.AfterFunc(e.saveDelay, e.flush)
		return
	}
	e.saveTimer.Reset(e.saveDelay)
}

// flush writes every dirty collection. Runs on the save timer goroutine;
// snapshots under the lock, saves off it.
func (e *Engine) flush() {
	e.mu.Lock()
	if e.closed || len(e.dirty) == 0 {
		e.mu.Unlock()
		return
	}
	dirty := e.dirty
	e.dirty = make(map[string]bool)
	snap := e.snapshotLocked()
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	save := func(entity string, fn func() error) {
		if !dirty[entity] {
			return
		}
		if err := fn(); err != nil {
			e.log.WithError(err).WithField("entity", entity).Error("batched save failed")
			// Leave the entity dirty so the next flush retries.
			e.mu.Lock()
			e.dirty[entity] = true
			e.mu.Unlock()
		}
	}

	save(entityAccounts, func() error { return e.repo.SaveAccounts(ctx, snap.Accounts) })
	save(entityCategories, func() error { return e.repo.SaveCategories(ctx, snap.Categories) })
	save(entitySubcategories, func() error { return e.repo.SaveSubcategories(ctx, snap.Subcategories) })
	save(entityTransactions, func() error { return e.repo.SaveTransactions(ctx, snap.Transactions) })
	save(entityLinks, func() error { return e.repo.SaveSubcategoryLinks(ctx, snap.SubcategoryLinks) })
	save(entitySeries, func() error { return e.repo.SaveSeries(ctx, snap.Series) })
	save(entityOccurrences, func() error { return e.repo.SaveOccurrences(ctx, snap.Occurrences) })
}

// Flush forces a synchronous write of pending dirty collections.
func (e *Engine) Flush() {
	e.flush()
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		Accounts:         e.state.accountList(),
		Categories:       e.state.categoryList(),
		Subcategories:    e.state.subcategoryList(),
		Transactions:     e.state.transactionList(),
		SubcategoryLinks: e.state.subcategoryLinks(),
		Series:           e.state.seriesList(),
		Occurrences:      e.state.occurrenceList(),
	}
}

// persistSnapshot writes the whole snapshot: atomically through the
// SyncSaver capability when available, per-collection otherwise.
func (e *Engine) persistSnapshot(ctx context.Context, snap Snapshot) error {
	if e.syncSaver != nil {
		if err := e.syncSaver.SaveAllSync(ctx, snap); err != nil {
			return &PersistenceError{Entity: "snapshot", Cause: err}
		}
		return nil
	}

	steps := []struct {
		entity string
		fn     func() error
	}{
		{entityAccounts, func() error { return e.repo.SaveAccounts(ctx, snap.Accounts) }},
		{entityCategories, func() error { return e.repo.SaveCategories(ctx, snap.Categories) }},
		{entitySubcategories, func() error { return e.repo.SaveSubcategories(ctx, snap.Subcategories) }},
		{entityTransactions, func() error { return e.repo.SaveTransactions(ctx, snap.Transactions) }},
		{entityLinks, func() error { return e.repo.SaveSubcategoryLinks(ctx, snap.SubcategoryLinks) }},
		{entitySeries, func() error { return e.repo.SaveSeries(ctx, snap.Series) }},
		{entityOccurrences, func() error { return e.repo.SaveOccurrences(ctx, snap.Occurrences) }},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			return &PersistenceError{Entity: step.entity, Cause: err}
		}
	}
	return nil
}
