/*
Package sqlite provides the SQLite-backed Repository for the ledger.

PURPOSE:
  Implements ledger.Repository and the ledger.SyncSaver capability.
  Collection saves replace the whole table inside one database
  transaction; the engine owns dirty tracking, so a save only arrives
  when something in that collection actually changed.

KEY TABLES:
  accounts:                  Account records with deposit metadata (JSON)
  categories, subcategories: Classification tree
  transactions:              The ledger entries
  transaction_subcategories: Transaction-to-subcategory join
  recurring_series:          Recurring templates (subscription JSON)
  recurring_occurrences:     Idempotence records for generation

INDEXES:
  - idx_transactions_date: range summaries and the sectioned view
  - idx_transactions_account: per-account listings
  - idx_transactions_series: cutover deletes
  - idx_occurrences_series_date (UNIQUE): one generated entry per
    (series, date), enforced at the storage layer too

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  st, err := sqlite.New("./data/ledger.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

  engine := ledger.NewEngine(st, ledger.Options{SyncSaver: st})

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - ledger/store.go: Interface definitions
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/ledger-engine/ledger"
)

// Store implements ledger.Repository and ledger.SyncSaver using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		currency TEXT NOT NULL,
		mode TEXT NOT NULL DEFAULT 'derived',
		initial_balance TEXT NOT NULL DEFAULT '0',
		deposit_json TEXT,
		display_order INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS subcategories (
		id TEXT PRIMARY KEY,
		category_id TEXT NOT NULL,
		name TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_subcategories_category
		ON subcategories(category_id);

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		description TEXT NOT NULL,
		amount TEXT NOT NULL,
		currency TEXT NOT NULL,
		tx_type TEXT NOT NULL,
		category_id TEXT,
		subcategory_id TEXT,
		account_id TEXT,
		account_name TEXT,
		target_account_id TEXT,
		target_account_name TEXT,
		target_currency TEXT,
		target_amount TEXT,
		series_id TEXT,
		occurrence_id TEXT,
		created_at TEXT NOT NULL
	);

	-- Range summaries and the sectioned view walk by date (hot path)
	CREATE INDEX IF NOT EXISTS idx_transactions_date
		ON transactions(date DESC, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_transactions_account
		ON transactions(account_id) WHERE account_id IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_transactions_series
		ON transactions(series_id) WHERE series_id IS NOT NULL;

	CREATE TABLE IF NOT EXISTS transaction_subcategories (
		transaction_id TEXT NOT NULL,
		subcategory_id TEXT NOT NULL,
		PRIMARY KEY (transaction_id, subcategory_id)
	);

	CREATE TABLE IF NOT EXISTS recurring_series (
		id TEXT PRIMARY KEY,
		description TEXT NOT NULL,
		amount TEXT NOT NULL,
		currency TEXT NOT NULL,
		tx_type TEXT NOT NULL,
		category_id TEXT,
		subcategory_id TEXT,
		account_id TEXT,
		target_account_id TEXT,
		freq_kind TEXT NOT NULL,
		interval_days INTEGER DEFAULT 0,
		start_date TEXT NOT NULL,
		end_date TEXT,
		active BOOLEAN DEFAULT TRUE,
		subscription_json TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS recurring_occurrences (
		id TEXT PRIMARY KEY,
		series_id TEXT NOT NULL,
		date TEXT NOT NULL,
		transaction_id TEXT NOT NULL
	);

	-- One generated entry per (series, date), even if the engine's
	-- in-memory idempotence check is bypassed
	CREATE UNIQUE INDEX IF NOT EXISTS idx_occurrences_series_date
		ON recurring_occurrences(series_id, date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func (s *Store) LoadAccounts(ctx context.Context) ([]ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, currency, mode, initial_balance, deposit_json, display_order FROM accounts ORDER BY display_order, id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []ledger.Account
	for rows.Next() {
		var a ledger.Account
		var initialBalance string
		var depositJSON sql.NullString
		if err := rows.Scan(&a.ID, &a.Name, &a.Currency, &a.Mode, &initialBalance, &depositJSON, &a.DisplayOrder); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		a.InitialBalance = ledger.MustParseDecimal(initialBalance)
		if depositJSON.Valid && depositJSON.String != "" {
			var meta ledger.DepositMeta
			if err := json.Unmarshal([]byte(depositJSON.String), &meta); err == nil {
				a.Deposit = &meta
			}
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (s *Store) SaveAccounts(ctx context.Context, accounts []ledger.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.saveAccountsTx(ctx, tx, accounts); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) saveAccountsTx(ctx context.Context, tx *sql.Tx, accounts []ledger.Account) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM accounts"); err != nil {
		return fmt.Errorf("failed to clear accounts: %w", err)
	}
	for _, a := range accounts {
		var depositJSON any
		if a.Deposit != nil {
			b, _ := json.Marshal(a.Deposit)
			depositJSON = string(b)
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO accounts (id, name, currency, mode, initial_balance, deposit_json, display_order) VALUES (?, ?, ?, ?, ?, ?, ?)",
			a.ID, a.Name, a.Currency, a.Mode, a.InitialBalance.String(), depositJSON, a.DisplayOrder,
		)
		if err != nil {
			return fmt.Errorf("failed to insert account: %w", err)
		}
	}
	return nil
}

// =============================================================================
// CATEGORIES / SUBCATEGORIES
// =============================================================================

func (s *Store) LoadCategories(ctx context.Context) ([]ledger.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM categories ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []ledger.Category
	for rows.Next() {
		var c ledger.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *Store) SaveCategories(ctx context.Context, categories []ledger.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.saveCategoriesTx(ctx, tx, categories); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) saveCategoriesTx(ctx context.Context, tx *sql.Tx, categories []ledger.Category) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM categories"); err != nil {
		return err
	}
	for _, c := range categories {
		if _, err := tx.ExecContext(ctx, "INSERT INTO categories (id, name) VALUES (?, ?)", c.ID, c.Name); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) LoadSubcategories(ctx context.Context) ([]ledger.Subcategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, category_id, name FROM subcategories ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query subcategories: %w", err)
	}
	defer rows.Close()

	var subcategories []ledger.Subcategory
	for rows.Next() {
		var sc ledger.Subcategory
		if err := rows.Scan(&sc.ID, &sc.CategoryID, &sc.Name); err != nil {
			return nil, err
		}
		subcategories = append(subcategories, sc)
	}
	return subcategories, rows.Err()
}

func (s *Store) SaveSubcategories(ctx context.Context, subcategories []ledger.Subcategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.saveSubcategoriesTx(ctx, tx, subcategories); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) saveSubcategoriesTx(ctx context.Context, tx *sql.Tx, subcategories []ledger.Subcategory) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM subcategories"); err != nil {
		return err
	}
	for _, sc := range subcategories {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO subcategories (id, category_id, name) VALUES (?, ?, ?)",
			sc.ID, sc.CategoryID, sc.Name,
		); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

const transactionColumns = `id, date, description, amount, currency, tx_type,
	category_id, subcategory_id, account_id, account_name,
	target_account_id, target_account_name, target_currency, target_amount,
	series_id, occurrence_id, created_at`

func (s *Store) LoadTransactions(ctx context.Context) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions ORDER BY date ASC, created_at ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []ledger.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func scanTransaction(rows *sql.Rows) (ledger.Transaction, error) {
	var (
		tx           ledger.Transaction
		date         string
		amount       string
		categoryID   sql.NullString
		subcatID     sql.NullString
		accountID    sql.NullString
		accountName  sql.NullString
		targetID     sql.NullString
		targetName   sql.NullString
		targetCur    sql.NullString
		targetAmount sql.NullString
		seriesID     sql.NullString
		occurrenceID sql.NullString
		createdAt    string
	)

	err := rows.Scan(
		&tx.ID, &date, &tx.Description, &amount, &tx.Currency, &tx.Type,
		&categoryID, &subcatID, &accountID, &accountName,
		&targetID, &targetName, &targetCur, &targetAmount,
		&seriesID, &occurrenceID, &createdAt,
	)
	if err != nil {
		return tx, fmt.Errorf("failed to scan transaction: %w", err)
	}

	tx.Date, _ = ledger.ParseDate(date)
	tx.Amount = ledger.MustParseDecimal(amount)
	tx.CategoryID = ledger.CategoryID(categoryID.String)
	tx.SubcategoryID = ledger.SubcategoryID(subcatID.String)
	tx.AccountID = ledger.AccountID(accountID.String)
	tx.AccountName = accountName.String
	tx.TargetAccountID = ledger.AccountID(targetID.String)
	tx.TargetAccountName = targetName.String
	tx.TargetCurrency = ledger.Currency(targetCur.String)
	if targetAmount.Valid && targetAmount.String != "" {
		tx.TargetAmount = ledger.MustParseDecimal(targetAmount.String)
	}
	tx.SeriesID = ledger.SeriesID(seriesID.String)
	tx.OccurrenceID = ledger.OccurrenceID(occurrenceID.String)
	tx.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return tx, nil
}

func (s *Store) SaveTransactions(ctx context.Context, txs []ledger.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := s.saveTransactionsTx(ctx, sqlTx, txs); err != nil {
		return err
	}
	return sqlTx.Commit()
}

func (s *Store) saveTransactionsTx(ctx context.Context, sqlTx *sql.Tx, txs []ledger.Transaction) error {
	if _, err := sqlTx.ExecContext(ctx, "DELETE FROM transactions"); err != nil {
		return fmt.Errorf("failed to clear transactions: %w", err)
	}

	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, tx := range txs {
		var targetAmount any
		if !tx.TargetAmount.IsZero() {
			targetAmount = tx.TargetAmount.String()
		}
		_, err := sqlTx.ExecContext(ctx, query,
			tx.ID,
			tx.Date.String(),
			tx.Description,
			tx.Amount.String(),
			tx.Currency,
			tx.Type,
			nullString(string(tx.CategoryID)),
			nullString(string(tx.SubcategoryID)),
			nullString(string(tx.AccountID)),
			nullString(tx.AccountName),
			nullString(string(tx.TargetAccountID)),
			nullString(tx.TargetAccountName),
			nullString(string(tx.TargetCurrency)),
			targetAmount,
			nullString(string(tx.SeriesID)),
			nullString(string(tx.OccurrenceID)),
			tx.CreatedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}
	}
	return nil
}

// DeleteTransaction removes a single record immediately, outside the
// batched save cycle, so a deletion survives an abrupt process kill.
func (s *Store) DeleteTransaction(ctx context.Context, id ledger.TransactionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}

// =============================================================================
// SUBCATEGORY LINKS
// =============================================================================

func (s *Store) LoadSubcategoryLinks(ctx context.Context) ([]ledger.TransactionSubcategoryLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT transaction_id, subcategory_id FROM transaction_subcategories",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query subcategory links: %w", err)
	}
	defer rows.Close()

	var links []ledger.TransactionSubcategoryLink
	for rows.Next() {
		var l ledger.TransactionSubcategoryLink
		if err := rows.Scan(&l.TransactionID, &l.SubcategoryID); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

func (s *Store) SaveSubcategoryLinks(ctx context.Context, links []ledger.TransactionSubcategoryLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.saveSubcategoryLinksTx(ctx, tx, links); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) saveSubcategoryLinksTx(ctx context.Context, tx *sql.Tx, links []ledger.TransactionSubcategoryLink) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM transaction_subcategories"); err != nil {
		return err
	}
	for _, l := range links {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO transaction_subcategories (transaction_id, subcategory_id) VALUES (?, ?)",
			l.TransactionID, l.SubcategoryID,
		); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// RECURRING SERIES / OCCURRENCES
// =============================================================================

func (s *Store) LoadSeries(ctx context.Context) ([]ledger.RecurringSeries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, description, amount, currency, tx_type, category_id, subcategory_id,
		       account_id, target_account_id, freq_kind, interval_days,
		       start_date, end_date, active, subscription_json, created_at
		FROM recurring_series ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query series: %w", err)
	}
	defer rows.Close()

	var series []ledger.RecurringSeries
	for rows.Next() {
		var (
			sr               ledger.RecurringSeries
			amount           string
			categoryID       sql.NullString
			subcatID         sql.NullString
			accountID        sql.NullString
			targetID         sql.NullString
			startDate        string
			endDate          sql.NullString
			subscriptionJSON sql.NullString
			createdAt        string
		)
		err := rows.Scan(
			&sr.ID, &sr.Description, &amount, &sr.Currency, &sr.Type, &categoryID, &subcatID,
			&accountID, &targetID, &sr.Frequency.Kind, &sr.Frequency.IntervalDays,
			&startDate, &endDate, &sr.Active, &subscriptionJSON, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan series: %w", err)
		}

		sr.Amount = ledger.MustParseDecimal(amount)
		sr.CategoryID = ledger.CategoryID(categoryID.String)
		sr.SubcategoryID = ledger.SubcategoryID(subcatID.String)
		sr.AccountID = ledger.AccountID(accountID.String)
		sr.TargetAccountID = ledger.AccountID(targetID.String)
		sr.StartDate, _ = ledger.ParseDate(startDate)
		if endDate.Valid && endDate.String != "" {
			if d, err := ledger.ParseDate(endDate.String); err == nil {
				sr.EndDate = &d
			}
		}
		if subscriptionJSON.Valid && subscriptionJSON.String != "" {
			var meta ledger.SubscriptionMeta
			if err := json.Unmarshal([]byte(subscriptionJSON.String), &meta); err == nil {
				sr.Subscription = &meta
			}
		}
		sr.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		series = append(series, sr)
	}
	return series, rows.Err()
}

func (s *Store) SaveSeries(ctx context.Context, series []ledger.RecurringSeries) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.saveSeriesTx(ctx, tx, series); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) saveSeriesTx(ctx context.Context, tx *sql.Tx, series []ledger.RecurringSeries) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM recurring_series"); err != nil {
		return err
	}

	query := `
		INSERT INTO recurring_series
		(id, description, amount, currency, tx_type, category_id, subcategory_id,
		 account_id, target_account_id, freq_kind, interval_days,
		 start_date, end_date, active, subscription_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, sr := range series {
		var endDate any
		if sr.EndDate != nil {
			endDate = sr.EndDate.String()
		}
		var subscriptionJSON any
		if sr.Subscription != nil {
			b, _ := json.Marshal(sr.Subscription)
			subscriptionJSON = string(b)
		}
		_, err := tx.ExecContext(ctx, query,
			sr.ID, sr.Description, sr.Amount.String(), sr.Currency, sr.Type,
			nullString(string(sr.CategoryID)),
			nullString(string(sr.SubcategoryID)),
			nullString(string(sr.AccountID)),
			nullString(string(sr.TargetAccountID)),
			sr.Frequency.Kind, sr.Frequency.IntervalDays,
			sr.StartDate.String(), endDate, sr.Active, subscriptionJSON,
			sr.CreatedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("failed to insert series: %w", err)
		}
	}
	return nil
}

func (s *Store) LoadOccurrences(ctx context.Context) ([]ledger.RecurringOccurrence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, series_id, date, transaction_id FROM recurring_occurrences ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query occurrences: %w", err)
	}
	defer rows.Close()

	var occurrences []ledger.RecurringOccurrence
	for rows.Next() {
		var o ledger.RecurringOccurrence
		var date string
		if err := rows.Scan(&o.ID, &o.SeriesID, &date, &o.TransactionID); err != nil {
			return nil, err
		}
		o.Date, _ = ledger.ParseDate(date)
		occurrences = append(occurrences, o)
	}
	return occurrences, rows.Err()
}

func (s *Store) SaveOccurrences(ctx context.Context, occurrences []ledger.RecurringOccurrence) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.saveOccurrencesTx(ctx, tx, occurrences); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) saveOccurrencesTx(ctx context.Context, tx *sql.Tx, occurrences []ledger.RecurringOccurrence) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM recurring_occurrences"); err != nil {
		return err
	}
	for _, o := range occurrences {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO recurring_occurrences (id, series_id, date, transaction_id) VALUES (?, ?, ?, ?)",
			o.ID, o.SeriesID, o.Date.String(), o.TransactionID,
		); err != nil {
			return fmt.Errorf("failed to insert occurrence: %w", err)
		}
	}
	return nil
}

// =============================================================================
// SYNC SAVER - atomic full snapshot in dependency order
// =============================================================================

// SaveAllSync writes the whole snapshot inside one database transaction:
// accounts -> categories -> subcategories -> transactions -> links ->
// series -> occurrences. Used at import completion and shutdown.
func (s *Store) SaveAllSync(ctx context.Context, snapshot ledger.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.saveAccountsTx(ctx, tx, snapshot.Accounts); err != nil {
		return err
	}
	if err := s.saveCategoriesTx(ctx, tx, snapshot.Categories); err != nil {
		return err
	}
	if err := s.saveSubcategoriesTx(ctx, tx, snapshot.Subcategories); err != nil {
		return err
	}
	if err := s.saveTransactionsTx(ctx, tx, snapshot.Transactions); err != nil {
		return err
	}
	if err := s.saveSubcategoryLinksTx(ctx, tx, snapshot.SubcategoryLinks); err != nil {
		return err
	}
	if err := s.saveSeriesTx(ctx, tx, snapshot.Series); err != nil {
		return err
	}
	if err := s.saveOccurrencesTx(ctx, tx, snapshot.Occurrences); err != nil {
		return err
	}
	return tx.Commit()
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"recurring_occurrences", "recurring_series", "transaction_subcategories",
		"transactions", "subcategories", "categories", "accounts",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
