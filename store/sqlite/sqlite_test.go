package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/ledger-engine/ledger"
	"github.com/warp/ledger-engine/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func d(s string) ledger.Date {
	date, err := ledger.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return date
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func TestStore_AccountRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	accounts := []ledger.Account{
		{
			ID:             "checking",
			Name:           "Checking",
			Currency:       "USD",
			Mode:           ledger.BalanceDerived,
			InitialBalance: ledger.MustParseDecimal("150.25"),
			DisplayOrder:   1,
		},
		{
			ID:             "cd",
			Name:           "Certificate",
			Currency:       "USD",
			Mode:           ledger.BalanceDerived,
			InitialBalance: ledger.MustParseDecimal("10000"),
			Deposit: &ledger.DepositMeta{
				Principal:  ledger.MustParseDecimal("10000"),
				AnnualRate: ledger.MustParseDecimal("4.5"),
				PostingDay: 31,
				Capitalize: true,
			},
			DisplayOrder: 2,
		},
	}

	require.NoError(t, st.SaveAccounts(ctx, accounts))
	loaded, err := st.LoadAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, accounts[0].ID, loaded[0].ID)
	assert.True(t, loaded[0].InitialBalance.Equal(ledger.MustParseDecimal("150.25")))
	assert.Nil(t, loaded[0].Deposit)

	// Deposit metadata survives the JSON round trip
	require.NotNil(t, loaded[1].Deposit)
	assert.True(t, loaded[1].Deposit.AnnualRate.Equal(ledger.MustParseDecimal("4.5")))
	assert.Equal(t, 31, loaded[1].Deposit.PostingDay)
	assert.True(t, loaded[1].Deposit.Capitalize)
}

func TestStore_SaveReplacesCollection(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveAccounts(ctx, []ledger.Account{
		{ID: "a", Name: "A", Currency: "USD", Mode: ledger.BalanceDerived},
		{ID: "b", Name: "B", Currency: "USD", Mode: ledger.BalanceDerived},
	}))
	require.NoError(t, st.SaveAccounts(ctx, []ledger.Account{
		{ID: "b", Name: "B renamed", Currency: "USD", Mode: ledger.BalanceDerived},
	}))

	loaded, err := st.LoadAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "B renamed", loaded[0].Name)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func transactionFixture() ledger.Transaction {
	return ledger.Transaction{
		ID:          "tx-1",
		Date:        d("2025-03-15"),
		Description: "Groceries",
		Amount:      ledger.MustParseDecimal("45.99"),
		Currency:    "USD",
		Type:        ledger.TxExpense,
		CategoryID:  "food",
		AccountID:   "checking",
		AccountName: "Checking",
		CreatedAt:   time.Date(2025, time.March, 15, 10, 30, 0, 123456000, time.UTC),
	}
}

func TestStore_TransactionRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	transfer := ledger.Transaction{
		ID:                "tx-2",
		Date:              d("2025-03-16"),
		Description:       "To savings",
		Amount:            ledger.MustParseDecimal("200"),
		Currency:          "USD",
		Type:              ledger.TxTransfer,
		AccountID:         "checking",
		AccountName:       "Checking",
		TargetAccountID:   "savings",
		TargetAccountName: "Savings",
		TargetCurrency:    "EUR",
		TargetAmount:      ledger.MustParseDecimal("180"),
		CreatedAt:         time.Now().UTC(),
	}
	generated := ledger.Transaction{
		ID:           "tx-3",
		Date:         d("2025-03-17"),
		Description:  "Streaming",
		Amount:       ledger.MustParseDecimal("15.99"),
		Currency:     "USD",
		Type:         ledger.TxExpense,
		SeriesID:     "sub-1",
		OccurrenceID: "occ-1",
		CreatedAt:    time.Now().UTC(),
	}

	require.NoError(t, st.SaveTransactions(ctx, []ledger.Transaction{transactionFixture(), transfer, generated}))
	loaded, err := st.LoadTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 3)

	// Loaded in date order
	plain, tr, gen := loaded[0], loaded[1], loaded[2]

	assert.Equal(t, ledger.TransactionID("tx-1"), plain.ID)
	assert.True(t, plain.Amount.Equal(ledger.MustParseDecimal("45.99")))
	assert.Equal(t, ledger.CategoryID("food"), plain.CategoryID)
	assert.True(t, plain.Date.Equal(d("2025-03-15")))
	assert.Equal(t, transactionFixture().CreatedAt, plain.CreatedAt)
	assert.Empty(t, plain.TargetAccountID)

	assert.Equal(t, ledger.AccountID("savings"), tr.TargetAccountID)
	assert.Equal(t, ledger.Currency("EUR"), tr.TargetCurrency)
	assert.True(t, tr.TargetAmount.Equal(ledger.MustParseDecimal("180")))

	assert.Equal(t, ledger.SeriesID("sub-1"), gen.SeriesID)
	assert.Equal(t, ledger.OccurrenceID("occ-1"), gen.OccurrenceID)
}

func TestStore_DeleteTransaction(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveTransactions(ctx, []ledger.Transaction{transactionFixture()}))
	require.NoError(t, st.DeleteTransaction(ctx, "tx-1"))

	loaded, err := st.LoadTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)

	// Deleting an absent row is not an error
	assert.NoError(t, st.DeleteTransaction(ctx, "never-existed"))
}

// =============================================================================
// SERIES AND OCCURRENCES
// =============================================================================

func TestStore_SeriesRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	end := d("2026-01-01")
	series := []ledger.RecurringSeries{
		{
			ID:          "sub-1",
			Description: "Streaming",
			Amount:      ledger.MustParseDecimal("15.99"),
			Currency:    "USD",
			Type:        ledger.TxExpense,
			CategoryID:  "entertainment",
			AccountID:   "checking",
			Frequency:   ledger.Frequency{Kind: ledger.FreqMonthly},
			StartDate:   d("2025-01-15"),
			EndDate:     &end,
			Active:      true,
			Subscription: &ledger.SubscriptionMeta{
				Status:             ledger.SubscriptionPaused,
				ReminderDaysBefore: []int{3, 7},
				Brand:              "streamco",
			},
			CreatedAt: time.Now().UTC(),
		},
		{
			ID:          "custom-1",
			Description: "Every 10 days",
			Amount:      ledger.MustParseDecimal("5"),
			Currency:    "USD",
			Type:        ledger.TxExpense,
			Frequency:   ledger.Frequency{Kind: ledger.FreqCustom, IntervalDays: 10},
			StartDate:   d("2025-02-01"),
			Active:      false,
			CreatedAt:   time.Now().UTC(),
		},
	}

	require.NoError(t, st.SaveSeries(ctx, series))
	loaded, err := st.LoadSeries(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	custom, sub := loaded[0], loaded[1]

	require.NotNil(t, sub.Subscription)
	assert.Equal(t, ledger.SubscriptionPaused, sub.Subscription.Status)
	assert.Equal(t, []int{3, 7}, sub.Subscription.ReminderDaysBefore)
	assert.Equal(t, "streamco", sub.Subscription.Brand)
	require.NotNil(t, sub.EndDate)
	assert.True(t, sub.EndDate.Equal(end))
	assert.True(t, sub.Active)

	assert.Nil(t, custom.Subscription)
	assert.Nil(t, custom.EndDate)
	assert.False(t, custom.Active)
	assert.Equal(t, ledger.FreqCustom, custom.Frequency.Kind)
	assert.Equal(t, 10, custom.Frequency.IntervalDays)
}

func TestStore_OccurrenceRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	occurrences := []ledger.RecurringOccurrence{
		{ID: "occ-1", SeriesID: "sub-1", Date: d("2025-01-15"), TransactionID: "tx-1"},
		{ID: "occ-2", SeriesID: "sub-1", Date: d("2025-02-15"), TransactionID: "tx-2"},
	}

	require.NoError(t, st.SaveOccurrences(ctx, occurrences))
	loaded, err := st.LoadOccurrences(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, ledger.SeriesID("sub-1"), loaded[0].SeriesID)
	assert.True(t, loaded[0].Date.Equal(d("2025-01-15")))
}

func TestStore_OccurrenceUniquePerSeriesDate(t *testing.T) {
	// Two occurrences for the same (series, date) violate the unique index
	st := newTestStore(t)
	ctx := context.Background()

	err := st.SaveOccurrences(ctx, []ledger.RecurringOccurrence{
		{ID: "occ-1", SeriesID: "sub-1", Date: d("2025-01-15"), TransactionID: "tx-1"},
		{ID: "occ-dup", SeriesID: "sub-1", Date: d("2025-01-15"), TransactionID: "tx-2"},
	})
	assert.Error(t, err)
}

// =============================================================================
// CATEGORIES
// =============================================================================

func TestStore_CategoryTreeRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveCategories(ctx, []ledger.Category{{ID: "food", Name: "Food"}}))
	require.NoError(t, st.SaveSubcategories(ctx, []ledger.Subcategory{
		{ID: "groceries", CategoryID: "food", Name: "Groceries"},
	}))
	require.NoError(t, st.SaveSubcategoryLinks(ctx, []ledger.TransactionSubcategoryLink{
		{TransactionID: "tx-1", SubcategoryID: "groceries"},
	}))

	cats, err := st.LoadCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Food", cats[0].Name)

	subs, err := st.LoadSubcategories(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, ledger.CategoryID("food"), subs[0].CategoryID)

	links, err := st.LoadSubcategoryLinks(ctx)
	require.NoError(t, err)
	require.Len(t, links, 1)
}

// =============================================================================
// SYNC SAVE AND RESET
// =============================================================================

func TestStore_SaveAllSyncWritesEverything(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	snap := ledger.Snapshot{
		Accounts:     []ledger.Account{{ID: "checking", Name: "Checking", Currency: "USD", Mode: ledger.BalanceDerived}},
		Categories:   []ledger.Category{{ID: "food", Name: "Food"}},
		Transactions: []ledger.Transaction{transactionFixture()},
		Series: []ledger.RecurringSeries{{
			ID: "sub-1", Description: "Streaming", Amount: ledger.MustParseDecimal("15.99"),
			Currency: "USD", Type: ledger.TxExpense,
			Frequency: ledger.Frequency{Kind: ledger.FreqMonthly},
			StartDate: d("2025-01-15"), Active: true, CreatedAt: time.Now().UTC(),
		}},
		Occurrences: []ledger.RecurringOccurrence{
			{ID: "occ-1", SeriesID: "sub-1", Date: d("2025-01-15"), TransactionID: "tx-1"},
		},
	}

	require.NoError(t, st.SaveAllSync(ctx, snap))

	accounts, err := st.LoadAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
	txs, err := st.LoadTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
	series, err := st.LoadSeries(ctx)
	require.NoError(t, err)
	assert.Len(t, series, 1)
	occs, err := st.LoadOccurrences(ctx)
	require.NoError(t, err)
	assert.Len(t, occs, 1)
}

func TestStore_Reset(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveTransactions(ctx, []ledger.Transaction{transactionFixture()}))
	require.NoError(t, st.Reset(ctx))

	txs, err := st.LoadTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

// =============================================================================
// ENGINE INTEGRATION - persistence through the real store
// =============================================================================

func TestStore_EnginePersistsAndReloads(t *testing.T) {
	// GIVEN: An engine writing through the SQLite store
	st := newTestStore(t)
	ctx := context.Background()

	engine := ledger.NewEngine(st, ledger.Options{SyncSaver: st})
	require.NoError(t, engine.Load(ctx))

	acct, err := engine.CreateAccount(ledger.Account{Name: "Checking", Currency: "USD"})
	require.NoError(t, err)
	_, err = engine.AddTransaction(ledger.Transaction{
		Date:      d("2025-03-01"),
		Amount:    ledger.MustParseDecimal("1000"),
		Currency:  "USD",
		Type:      ledger.TxIncome,
		AccountID: acct.ID,
	})
	require.NoError(t, err)
	require.NoError(t, engine.Close(ctx))

	// WHEN: A second engine loads from the same database
	reloaded := ledger.NewEngine(st, ledger.Options{SyncSaver: st})
	require.NoError(t, reloaded.Load(ctx))
	t.Cleanup(func() { _ = reloaded.Close(ctx) })

	// THEN: The balance is reconstructed from the persisted rows
	reloaded.WaitBalances()
	balance, err := reloaded.Balance(acct.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(ledger.MustParseDecimal("1000")))
}
