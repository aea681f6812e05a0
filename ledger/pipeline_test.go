package ledger_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/ledger-engine/ledger"
	"github.com/warp/ledger-engine/ledger/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type testEngine struct {
	*ledger.Engine
	store *store.Memory
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()
	mem := store.NewMemory()
	e := ledger.NewEngine(mem, ledger.Options{
		BaseCurrency:   "USD",
		SyncSaver:      mem,
		Logger:         quietLogger(),
		NotifyDebounce: 20 * time.Millisecond,
		SaveDelay:      30 * time.Millisecond,
	})
	require.NoError(t, e.Load(context.Background()))
	t.Cleanup(func() { _ = e.Close(context.Background()) })
	return &testEngine{Engine: e, store: mem}
}

func (e *testEngine) account(t *testing.T, name string) ledger.Account {
	t.Helper()
	a, err := e.CreateAccount(ledger.Account{Name: name, Currency: "USD"})
	require.NoError(t, err)
	return a
}

func (e *testEngine) add(t *testing.T, tx ledger.Transaction) ledger.Transaction {
	t.Helper()
	added, err := e.AddTransaction(tx)
	require.NoError(t, err)
	return added
}

func entryFor(acct ledger.Account, typ ledger.TransactionType, amount string, day int) ledger.Transaction {
	return ledger.Transaction{
		Date:        march(day),
		Amount:      dec(amount),
		Currency:    "USD",
		Type:        typ,
		AccountID:   acct.ID,
		Description: fmt.Sprintf("%s %s", typ, amount),
	}
}

// waitSignal asserts a notification arrives within a generous window.
func waitSignal(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a change notification")
	}
}

// =============================================================================
// WRITE PATH - validation and side effects
// =============================================================================

func TestEngine_AddAssignsIDAndTimestamp(t *testing.T) {
	e := newTestEngine(t)
	acct := e.account(t, "Checking")

	added := e.add(t, entryFor(acct, ledger.TxIncome, "1000", 1))

	assert.NotEmpty(t, added.ID)
	assert.False(t, added.CreatedAt.IsZero())
	assert.Equal(t, "Checking", added.AccountName)

	e.WaitBalances()
	balance, err := e.Balance(acct.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("1000")))
}

func TestEngine_ValidationFailsFast(t *testing.T) {
	// GIVEN: An engine with one account
	e := newTestEngine(t)
	acct := e.account(t, "Checking")
	e.add(t, entryFor(acct, ledger.TxIncome, "100", 1))

	// WHEN: Invalid payloads arrive
	cases := []struct {
		name string
		tx   ledger.Transaction
		want error
	}{
		{"zero amount", ledger.Transaction{Amount: dec("0"), Type: ledger.TxExpense, AccountID: acct.ID, Date: march(1)}, ledger.ErrInvalidAmount},
		{"negative amount", ledger.Transaction{Amount: dec("-5"), Type: ledger.TxExpense, AccountID: acct.ID, Date: march(1)}, ledger.ErrInvalidAmount},
		{"unknown account", ledger.Transaction{Amount: dec("5"), Type: ledger.TxExpense, AccountID: "ghost", Date: march(1)}, ledger.ErrAccountNotFound},
		{"unknown target", ledger.Transaction{Amount: dec("5"), Type: ledger.TxTransfer, AccountID: acct.ID, TargetAccountID: "ghost", Date: march(1)}, ledger.ErrTargetAccountNotFound},
		{"unknown category", ledger.Transaction{Amount: dec("5"), Type: ledger.TxExpense, AccountID: acct.ID, CategoryID: "ghost", Date: march(1)}, ledger.ErrCategoryNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.AddTransaction(tc.tx)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	// THEN: State is untouched - only the one valid entry exists
	assert.Len(t, e.Transactions(), 1)
	e.WaitBalances()
	balance, err := e.Balance(acct.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("100")))
}

func TestEngine_UpdateRejectsIDMismatch(t *testing.T) {
	e := newTestEngine(t)
	acct := e.account(t, "Checking")
	added := e.add(t, entryFor(acct, ledger.TxExpense, "20", 3))

	bogus := added
	bogus.ID = "different-id"
	_, err := e.UpdateTransaction(added.ID, bogus)
	assert.ErrorIs(t, err, ledger.ErrIDMismatch)

	_, err = e.UpdateTransaction("missing", ledger.Transaction{Amount: dec("1"), Date: march(1)})
	assert.ErrorIs(t, err, ledger.ErrTransactionNotFound)
}

func TestEngine_UpdateCannotDropSeriesLink(t *testing.T) {
	// GIVEN: A generated transaction linked to its series
	e := newTestEngine(t)
	acct := e.account(t, "Checking")

	tx := entryFor(acct, ledger.TxExpense, "15.99", 5)
	tx.ID = "gen-1"
	tx.SeriesID = "series-1"
	e.AddGenerated([]ledger.Transaction{tx}, []ledger.RecurringOccurrence{
		{ID: "occ-1", SeriesID: "series-1", Date: march(5), TransactionID: "gen-1"},
	})

	// WHEN: An edit clears the link
	unlinked := tx
	unlinked.SeriesID = ""
	_, err := e.UpdateTransaction(tx.ID, unlinked)

	// THEN: The edit is refused
	assert.ErrorIs(t, err, ledger.ErrCannotRemoveRecurringLink)

	// Amount edits on the linked entry remain fine
	cheaper := tx
	cheaper.Amount = dec("9.99")
	_, err = e.UpdateTransaction(tx.ID, cheaper)
	assert.NoError(t, err)
}

func TestEngine_UpdateAdjustsBalanceByNet(t *testing.T) {
	e := newTestEngine(t)
	acct := e.account(t, "Checking")
	added := e.add(t, entryFor(acct, ledger.TxIncome, "100", 1))

	updated := added
	updated.Amount = dec("250")
	_, err := e.UpdateTransaction(added.ID, updated)
	require.NoError(t, err)

	e.WaitBalances()
	balance, err := e.Balance(acct.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("250")))
}

func TestEngine_DeleteRefusesProtectedEntries(t *testing.T) {
	e := newTestEngine(t)
	acct := e.account(t, "Deposit")
	interest := e.add(t, entryFor(acct, ledger.TxDepositInterest, "12.50", 28))

	err := e.DeleteTransaction(context.Background(), interest.ID)
	assert.ErrorIs(t, err, ledger.ErrCannotDeleteProtected)

	_, err = e.Transaction(interest.ID)
	assert.NoError(t, err)
}

func TestEngine_DeleteRemovesImmediatelyFromStore(t *testing.T) {
	// The repository delete must not wait for the batched save.
	e := newTestEngine(t)
	acct := e.account(t, "Checking")
	added := e.add(t, entryFor(acct, ledger.TxExpense, "40", 2))
	e.Flush()

	require.NoError(t, e.DeleteTransaction(context.Background(), added.ID))

	stored, err := e.store.LoadTransactions(context.Background())
	require.NoError(t, err)
	for _, tx := range stored {
		assert.NotEqual(t, added.ID, tx.ID)
	}

	err = e.DeleteTransaction(context.Background(), added.ID)
	assert.ErrorIs(t, err, ledger.ErrTransactionNotFound)
}

func TestEngine_DeleteKeepsOccurrenceRecord(t *testing.T) {
	// GIVEN: A generated entry with its occurrence record
	e := newTestEngine(t)
	acct := e.account(t, "Checking")

	tx := entryFor(acct, ledger.TxExpense, "9.99", 10)
	tx.ID = "gen-del"
	tx.SeriesID = "sub-1"
	e.AddGenerated([]ledger.Transaction{tx}, []ledger.RecurringOccurrence{
		{ID: "occ-del", SeriesID: "sub-1", Date: march(10), TransactionID: "gen-del"},
	})

	// WHEN: The user deletes the generated transaction
	require.NoError(t, e.DeleteTransaction(context.Background(), tx.ID))

	// THEN: The occurrence record survives, so regeneration for that date
	// is still blocked
	keys := e.SeriesOccurrenceKeys("sub-1")
	assert.True(t, keys[ledger.OccurrenceKey("sub-1", march(10))])
}

// =============================================================================
// IMPORT MODE
// =============================================================================

func TestEngine_ImportBatchesSideEffects(t *testing.T) {
	// GIVEN: A subscribed observer and an import of many rows
	e := newTestEngine(t)
	acct := e.account(t, "Checking")
	e.Flush()
	ch := e.Subscribe()
	drainPending(ch, 200*time.Millisecond)

	savesBefore := e.store.SyncSaveCount()

	e.BeginImport()
	for i := 1; i <= 200; i++ {
		tx := entryFor(acct, ledger.TxExpense, "1", (i%28)+1)
		tx.ID = ledger.TransactionID(fmt.Sprintf("imp-%d", i))
		e.add(t, tx)
	}
	require.NoError(t, e.FinishImport(context.Background()))

	// THEN: Exactly one synchronous save ran, one notification fired, and
	// the aggregates were rebuilt to match the imported rows
	assert.Equal(t, savesBefore+1, e.store.SyncSaveCount())
	waitSignal(t, ch)

	total := e.MonthlySummary(ledger.YearMonth{Year: 2025, Month: time.March})
	assert.True(t, total.Expense.Equal(dec("200")))

	e.WaitBalances()
	balance, err := e.Balance(acct.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("-200")))
}

func TestEngine_FinishImportWithoutBegin(t *testing.T) {
	e := newTestEngine(t)
	assert.ErrorIs(t, e.FinishImport(context.Background()), ledger.ErrImportNotActive)
}

// drainPending swallows any already-queued notification.
func drainPending(ch <-chan struct{}, window time.Duration) {
	deadline := time.After(window)
	for {
		select {
		case <-ch:
		case <-deadline:
			return
		}
	}
}

// =============================================================================
// NOTIFICATION COALESCING
// =============================================================================

func TestEngine_BurstCoalescesToOneNotification(t *testing.T) {
	// GIVEN: A subscriber and a rapid burst of writes
	e := newTestEngine(t)
	acct := e.account(t, "Checking")
	e.Flush()
	ch := e.Subscribe()
	drainPending(ch, 100*time.Millisecond)

	for i := 0; i < 20; i++ {
		e.add(t, entryFor(acct, ledger.TxExpense, "2", (i%28)+1))
	}

	// THEN: One coalesced signal arrives, then silence
	waitSignal(t, ch)
	select {
	case <-ch:
		// A second signal is tolerated only if the burst straddled the
		// debounce window; a third would mean coalescing is broken.
		select {
		case <-ch:
			t.Fatal("notifications were not coalesced")
		case <-time.After(200 * time.Millisecond):
		}
	case <-time.After(200 * time.Millisecond):
	}
}

// =============================================================================
// BATCHED PERSISTENCE
// =============================================================================

func TestEngine_SavesAreDebounced(t *testing.T) {
	// GIVEN: Several writes inside one save window
	e := newTestEngine(t)
	acct := e.account(t, "Checking")
	e.Flush()
	callsBefore := e.store.SaveCallCount()

	for i := 0; i < 10; i++ {
		e.add(t, entryFor(acct, ledger.TxExpense, "3", (i%28)+1))
	}

	// WHEN: The save window elapses
	require.Eventually(t, func() bool {
		return e.store.SaveCallCount() > callsBefore
	}, 2*time.Second, 10*time.Millisecond)

	// THEN: The burst needed far fewer saves than writes (transactions +
	// links per flush, not per write)
	assert.LessOrEqual(t, e.store.SaveCallCount()-callsBefore, 4)

	stored, err := e.store.LoadTransactions(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 10)
}

func TestEngine_CloseFlushesFinalSnapshot(t *testing.T) {
	mem := store.NewMemory()
	e := ledger.NewEngine(mem, ledger.Options{
		SyncSaver: mem,
		Logger:    quietLogger(),
		SaveDelay: time.Hour, // never fires on its own
	})
	require.NoError(t, e.Load(context.Background()))

	acct, err := e.CreateAccount(ledger.Account{Name: "Checking", Currency: "USD"})
	require.NoError(t, err)
	_, err = e.AddTransaction(entryFor(acct, ledger.TxIncome, "500", 1))
	require.NoError(t, err)

	require.NoError(t, e.Close(context.Background()))

	stored, err := mem.LoadTransactions(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 1)
	assert.Equal(t, 1, mem.SyncSaveCount())
}

// =============================================================================
// PERSISTED ROUND TRIP
// =============================================================================

func TestEngine_ReloadRestoresDerivedState(t *testing.T) {
	// GIVEN: An engine with accounts, entries, and a series, fully saved
	mem := store.NewMemory()
	opts := ledger.Options{SyncSaver: mem, Logger: quietLogger()}

	first := ledger.NewEngine(mem, opts)
	require.NoError(t, first.Load(context.Background()))
	acct, err := first.CreateAccount(ledger.Account{Name: "Checking", Currency: "USD"})
	require.NoError(t, err)
	_, err = first.AddTransaction(entryFor(acct, ledger.TxIncome, "1000", 1))
	require.NoError(t, err)
	_, err = first.AddTransaction(entryFor(acct, ledger.TxExpense, "300", 2))
	require.NoError(t, err)
	require.NoError(t, first.Close(context.Background()))

	// WHEN: A fresh engine hydrates from the same repository
	second := ledger.NewEngine(mem, opts)
	require.NoError(t, second.Load(context.Background()))
	t.Cleanup(func() { _ = second.Close(context.Background()) })

	// THEN: Balances and aggregates come back identical
	second.WaitBalances()
	balance, err := second.Balance(acct.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("700")))

	total := second.MonthlySummary(ledger.YearMonth{Year: 2025, Month: time.March})
	assert.True(t, total.Income.Equal(dec("1000")))
	assert.True(t, total.Expense.Equal(dec("300")))
}

// =============================================================================
// SERIES MANAGEMENT
// =============================================================================

func monthlySeries(desc string, day int) ledger.RecurringSeries {
	return ledger.RecurringSeries{
		Description: desc,
		Amount:      dec("15.99"),
		Currency:    "USD",
		Type:        ledger.TxExpense,
		Frequency:   ledger.Frequency{Kind: ledger.FreqMonthly},
		StartDate:   march(day),
		Active:      true,
	}
}

func TestEngine_SeriesValidation(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.CreateSeries(ledger.RecurringSeries{})
	assert.ErrorIs(t, err, ledger.ErrInvalidSeriesData)

	noStart := monthlySeries("Netflix", 1)
	noStart.StartDate = ledger.Date{}
	_, err = e.CreateSeries(noStart)
	assert.ErrorIs(t, err, ledger.ErrInvalidStartDate)

	backwards := monthlySeries("Netflix", 10)
	end := march(1)
	backwards.EndDate = &end
	_, err = e.CreateSeries(backwards)
	assert.ErrorIs(t, err, ledger.ErrInvalidSeriesData)

	ghost := monthlySeries("Netflix", 1)
	ghost.AccountID = "missing"
	_, err = e.CreateSeries(ghost)
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestEngine_SubscriptionStateMachine(t *testing.T) {
	// GIVEN: An active subscription series
	e := newTestEngine(t)
	s := monthlySeries("Spotify", 1)
	s.Subscription = &ledger.SubscriptionMeta{Status: ledger.SubscriptionActive}
	created, err := e.CreateSeries(s)
	require.NoError(t, err)

	// Valid: active -> paused -> active -> archived
	require.NoError(t, e.SetSubscriptionStatus(created.ID, ledger.SubscriptionPaused))
	require.NoError(t, e.SetSubscriptionStatus(created.ID, ledger.SubscriptionActive))
	require.NoError(t, e.SetSubscriptionStatus(created.ID, ledger.SubscriptionArchived))

	// Archived is terminal
	err = e.SetSubscriptionStatus(created.ID, ledger.SubscriptionActive)
	assert.ErrorIs(t, err, ledger.ErrInvalidStatusTransition)

	var transition *ledger.StatusTransitionError
	require.ErrorAs(t, err, &transition)
	assert.Equal(t, ledger.SubscriptionArchived, transition.From)
	assert.Equal(t, ledger.SubscriptionActive, transition.To)
}

func TestEngine_DeleteSeriesTransactionsFromCutoff(t *testing.T) {
	// GIVEN: A series with generated entries before and after a cutover date
	e := newTestEngine(t)
	acct := e.account(t, "Checking")
	created, err := e.CreateSeries(monthlySeries("Gym", 5))
	require.NoError(t, err)

	var txs []ledger.Transaction
	var occs []ledger.RecurringOccurrence
	for i, day := range []int{5, 12, 19, 26} {
		tx := entryFor(acct, ledger.TxExpense, "15.99", day)
		tx.ID = ledger.TransactionID(fmt.Sprintf("gym-%d", i))
		tx.SeriesID = created.ID
		txs = append(txs, tx)
		occs = append(occs, ledger.RecurringOccurrence{
			ID:            ledger.OccurrenceID(fmt.Sprintf("gym-occ-%d", i)),
			SeriesID:      created.ID,
			Date:          march(day),
			TransactionID: tx.ID,
		})
	}
	e.AddGenerated(txs, occs)

	// WHEN: Everything from the 19th onward is removed
	removed, err := e.DeleteSeriesTransactionsFrom(created.ID, march(19))
	require.NoError(t, err)

	// THEN: Two entries went, two stayed, and the removed occurrence keys
	// are free for regeneration under the new terms
	assert.Equal(t, 2, removed)
	assert.Len(t, e.Transactions(), 2)
	keys := e.SeriesOccurrenceKeys(created.ID)
	assert.True(t, keys[ledger.OccurrenceKey(created.ID, march(5))])
	assert.False(t, keys[ledger.OccurrenceKey(created.ID, march(19))])
}

// =============================================================================
// BASE CURRENCY
// =============================================================================

func TestEngine_SetBaseCurrencyRebuildsReports(t *testing.T) {
	mem := store.NewMemory()
	converter := ledger.NewStaticConverter()
	converter.SetRate("USD", "EUR", dec("0.9"))

	e := ledger.NewEngine(mem, ledger.Options{
		Converter: converter,
		SyncSaver: mem,
		Logger:    quietLogger(),
	})
	require.NoError(t, e.Load(context.Background()))
	t.Cleanup(func() { _ = e.Close(context.Background()) })

	acct, err := e.CreateAccount(ledger.Account{Name: "Checking", Currency: "USD"})
	require.NoError(t, err)
	_, err = e.AddTransaction(entryFor(acct, ledger.TxIncome, "100", 1))
	require.NoError(t, err)

	e.SetBaseCurrency("EUR")

	assert.Equal(t, ledger.Currency("EUR"), e.BaseCurrency())
	total := e.MonthlySummary(ledger.YearMonth{Year: 2025, Month: time.March})
	assert.True(t, total.Income.Equal(dec("90")))
}
