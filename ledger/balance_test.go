package ledger_test

import (
	"io"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/ledger-engine/ledger"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func dec(s string) decimal.Decimal {
	return ledger.MustParseDecimal(s)
}

func usdAccount(id string) ledger.Account {
	return ledger.Account{
		ID:       ledger.AccountID(id),
		Name:     id,
		Currency: "USD",
		Mode:     ledger.BalanceDerived,
	}
}

func incomeTx(account string, amount string) ledger.Transaction {
	return ledger.Transaction{
		ID:        ledger.TransactionID("tx-" + account + "-" + amount),
		Date:      ledger.NewDate(2025, time.March, 10),
		Amount:    dec(amount),
		Currency:  "USD",
		Type:      ledger.TxIncome,
		AccountID: ledger.AccountID(account),
	}
}

func expenseTx(account string, amount string) ledger.Transaction {
	tx := incomeTx(account, amount)
	tx.Type = ledger.TxExpense
	return tx
}

func transferTx(from, to string, amount string) ledger.Transaction {
	return ledger.Transaction{
		ID:              ledger.TransactionID("tr-" + from + "-" + to),
		Date:            ledger.NewDate(2025, time.March, 10),
		Amount:          dec(amount),
		Currency:        "USD",
		Type:            ledger.TxTransfer,
		AccountID:       ledger.AccountID(from),
		TargetAccountID: ledger.AccountID(to),
	}
}

func newCoordinator(t *testing.T, accounts ...ledger.Account) *ledger.Coordinator {
	t.Helper()
	c := ledger.NewCoordinator(ledger.NewStaticConverter(), quietLogger())
	t.Cleanup(c.Close)
	c.RegisterAccounts(accounts)
	return c
}

func balanceOf(t *testing.T, c *ledger.Coordinator, id string) decimal.Decimal {
	t.Helper()
	b, ok := c.Balance(ledger.AccountID(id))
	require.True(t, ok)
	return b
}

// =============================================================================
// DERIVED BALANCES - incremental deltas
// =============================================================================

func TestCoordinator_IncomeThenDelete_RoundTrips(t *testing.T) {
	// GIVEN: A derived account at zero
	c := newCoordinator(t, usdAccount("checking"))

	// WHEN: An income of 1000 is applied
	tx := incomeTx("checking", "1000")
	c.ApplyAdd(tx, ledger.PriorityHigh)
	c.WaitIdle()

	// THEN: Balance rises by exactly 1000
	assert.True(t, balanceOf(t, c, "checking").Equal(dec("1000")))

	// WHEN: The same transaction is removed
	c.ApplyRemove(tx, ledger.PriorityHigh)
	c.WaitIdle()

	// THEN: Balance returns to the pre-add value
	assert.True(t, balanceOf(t, c, "checking").IsZero())
}

func TestCoordinator_ExpenseDebits(t *testing.T) {
	c := newCoordinator(t, usdAccount("checking"))
	c.SetInitialBalance(dec("500"), "checking")

	c.ApplyAdd(expenseTx("checking", "120.50"), ledger.PriorityHigh)
	c.WaitIdle()

	assert.True(t, balanceOf(t, c, "checking").Equal(dec("379.5")))
}

func TestCoordinator_UpdateIsSingleUnit(t *testing.T) {
	// Editing 100 -> 250 must net exactly +150, never an intermediate state
	c := newCoordinator(t, usdAccount("checking"))

	old := incomeTx("checking", "100")
	c.ApplyAdd(old, ledger.PriorityHigh)

	updated := old
	updated.Amount = dec("250")
	c.ApplyUpdate(old, updated, ledger.PriorityHigh)
	c.WaitIdle()

	assert.True(t, balanceOf(t, c, "checking").Equal(dec("250")))
}

func TestCoordinator_SetInitialBalancePreservesDeltas(t *testing.T) {
	// GIVEN: An account with accumulated transaction deltas
	c := newCoordinator(t, usdAccount("checking"))
	c.ApplyAdd(incomeTx("checking", "300"), ledger.PriorityHigh)
	c.WaitIdle()

	// WHEN: The baseline is replaced
	c.SetInitialBalance(dec("1000"), "checking")

	// THEN: Deltas still apply on top of the new baseline
	assert.True(t, balanceOf(t, c, "checking").Equal(dec("1300")))
}

func TestCoordinator_ManualModeKeepsApplyingDeltas(t *testing.T) {
	c := newCoordinator(t, usdAccount("wallet"))
	c.SetInitialBalance(dec("200"), "wallet")
	c.MarkManual("wallet")

	c.ApplyAdd(expenseTx("wallet", "50"), ledger.PriorityHigh)
	c.WaitIdle()

	assert.True(t, balanceOf(t, c, "wallet").Equal(dec("150")))
}

// =============================================================================
// TRANSFERS - atomic two-leg units
// =============================================================================

func TestCoordinator_TransferMovesBothLegs(t *testing.T) {
	c := newCoordinator(t, usdAccount("checking"), usdAccount("savings"))
	c.SetInitialBalance(dec("1000"), "checking")

	c.ApplyAdd(transferTx("checking", "savings", "200"), ledger.PriorityHigh)
	c.WaitIdle()

	assert.True(t, balanceOf(t, c, "checking").Equal(dec("800")))
	assert.True(t, balanceOf(t, c, "savings").Equal(dec("200")))
}

func TestCoordinator_TransferNetsToZeroAcrossAccounts(t *testing.T) {
	// A same-currency transfer never creates or destroys value
	c := newCoordinator(t, usdAccount("a"), usdAccount("b"))

	tx := transferTx("a", "b", "75.25")
	c.ApplyAdd(tx, ledger.PriorityNormal)
	c.ApplyRemove(tx, ledger.PriorityNormal)
	c.WaitIdle()

	assert.True(t, balanceOf(t, c, "a").IsZero())
	assert.True(t, balanceOf(t, c, "b").IsZero())
}

func TestCoordinator_CrossCurrencyTransferConvertsTargetLeg(t *testing.T) {
	// GIVEN: A USD account and a EUR account with a known rate
	converter := ledger.NewStaticConverter()
	converter.SetRate("USD", "EUR", dec("0.9"))

	c := ledger.NewCoordinator(converter, quietLogger())
	t.Cleanup(c.Close)
	eur := usdAccount("eur-account")
	eur.Currency = "EUR"
	c.RegisterAccounts([]ledger.Account{usdAccount("usd-account"), eur})

	// WHEN: 100 USD is transferred into the EUR account
	c.ApplyAdd(transferTx("usd-account", "eur-account", "100"), ledger.PriorityHigh)
	c.WaitIdle()

	// THEN: The source drops 100 USD, the target gains the converted amount
	assert.True(t, balanceOf(t, c, "usd-account").Equal(dec("-100")))
	assert.True(t, balanceOf(t, c, "eur-account").Equal(dec("90")))
}

// =============================================================================
// ORDERING AND PRIORITY
// =============================================================================

func TestCoordinator_RandomSequenceConsistency(t *testing.T) {
	// GIVEN: A random mix of adds/removes at random priorities
	// THEN: The final balance equals the arithmetic sum, regardless of
	//       which path (inline or queued) each unit took.
	c := newCoordinator(t, usdAccount("acct"))
	rng := rand.New(rand.NewSource(42))

	expected := decimal.Zero
	for i := 0; i < 500; i++ {
		amount := decimal.NewFromInt(int64(rng.Intn(1000) + 1))
		priority := ledger.PriorityNormal
		if rng.Intn(2) == 0 {
			priority = ledger.PriorityHigh
		}

		tx := incomeTx("acct", amount.String())
		if rng.Intn(2) == 0 {
			tx.Type = ledger.TxExpense
			expected = expected.Sub(amount)
		} else {
			expected = expected.Add(amount)
		}
		c.ApplyAdd(tx, priority)
	}
	c.WaitIdle()

	assert.True(t, balanceOf(t, c, "acct").Equal(expected),
		"got %s want %s", balanceOf(t, c, "acct"), expected)
}

func TestCoordinator_RemoveAccountDropsTracking(t *testing.T) {
	c := newCoordinator(t, usdAccount("gone"))
	c.RemoveAccount("gone")

	_, ok := c.Balance("gone")
	assert.False(t, ok)

	// Deltas for untracked accounts are skipped, not fatal
	c.ApplyAdd(incomeTx("gone", "10"), ledger.PriorityHigh)
	c.WaitIdle()
}

func TestCoordinator_RegisterIsIdempotentUpsert(t *testing.T) {
	c := newCoordinator(t, usdAccount("acct"))
	c.ApplyAdd(incomeTx("acct", "100"), ledger.PriorityHigh)
	c.WaitIdle()

	// Re-registering keeps the accumulated delta sum
	renamed := usdAccount("acct")
	renamed.Name = "renamed"
	c.RegisterAccounts([]ledger.Account{renamed})

	assert.True(t, balanceOf(t, c, "acct").Equal(dec("100")))
}
