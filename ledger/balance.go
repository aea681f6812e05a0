/*
balance.go - Balance Coordinator

PURPOSE:
  Single authoritative source for "what is this account's current
  balance". Balances are maintained as an explicit baseline plus a
  running signed delta sum, applied incrementally in O(1) per event -
  never recomputed by rescanning transaction history.

BALANCE MODES:
  Manual:  baseline is a user-entered absolute figure. Transactions
           still apply deltas on top so the account reflects entered
           activity, but the baseline is the manually set figure.
  Derived: baseline is an explicit initial balance (possibly zero);
           everything else comes from transaction history.

ORDERING:
  Same-currency deltas apply inline under the coordinator lock in
  submission order. Cross-currency deltas need an accurate async
  conversion and are queued to a single worker. A priority hint lets
  urgent updates jump ahead of bulk background ones, but an update for
  an account that already has queued work always queues behind it -
  priority affects latency, never per-account ordering.

TRANSFERS:
  A transfer debits the source and credits the target as one unit. If
  either leg has to queue, both legs queue together so a reader never
  observes only one side applied.
*/
package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// PRIORITY
// =============================================================================

type Priority int

const (
	// PriorityNormal: bulk/background updates (imports, generation).
	PriorityNormal Priority = iota
	// PriorityHigh: user-visible edits; scheduled ahead of normal work.
	PriorityHigh
)

// =============================================================================
// COORDINATOR
// =============================================================================

type trackedAccount struct {
	account  Account
	baseline decimal.Decimal
	deltaSum decimal.Decimal
}

type accountDelta struct {
	accountID AccountID
	amount    decimal.Decimal // signed, in `currency`
	currency  Currency
}

// deltaUnit is applied atomically: all legs or none visible.
type deltaUnit struct {
	deltas []accountDelta
}

type Coordinator struct {
	mu        sync.Mutex
	converter Converter
	log       *logrus.Entry

	accounts map[AccountID]*trackedAccount

	queueHigh   []deltaUnit
	queueNormal []deltaUnit
	// queued work per account, split by queue, to preserve FIFO per account
	pendingHigh   map[AccountID]int
	pendingNormal map[AccountID]int
	processing    bool

	idle *sync.Cond
	wake chan struct{}
	stop chan struct{}
	wg   sync.WaitGroup
}

func NewCoordinator(converter Converter, log *logrus.Entry) *Coordinator {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	c := &Coordinator{
		converter:     converter,
		log:           log.WithField("component", "balance"),
		accounts:      make(map[AccountID]*trackedAccount),
		pendingHigh:   make(map[AccountID]int),
		pendingNormal: make(map[AccountID]int),
		wake:          make(chan struct{}, 1),
		stop:          make(chan struct{}),
	}
	c.idle = sync.NewCond(&c.mu)
	c.wg.Add(1)
	go c.run()
	return c
}

// Close stops the async worker after draining queued work.
func (c *Coordinator) Close() {
	c.WaitIdle()
	close(c.stop)
	c.wg.Wait()
}

// =============================================================================
// ACCOUNT TRACKING
// =============================================================================

// RegisterAccounts is an idempotent bulk upsert of tracked accounts and
// their baselines. Already-accumulated delta sums are preserved.
func (c *Coordinator) RegisterAccounts(accounts []Account) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, a := range accounts {
		if existing, ok := c.accounts[a.ID]; ok {
			existing.account = a
			existing.baseline = a.InitialBalance
			continue
		}
		c.accounts[a.ID] = &trackedAccount{account: a, baseline: a.InitialBalance}
	}
}

// SetInitialBalance replaces the baseline without touching the delta sum.
func (c *Coordinator) SetInitialBalance(amount decimal.Decimal, id AccountID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.accounts[id]
	if !ok {
		c.logUnregistered(id, "set_initial_balance")
		return
	}
	t.baseline = amount
	t.account.InitialBalance = amount
}

// MarkManual flips the account to manual balance mode.
func (c *Coordinator) MarkManual(id AccountID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.accounts[id]
	if !ok {
		c.logUnregistered(id, "mark_manual")
		return
	}
	t.account.Mode = BalanceManual
}

// RemoveAccount discards the tracked balance.
func (c *Coordinator) RemoveAccount(id AccountID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.accounts, id)
}

// Balance returns baseline + delta sum for a tracked account.
func (c *Coordinator) Balance(id AccountID) (decimal.Decimal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.accounts[id]
	if !ok {
		return decimal.Zero, false
	}
	return t.baseline.Add(t.deltaSum), true
}

// Balances returns a snapshot of every tracked balance.
func (c *Coordinator) Balances() map[AccountID]decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[AccountID]decimal.Decimal, len(c.accounts))
	for id, t := range c.accounts {
		out[id] = t.baseline.Add(t.deltaSum)
	}
	return out
}

// =============================================================================
// INCREMENTAL UPDATES
// =============================================================================

// ApplyAdd credits/debits the accounts a new transaction affects.
func (c *Coordinator) ApplyAdd(tx Transaction, priority Priority) {
	c.submit(deltaUnit{deltas: transactionDeltas(tx, false)}, priority)
}

// ApplyRemove reverses a deleted transaction's effect.
func (c *Coordinator) ApplyRemove(tx Transaction, priority Priority) {
	c.submit(deltaUnit{deltas: transactionDeltas(tx, true)}, priority)
}

// ApplyUpdate reverses the old transaction and applies the new one as a
// single unit.
func (c *Coordinator) ApplyUpdate(old, updated Transaction, priority Priority) {
	deltas := transactionDeltas(old, true)
	deltas = append(deltas, transactionDeltas(updated, false)...)
	c.submit(deltaUnit{deltas: deltas}, priority)
}

// transactionDeltas computes the signed per-account deltas for one event.
// For transfer-like types both legs are emitted so they apply atomically.
func transactionDeltas(tx Transaction, reverse bool) []accountDelta {
	var deltas []accountDelta

	appendDelta := func(id AccountID, amount decimal.Decimal, currency Currency) {
		if id == "" {
			return // series without a bound account
		}
		if reverse {
			amount = amount.Neg()
		}
		deltas = append(deltas, accountDelta{accountID: id, amount: amount, currency: currency})
	}

	switch {
	case tx.IsTransferLike():
		appendDelta(tx.AccountID, tx.Amount.Neg(), tx.Currency)
		target := tx.TargetMoney()
		appendDelta(tx.TargetAccountID, target.Amount, target.Currency)
	case tx.IsIncomeLike():
		appendDelta(tx.AccountID, tx.Amount, tx.Currency)
	default: // expense
		appendDelta(tx.AccountID, tx.Amount.Neg(), tx.Currency)
	}
	return deltas
}

// submit applies the unit inline when possible, otherwise queues it.
func (c *Coordinator) submit(unit deltaUnit, priority Priority) {
	if len(unit.deltas) == 0 {
		return
	}

	c.mu.Lock()

	needsAsync := false
	behindNormal := false
	behindAny := false
	for _, d := range unit.deltas {
		if t, ok := c.accounts[d.accountID]; ok && d.currency != t.account.Currency {
			needsAsync = true
		}
		if c.pendingNormal[d.accountID] > 0 {
			behindNormal = true
		}
		if c.pendingHigh[d.accountID] > 0 || c.pendingNormal[d.accountID] > 0 {
			behindAny = true
		}
	}

	if !needsAsync && !behindAny {
		// Fast path: same-currency, nothing queued for these accounts.
		c.applyUnitLocked(unit, nil)
		c.mu.Unlock()
		return
	}

	// An account with queued normal work must not be overtaken, even by
	// a high-priority unit.
	if priority == PriorityHigh && !behindNormal {
		c.queueHigh = append(c.queueHigh, unit)
		c.notePending(unit, c.pendingHigh)
	} else {
		c.queueNormal = append(c.queueNormal, unit)
		c.notePending(unit, c.pendingNormal)
	}
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Coordinator) notePending(unit deltaUnit, pending map[AccountID]int) {
	for _, d := range unit.deltas {
		pending[d.accountID]++
	}
}

// applyUnitLocked folds the unit into the delta sums. converted, if
// non-nil, holds pre-converted amounts by delta index.
func (c *Coordinator) applyUnitLocked(unit deltaUnit, converted map[int]decimal.Decimal) {
	for i, d := range unit.deltas {
		t, ok := c.accounts[d.accountID]
		if !ok {
			// Validation upstream should make this unreachable; a hit
			// here is a programming-contract violation, not user error.
			c.logUnregistered(d.accountID, "apply_delta")
			continue
		}
		amount := d.amount
		if converted != nil {
			if conv, ok := converted[i]; ok {
				amount = conv
			}
		}
		t.deltaSum = t.deltaSum.Add(amount)
	}
}

// =============================================================================
// ASYNC WORKER - accurate conversion, FIFO drain
// =============================================================================

func (c *Coordinator) run() {
	defer c.wg.Done()
	for {
		select {
		case <-c.wake:
			c.drain()
		case <-c.stop:
			c.drain()
			return
		}
	}
}

func (c *Coordinator) drain() {
	for {
		c.mu.Lock()
		var unit deltaUnit
		var pending map[AccountID]int
		switch {
		case len(c.queueHigh) > 0:
			unit, c.queueHigh = c.queueHigh[0], c.queueHigh[1:]
			pending = c.pendingHigh
		case len(c.queueNormal) > 0:
			unit, c.queueNormal = c.queueNormal[0], c.queueNormal[1:]
			pending = c.pendingNormal
		default:
			c.processing = false
			c.idle.Broadcast()
			c.mu.Unlock()
			return
		}
		c.processing = true
		c.mu.Unlock()

		converted := c.convertUnit(unit)

		c.mu.Lock()
		c.applyUnitLocked(unit, converted)
		for _, d := range unit.deltas {
			if pending[d.accountID] > 0 {
				pending[d.accountID]--
			}
		}
		c.mu.Unlock()
	}
}

// convertUnit resolves cross-currency deltas into account currency using
// the accurate converter, falling back to the cached rate on failure.
func (c *Coordinator) convertUnit(unit deltaUnit) map[int]decimal.Decimal {
	converted := make(map[int]decimal.Decimal)
	for i, d := range unit.deltas {
		c.mu.Lock()
		t, ok := c.accounts[d.accountID]
		var target Currency
		if ok {
			target = t.account.Currency
		}
		c.mu.Unlock()

		if !ok || d.currency == target {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		amount, err := c.converter.Convert(ctx, d.amount, d.currency, target)
		cancel()
		if err != nil {
			c.log.WithFields(logrus.Fields{
				"account": d.accountID,
				"from":    d.currency,
				"to":      target,
			}).WithError(err).Warn("accurate conversion failed, using cached rate")
			amount = convertBestEffort(c.converter, d.amount, d.currency, target)
		}
		converted[i] = amount
	}
	return converted
}

// WaitIdle blocks until all queued balance work has been applied.
func (c *Coordinator) WaitIdle() {
	// Nudge the worker in case work was queued without a wake.
	select {
	case c.wake <- struct{}{}:
	default:
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.processing || len(c.queueHigh) > 0 || len(c.queueNormal) > 0 {
		c.idle.Wait()
	}
}

func (c *Coordinator) logUnregistered(id AccountID, op string) {
	c.log.WithFields(logrus.Fields{
		"account": id,
		"op":      op,
	}).Warn("balance update for unregistered account skipped")
}
