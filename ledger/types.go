/*
Package ledger provides the core personal-finance ledger engine.

PURPOSE:
  This package contains the event-sourced transaction store and everything
  that must stay consistent with it: per-account balances, category and
  monthly aggregates, read-side caches, and the sectioned read view. Every
  mutation flows through one apply pipeline so side effects happen in a
  fixed, auditable order.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: An amount with a currency code
  - Transaction: An immutable ledger entry with a content-derived id
  - Typed IDs: Strong typing prevents mixing account/category/series ids

DESIGN PRINCIPLES:
  1. Immutability: Transactions are replaced, never edited in place
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Single writer: All mutation is serialized through the Engine
  4. Derivability: Balances and aggregates are always reconstructible
     from the transaction set

SEE ALSO:
  - pipeline.go: The apply pipeline (Engine)
  - balance.go: Per-account balance coordination
  - aggregate.go: Category/monthly running totals
*/
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Amount with currency
// =============================================================================

type Currency string

type Money struct {
	Amount   decimal.Decimal
	Currency Currency
}

func NewMoney(amount float64, currency Currency) Money {
	return Money{Amount: decimal.NewFromFloat(amount), Currency: currency}
}

func NewMoneyFromInt(amount int, currency Currency) Money {
	return Money{Amount: decimal.NewFromInt(int64(amount)), Currency: currency}
}

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (m Money) Zero() Money            { return Money{Amount: decimal.Zero, Currency: m.Currency} }
func (m Money) Add(b Money) Money      { return Money{Amount: m.Amount.Add(b.Amount), Currency: m.Currency} }
func (m Money) Sub(b Money) Money      { return Money{Amount: m.Amount.Sub(b.Amount), Currency: m.Currency} }
func (m Money) Neg() Money             { return Money{Amount: m.Amount.Neg(), Currency: m.Currency} }
func (m Money) IsZero() bool           { return m.Amount.IsZero() }
func (m Money) IsNegative() bool       { return m.Amount.IsNegative() }
func (m Money) IsPositive() bool       { return m.Amount.IsPositive() }
func (m Money) Equal(b Money) bool     { return m.Currency == b.Currency && m.Amount.Equal(b.Amount) }
func (m Money) String() string         { return fmt.Sprintf("%s %s", m.Amount.String(), m.Currency) }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type TransactionID string
type AccountID string
type CategoryID string
type SubcategoryID string
type SeriesID string
type OccurrenceID string

// =============================================================================
// TRANSACTION - Immutable ledger entry
// =============================================================================

type TransactionType string

const (
	TxIncome            TransactionType = "income"
	TxExpense           TransactionType = "expense"
	TxTransfer          TransactionType = "transfer"
	TxDepositTopUp      TransactionType = "deposit_top_up"
	TxDepositWithdrawal TransactionType = "deposit_withdrawal"
	TxDepositInterest   TransactionType = "deposit_interest"
)

// Transaction is an immutable value. Updates replace the whole record;
// the id is derived from content plus the creation timestamp so two
// intentionally identical entries still get distinct ids.
type Transaction struct {
	ID          TransactionID
	Date        Date
	Description string
	Amount      decimal.Decimal // always > 0; sign is implied by Type
	Currency    Currency
	Type        TransactionType

	CategoryID    CategoryID
	SubcategoryID SubcategoryID // optional

	// Source account (the debited side for transfer-like types).
	AccountID   AccountID
	AccountName string

	// Target side, set for transfer-like types only.
	TargetAccountID   AccountID
	TargetAccountName string
	TargetCurrency    Currency        // for cross-currency transfers
	TargetAmount      decimal.Decimal // amount credited to the target

	// Link back to the recurring series that generated this entry.
	SeriesID     SeriesID
	OccurrenceID OccurrenceID

	CreatedAt time.Time
}

// IsTransferLike reports whether the transaction moves value between two
// accounts rather than in or out of the ledger.
func (t Transaction) IsTransferLike() bool {
	switch t.Type {
	case TxTransfer, TxDepositTopUp, TxDepositWithdrawal:
		return true
	}
	return false
}

// IsIncomeLike reports whether the transaction credits value into the ledger.
func (t Transaction) IsIncomeLike() bool {
	return t.Type == TxIncome || t.Type == TxDepositInterest
}

// IsProtected reports whether the transaction may not be deleted by the user.
// System-generated deposit interest entries are the only protected kind.
func (t Transaction) IsProtected() bool {
	return t.Type == TxDepositInterest
}

// Money returns the source-side amount.
func (t Transaction) Money() Money {
	return Money{Amount: t.Amount, Currency: t.Currency}
}

// TargetMoney returns the amount credited to the target account. For
// same-currency transfers the target amount defaults to the source amount.
func (t Transaction) TargetMoney() Money {
	currency := t.TargetCurrency
	if currency == "" {
		currency = t.Currency
	}
	amount := t.TargetAmount
	if amount.IsZero() {
		amount = t.Amount
	}
	return Money{Amount: amount, Currency: currency}
}

// ComputeID derives the content hash id: normalized date, description,
// amount, type, currency, and the creation timestamp. Including the
// timestamp allows intentional duplicates to coexist.
func (t Transaction) ComputeID() TransactionID {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s|%d",
		t.Date.String(),
		t.Description,
		t.Amount.String(),
		t.Type,
		t.Currency,
		t.CreatedAt.UTC().UnixNano(),
	)
	return TransactionID(hex.EncodeToString(h.Sum(nil))[:32])
}

// =============================================================================
// CATEGORIES
// =============================================================================

type Category struct {
	ID   CategoryID
	Name string
}

type Subcategory struct {
	ID         SubcategoryID
	CategoryID CategoryID
	Name       string
}

// TransactionSubcategoryLink is the persisted join between a transaction
// and its subcategory. Derived from the transaction set at save time.
type TransactionSubcategoryLink struct {
	TransactionID TransactionID
	SubcategoryID SubcategoryID
}
