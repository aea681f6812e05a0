package ledger

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// ACCOUNT - Balance mode, deposit metadata
// =============================================================================

// BalanceMode determines how an account's balance baseline is established.
type BalanceMode string

const (
	// BalanceManual: the baseline is a user-entered absolute figure.
	// Transactions still apply incremental deltas on top of it.
	BalanceManual BalanceMode = "manual"

	// BalanceDerived: the baseline is an explicit initial balance
	// (possibly zero); everything else comes from transaction history.
	BalanceDerived BalanceMode = "derived"
)

// DepositMeta describes interest-bearing deposit accounts. Interest is
// posted monthly on PostingDay by the scheduler as protected transactions.
type DepositMeta struct {
	Principal  decimal.Decimal
	AnnualRate decimal.Decimal // percent, e.g. 4.5
	PostingDay int             // day of month, clamped to month length
	Capitalize bool            // accrue on current balance instead of principal
}

// Account is identified by id. The authoritative numeric balance is NOT
// stored here - it is owned by the Coordinator.
type Account struct {
	ID             AccountID
	Name           string
	Currency       Currency
	Mode           BalanceMode
	InitialBalance decimal.Decimal
	Deposit        *DepositMeta
	DisplayOrder   int
}

// IsDeposit reports whether the account carries deposit metadata.
func (a Account) IsDeposit() bool { return a.Deposit != nil }
