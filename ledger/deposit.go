/*
deposit.go - Deposit interest accrual

PURPOSE:
  Deposit accounts earn monthly interest, posted on the account's
  configured posting day as a protected ledger entry. Protected entries
  record bank-side value changes; deleting one would silently desync the
  ledger from the real account, so the pipeline refuses.

IDEMPOTENCE:
  At most one interest entry per account per calendar month. The daily
  scheduler calls in repeatedly; a month that already has its posting is
  skipped.
*/
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var monthsPerYearTimesPercent = decimal.NewFromInt(1200)

// DepositInterestFor computes the interest entry due for a deposit
// account as of the given date, if any. balance is the account's current
// derived balance, used as the accrual base when the deposit capitalizes;
// otherwise interest accrues on the fixed principal.
func DepositInterestFor(acct Account, existing []Transaction, balance decimal.Decimal, asOf Date) (Transaction, bool) {
	if !acct.IsDeposit() || acct.Deposit.AnnualRate.IsZero() {
		return Transaction{}, false
	}

	postingDay := acct.Deposit.PostingDay
	if postingDay < 1 {
		postingDay = 1
	}
	posting := ClampedDate(asOf.Year(), asOf.Month(), postingDay)
	if asOf.Before(posting) {
		return Transaction{}, false
	}

	ym := posting.YearMonth()
	for _, tx := range existing {
		if tx.Type == TxDepositInterest && tx.AccountID == acct.ID && tx.Date.YearMonth() == ym {
			return Transaction{}, false
		}
	}

	base := acct.Deposit.Principal
	if acct.Deposit.Capitalize {
		base = balance
	}
	amount := base.Mul(acct.Deposit.AnnualRate).Div(monthsPerYearTimesPercent).Round(2)
	if !amount.IsPositive() {
		return Transaction{}, false
	}

	tx := Transaction{
		Date:        posting,
		Description: fmt.Sprintf("Interest %s", posting.Time().Format("January 2006")),
		Amount:      amount,
		Currency:    acct.Currency,
		Type:        TxDepositInterest,
		AccountID:   acct.ID,
		AccountName: acct.Name,
	}
	return tx, true
}
