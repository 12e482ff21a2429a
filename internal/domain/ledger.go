package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerTotals aggregates balances and entry amounts across the whole ledger.
type LedgerTotals struct {
	TotalBalance     decimal.Decimal
	TotalDeposits    decimal.Decimal
	TotalWithdrawals decimal.Decimal
	TotalSent        decimal.Decimal
	TotalReceived    decimal.Decimal
}

// BalanceMismatch is an account whose balance disagrees with its last entry.
type BalanceMismatch struct {
	AccountID        string
	Balance          decimal.Decimal
	LastBalanceAfter decimal.Decimal
}

// ConsistencyReport is the outcome of a ledger audit.
type ConsistencyReport struct {
	CheckedAt  time.Time
	Totals     LedgerTotals
	Mismatches []BalanceMismatch
	Consistent bool
}

// Conserved reports whether money was only created by deposits, only destroyed
// by withdrawals, and every transfer debit has a matching credit.
func (t LedgerTotals) Conserved() bool {
	expected := t.TotalDeposits.Sub(t.TotalWithdrawals)
	return t.TotalBalance.Equal(expected) && t.TotalSent.Equal(t.TotalReceived)
}
