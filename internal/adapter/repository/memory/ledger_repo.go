package memory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	store *Store
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(store *Store) *LedgerRepository {
	return &LedgerRepository{store: store}
}

// Totals sums all balances and all entry amounts by kind.
func (r *LedgerRepository) Totals(ctx context.Context) (domain.LedgerTotals, error) {
	if err := ctx.Err(); err != nil {
		return domain.LedgerTotals{}, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	totals := domain.LedgerTotals{
		TotalBalance:     decimal.Zero,
		TotalDeposits:    decimal.Zero,
		TotalWithdrawals: decimal.Zero,
		TotalSent:        decimal.Zero,
		TotalReceived:    decimal.Zero,
	}

	for _, acc := range r.store.accounts {
		totals.TotalBalance = totals.TotalBalance.Add(acc.Balance)
	}

	for _, e := range r.store.entries {
		switch e.Kind() {
		case domain.KindDeposit:
			totals.TotalDeposits = totals.TotalDeposits.Add(e.Amount)
		case domain.KindWithdrawal:
			totals.TotalWithdrawals = totals.TotalWithdrawals.Add(e.Amount)
		case domain.KindTransferSent:
			totals.TotalSent = totals.TotalSent.Add(e.Amount)
		case domain.KindTransferReceived:
			totals.TotalReceived = totals.TotalReceived.Add(e.Amount)
		}
	}

	return totals, nil
}

// BalanceMismatches lists accounts whose balance differs from the balance
// recorded by their most recent entry, or from zero when they have none.
func (r *LedgerRepository) BalanceMismatches(ctx context.Context) ([]domain.BalanceMismatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	latest := make(map[string]*domain.Entry, len(r.store.accounts))
	for _, e := range r.store.entries {
		cur, ok := latest[e.AccountID]
		if !ok || e.CreatedAt.After(cur.CreatedAt) || (e.CreatedAt.Equal(cur.CreatedAt) && e.ID > cur.ID) {
			latest[e.AccountID] = e
		}
	}

	var mismatches []domain.BalanceMismatch
	for _, acc := range r.store.accounts {
		last := decimal.Zero
		if e, ok := latest[acc.ID]; ok {
			last = e.BalanceAfter
		}

		if !acc.Balance.Equal(last) {
			mismatches = append(mismatches, domain.BalanceMismatch{
				AccountID:        acc.ID,
				Balance:          acc.Balance,
				LastBalanceAfter: last,
			})
		}
	}

	sortMismatches(mismatches)

	return mismatches, nil
}
