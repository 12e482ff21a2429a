package postgres

import (
	"context"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/infrastructure/postgres/generated"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	queries *generated.Queries
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db generated.DBTX) *LedgerRepository {
	return &LedgerRepository{queries: generated.New(db)}
}

// Totals sums all balances and all entry amounts by kind.
func (r *LedgerRepository) Totals(ctx context.Context) (domain.LedgerTotals, error) {
	row, err := r.queries.GetLedgerTotals(ctx)
	if err != nil {
		return domain.LedgerTotals{}, mapError(err)
	}

	return domain.LedgerTotals{
		TotalBalance:     numericToDecimal(row.TotalBalance),
		TotalDeposits:    numericToDecimal(row.TotalDeposits),
		TotalWithdrawals: numericToDecimal(row.TotalWithdrawals),
		TotalSent:        numericToDecimal(row.TotalSent),
		TotalReceived:    numericToDecimal(row.TotalReceived),
	}, nil
}

// BalanceMismatches lists accounts whose balance differs from the balance
// recorded by their most recent entry.
func (r *LedgerRepository) BalanceMismatches(ctx context.Context) ([]domain.BalanceMismatch, error) {
	rows, err := r.queries.ListBalanceMismatches(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	var mismatches []domain.BalanceMismatch
	for _, row := range rows {
		mismatches = append(mismatches, domain.BalanceMismatch{
			AccountID:        row.ID,
			Balance:          numericToDecimal(row.Balance),
			LastBalanceAfter: numericToDecimal(row.LastBalanceAfter),
		})
	}

	return mismatches, nil
}
