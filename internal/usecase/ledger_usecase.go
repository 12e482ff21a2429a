package usecase

import (
	"context"
	"time"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/infrastructure/metrics"
)

// LedgerUseCase handles ledger-wide operations.
type LedgerUseCase struct {
	ledgerRepo LedgerRepository
	metrics    *metrics.Metrics
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(ledgerRepo LedgerRepository, metrics *metrics.Metrics) *LedgerUseCase {
	return &LedgerUseCase{
		ledgerRepo: ledgerRepo,
		metrics:    metrics,
	}
}

// CheckConsistency audits the whole ledger:
//  1. the sum of balances equals deposits minus withdrawals,
//  2. every TRANSFER_SENT amount is matched by TRANSFER_RECEIVED amounts,
//  3. each balance equals the balance after its account's latest entry.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (*domain.ConsistencyReport, error) {
	totals, err := uc.ledgerRepo.Totals(ctx)
	if err != nil {
		return nil, err
	}

	mismatches, err := uc.ledgerRepo.BalanceMismatches(ctx)
	if err != nil {
		return nil, err
	}

	report := &domain.ConsistencyReport{
		CheckedAt:  time.Now().UTC(),
		Totals:     totals,
		Mismatches: mismatches,
		Consistent: totals.Conserved() && len(mismatches) == 0,
	}

	uc.metrics.RecordConsistency(report.Consistent)

	return report, nil
}
