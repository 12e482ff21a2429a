package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/infrastructure/postgres/generated"
	"github.com/iho/bankledger/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	queries *generated.Queries
	idGen   usecase.IDGenerator
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(db generated.DBTX, idGen usecase.IDGenerator) *EntryRepository {
	return &EntryRepository{
		queries: generated.New(db),
		idGen:   idGen,
	}
}

// Append inserts entry within tx, assigning its id and timestamp when unset.
func (r *EntryRepository) Append(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	if entry.ID == "" {
		entry.ID = r.idGen.Generate()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	params := generated.CreateEntryParams{
		ID:           entry.ID,
		AccountID:    entry.AccountID,
		Kind:         string(entry.Kind()),
		Amount:       decimalToNumeric(entry.Amount),
		Description:  entry.Description,
		BalanceAfter: decimalToNumeric(entry.BalanceAfter),
		Status:       string(entry.Status),
		CreatedAt:    timeToPgTimestamptz(entry.CreatedAt),
	}
	if leg, ok := entry.Transfer(); ok {
		params.TransferID = stringToText(leg.TransferID)
		params.SenderAccountNumber = stringToText(leg.SenderAccountNumber)
		params.RecipientAccountNumber = stringToText(leg.RecipientAccountNumber)
	}

	return mapError(queries.CreateEntry(ctx, params))
}

// GetByID retrieves an entry by ID.
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*domain.Entry, error) {
	row, err := r.queries.GetEntryByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}

		return nil, mapError(err)
	}

	return rowToEntry(row)
}

// ListByAccount lists all entries of an account, newest first.
func (r *EntryRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.Entry, error) {
	return rowsToEntries(r.queries.ListEntriesByAccount(ctx, accountID))
}

// ListByAccountPage lists one window of an account's entries, newest first.
func (r *EntryRepository) ListByAccountPage(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error) {
	if offset < 0 || limit <= 0 || offset > math.MaxInt32 || limit > math.MaxInt32 {
		return []*domain.Entry{}, nil
	}

	return rowsToEntries(r.queries.ListEntriesByAccountPage(ctx, generated.ListEntriesByAccountPageParams{
		AccountID: accountID,
		Limit:     int32(limit),
		Offset:    int32(offset),
	}))
}

// CountByAccount counts an account's entries.
func (r *EntryRepository) CountByAccount(ctx context.Context, accountID string) (int64, error) {
	n, err := r.queries.CountEntriesByAccount(ctx, accountID)
	if err != nil {
		return 0, mapError(err)
	}

	return n, nil
}

// ListByAccountNumber lists transfer entries where number is the sender or the recipient.
func (r *EntryRepository) ListByAccountNumber(ctx context.Context, number string) ([]*domain.Entry, error) {
	return rowsToEntries(r.queries.ListEntriesByAccountNumber(ctx, stringToText(number)))
}

// ListByAccountAndDateRange lists an account's entries created within [start, end].
func (r *EntryRepository) ListByAccountAndDateRange(ctx context.Context, accountID string, start, end time.Time) ([]*domain.Entry, error) {
	return rowsToEntries(r.queries.ListEntriesByAccountAndDateRange(ctx, generated.ListEntriesByAccountAndDateRangeParams{
		AccountID:   accountID,
		CreatedAt:   timeToPgTimestamptz(start),
		CreatedAt_2: timeToPgTimestamptz(end),
	}))
}

// ListByTransfer lists both legs of a transfer.
func (r *EntryRepository) ListByTransfer(ctx context.Context, transferID string) ([]*domain.Entry, error) {
	return rowsToEntries(r.queries.ListEntriesByTransfer(ctx, stringToText(transferID)))
}

func rowsToEntries(rows []generated.Entry, err error) ([]*domain.Entry, error) {
	if err != nil {
		return nil, mapError(err)
	}

	entries := make([]*domain.Entry, 0, len(rows))
	for _, row := range rows {
		e, err := rowToEntry(row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, nil
}

func rowToEntry(row generated.Entry) (*domain.Entry, error) {
	var leg *domain.TransferLeg
	if row.TransferID.Valid {
		leg = &domain.TransferLeg{
			TransferID:             row.TransferID.String,
			SenderAccountNumber:    row.SenderAccountNumber.String,
			RecipientAccountNumber: row.RecipientAccountNumber.String,
		}
	}

	movement, err := domain.NewMovement(domain.EntryKind(row.Kind), leg)
	if err != nil {
		return nil, fmt.Errorf("entry %s: %w", row.ID, err)
	}

	return &domain.Entry{
		ID:           row.ID,
		AccountID:    row.AccountID,
		Movement:     movement,
		Amount:       numericToDecimal(row.Amount),
		Description:  row.Description,
		BalanceAfter: numericToDecimal(row.BalanceAfter),
		Status:       domain.EntryStatus(row.Status),
		CreatedAt:    row.CreatedAt.Time,
	}, nil
}
