package memory

import (
	"context"
	"time"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	store *Store
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(store *Store) *EntryRepository {
	return &EntryRepository{store: store}
}

// Append buffers entry in tx, assigning its id and timestamp when unset.
func (r *EntryRepository) Append(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.active(); err != nil {
		return err
	}

	if entry.ID == "" {
		entry.ID = r.store.idGen.Generate()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	stored := *entry
	t.entries = append(t.entries, &stored)

	return nil
}

// GetByID retrieves an entry by ID.
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*domain.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	e, ok := r.store.entryByID[id]
	if !ok {
		return nil, domain.ErrEntryNotFound
	}

	cp := *e
	return &cp, nil
}

// ListByAccount lists all entries of an account, newest first.
func (r *EntryRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.Entry, error) {
	return r.filter(ctx, func(e *domain.Entry) bool {
		return e.AccountID == accountID
	})
}

// ListByAccountPage lists one page of an account's entries, newest first.
func (r *EntryRepository) ListByAccountPage(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error) {
	entries, err := r.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if offset < 0 || limit <= 0 || offset >= len(entries) {
		return []*domain.Entry{}, nil
	}

	end := min(offset+limit, len(entries))

	return entries[offset:end], nil
}

// CountByAccount counts the entries of an account.
func (r *EntryRepository) CountByAccount(ctx context.Context, accountID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var n int64
	for _, e := range r.store.entries {
		if e.AccountID == accountID {
			n++
		}
	}

	return n, nil
}

// ListByAccountNumber lists transfer entries where number is the sender or the recipient.
func (r *EntryRepository) ListByAccountNumber(ctx context.Context, number string) ([]*domain.Entry, error) {
	return r.filter(ctx, func(e *domain.Entry) bool {
		leg, ok := e.Transfer()
		return ok && (leg.SenderAccountNumber == number || leg.RecipientAccountNumber == number)
	})
}

// ListByAccountAndDateRange lists an account's entries created within [start, end].
func (r *EntryRepository) ListByAccountAndDateRange(ctx context.Context, accountID string, start, end time.Time) ([]*domain.Entry, error) {
	return r.filter(ctx, func(e *domain.Entry) bool {
		return e.AccountID == accountID && !e.CreatedAt.Before(start) && !e.CreatedAt.After(end)
	})
}

// ListByTransfer lists both legs of a transfer.
func (r *EntryRepository) ListByTransfer(ctx context.Context, transferID string) ([]*domain.Entry, error) {
	return r.filter(ctx, func(e *domain.Entry) bool {
		leg, ok := e.Transfer()
		return ok && leg.TransferID == transferID
	})
}

func (r *EntryRepository) filter(ctx context.Context, match func(*domain.Entry) bool) ([]*domain.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	entries := make([]*domain.Entry, 0)
	for _, e := range r.store.entries {
		if match(e) {
			cp := *e
			entries = append(entries, &cp)
		}
	}

	sortNewestFirst(entries)

	return entries, nil
}
