package memory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	store *Store
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byNumber[account.Number]; ok {
		return domain.ErrAccountNumberTaken
	}
	if _, ok := s.byOwner[account.OwnerID]; ok {
		return domain.ErrOwnerHasAccount
	}

	stored := *account
	s.accounts[stored.ID] = &stored
	s.byNumber[stored.Number] = stored.ID
	s.byOwner[stored.OwnerID] = stored.ID

	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.get(id)
}

// GetByNumber retrieves an account by its account number.
func (r *AccountRepository) GetByNumber(ctx context.Context, number string) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	id, ok := r.store.byNumber[number]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	return r.get(id)
}

// GetByOwner retrieves the account registered to ownerID.
func (r *AccountRepository) GetByOwner(ctx context.Context, ownerID string) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	id, ok := r.store.byOwner[ownerID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	return r.get(id)
}

// GetByIDsForUpdate locks the accounts in ascending id order and returns
// them, including balances already written in tx. Unknown ids are skipped.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.active(); err != nil {
		return nil, err
	}

	if err := t.lock(ctx, ids); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	seen := make(map[string]bool, len(ids))
	accounts := make([]*domain.Account, 0, len(ids))

	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		acc, err := r.get(id)
		if err != nil {
			continue
		}

		if w, ok := t.balances[id]; ok {
			acc.Balance = w.balance
			acc.Version = w.newVersion
			acc.UpdatedAt = w.updatedAt
		}

		accounts = append(accounts, acc)
	}

	sortAccounts(accounts)

	return accounts, nil
}

// UpdateBalance buffers a balance write that only applies if the account
// version still equals expectedVersion.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, expectedVersion int64, updatedAt time.Time) error {
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

	r.store.mu.RLock()
	acc, ok := r.store.accounts[id]
	var current int64
	if ok {
		current = acc.Version
	}
	r.store.mu.RUnlock()

	if !ok {
		return domain.ErrAccountNotFound
	}

	base := current
	if w, pending := t.balances[id]; pending {
		base = w.baseVersion
		current = w.newVersion
	}

	if current != expectedVersion {
		return domain.ErrConcurrentUpdate
	}

	t.balances[id] = balanceWrite{
		balance:     balance,
		baseVersion: base,
		newVersion:  expectedVersion + 1,
		updatedAt:   updatedAt,
	}

	return nil
}

// get returns a copy of the account. Callers hold store.mu.
func (r *AccountRepository) get(id string) (*domain.Account, error) {
	acc, ok := r.store.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	cp := *acc
	return &cp, nil
}
