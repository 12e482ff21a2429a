// Package memory is an in-process ledger store. It gives the same guarantees
// as the Postgres store: per-account locks held for the life of a
// transaction, versioned balance writes and all-or-nothing commits.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

var errForeignTx = errors.New("memory: transaction was not started by this store")

// Store holds all ledger state in memory.
type Store struct {
	mu        sync.RWMutex
	accounts  map[string]*domain.Account
	byNumber  map[string]string
	byOwner   map[string]string
	entries   []*domain.Entry
	entryByID map[string]*domain.Entry
	outbox    []*domain.OutboxEvent

	locksMu sync.Mutex
	locks   map[string]chan struct{}

	idGen usecase.IDGenerator
}

// NewStore creates an empty store. idGen assigns entry ids left unset by callers.
func NewStore(idGen usecase.IDGenerator) *Store {
	return &Store{
		accounts:  make(map[string]*domain.Account),
		byNumber:  make(map[string]string),
		byOwner:   make(map[string]string),
		entryByID: make(map[string]*domain.Entry),
		locks:     make(map[string]chan struct{}),
		idGen:     idGen,
	}
}

// IsRetryableError reports whether err is a lost compare-and-set.
func IsRetryableError(err error) bool {
	return errors.Is(err, domain.ErrConcurrentUpdate)
}

func (s *Store) lockFor(id string) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	ch, ok := s.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[id] = ch
	}

	return ch
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	store *Store
}

// NewTxManager creates a new TxManager.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Tx{
		store:    m.store,
		held:     make(map[string]bool),
		balances: make(map[string]balanceWrite),
	}, nil
}

// balanceWrite is a pending balance. baseVersion is the committed version
// the write was made against; newVersion is what Commit stores.
type balanceWrite struct {
	balance     decimal.Decimal
	baseVersion int64
	newVersion  int64
	updatedAt   time.Time
}

// Tx buffers writes until Commit and holds account locks until it ends.
type Tx struct {
	store *Store

	mu       sync.Mutex
	order    []string
	held     map[string]bool
	balances map[string]balanceWrite
	entries  []*domain.Entry
	events   []*domain.OutboxEvent
	done     bool
}

func asTx(tx usecase.Transaction) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok {
		return nil, errForeignTx
	}

	return t, nil
}

// lock acquires the locks for ids in ascending order, skipping locks the tx already holds.
func (t *Tx) lock(ctx context.Context, ids []string) error {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	for _, id := range sorted {
		if t.held[id] {
			continue
		}

		select {
		case t.store.lockFor(id) <- struct{}{}:
			t.held[id] = true
			t.order = append(t.order, id)
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

func (t *Tx) release() {
	for i := len(t.order) - 1; i >= 0; i-- {
		<-t.store.lockFor(t.order[i])
	}

	t.order = nil
	t.held = nil
}

// Commit applies all buffered writes atomically. A cancelled context or a
// version that moved since the write was buffered rolls everything back.
func (t *Tx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return nil
	}
	t.done = true
	defer t.release()

	if err := ctx.Err(); err != nil {
		return err
	}

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, w := range t.balances {
		acc, ok := s.accounts[id]
		if !ok {
			return domain.ErrAccountNotFound
		}
		if acc.Version != w.baseVersion {
			return domain.ErrConcurrentUpdate
		}
	}

	for id, w := range t.balances {
		acc := s.accounts[id]
		acc.Balance = w.balance
		acc.Version = w.newVersion
		acc.UpdatedAt = w.updatedAt
	}

	for _, e := range t.entries {
		s.entries = append(s.entries, e)
		s.entryByID[e.ID] = e
	}

	s.outbox = append(s.outbox, t.events...)

	return nil
}

// Rollback discards buffered writes and releases locks. It is a no-op after Commit.
func (t *Tx) Rollback(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return nil
	}
	t.done = true
	t.release()

	return nil
}

func (t *Tx) active() error {
	if t.done {
		return errors.New("memory: transaction already closed")
	}
	return nil
}

func sortAccounts(accounts []*domain.Account) {
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].ID < accounts[j].ID
	})
}

// sortNewestFirst orders entries by created_at DESC, id DESC.
func sortNewestFirst(entries []*domain.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].ID > entries[j].ID
	})
}

func sortMismatches(mismatches []domain.BalanceMismatch) {
	sort.Slice(mismatches, func(i, j int) bool {
		return mismatches[i].AccountID < mismatches[j].AccountID
	})
}
