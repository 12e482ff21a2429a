package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iho/bankledger/internal/adapter/repository/memory"
	"github.com/iho/bankledger/internal/adapter/repository/postgres"
	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/infrastructure/retry"
	"github.com/iho/bankledger/internal/usecase"
)

// ledger wires the real use cases over a fresh in-memory store.
type ledger struct {
	store    *memory.Store
	accounts *memory.AccountRepository
	entries  *memory.EntryRepository
	outbox   *memory.OutboxRepository

	movement *usecase.MovementUseCase
	history  *usecase.HistoryUseCase
	account  *usecase.AccountUseCase
	audit    *usecase.LedgerUseCase
}

func newLedger(t *testing.T) *ledger {
	t.Helper()

	idGen := postgres.NewULIDGenerator()
	store := memory.NewStore(idGen)

	l := &ledger{
		store:    store,
		accounts: memory.NewAccountRepository(store),
		entries:  memory.NewEntryRepository(store),
		outbox:   memory.NewOutboxRepository(store),
	}

	l.movement = usecase.NewMovementUseCase(
		memory.NewTxManager(store),
		l.accounts,
		l.entries,
		l.outbox,
		newTestRetrier(),
		idGen,
		nil,
		0,
	)
	l.history = usecase.NewHistoryUseCase(l.entries, l.accounts, nil, nil)
	l.account = usecase.NewAccountUseCase(l.accounts, idGen, nil)
	l.audit = usecase.NewLedgerUseCase(memory.NewLedgerRepository(store), nil)

	return l
}

func newTestRetrier() *retry.Retrier {
	return retry.New(retry.Config{
		MaxRetries:      3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		MaxElapsedTime:  time.Second,
	}, memory.IsRetryableError, zerolog.Nop(), nil)
}

// seedAccount stores an account that already holds balance, without entries.
func (l *ledger) seedAccount(t *testing.T, id, number, balance string) *domain.Account {
	t.Helper()

	now := time.Now().UTC()
	acc := &domain.Account{
		ID:        id,
		Number:    number,
		OwnerID:   "owner-" + id,
		Balance:   decimal.RequireFromString(balance),
		CreatedAt: now,
		UpdatedAt: now,
	}

	require.NoError(t, l.accounts.Create(context.Background(), acc))

	return acc
}

// openAccount registers an account and funds it through a deposit.
func (l *ledger) openAccount(t *testing.T, owner, number, initial string) *domain.Account {
	t.Helper()

	ctx := context.Background()

	acc, err := l.account.CreateAccount(ctx, usecase.CreateAccountInput{OwnerID: owner, Number: number})
	require.NoError(t, err)

	if initial != "" {
		_, err = l.movement.Deposit(ctx, usecase.DepositInput{
			AccountID: acc.ID,
			Amount:    decimal.RequireFromString(initial),
		})
		require.NoError(t, err)
	}

	return acc
}

func (l *ledger) balance(t *testing.T, id string) decimal.Decimal {
	t.Helper()

	acc, err := l.accounts.GetByID(context.Background(), id)
	require.NoError(t, err)

	return acc.Balance
}

func (l *ledger) entriesOf(t *testing.T, id string) []*domain.Entry {
	t.Helper()

	entries, err := l.entries.ListByAccount(context.Background(), id)
	require.NoError(t, err)

	return entries
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "expected %s, got %s", want, got)
}
