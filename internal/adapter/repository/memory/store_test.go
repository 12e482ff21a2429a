package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

type seqIDs struct{ n int }

func (g *seqIDs) Generate() string {
	g.n++
	return time.Unix(int64(g.n), 0).UTC().Format("20060102150405")
}

type fixture struct {
	store    *Store
	tx       *TxManager
	accounts *AccountRepository
	entries  *EntryRepository
	outbox   *OutboxRepository
	ledger   *LedgerRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	s := NewStore(&seqIDs{})
	return &fixture{
		store:    s,
		tx:       NewTxManager(s),
		accounts: NewAccountRepository(s),
		entries:  NewEntryRepository(s),
		outbox:   NewOutboxRepository(s),
		ledger:   NewLedgerRepository(s),
	}
}

func (f *fixture) account(t *testing.T, id, number string) {
	t.Helper()

	now := time.Now().UTC()
	require.NoError(t, f.accounts.Create(context.Background(), &domain.Account{
		ID:        id,
		Number:    number,
		OwnerID:   "owner-" + id,
		Balance:   decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}))
}

func (f *fixture) begin(t *testing.T) usecase.Transaction {
	t.Helper()

	tx, err := f.tx.Begin(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })

	return tx
}

func TestCreateRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	f.account(t, "a", "ACC1")
	ctx := context.Background()

	err := f.accounts.Create(ctx, &domain.Account{ID: "b", Number: "ACC1", OwnerID: "other"})
	assert.ErrorIs(t, err, domain.ErrAccountNumberTaken)

	err = f.accounts.Create(ctx, &domain.Account{ID: "b", Number: "ACC2", OwnerID: "owner-a"})
	assert.ErrorIs(t, err, domain.ErrOwnerHasAccount)

	acc, err := f.accounts.GetByOwner(ctx, "owner-a")
	require.NoError(t, err)
	assert.Equal(t, "a", acc.ID)

	_, err = f.accounts.GetByNumber(ctx, "ACC9")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestGettersReturnCopies(t *testing.T) {
	f := newFixture(t)
	f.account(t, "a", "ACC1")

	acc, err := f.accounts.GetByID(context.Background(), "a")
	require.NoError(t, err)
	acc.Balance = decimal.NewFromInt(1000)

	again, err := f.accounts.GetByID(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, again.Balance.IsZero())
}

func TestCommitAppliesBufferedWrites(t *testing.T) {
	f := newFixture(t)
	f.account(t, "a", "ACC1")
	ctx := context.Background()

	tx := f.begin(t)
	accounts, err := f.accounts.GetByIDsForUpdate(ctx, tx, []string{"a"})
	require.NoError(t, err)
	require.Len(t, accounts, 1)

	require.NoError(t, f.accounts.UpdateBalance(ctx, tx, "a", decimal.NewFromInt(10), accounts[0].Version, time.Now()))
	require.NoError(t, f.entries.Append(ctx, tx, &domain.Entry{
		AccountID:    "a",
		Movement:     domain.Deposit{},
		Amount:       decimal.NewFromInt(10),
		BalanceAfter: decimal.NewFromInt(10),
		Status:       domain.StatusCompleted,
	}))

	// Nothing is visible before commit.
	before, err := f.accounts.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.True(t, before.Balance.IsZero())

	require.NoError(t, tx.Commit(ctx))

	after, err := f.accounts.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.True(t, after.Balance.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, int64(1), after.Version)

	entries, err := f.entries.ListByAccount(ctx, "a")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].ID)
}

func TestRollbackDiscardsWrites(t *testing.T) {
	f := newFixture(t)
	f.account(t, "a", "ACC1")
	ctx := context.Background()

	tx := f.begin(t)
	_, err := f.accounts.GetByIDsForUpdate(ctx, tx, []string{"a"})
	require.NoError(t, err)
	require.NoError(t, f.accounts.UpdateBalance(ctx, tx, "a", decimal.NewFromInt(10), 0, time.Now()))
	require.NoError(t, tx.Rollback(ctx))

	acc, err := f.accounts.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.True(t, acc.Balance.IsZero())
	assert.Equal(t, int64(0), acc.Version)

	// Locks are released, so a new transaction can take them at once.
	tx2 := f.begin(t)
	lockCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	_, err = f.accounts.GetByIDsForUpdate(lockCtx, tx2, []string{"a"})
	assert.NoError(t, err)
}

func TestUpdateBalanceRejectsStaleVersion(t *testing.T) {
	f := newFixture(t)
	f.account(t, "a", "ACC1")
	ctx := context.Background()

	tx := f.begin(t)
	err := f.accounts.UpdateBalance(ctx, tx, "a", decimal.NewFromInt(1), 7, time.Now())
	assert.ErrorIs(t, err, domain.ErrConcurrentUpdate)
	assert.True(t, IsRetryableError(err))
}

func TestDoubleUpdateInOneTransaction(t *testing.T) {
	f := newFixture(t)
	f.account(t, "a", "ACC1")
	ctx := context.Background()

	tx := f.begin(t)
	require.NoError(t, f.accounts.UpdateBalance(ctx, tx, "a", decimal.NewFromInt(5), 0, time.Now()))
	require.NoError(t, f.accounts.UpdateBalance(ctx, tx, "a", decimal.NewFromInt(8), 1, time.Now()))

	locked, err := f.accounts.GetByIDsForUpdate(ctx, tx, []string{"a"})
	require.NoError(t, err)
	assert.True(t, locked[0].Balance.Equal(decimal.NewFromInt(8)))
	assert.Equal(t, int64(2), locked[0].Version)

	require.NoError(t, tx.Commit(ctx))

	acc, err := f.accounts.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(2), acc.Version)
}

func TestCommitDetectsLostUpdate(t *testing.T) {
	f := newFixture(t)
	f.account(t, "a", "ACC1")
	ctx := context.Background()

	// tx1 buffers a write without taking the lock; tx2 commits first.
	tx1 := f.begin(t)
	require.NoError(t, f.accounts.UpdateBalance(ctx, tx1, "a", decimal.NewFromInt(1), 0, time.Now()))

	tx2 := f.begin(t)
	require.NoError(t, f.accounts.UpdateBalance(ctx, tx2, "a", decimal.NewFromInt(2), 0, time.Now()))
	require.NoError(t, tx2.Commit(ctx))

	assert.ErrorIs(t, tx1.Commit(ctx), domain.ErrConcurrentUpdate)

	acc, err := f.accounts.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.True(t, acc.Balance.Equal(decimal.NewFromInt(2)))
}

func TestLockWaitHonoursContext(t *testing.T) {
	f := newFixture(t)
	f.account(t, "a", "ACC1")
	ctx := context.Background()

	holder := f.begin(t)
	_, err := f.accounts.GetByIDsForUpdate(ctx, holder, []string{"a"})
	require.NoError(t, err)

	waiter := f.begin(t)
	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()

	_, err = f.accounts.GetByIDsForUpdate(waitCtx, waiter, []string{"a"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCommitWithCancelledContextAppliesNothing(t *testing.T) {
	f := newFixture(t)
	f.account(t, "a", "ACC1")

	tx := f.begin(t)
	require.NoError(t, f.accounts.UpdateBalance(context.Background(), tx, "a", decimal.NewFromInt(3), 0, time.Now()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, tx.Commit(ctx), context.Canceled)

	acc, err := f.accounts.GetByID(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, acc.Balance.IsZero())
}

func TestClosedTransactionRejectsWrites(t *testing.T) {
	f := newFixture(t)
	f.account(t, "a", "ACC1")
	ctx := context.Background()

	tx := f.begin(t)
	require.NoError(t, tx.Commit(ctx))

	assert.Error(t, f.accounts.UpdateBalance(ctx, tx, "a", decimal.NewFromInt(1), 0, time.Now()))
	assert.Error(t, f.entries.Append(ctx, tx, &domain.Entry{AccountID: "a", Movement: domain.Deposit{}}))
}

func TestForeignTransactionRejected(t *testing.T) {
	f := newFixture(t)
	f.account(t, "a", "ACC1")

	_, err := f.accounts.GetByIDsForUpdate(context.Background(), foreignTx{}, []string{"a"})
	assert.Error(t, err)
}

func TestEntryQueries(t *testing.T) {
	f := newFixture(t)
	f.account(t, "a", "ACC1")
	f.account(t, "b", "ACC2")
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tx := f.begin(t)
	leg := domain.TransferLeg{TransferID: "tr-1", SenderAccountNumber: "ACC1", RecipientAccountNumber: "ACC2"}
	for i, e := range []*domain.Entry{
		{AccountID: "a", Movement: domain.Deposit{}, Amount: decimal.NewFromInt(10), BalanceAfter: decimal.NewFromInt(10), CreatedAt: base},
		{AccountID: "b", Movement: domain.TransferReceived{TransferLeg: leg}, Amount: decimal.NewFromInt(4), BalanceAfter: decimal.NewFromInt(4), CreatedAt: base.Add(time.Hour)},
		{AccountID: "a", Movement: domain.TransferSent{TransferLeg: leg}, Amount: decimal.NewFromInt(4), BalanceAfter: decimal.NewFromInt(6), CreatedAt: base.Add(time.Hour)},
		{AccountID: "a", Movement: domain.Withdrawal{}, Amount: decimal.NewFromInt(1), BalanceAfter: decimal.NewFromInt(5), CreatedAt: base.Add(2 * time.Hour)},
	} {
		e.Status = domain.StatusCompleted
		require.NoError(t, f.entries.Append(ctx, tx, e), "entry %d", i)
	}
	require.NoError(t, tx.Commit(ctx))

	all, err := f.entries.ListByAccount(ctx, "a")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, domain.KindWithdrawal, all[0].Kind())
	assert.Equal(t, domain.KindDeposit, all[2].Kind())

	page, err := f.entries.ListByAccountPage(ctx, "a", 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, domain.KindDeposit, page[0].Kind())

	empty, err := f.entries.ListByAccountPage(ctx, "a", 2, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)

	negative, err := f.entries.ListByAccountPage(ctx, "a", 100, -16)
	require.NoError(t, err)
	assert.Empty(t, negative)

	n, err := f.entries.CountByAccount(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	ranged, err := f.entries.ListByAccountAndDateRange(ctx, "a", base.Add(time.Hour), base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Len(t, ranged, 2)

	legs, err := f.entries.ListByTransfer(ctx, "tr-1")
	require.NoError(t, err)
	assert.Len(t, legs, 2)

	byNumber, err := f.entries.ListByAccountNumber(ctx, "ACC2")
	require.NoError(t, err)
	assert.Len(t, byNumber, 2)

	got, err := f.entries.GetByID(ctx, all[0].ID)
	require.NoError(t, err)
	assert.Equal(t, all[0].ID, got.ID)

	_, err = f.entries.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)
}

func TestLedgerReports(t *testing.T) {
	f := newFixture(t)
	f.account(t, "a", "ACC1")
	f.account(t, "b", "ACC2")
	ctx := context.Background()

	tx := f.begin(t)
	require.NoError(t, f.accounts.UpdateBalance(ctx, tx, "a", decimal.NewFromInt(10), 0, time.Now()))
	require.NoError(t, f.entries.Append(ctx, tx, &domain.Entry{
		AccountID: "a", Movement: domain.Deposit{}, Amount: decimal.NewFromInt(10), BalanceAfter: decimal.NewFromInt(10),
	}))
	// b gets a balance with no entry behind it.
	require.NoError(t, f.accounts.UpdateBalance(ctx, tx, "b", decimal.NewFromInt(3), 0, time.Now()))
	require.NoError(t, tx.Commit(ctx))

	totals, err := f.ledger.Totals(ctx)
	require.NoError(t, err)
	assert.True(t, totals.TotalBalance.Equal(decimal.NewFromInt(13)))
	assert.True(t, totals.TotalDeposits.Equal(decimal.NewFromInt(10)))
	assert.False(t, totals.Conserved())

	mismatches, err := f.ledger.BalanceMismatches(ctx)
	require.NoError(t, err)
	require.Len(t, mismatches, 1)
	assert.Equal(t, "b", mismatches[0].AccountID)
	assert.True(t, mismatches[0].LastBalanceAfter.IsZero())
}

func TestOutboxLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tx := f.begin(t)
	require.NoError(t, f.outbox.Create(ctx, tx, &domain.OutboxEvent{ID: "e1", EventType: domain.EventTypeDepositCompleted, CreatedAt: time.Now()}))
	require.NoError(t, f.outbox.Create(ctx, tx, &domain.OutboxEvent{ID: "e2", EventType: domain.EventTypeDepositCompleted, CreatedAt: time.Now()}))

	pending, err := f.outbox.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending, "events are invisible before commit")

	require.NoError(t, tx.Commit(ctx))

	pending, err = f.outbox.GetUnpublished(ctx, 1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "e1", pending[0].ID)

	publishedAt := time.Now().Add(-time.Hour)
	require.NoError(t, f.outbox.MarkPublished(ctx, "e1", publishedAt))

	pending, err = f.outbox.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "e2", pending[0].ID)

	require.NoError(t, f.outbox.DeletePublished(ctx, time.Now()))
	f.store.mu.RLock()
	remaining := len(f.store.outbox)
	f.store.mu.RUnlock()
	assert.Equal(t, 1, remaining)
}

type foreignTx struct{}

func (foreignTx) Commit(context.Context) error   { return nil }
func (foreignTx) Rollback(context.Context) error { return nil }
