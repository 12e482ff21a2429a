package usecase_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
	"github.com/iho/bankledger/internal/usecase/mocks"
)

func TestHistoryUseCase_HistoryPage(t *testing.T) {
	l := newLedger(t)
	a := l.openAccount(t, "alice", "ACC001", "")

	ctx := context.Background()
	for range 25 {
		_, err := l.movement.Deposit(ctx, usecase.DepositInput{AccountID: a.ID, Amount: dec("1")})
		require.NoError(t, err)
	}

	tests := []struct {
		name      string
		input     usecase.HistoryPageInput
		wantLen   int
		wantPage  int
		wantSize  int
		wantPages int
	}{
		{"defaults", usecase.HistoryPageInput{AccountID: a.ID}, 10, 0, 10, 3},
		{"last page", usecase.HistoryPageInput{AccountID: a.ID, Page: 2, PageSize: 10}, 5, 2, 10, 3},
		{"past the end", usecase.HistoryPageInput{AccountID: a.ID, Page: 7, PageSize: 10}, 0, 7, 10, 3},
		{"size capped", usecase.HistoryPageInput{AccountID: a.ID, PageSize: 1000}, 25, 0, domain.MaxPageSize, 1},
		{"huge page", usecase.HistoryPageInput{AccountID: a.ID, Page: math.MaxInt / 50, PageSize: 100}, 0, domain.MaxPage, 100, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := l.history.HistoryPage(ctx, tt.input)
			require.NoError(t, err)

			assert.Len(t, page.Entries, tt.wantLen)
			assert.Equal(t, tt.wantPage, page.Page)
			assert.Equal(t, tt.wantSize, page.PageSize)
			assert.Equal(t, tt.wantPages, page.TotalPages)
			assert.EqualValues(t, 25, page.TotalEntries)
		})
	}

	first, err := l.history.HistoryPage(ctx, usecase.HistoryPageInput{AccountID: a.ID, PageSize: 25})
	require.NoError(t, err)
	requireAmount(t, "25.00", first.Entries[0].BalanceAfter)
	requireAmount(t, "1.00", first.Entries[24].BalanceAfter)
}

func TestHistoryUseCase_HistoryIsIdempotent(t *testing.T) {
	l := newLedger(t)
	a := l.openAccount(t, "alice", "ACC001", "10")

	ctx := context.Background()

	first, err := l.history.History(ctx, a.ID)
	require.NoError(t, err)
	second, err := l.history.History(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	acc1, err := l.account.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	acc2, err := l.account.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, acc1, acc2)
}

func TestHistoryUseCase_HistoryRange(t *testing.T) {
	l := newLedger(t)
	a := l.openAccount(t, "alice", "ACC001", "10")

	ctx := context.Background()
	now := time.Now().UTC()

	entries, err := l.history.HistoryRange(ctx, a.ID, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	entries, err = l.history.HistoryRange(ctx, a.ID, now.Add(time.Hour), now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = l.history.HistoryRange(ctx, a.ID, now, now.Add(-time.Second))
	require.ErrorIs(t, err, domain.ErrInvalidDateRange)
}

func TestHistoryUseCase_EntryOwnership(t *testing.T) {
	l := newLedger(t)
	a := l.openAccount(t, "alice", "ACC001", "10")
	b := l.openAccount(t, "bob", "ACC002", "")

	ctx := context.Background()
	own := l.entriesOf(t, a.ID)[0]

	got, err := l.history.Entry(ctx, a.ID, own.ID)
	require.NoError(t, err)
	assert.Equal(t, own.ID, got.ID)

	_, err = l.history.Entry(ctx, b.ID, own.ID)
	require.ErrorIs(t, err, domain.ErrAccessDenied)

	_, err = l.history.Entry(ctx, a.ID, "missing")
	require.ErrorIs(t, err, domain.ErrEntryNotFound)
}

func TestHistoryUseCase_ByAccountNumber(t *testing.T) {
	l := newLedger(t)
	a := l.openAccount(t, "alice", "ACC001", "100")
	b := l.openAccount(t, "bob", "ACC002", "100")
	c := l.openAccount(t, "carol", "ACC003", "100")

	ctx := context.Background()
	_, err := l.movement.Transfer(ctx, usecase.TransferInput{SenderAccountID: a.ID, RecipientAccountNumber: "ACC002", Amount: dec("10")})
	require.NoError(t, err)
	_, err = l.movement.Transfer(ctx, usecase.TransferInput{SenderAccountID: c.ID, RecipientAccountNumber: "ACC001", Amount: dec("5")})
	require.NoError(t, err)
	_, err = l.movement.Transfer(ctx, usecase.TransferInput{SenderAccountID: b.ID, RecipientAccountNumber: "ACC003", Amount: dec("1")})
	require.NoError(t, err)

	entries, err := l.history.ByAccountNumber(ctx, a.ID, "ACC001")
	require.NoError(t, err)

	// Both legs of both transfers ACC001 took part in; deposits carry no numbers.
	assert.Len(t, entries, 4)
	for _, e := range entries {
		leg, ok := e.Transfer()
		require.True(t, ok)
		assert.True(t, leg.SenderAccountNumber == "ACC001" || leg.RecipientAccountNumber == "ACC001")
	}
	assert.False(t, entries[0].CreatedAt.Before(entries[len(entries)-1].CreatedAt))

	// Counterparty legs do not reveal the counterparty's balance.
	for _, e := range entries {
		if e.OwnedBy(a.ID) {
			assert.False(t, e.BalanceHidden)
			assert.False(t, e.BalanceAfter.IsZero())
			continue
		}
		assert.True(t, e.BalanceHidden)
		assert.True(t, e.BalanceAfter.IsZero())
	}

	own, err := l.history.History(ctx, b.ID)
	require.NoError(t, err)
	for _, e := range own {
		assert.False(t, e.BalanceHidden, "stored entries stay intact")
	}

	_, err = l.history.ByAccountNumber(ctx, a.ID, "ACC002")
	require.ErrorIs(t, err, domain.ErrAccessDenied)
}

func TestHistoryUseCase_TransferLegs(t *testing.T) {
	l := newLedger(t)
	a := l.openAccount(t, "alice", "ACC001", "100")
	b := l.openAccount(t, "bob", "ACC002", "")
	c := l.openAccount(t, "carol", "ACC003", "")

	ctx := context.Background()
	sent, err := l.movement.Transfer(ctx, usecase.TransferInput{SenderAccountID: a.ID, RecipientAccountNumber: "ACC002", Amount: dec("10")})
	require.NoError(t, err)

	leg, _ := sent.Transfer()

	legs, err := l.history.TransferLegs(ctx, b.ID, leg.TransferID)
	require.NoError(t, err)
	require.Len(t, legs, 2)
	for _, e := range legs {
		if e.OwnedBy(b.ID) {
			requireAmount(t, "10.00", e.BalanceAfter)
		} else {
			assert.True(t, e.BalanceHidden, "sender leg seen by the recipient")
		}
	}

	_, err = l.history.TransferLegs(ctx, c.ID, leg.TransferID)
	require.ErrorIs(t, err, domain.ErrAccessDenied)

	_, err = l.history.TransferLegs(ctx, a.ID, "missing")
	require.ErrorIs(t, err, domain.ErrTransferNotFound)
}

func TestHistoryUseCase_EntryCache(t *testing.T) {
	ctrl := gomock.NewController(t)

	entryRepo := mocks.NewMockEntryRepository(ctrl)
	accountRepo := mocks.NewMockAccountRepository(ctrl)
	cache := mocks.NewMockCache(ctrl)

	entry := &domain.Entry{
		ID:           "entry-1",
		AccountID:    "acc-1",
		Movement:     domain.TransferSent{TransferLeg: domain.TransferLeg{TransferID: "tr-1", SenderAccountNumber: "ACC001", RecipientAccountNumber: "ACC002"}},
		Amount:       dec("12.50"),
		BalanceAfter: dec("87.50"),
		Status:       domain.StatusCompleted,
		CreatedAt:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	var stored []byte

	gomock.InOrder(
		cache.EXPECT().Get(gomock.Any(), "entry:entry-1").Return(nil, usecase.ErrCacheMiss),
		entryRepo.EXPECT().GetByID(gomock.Any(), "entry-1").Return(entry, nil),
		cache.EXPECT().Set(gomock.Any(), "entry:entry-1", gomock.Any(), usecase.EntryCacheTTL).
			DoAndReturn(func(_ context.Context, _ string, value []byte, _ time.Duration) error {
				stored = value
				return nil
			}),
		cache.EXPECT().Get(gomock.Any(), "entry:entry-1").
			DoAndReturn(func(context.Context, string) ([]byte, error) { return stored, nil }),
	)

	uc := usecase.NewHistoryUseCase(entryRepo, accountRepo, cache, nil)

	first, err := uc.Entry(context.Background(), "acc-1", "entry-1")
	require.NoError(t, err)
	assert.Equal(t, entry, first)

	second, err := uc.Entry(context.Background(), "acc-1", "entry-1")
	require.NoError(t, err)
	assert.Equal(t, entry.ID, second.ID)
	assert.Equal(t, entry.Movement, second.Movement)
	assert.True(t, entry.Amount.Equal(second.Amount))
	assert.True(t, entry.CreatedAt.Equal(second.CreatedAt))
}

func TestHistoryUseCase_EntryCacheFailureFallsBack(t *testing.T) {
	ctrl := gomock.NewController(t)

	entryRepo := mocks.NewMockEntryRepository(ctrl)
	cache := mocks.NewMockCache(ctrl)

	entry := &domain.Entry{ID: "entry-1", AccountID: "acc-1", Movement: domain.Deposit{}, Amount: dec("1"), BalanceAfter: dec("1")}

	cache.EXPECT().Get(gomock.Any(), "entry:entry-1").Return(nil, errors.New("redis down"))
	entryRepo.EXPECT().GetByID(gomock.Any(), "entry-1").Return(entry, nil)
	cache.EXPECT().Set(gomock.Any(), "entry:entry-1", gomock.Any(), usecase.EntryCacheTTL).Return(errors.New("redis down"))

	uc := usecase.NewHistoryUseCase(entryRepo, mocks.NewMockAccountRepository(ctrl), cache, nil)

	got, err := uc.Entry(context.Background(), "acc-1", "entry-1")
	require.NoError(t, err)
	assert.Equal(t, entry, got)
}
