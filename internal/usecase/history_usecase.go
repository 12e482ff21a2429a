package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/infrastructure/metrics"
)

// ErrCacheMiss is returned by Cache implementations when a key is absent.
var ErrCacheMiss = errors.New("cache miss")

// HistoryUseCase answers read-only questions about an account's entries.
type HistoryUseCase struct {
	entryRepo   EntryRepository
	accountRepo AccountRepository
	cache       Cache
	metrics     *metrics.Metrics
}

// NewHistoryUseCase creates a new HistoryUseCase. cache may be nil.
func NewHistoryUseCase(entryRepo EntryRepository, accountRepo AccountRepository, cache Cache, metrics *metrics.Metrics) *HistoryUseCase {
	return &HistoryUseCase{
		entryRepo:   entryRepo,
		accountRepo: accountRepo,
		cache:       cache,
		metrics:     metrics,
	}
}

// History returns every entry of the account, newest first.
func (uc *HistoryUseCase) History(ctx context.Context, accountID string) ([]*domain.Entry, error) {
	return uc.entryRepo.ListByAccount(ctx, accountID)
}

// HistoryPageInput represents input for a paged history query.
type HistoryPageInput struct {
	AccountID string
	Page      int
	PageSize  int
}

// HistoryPage returns one page of the account's entries, newest first.
func (uc *HistoryUseCase) HistoryPage(ctx context.Context, input HistoryPageInput) (*domain.EntryPage, error) {
	page, size := domain.ValidatePagination(input.Page, input.PageSize)

	total, err := uc.entryRepo.CountByAccount(ctx, input.AccountID)
	if err != nil {
		return nil, err
	}

	offset := int64(page) * int64(size)
	if offset >= total {
		return domain.NewEntryPage([]*domain.Entry{}, page, size, total), nil
	}

	entries, err := uc.entryRepo.ListByAccountPage(ctx, input.AccountID, size, int(offset))
	if err != nil {
		return nil, err
	}

	return domain.NewEntryPage(entries, page, size, total), nil
}

// HistoryRange returns the account's entries created within [start, end], newest first.
func (uc *HistoryUseCase) HistoryRange(ctx context.Context, accountID string, start, end time.Time) ([]*domain.Entry, error) {
	if err := domain.ValidateDateRange(start, end); err != nil {
		return nil, err
	}

	return uc.entryRepo.ListByAccountAndDateRange(ctx, accountID, start, end)
}

// Entry returns one entry owned by the caller's account.
func (uc *HistoryUseCase) Entry(ctx context.Context, callerAccountID, entryID string) (*domain.Entry, error) {
	entry, err := uc.entry(ctx, entryID)
	if err != nil {
		return nil, err
	}

	if !entry.OwnedBy(callerAccountID) {
		return nil, domain.ErrAccessDenied
	}

	return entry, nil
}

// ByAccountNumber returns the transfer entries in which number took part as
// sender or recipient. Only the owner of number may ask.
func (uc *HistoryUseCase) ByAccountNumber(ctx context.Context, callerAccountID, number string) ([]*domain.Entry, error) {
	caller, err := uc.accountRepo.GetByID(ctx, callerAccountID)
	if err != nil {
		return nil, err
	}

	if caller.Number != number {
		return nil, domain.ErrAccessDenied
	}

	entries, err := uc.entryRepo.ListByAccountNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	return withholdForeignBalances(callerAccountID, entries), nil
}

// TransferLegs returns both entries of a transfer the caller took part in.
func (uc *HistoryUseCase) TransferLegs(ctx context.Context, callerAccountID, transferID string) ([]*domain.Entry, error) {
	legs, err := uc.entryRepo.ListByTransfer(ctx, transferID)
	if err != nil {
		return nil, err
	}

	if len(legs) == 0 {
		return nil, domain.ErrTransferNotFound
	}

	for _, leg := range legs {
		if leg.OwnedBy(callerAccountID) {
			return withholdForeignBalances(callerAccountID, legs), nil
		}
	}

	return nil, domain.ErrAccessDenied
}

// withholdForeignBalances hides the resulting balance of legs owned by the
// counterparty.
func withholdForeignBalances(callerAccountID string, entries []*domain.Entry) []*domain.Entry {
	out := make([]*domain.Entry, len(entries))
	for i, e := range entries {
		if e.OwnedBy(callerAccountID) {
			out[i] = e
			continue
		}
		out[i] = e.WithoutBalance()
	}
	return out
}

// entry reads through the cache. Entries are immutable, so a cached copy
// never goes stale. Cache failures fall back to the store.
func (uc *HistoryUseCase) entry(ctx context.Context, id string) (*domain.Entry, error) {
	if uc.cache == nil {
		return uc.entryRepo.GetByID(ctx, id)
	}

	key := "entry:" + id

	data, err := uc.cache.Get(ctx, key)
	if err == nil {
		if entry, decodeErr := decodeCachedEntry(data); decodeErr == nil {
			uc.metrics.RecordCacheLookup(true)
			return entry, nil
		}
	} else if !errors.Is(err, ErrCacheMiss) {
		zerolog.Ctx(ctx).Warn().Err(err).Str("entry_id", id).Msg("entry cache read failed")
	}

	uc.metrics.RecordCacheLookup(false)

	entry, err := uc.entryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := encodeCachedEntry(entry); err == nil {
		if err := uc.cache.Set(ctx, key, data, EntryCacheTTL); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("entry_id", id).Msg("entry cache write failed")
		}
	}

	return entry, nil
}

type cachedEntry struct {
	ID                     string    `json:"id"`
	AccountID              string    `json:"account_id"`
	Kind                   string    `json:"kind"`
	TransferID             string    `json:"transfer_id,omitempty"`
	SenderAccountNumber    string    `json:"sender_account_number,omitempty"`
	RecipientAccountNumber string    `json:"recipient_account_number,omitempty"`
	Amount                 string    `json:"amount"`
	BalanceAfter           string    `json:"balance_after"`
	Description            string    `json:"description,omitempty"`
	Status                 string    `json:"status"`
	CreatedAt              time.Time `json:"created_at"`
}

func encodeCachedEntry(e *domain.Entry) ([]byte, error) {
	c := cachedEntry{
		ID:           e.ID,
		AccountID:    e.AccountID,
		Kind:         string(e.Kind()),
		Amount:       e.Amount.String(),
		BalanceAfter: e.BalanceAfter.String(),
		Description:  e.Description,
		Status:       string(e.Status),
		CreatedAt:    e.CreatedAt,
	}

	if leg, ok := e.Transfer(); ok {
		c.TransferID = leg.TransferID
		c.SenderAccountNumber = leg.SenderAccountNumber
		c.RecipientAccountNumber = leg.RecipientAccountNumber
	}

	return json.Marshal(c)
}

func decodeCachedEntry(data []byte) (*domain.Entry, error) {
	var c cachedEntry
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}

	var leg *domain.TransferLeg
	if c.TransferID != "" {
		leg = &domain.TransferLeg{
			TransferID:             c.TransferID,
			SenderAccountNumber:    c.SenderAccountNumber,
			RecipientAccountNumber: c.RecipientAccountNumber,
		}
	}

	movement, err := domain.NewMovement(domain.EntryKind(c.Kind), leg)
	if err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(c.Amount)
	if err != nil {
		return nil, err
	}

	balanceAfter, err := decimal.NewFromString(c.BalanceAfter)
	if err != nil {
		return nil, err
	}

	return &domain.Entry{
		ID:           c.ID,
		AccountID:    c.AccountID,
		Movement:     movement,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		Description:  c.Description,
		Status:       domain.EntryStatus(c.Status),
		CreatedAt:    c.CreatedAt,
	}, nil
}
