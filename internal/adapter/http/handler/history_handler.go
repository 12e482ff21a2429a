package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/bankledger/internal/adapter/http/dto"
	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

// HistoryService defines the behavior needed by HistoryHandler.
type HistoryService interface {
	History(ctx context.Context, accountID string) ([]*domain.Entry, error)
	HistoryPage(ctx context.Context, input usecase.HistoryPageInput) (*domain.EntryPage, error)
	HistoryRange(ctx context.Context, accountID string, start, end time.Time) ([]*domain.Entry, error)
	Entry(ctx context.Context, callerAccountID, entryID string) (*domain.Entry, error)
	ByAccountNumber(ctx context.Context, callerAccountID, number string) ([]*domain.Entry, error)
	TransferLegs(ctx context.Context, callerAccountID, transferID string) ([]*domain.Entry, error)
}

// HistoryHandler serves the caller's entry history.
type HistoryHandler struct {
	historyUC HistoryService
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(historyUC HistoryService) *HistoryHandler {
	return &HistoryHandler{historyUC: historyUC}
}

// Page returns one page of the caller's history. Out-of-range values fall back
// to the defaults.
func (h *HistoryHandler) Page(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	page, err := parseIntQuery(r, "page", 0)
	if err != nil {
		writeInvalid(w, "page must be an integer")
		return
	}
	size, err := parseIntQuery(r, "size", domain.DefaultPageSize)
	if err != nil {
		writeInvalid(w, "size must be an integer")
		return
	}

	result, err := h.historyUC.HistoryPage(r.Context(), usecase.HistoryPageInput{
		AccountID: id,
		Page:      page,
		PageSize:  size,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryPageFromDomain(result))
}

// All returns the caller's full history.
func (h *HistoryHandler) All(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	entries, err := h.historyUC.History(r.Context(), id)
	h.respondList(w, r, entries, err)
}

// Range returns entries created between the RFC3339 start and end query
// parameters, inclusive.
func (h *HistoryHandler) Range(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	if err != nil {
		writeInvalid(w, "start must be an RFC3339 timestamp")
		return
	}
	end, err := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
	if err != nil {
		writeInvalid(w, "end must be an RFC3339 timestamp")
		return
	}

	entries, err := h.historyUC.HistoryRange(r.Context(), id, start, end)
	h.respondList(w, r, entries, err)
}

// Get returns one entry owned by the caller.
func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	entry, err := h.historyUC.Entry(r.Context(), id, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// ByNumber returns the transfer entries of the caller's own account number.
func (h *HistoryHandler) ByNumber(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	entries, err := h.historyUC.ByAccountNumber(r.Context(), id, chi.URLParam(r, "number"))
	h.respondList(w, r, entries, err)
}

// TransferLegs returns both legs of a transfer the caller took part in.
func (h *HistoryHandler) TransferLegs(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	entries, err := h.historyUC.TransferLegs(r.Context(), id, chi.URLParam(r, "id"))
	h.respondList(w, r, entries, err)
}

func (h *HistoryHandler) respondList(w http.ResponseWriter, r *http.Request, entries []*domain.Entry, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}
