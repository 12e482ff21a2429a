package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iho/bankledger/internal/adapter/http/dto"
	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

type historyServiceStub struct {
	historyFn  func(ctx context.Context, accountID string) ([]*domain.Entry, error)
	pageFn     func(ctx context.Context, input usecase.HistoryPageInput) (*domain.EntryPage, error)
	rangeFn    func(ctx context.Context, accountID string, start, end time.Time) ([]*domain.Entry, error)
	entryFn    func(ctx context.Context, callerAccountID, entryID string) (*domain.Entry, error)
	byNumberFn func(ctx context.Context, callerAccountID, number string) ([]*domain.Entry, error)
	legsFn     func(ctx context.Context, callerAccountID, transferID string) ([]*domain.Entry, error)
}

func (s *historyServiceStub) History(ctx context.Context, accountID string) ([]*domain.Entry, error) {
	return s.historyFn(ctx, accountID)
}

func (s *historyServiceStub) HistoryPage(ctx context.Context, input usecase.HistoryPageInput) (*domain.EntryPage, error) {
	return s.pageFn(ctx, input)
}

func (s *historyServiceStub) HistoryRange(ctx context.Context, accountID string, start, end time.Time) ([]*domain.Entry, error) {
	return s.rangeFn(ctx, accountID, start, end)
}

func (s *historyServiceStub) Entry(ctx context.Context, callerAccountID, entryID string) (*domain.Entry, error) {
	return s.entryFn(ctx, callerAccountID, entryID)
}

func (s *historyServiceStub) ByAccountNumber(ctx context.Context, callerAccountID, number string) ([]*domain.Entry, error) {
	return s.byNumberFn(ctx, callerAccountID, number)
}

func (s *historyServiceStub) TransferLegs(ctx context.Context, callerAccountID, transferID string) ([]*domain.Entry, error) {
	return s.legsFn(ctx, callerAccountID, transferID)
}

func decodeEntries(t *testing.T, rec *httptest.ResponseRecorder) []dto.EntryResponse {
	t.Helper()

	var resp []dto.EntryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v (%s)", err, rec.Body.String())
	}
	return resp
}

func TestHistoryHandler_Page(t *testing.T) {
	var captured usecase.HistoryPageInput
	handler := NewHistoryHandler(&historyServiceStub{
		pageFn: func(ctx context.Context, input usecase.HistoryPageInput) (*domain.EntryPage, error) {
			captured = input
			entries := []*domain.Entry{sampleEntry(domain.Deposit{}, "5", "5")}
			return domain.NewEntryPage(entries, input.Page, input.PageSize, 11), nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/entries?page=1&size=5", nil)
	rec := httptest.NewRecorder()
	handler.Page(rec, withAccount(req, "acc-1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.AccountID != "acc-1" || captured.Page != 1 || captured.PageSize != 5 {
		t.Fatalf("unexpected input: %+v", captured)
	}

	var resp dto.EntryPageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.TotalPages != 3 || resp.TotalEntries != 11 || len(resp.Entries) != 1 {
		t.Fatalf("unexpected page: %+v", resp)
	}
}

func TestHistoryHandler_Page_Defaults(t *testing.T) {
	var captured usecase.HistoryPageInput
	handler := NewHistoryHandler(&historyServiceStub{
		pageFn: func(ctx context.Context, input usecase.HistoryPageInput) (*domain.EntryPage, error) {
			captured = input
			return domain.NewEntryPage(nil, input.Page, input.PageSize, 0), nil
		},
	})

	rec := httptest.NewRecorder()
	handler.Page(rec, withAccount(httptest.NewRequest(http.MethodGet, "/entries", nil), "acc-1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.Page != 0 || captured.PageSize != domain.DefaultPageSize {
		t.Fatalf("unexpected defaults: %+v", captured)
	}

	rec = httptest.NewRecorder()
	handler.Page(rec, withAccount(httptest.NewRequest(http.MethodGet, "/entries?size=big", nil), "acc-1"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHistoryHandler_Page_LargePageNumbers(t *testing.T) {
	var captured usecase.HistoryPageInput
	handler := NewHistoryHandler(&historyServiceStub{
		pageFn: func(ctx context.Context, input usecase.HistoryPageInput) (*domain.EntryPage, error) {
			captured = input
			return domain.NewEntryPage([]*domain.Entry{}, domain.MaxPage, 100, 3), nil
		},
	})

	rec := httptest.NewRecorder()
	handler.Page(rec, withAccount(httptest.NewRequest(http.MethodGet, "/entries?page=184467440737095516&size=100", nil), "acc-1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Page != 184467440737095516 {
		t.Fatalf("expected page to reach the service, got %+v", captured)
	}

	var resp dto.EntryPageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Entries) != 0 || resp.Page != domain.MaxPage {
		t.Fatalf("unexpected page: %+v", resp)
	}

	rec = httptest.NewRecorder()
	handler.Page(rec, withAccount(httptest.NewRequest(http.MethodGet, "/entries?page=99999999999999999999", nil), "acc-1"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a page beyond int range, got %d", rec.Code)
	}
}

func TestHistoryHandler_All(t *testing.T) {
	handler := NewHistoryHandler(&historyServiceStub{
		historyFn: func(ctx context.Context, accountID string) ([]*domain.Entry, error) {
			return nil, nil
		},
	})

	rec := httptest.NewRecorder()
	handler.All(rec, withAccount(httptest.NewRequest(http.MethodGet, "/entries/all", nil), "acc-1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := decodeEntries(t, rec); len(got) != 0 {
		t.Fatalf("expected empty history, got %d entries", len(got))
	}
}

func TestHistoryHandler_Range(t *testing.T) {
	var gotStart, gotEnd time.Time
	handler := NewHistoryHandler(&historyServiceStub{
		rangeFn: func(ctx context.Context, accountID string, start, end time.Time) ([]*domain.Entry, error) {
			gotStart, gotEnd = start, end
			if end.Before(start) {
				return nil, domain.ErrInvalidDateRange
			}
			return []*domain.Entry{sampleEntry(domain.Deposit{}, "1", "1")}, nil
		},
	})

	testCases := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{name: "valid", query: "?start=2024-01-01T00:00:00Z&end=2024-02-01T00:00:00Z", wantStatus: http.StatusOK},
		{name: "reversed", query: "?start=2024-02-01T00:00:00Z&end=2024-01-01T00:00:00Z", wantStatus: http.StatusBadRequest},
		{name: "missing end", query: "?start=2024-01-01T00:00:00Z", wantStatus: http.StatusBadRequest},
		{name: "bad start", query: "?start=yesterday&end=2024-01-01T00:00:00Z", wantStatus: http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.Range(rec, withAccount(httptest.NewRequest(http.MethodGet, "/entries/range"+tc.query, nil), "acc-1"))

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tc.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}

	if !gotStart.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) || !gotEnd.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected last parsed range to be passed through, got %v..%v", gotStart, gotEnd)
	}
}

func TestHistoryHandler_Get(t *testing.T) {
	handler := NewHistoryHandler(&historyServiceStub{
		entryFn: func(ctx context.Context, callerAccountID, entryID string) (*domain.Entry, error) {
			switch entryID {
			case "ent-1":
				return sampleEntry(domain.Deposit{}, "5", "5"), nil
			case "ent-other":
				return nil, domain.ErrAccessDenied
			default:
				return nil, domain.ErrEntryNotFound
			}
		},
	})

	testCases := []struct {
		id         string
		wantStatus int
	}{
		{id: "ent-1", wantStatus: http.StatusOK},
		{id: "ent-other", wantStatus: http.StatusForbidden},
		{id: "missing", wantStatus: http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.id, func(t *testing.T) {
			req := withURLParam(httptest.NewRequest(http.MethodGet, "/entries/"+tc.id, nil), "id", tc.id)
			rec := httptest.NewRecorder()
			handler.Get(rec, withAccount(req, "acc-1"))

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, rec.Code)
			}
		})
	}
}

func TestHistoryHandler_ByNumberAndLegs(t *testing.T) {
	var gotNumber, gotTransfer string
	handler := NewHistoryHandler(&historyServiceStub{
		byNumberFn: func(ctx context.Context, callerAccountID, number string) ([]*domain.Entry, error) {
			gotNumber = number
			return nil, domain.ErrAccessDenied
		},
		legsFn: func(ctx context.Context, callerAccountID, transferID string) ([]*domain.Entry, error) {
			gotTransfer = transferID
			leg := domain.TransferLeg{TransferID: transferID, SenderAccountNumber: "a", RecipientAccountNumber: "b"}
			return []*domain.Entry{
				sampleEntry(domain.TransferSent{TransferLeg: leg}, "3", "7"),
				sampleEntry(domain.TransferReceived{TransferLeg: leg}, "3", "3"),
			}, nil
		},
	})

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/entries/by-number/123", nil), "number", "123")
	rec := httptest.NewRecorder()
	handler.ByNumber(rec, withAccount(req, "acc-1"))
	if rec.Code != http.StatusForbidden || gotNumber != "123" {
		t.Fatalf("expected 403 for number 123, got %d for %q", rec.Code, gotNumber)
	}

	req = withURLParam(httptest.NewRequest(http.MethodGet, "/transfers/trf-9/entries", nil), "id", "trf-9")
	rec = httptest.NewRecorder()
	handler.TransferLegs(rec, withAccount(req, "acc-1"))
	if rec.Code != http.StatusOK || gotTransfer != "trf-9" {
		t.Fatalf("expected 200 for trf-9, got %d for %q", rec.Code, gotTransfer)
	}
	if legs := decodeEntries(t, rec); len(legs) != 2 || legs[0].TransferID != "trf-9" {
		t.Fatalf("unexpected legs: %+v", legs)
	}
}
