package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clipforge/quota-service/api/middleware"
	"github.com/clipforge/quota-service/internal/ledger"
	"github.com/clipforge/quota-service/pkg/db/models"
	"github.com/clipforge/quota-service/pkg/enums"
	"github.com/clipforge/quota-service/pkg/pagination"
)

type stubLedgerService struct {
	list func(ctx context.Context, accountID string, params pagination.Params) (*ledger.EntryPage, error)
}

func (s *stubLedgerService) ListEntries(ctx context.Context, accountID string, params pagination.Params) (*ledger.EntryPage, error) {
	if s.list != nil {
		return s.list(ctx, accountID, params)
	}
	return &ledger.EntryPage{}, nil
}

func ledgerRouter(svc ledger.Service) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/v1/accounts/{accountId}", func(r chi.Router) {
		r.Use(middleware.AccountContext(nil))
		r.Get("/ledger", LedgerList(svc, nil))
	})
	return r
}

func TestLedgerListHandler(t *testing.T) {
	accountID := uuid.New()
	entry := models.LedgerEntry{
		ID:                  uuid.New(),
		AccountID:           accountID,
		Kind:                enums.LedgerEntryKindDebit,
		RequestedSeconds:    100,
		DebitedSeconds:      100,
		BalanceAfterSeconds: 3500,
		CreatedAt:           time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	svc := &stubLedgerService{
		list: func(ctx context.Context, gotID string, params pagination.Params) (*ledger.EntryPage, error) {
			if gotID != accountID.String() {
				t.Fatalf("unexpected account id %s", gotID)
			}
			if params.Limit != 10 {
				t.Fatalf("unexpected limit %d", params.Limit)
			}
			return &ledger.EntryPage{Entries: []models.LedgerEntry{entry}, NextCursor: "next"}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/"+accountID.String()+"/ledger?limit=10", nil)
	rec := httptest.NewRecorder()
	ledgerRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data ledgerListResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Data.Entries) != 1 {
		t.Fatalf("expected 1 entry got %d", len(resp.Data.Entries))
	}
	got := resp.Data.Entries[0]
	if got.ID != entry.ID.String() || got.DebitedSeconds != 100 || got.BalanceAfterSeconds != 3500 {
		t.Fatalf("unexpected entry %+v", got)
	}
	if resp.Data.NextCursor != "next" {
		t.Fatalf("unexpected cursor %q", resp.Data.NextCursor)
	}
}

func TestLedgerListHandlerLimitTooLarge(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/"+uuid.NewString()+"/ledger?limit=5000", nil)
	rec := httptest.NewRecorder()
	ledgerRouter(&stubLedgerService{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
