package controllers

import (
	"net/http"
	"time"

	"github.com/clipforge/quota-service/api/middleware"
	"github.com/clipforge/quota-service/api/responses"
	"github.com/clipforge/quota-service/api/validators"
	"github.com/clipforge/quota-service/internal/ledger"
	"github.com/clipforge/quota-service/pkg/enums"
	pkgerrors "github.com/clipforge/quota-service/pkg/errors"
	"github.com/clipforge/quota-service/pkg/logger"
	"github.com/clipforge/quota-service/pkg/pagination"
)

type ledgerEntryResponse struct {
	ID                  string                `json:"id"`
	Kind                enums.LedgerEntryKind `json:"kind"`
	RequestedSeconds    int64                 `json:"requested_seconds"`
	DebitedSeconds      int64                 `json:"debited_seconds"`
	BalanceAfterSeconds int64                 `json:"balance_after_seconds"`
	CreatedAt           time.Time             `json:"created_at"`
}

type ledgerListResponse struct {
	Entries    []ledgerEntryResponse `json:"entries"`
	NextCursor string                `json:"next_cursor,omitempty"`
}

// LedgerList returns the account's audit trail, newest first.
func LedgerList(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		accountID := middleware.AccountIDFromContext(r.Context())
		page, err := svc.ListEntries(r.Context(), accountID, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := ledgerListResponse{
			Entries:    make([]ledgerEntryResponse, 0, len(page.Entries)),
			NextCursor: page.NextCursor,
		}
		for _, entry := range page.Entries {
			resp.Entries = append(resp.Entries, ledgerEntryResponse{
				ID:                  entry.ID.String(),
				Kind:                entry.Kind,
				RequestedSeconds:    entry.RequestedSeconds,
				DebitedSeconds:      entry.DebitedSeconds,
				BalanceAfterSeconds: entry.BalanceAfterSeconds,
				CreatedAt:           entry.CreatedAt,
			})
		}

		responses.WriteSuccess(w, resp)
	}
}
