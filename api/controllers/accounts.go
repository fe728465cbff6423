package controllers

import (
	"net/http"

	"github.com/clipforge/quota-service/api/middleware"
	"github.com/clipforge/quota-service/api/responses"
	"github.com/clipforge/quota-service/api/validators"
	"github.com/clipforge/quota-service/internal/accounts"
	"github.com/clipforge/quota-service/pkg/enums"
	pkgerrors "github.com/clipforge/quota-service/pkg/errors"
	"github.com/clipforge/quota-service/pkg/logger"
)

type ensureAccountRequest struct {
	AccountID string `json:"account_id" validate:"required"`
	PlanTier  string `json:"plan_tier" validate:"required"`
}

// EnsureAccount provisions the ledger record for an account id. The boundary
// layer calls this on first sight of a new identity; repeats are no-ops.
func EnsureAccount(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "accounts service unavailable"))
			return
		}

		var req ensureAccountRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tier, err := enums.ParsePlanTier(req.PlanTier)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnknownPlanTier, err, "unknown plan tier").
				WithDetails(map[string]any{"plan_tier": req.PlanTier}))
			return
		}

		account, err := svc.EnsureAccount(r.Context(), req.AccountID, tier)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toAccountResponse(account))
	}
}

// GetAccount returns the balance record for the routed account.
func GetAccount(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "accounts service unavailable"))
			return
		}

		accountID := middleware.AccountIDFromContext(r.Context())
		account, err := svc.GetAccount(r.Context(), accountID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toAccountResponse(account))
	}
}
