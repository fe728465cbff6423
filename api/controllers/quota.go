package controllers

import (
	"net/http"

	"github.com/clipforge/quota-service/api/middleware"
	"github.com/clipforge/quota-service/api/responses"
	"github.com/clipforge/quota-service/api/validators"
	"github.com/clipforge/quota-service/internal/quota"
	pkgerrors "github.com/clipforge/quota-service/pkg/errors"
	"github.com/clipforge/quota-service/pkg/logger"
)

// QuotaCheck reports whether the account balance covers an estimated cost.
// Advisory only: the subsequent charge may still clamp if balance moved.
func QuotaCheck(svc quota.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quota service unavailable"))
			return
		}

		estimated, err := validators.ParseQueryInt64(r, "estimated_seconds")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		accountID := middleware.AccountIDFromContext(r.Context())
		allowed, err := svc.Check(r.Context(), accountID, estimated)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"account_id":        accountID,
			"estimated_seconds": estimated,
			"allowed":           allowed,
		})
	}
}

// Seconds is only checked for presence here; the sign check lives in the
// quota service so a negative amount reports INVALID_CHARGE_AMOUNT.
type chargeRequest struct {
	Seconds *int64 `json:"seconds" validate:"required"`
}

type chargeResponse struct {
	AccountID        string `json:"account_id"`
	RequestedSeconds int64  `json:"requested_seconds"`
	DebitedSeconds   int64  `json:"debited_seconds"`
	BalanceSeconds   int64  `json:"balance_seconds"`
}

// Charge debits the reported actual cost of a completed operation.
func Charge(svc quota.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quota service unavailable"))
			return
		}

		var req chargeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		accountID := middleware.AccountIDFromContext(r.Context())
		result, err := svc.Charge(r.Context(), accountID, *req.Seconds)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, chargeResponse{
			AccountID:        result.AccountID.String(),
			RequestedSeconds: result.RequestedSeconds,
			DebitedSeconds:   result.DebitedSeconds,
			BalanceSeconds:   result.BalanceSeconds,
		})
	}
}
