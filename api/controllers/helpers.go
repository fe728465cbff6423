package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/clipforge/quota-service/pkg/db/models"
	"github.com/clipforge/quota-service/pkg/enums"
)

func timeoutContext(r *http.Request, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), d)
}

// accountResponse is the wire shape for account records.
type accountResponse struct {
	AccountID      string         `json:"account_id"`
	PlanTier       enums.PlanTier `json:"plan_tier"`
	BalanceSeconds int64          `json:"balance_seconds"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func toAccountResponse(account *models.Account) accountResponse {
	return accountResponse{
		AccountID:      account.ID.String(),
		PlanTier:       account.PlanTier,
		BalanceSeconds: account.BalanceSeconds,
		CreatedAt:      account.CreatedAt,
		UpdatedAt:      account.UpdatedAt,
	}
}
