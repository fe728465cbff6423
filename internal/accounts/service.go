package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clipforge/quota-service/pkg/config"
	"github.com/clipforge/quota-service/pkg/db"
	"github.com/clipforge/quota-service/pkg/db/models"
	"github.com/clipforge/quota-service/pkg/enums"
	pkgerrors "github.com/clipforge/quota-service/pkg/errors"
	"github.com/clipforge/quota-service/pkg/metrics"
)

// Service provisions accounts and reads balance records.
type Service interface {
	// EnsureAccount creates the ledger record for a new account id, seeded
	// with the tier's starting balance. Idempotent: an existing record is
	// returned unchanged, including under concurrent creation.
	EnsureAccount(ctx context.Context, accountID string, tier enums.PlanTier) (*models.Account, error)
	GetAccount(ctx context.Context, accountID string) (*models.Account, error)
}

type service struct {
	repo    Repository
	quota   config.QuotaConfig
	metrics *metrics.QuotaMetrics
}

// NewService wires an account service with the provided repository.
func NewService(repo Repository, quota config.QuotaConfig, m *metrics.QuotaMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("accounts repository required")
	}
	return &service{repo: repo, quota: quota, metrics: m}, nil
}

// ParseAccountID validates a caller-supplied account identifier. The identity
// provider issues uuids, so anything else is malformed and rejected here as
// invalid input rather than treated as an account that might exist. A lookup
// miss on a well-formed uuid is what surfaces as not-found.
func ParseAccountID(raw string) (uuid.UUID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeInvalidAccountID, "account id is required")
	}
	id, err := uuid.Parse(trimmed)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInvalidAccountID, err, "account id must be a uuid").
			WithDetails(map[string]any{"account_id": raw})
	}
	return id, nil
}

func (s *service) EnsureAccount(ctx context.Context, accountID string, tier enums.PlanTier) (*models.Account, error) {
	id, err := ParseAccountID(accountID)
	if err != nil {
		return nil, err
	}

	starting, ok := s.quota.StartingSeconds(tier)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnknownPlanTier, fmt.Sprintf("unknown plan tier %q", tier)).
			WithDetails(map[string]any{"account_id": accountID, "plan_tier": string(tier)})
	}

	existing, err := s.repo.Get(ctx, id)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storageErr(err, "loading account")
	}

	account := &models.Account{
		ID:             id,
		PlanTier:       tier,
		BalanceSeconds: starting,
		Version:        1,
	}
	if createErr := s.repo.Create(ctx, account); createErr != nil {
		// Lost the creation race: the first writer wins, return its record.
		if db.IsUniqueViolation(createErr, "") {
			winner, getErr := s.repo.Get(ctx, id)
			if getErr != nil {
				return nil, storageErr(getErr, "loading account after create race")
			}
			return winner, nil
		}
		return nil, storageErr(createErr, "creating account")
	}

	s.metrics.IncProvisioned(tier.String())
	return account, nil
}

func (s *service) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	id, err := ParseAccountID(accountID)
	if err != nil {
		return nil, err
	}

	account, err := s.repo.Get(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFound(accountID)
	}
	if err != nil {
		return nil, storageErr(err, "loading account")
	}
	return account, nil
}

// NotFound builds the canonical missing-account error.
func NotFound(accountID string) error {
	return pkgerrors.New(pkgerrors.CodeAccountNotFound, "account not provisioned").
		WithDetails(map[string]any{"account_id": accountID})
}

func storageErr(err error, message string) error {
	return pkgerrors.Wrap(pkgerrors.CodeStorageUnavailable, err, message)
}
