package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clipforge/quota-service/internal/accounts"
	"github.com/clipforge/quota-service/internal/ledger"
	"github.com/clipforge/quota-service/pkg/db/models"
	"github.com/clipforge/quota-service/pkg/enums"
	pkgerrors "github.com/clipforge/quota-service/pkg/errors"
	"github.com/clipforge/quota-service/pkg/metrics"
)

// DefaultChargeMaxAttempts bounds the compare-and-swap retry loop when the
// configuration leaves it unset.
const DefaultChargeMaxAttempts = 5

// Service authorizes and debits metered consumption.
type Service interface {
	// Check reports whether the account's balance covers the estimate. Pure
	// advisory read: a concurrent charge can still drain the balance before
	// the caller's own charge lands.
	Check(ctx context.Context, accountID string, estimatedSeconds int64) (bool, error)

	// Charge atomically debits actualSeconds from the balance, flooring at
	// zero, and appends a ledger entry in the same transaction. Charges
	// against one account are linearizable via the version CAS.
	Charge(ctx context.Context, accountID string, actualSeconds int64) (*ChargeResult, error)
}

// ChargeResult reports the effect of a completed charge.
type ChargeResult struct {
	AccountID        uuid.UUID
	RequestedSeconds int64
	DebitedSeconds   int64
	BalanceSeconds   int64
	Attempts         int
	Entry            *models.LedgerEntry
}

// Txer runs a function inside a storage transaction.
type Txer interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	tx          Txer
	accounts    accounts.Repository
	ledger      ledger.Repository
	maxAttempts int
	metrics     *metrics.QuotaMetrics
}

// NewService wires a quota service over the account and ledger repositories.
func NewService(tx Txer, accountsRepo accounts.Repository, ledgerRepo ledger.Repository, maxAttempts int, m *metrics.QuotaMetrics) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if accountsRepo == nil {
		return nil, fmt.Errorf("accounts repository required")
	}
	if ledgerRepo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultChargeMaxAttempts
	}
	return &service{
		tx:          tx,
		accounts:    accountsRepo,
		ledger:      ledgerRepo,
		maxAttempts: maxAttempts,
		metrics:     m,
	}, nil
}

func (s *service) Check(ctx context.Context, accountID string, estimatedSeconds int64) (bool, error) {
	id, err := accounts.ParseAccountID(accountID)
	if err != nil {
		return false, err
	}
	if estimatedSeconds < 0 {
		return false, invalidAmount(accountID, estimatedSeconds)
	}

	account, err := s.accounts.Get(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, accounts.NotFound(accountID)
	}
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeStorageUnavailable, err, "loading account")
	}
	return account.BalanceSeconds >= estimatedSeconds, nil
}

// errStaleVersion aborts the charge transaction when the CAS loses; the loop
// re-reads and tries again.
var errStaleVersion = errors.New("stale account version")

func (s *service) Charge(ctx context.Context, accountID string, actualSeconds int64) (*ChargeResult, error) {
	id, err := accounts.ParseAccountID(accountID)
	if err != nil {
		return nil, err
	}
	if actualSeconds < 0 {
		return nil, invalidAmount(accountID, actualSeconds)
	}

	start := time.Now()
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		account, err := s.accounts.Get(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.ObserveCharge("not_found", time.Since(start))
			return nil, accounts.NotFound(accountID)
		}
		if err != nil {
			s.metrics.ObserveCharge("storage_error", time.Since(start))
			return nil, pkgerrors.Wrap(pkgerrors.CodeStorageUnavailable, err, "loading account")
		}

		newBalance := account.BalanceSeconds - actualSeconds
		if newBalance < 0 {
			newBalance = 0
		}
		debited := account.BalanceSeconds - newBalance

		// A zero-second charge reports the balance without mutating it; the
		// reference accounting treats it as a no-op.
		if actualSeconds == 0 {
			return &ChargeResult{
				AccountID:        id,
				RequestedSeconds: 0,
				DebitedSeconds:   0,
				BalanceSeconds:   account.BalanceSeconds,
				Attempts:         attempt,
			}, nil
		}

		entry := &models.LedgerEntry{
			ID:                  uuid.New(),
			AccountID:           id,
			Kind:                enums.LedgerEntryKindDebit,
			RequestedSeconds:    actualSeconds,
			DebitedSeconds:      debited,
			BalanceAfterSeconds: newBalance,
		}

		txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			swapped, casErr := s.accounts.WithTx(tx).CompareAndSwap(ctx, id, account.Version, newBalance)
			if casErr != nil {
				return casErr
			}
			if !swapped {
				return errStaleVersion
			}
			return s.ledger.WithTx(tx).Create(ctx, entry)
		})

		if txErr == nil {
			s.metrics.AddClampedSeconds(actualSeconds - debited)
			s.metrics.ObserveCharge("ok", time.Since(start))
			return &ChargeResult{
				AccountID:        id,
				RequestedSeconds: actualSeconds,
				DebitedSeconds:   debited,
				BalanceSeconds:   newBalance,
				Attempts:         attempt,
				Entry:            entry,
			}, nil
		}
		if !errors.Is(txErr, errStaleVersion) {
			s.metrics.ObserveCharge("storage_error", time.Since(start))
			return nil, pkgerrors.Wrap(pkgerrors.CodeStorageUnavailable, txErr, "persisting charge")
		}
		s.metrics.IncCASRetry()
	}

	s.metrics.ObserveCharge("contention", time.Since(start))
	return nil, pkgerrors.New(pkgerrors.CodeChargeFailed, "charge contention exhausted").
		WithDetails(map[string]any{"account_id": accountID, "attempts": s.maxAttempts})
}

func invalidAmount(accountID string, seconds int64) error {
	return pkgerrors.New(pkgerrors.CodeInvalidChargeAmount, "seconds must be a non-negative integer").
		WithDetails(map[string]any{"account_id": accountID, "seconds": seconds})
}
