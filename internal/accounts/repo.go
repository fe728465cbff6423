package accounts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"github.com/clipforge/quota-service/pkg/config"
	"github.com/clipforge/quota-service/pkg/db"
	"github.com/clipforge/quota-service/pkg/db/models"
)

// Repository is the durable ledger store for account balance records. All
// balance mutation goes through CompareAndSwap; there is no unguarded update.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context, id uuid.UUID) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) error
	// CompareAndSwap persists the new balance only when the stored version
	// still matches expectedVersion. Returns false when the record moved.
	CompareAndSwap(ctx context.Context, id uuid.UUID, expectedVersion, balanceSeconds int64) (bool, error)
}

type repository struct {
	db            *gorm.DB
	retryAttempts uint64
	retryBase     time.Duration
}

// NewRepository returns an account repository bound to the provided database.
// Transient storage errors are retried with fibonacci backoff before they
// surface to callers.
func NewRepository(conn *gorm.DB, cfg config.QuotaConfig) Repository {
	base := cfg.StorageRetryBase
	if base <= 0 {
		base = 50 * time.Millisecond
	}
	return &repository{
		db:            conn,
		retryAttempts: cfg.StorageRetryAttempts,
		retryBase:     base,
	}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx, retryAttempts: r.retryAttempts, retryBase: r.retryBase}
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	err := r.withRetry(ctx, func() error {
		return r.db.WithContext(ctx).First(&account, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) Create(ctx context.Context, account *models.Account) error {
	return r.withRetry(ctx, func() error {
		return r.db.WithContext(ctx).Create(account).Error
	})
}

func (r *repository) CompareAndSwap(ctx context.Context, id uuid.UUID, expectedVersion, balanceSeconds int64) (bool, error) {
	var affected int64
	err := r.withRetry(ctx, func() error {
		res := r.db.WithContext(ctx).
			Model(&models.Account{}).
			Where("id = ? AND version = ?", id, expectedVersion).
			Updates(map[string]any{
				"balance_seconds": balanceSeconds,
				"version":         expectedVersion + 1,
				"updated_at":      time.Now().UTC(),
			})
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *repository) withRetry(ctx context.Context, op func() error) error {
	backoff := retry.WithMaxRetries(r.retryAttempts, retry.NewFibonacci(r.retryBase))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := op()
		if db.IsTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}
