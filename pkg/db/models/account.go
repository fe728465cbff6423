package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/clipforge/quota-service/pkg/enums"
)

// Account is the unit of quota ownership. The id is assigned by the identity
// provider and supplied by the caller; this service never generates one.
// Version backs the compare-and-swap discipline on balance mutations.
type Account struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	PlanTier       enums.PlanTier `gorm:"column:plan_tier;type:text;not null"`
	BalanceSeconds int64          `gorm:"column:balance_seconds;not null"`
	Version        int64          `gorm:"column:version;not null;default:1"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
