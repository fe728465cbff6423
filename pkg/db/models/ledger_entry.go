package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/clipforge/quota-service/pkg/enums"
)

// LedgerEntry records an immutable quota mutation. Debits keep both the
// requested and the actually debited seconds so the floor-at-zero clamp stays
// auditable.
type LedgerEntry struct {
	ID                  uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	AccountID           uuid.UUID             `gorm:"column:account_id;type:uuid;not null;index"`
	Kind                enums.LedgerEntryKind `gorm:"column:kind;type:text;not null"`
	RequestedSeconds    int64                 `gorm:"column:requested_seconds;not null"`
	DebitedSeconds      int64                 `gorm:"column:debited_seconds;not null"`
	BalanceAfterSeconds int64                 `gorm:"column:balance_after_seconds;not null"`
	CreatedAt           time.Time             `gorm:"column:created_at;autoCreateTime"`
}
