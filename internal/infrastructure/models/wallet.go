package models

import (
	"time"

	"github.com/google/uuid"
)

// Wallet rows are hard-deleted on unlink so the unique indexes free the user and address.
type Wallet struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID              uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_wallets_user_id"`
	Address             string    `gorm:"type:varchar(42);not null;uniqueIndex:uq_wallets_address"`
	IsExternal          bool      `gorm:"not null;default:false"`
	EncryptedPrivateKey *string   `gorm:"type:text"`
	ChainID             *int64
	CreatedAt           time.Time
}
