package models

import (
	"time"

	"github.com/google/uuid"
)

type RedemptionCode struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Code         string    `gorm:"type:varchar(64);not null;uniqueIndex:uq_redemption_codes_code"`
	OwnerEventID uuid.UUID `gorm:"type:uuid;not null;index"`
	IsActive     bool      `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Relations
	Event *Event `gorm:"foreignKey:OwnerEventID;references:ID"`
}

type Redemption struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CodeID           uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_redemptions_code_user,priority:1"`
	UserID           uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_redemptions_code_user,priority:2"`
	CredentialStatus string     `gorm:"type:varchar(16);not null;index"`
	PendingReason    *string    `gorm:"type:text"`
	MintTxHash       *string    `gorm:"type:varchar(66)"`
	CredentialID     *uuid.UUID `gorm:"type:uuid"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type IssuedCredential struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	TokenID         string    `gorm:"type:varchar(78);not null"`
	ContractAddress string    `gorm:"type:varchar(42);not null"`
	MetadataURI     string    `gorm:"type:text;not null"`
	OwnerWalletID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Kind            string    `gorm:"type:varchar(32);not null"`
	ReferenceID     string    `gorm:"type:varchar(128);not null;uniqueIndex:uq_issued_credentials_reference"`
	TransactionHash string    `gorm:"type:varchar(66);not null"`
	BlockNumber     uint64
	CreatedAt       time.Time
}
