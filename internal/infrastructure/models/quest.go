package models

import (
	"time"

	"github.com/google/uuid"
)

type Quest struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerUserID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Title        string    `gorm:"type:varchar(255);not null"`
	RewardAmount string    `gorm:"type:varchar(64)"`
	CreatedAt    time.Time

	// Relations
	Owner *User `gorm:"foreignKey:OwnerUserID;references:ID"`
}

type QuestCompletion struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	QuestID          uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_quest_completions_quest_user,priority:1"`
	UserID           uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_quest_completions_quest_user,priority:2"`
	CredentialStatus string     `gorm:"type:varchar(16);not null;index"`
	PendingReason    *string    `gorm:"type:text"`
	MintTxHash       *string    `gorm:"type:varchar(66)"`
	CredentialID     *uuid.UUID `gorm:"type:uuid"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
