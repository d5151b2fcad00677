package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// Quest is a task whose approved submissions earn a completion credential.
type Quest struct {
	ID           uuid.UUID `json:"id"`
	OwnerUserID  uuid.UUID `json:"ownerUserId"`
	Title        string    `json:"title"`
	RewardAmount string    `json:"rewardAmount,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`

	// Joins
	Owner *User `json:"owner,omitempty"`
}

// QuestCompletion claims the completion credential of a quest for one user.
// At most one exists per (quest, user) and it is written before any mint.
type QuestCompletion struct {
	ID               uuid.UUID        `json:"id"`
	QuestID          uuid.UUID        `json:"questId"`
	UserID           uuid.UUID        `json:"userId"`
	CredentialStatus CredentialStatus `json:"credentialStatus"`
	PendingReason    null.String      `json:"pendingReason,omitempty"`
	MintTxHash       null.String      `json:"mintTxHash,omitempty"`
	CredentialID     *uuid.UUID       `json:"credentialId,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// ReferenceID is the on-chain reference recorded with the minted credential.
func (q *QuestCompletion) ReferenceID() string {
	return QuestReferenceID(q.QuestID, q.UserID)
}

// QuestReferenceID is the on-chain reference for the completion of questID by userID.
func QuestReferenceID(questID, userID uuid.UUID) string {
	return "quest:" + questID.String() + ":" + userID.String()
}

// ApproveQuestInput names the user whose submission was approved.
type ApproveQuestInput struct {
	UserID string `json:"userId" binding:"required"`
}

// QuestCompletionResult is what approving a quest submission reports back.
type QuestCompletionResult struct {
	Completed     bool              `json:"completed"`
	CompletionID  uuid.UUID         `json:"completionId"`
	Credential    *IssuedCredential `json:"credential,omitempty"`
	PendingReason string            `json:"pendingReason,omitempty"`
}
