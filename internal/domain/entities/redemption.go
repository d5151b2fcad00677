package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// CredentialStatus tracks whether the on-chain artifact for a redemption exists yet.
type CredentialStatus string

const (
	CredentialStatusPending CredentialStatus = "PENDING"
	CredentialStatusIssued  CredentialStatus = "ISSUED"
)

// RedemptionCode is an opaque code handed out to event attendees.
type RedemptionCode struct {
	ID           uuid.UUID `json:"id"`
	Code         string    `json:"code"`
	OwnerEventID uuid.UUID `json:"eventId"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	// Joins
	Event *Event `json:"event,omitempty"`
}

// Redemption records that a user redeemed a code. At most one per (code, user).
type Redemption struct {
	ID               uuid.UUID        `json:"id"`
	CodeID           uuid.UUID        `json:"codeId"`
	UserID           uuid.UUID        `json:"userId"`
	CredentialStatus CredentialStatus `json:"credentialStatus"`
	PendingReason    null.String      `json:"pendingReason,omitempty"`
	MintTxHash       null.String      `json:"mintTxHash,omitempty"`
	CredentialID     *uuid.UUID       `json:"credentialId,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// ReferenceID is the on-chain reference recorded with the minted credential.
func (r *Redemption) ReferenceID() string {
	return "redemption:" + r.ID.String()
}

// RedeemInput represents input for redeeming a code
type RedeemInput struct {
	Code string `json:"code" binding:"required"`
}

// RedeemResult is what the ledger reports back for a redemption attempt.
type RedeemResult struct {
	Redeemed      bool              `json:"redeemed"`
	RedemptionID  uuid.UUID         `json:"redemptionId"`
	Credential    *IssuedCredential `json:"credential,omitempty"`
	PendingReason string            `json:"pendingReason,omitempty"`
}
