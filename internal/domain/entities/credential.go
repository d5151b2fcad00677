package entities

import (
	"time"

	"github.com/google/uuid"
)

// CredentialKind is the action a credential attests to.
type CredentialKind string

const (
	CredentialKindEventAttendance CredentialKind = "EVENT_ATTENDANCE"
	CredentialKindQuestCompletion CredentialKind = "QUEST_COMPLETION"
)

// ContractValue is the uint8 the credential contract uses for a kind.
func (k CredentialKind) ContractValue() uint8 {
	switch k {
	case CredentialKindQuestCompletion:
		return 1
	default:
		return 0
	}
}

// CredentialKindFromContract maps the contract's uint8 back to a kind.
func CredentialKindFromContract(v uint8) CredentialKind {
	if v == 1 {
		return CredentialKindQuestCompletion
	}
	return CredentialKindEventAttendance
}

// IssuedCredential is an immutable record of a confirmed mint.
type IssuedCredential struct {
	ID              uuid.UUID      `json:"id"`
	TokenID         string         `json:"tokenId"`
	ContractAddress string         `json:"contractAddress"`
	MetadataURI     string         `json:"metadataUri"`
	OwnerWalletID   uuid.UUID      `json:"ownerWalletId"`
	Kind            CredentialKind `json:"kind"`
	ReferenceID     string         `json:"referenceId"`
	TransactionHash string         `json:"transactionHash"`
	BlockNumber     uint64         `json:"blockNumber"`
	CreatedAt       time.Time      `json:"createdAt"`
}

// MintRequest is the transient input to the minting gateway.
type MintRequest struct {
	RecipientAddress string
	MetadataURI      string
	Kind             CredentialKind
	ReferenceID      string
}

// MintResult is what a confirmed mint produced on chain.
type MintResult struct {
	TokenID         string `json:"tokenId"`
	TransactionHash string `json:"transactionHash"`
	BlockNumber     uint64 `json:"blockNumber"`
}

// CredentialFacts are the human facts rendered into credential metadata.
type CredentialFacts struct {
	Title         string
	Date          time.Time
	RecipientName string
	IssuerName    string
	RewardAmount  string
	ReferenceID   string
}

// OnchainCredential is a token owned by an address as reported by the contract.
type OnchainCredential struct {
	TokenID     string         `json:"tokenId"`
	Kind        CredentialKind `json:"kind"`
	ReferenceID string         `json:"referenceId"`
}

// ChainRead is the result of a contract read. Available is false when the
// chain could not be queried, which callers must not confuse with a zero value.
type ChainRead[T any] struct {
	Value     T
	Available bool
}

// ReadOK wraps a successful read.
func ReadOK[T any](v T) ChainRead[T] {
	return ChainRead[T]{Value: v, Available: true}
}

// ReadUnavailable marks a read that could not be performed.
func ReadUnavailable[T any]() ChainRead[T] {
	return ChainRead[T]{}
}
