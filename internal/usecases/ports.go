package usecases

import (
	"context"
	"math/big"

	"soulbound.backend/internal/domain/entities"
)

// CredentialGateway is the minting gateway as seen by the usecases.
type CredentialGateway interface {
	IsReady() bool
	ContractAddress() string
	Mint(ctx context.Context, req entities.MintRequest) (*entities.MintResult, error)
	FindCredentialForReference(ctx context.Context, owner, referenceID string) entities.ChainRead[*entities.OnchainCredential]
	TokenURI(ctx context.Context, tokenID *big.Int) entities.ChainRead[string]
	TransactionBlock(ctx context.Context, txHash string) entities.ChainRead[uint64]
	GetCredentialsByOwner(ctx context.Context, owner string) []string
	CheckExternalOwnership(ctx context.Context, contract, owner string, tokenID *big.Int) bool
}

// NonceStore holds the outstanding wallet-link nonce per address.
type NonceStore interface {
	Issue(ctx context.Context, address, nonce string) error
	Consume(ctx context.Context, address, message string) (bool, error)
}

// KeyCipher encrypts custodial private keys at rest.
type KeyCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(encrypted string) (string, error)
}
