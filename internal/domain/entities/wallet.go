package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// Wallet represents a user's receiving wallet. A user owns exactly one.
type Wallet struct {
	ID                  uuid.UUID   `json:"id"`
	UserID              uuid.UUID   `json:"userId"`
	Address             string      `json:"address"`
	IsExternal          bool        `json:"isExternal"`
	EncryptedPrivateKey null.String `json:"-"`
	ChainID             null.Int64  `json:"chainId"`
	CreatedAt           time.Time   `json:"createdAt"`
}

// IsCustodial reports whether the platform holds the wallet key.
func (w *Wallet) IsCustodial() bool {
	return !w.IsExternal
}

// NormalizeAddress lower-cases and trims an EVM address for storage and comparison.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// WalletNonce is the anti-replay challenge a user signs with an external wallet.
type WalletNonce struct {
	Nonce   string `json:"nonce"`
	Message string `json:"message"`
}

// NonceInput represents input for requesting a link nonce
type NonceInput struct {
	Address string `json:"address" binding:"required"`
}

// LinkWalletInput represents input for linking an external wallet
type LinkWalletInput struct {
	Address   string `json:"address" binding:"required"`
	Signature string `json:"signature" binding:"required"`
	Message   string `json:"message" binding:"required"`
	ChainID   *int64 `json:"chainId,omitempty"`
}
