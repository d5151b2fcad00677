package repositories

import (
	"context"

	"github.com/google/uuid"
	"soulbound.backend/internal/domain/entities"
)

// WalletRepository defines wallet data operations.
// Create returns ErrAlreadyLinked when either the user or the address is already taken.
type WalletRepository interface {
	Create(ctx context.Context, wallet *entities.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Wallet, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error)
	GetByAddress(ctx context.Context, address string) (*entities.Wallet, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
