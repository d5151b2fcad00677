package repositories

import (
	"context"

	"github.com/google/uuid"
	"soulbound.backend/internal/domain/entities"
	"soulbound.backend/pkg/utils"
)

// RedemptionCodeRepository defines redemption code operations
type RedemptionCodeRepository interface {
	Create(ctx context.Context, code *entities.RedemptionCode) error
	GetByCode(ctx context.Context, code string) (*entities.RedemptionCode, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// RedemptionRepository defines redemption operations.
// Create returns ErrAlreadyRedeemed when (code, user) already exists.
// MarkPending only touches rows that are still PENDING.
type RedemptionRepository interface {
	Create(ctx context.Context, redemption *entities.Redemption) error
	GetByCodeAndUser(ctx context.Context, codeID, userID uuid.UUID) (*entities.Redemption, error)
	MarkIssued(ctx context.Context, id, credentialID uuid.UUID) error
	MarkPending(ctx context.Context, id uuid.UUID, reason, txHash string) error
	ListPending(ctx context.Context, limit int) ([]*entities.Redemption, error)
}

// CredentialRepository defines issued credential operations. Credentials are append-only.
type CredentialRepository interface {
	Create(ctx context.Context, credential *entities.IssuedCredential) error
	GetByReference(ctx context.Context, referenceID string) (*entities.IssuedCredential, error)
	ListByWallet(ctx context.Context, walletID uuid.UUID, pagination utils.PaginationParams) ([]*entities.IssuedCredential, int64, error)
}
