package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"soulbound.backend/internal/domain/entities"
	domainerrors "soulbound.backend/internal/domain/errors"
	"soulbound.backend/internal/infrastructure/models"
	"soulbound.backend/pkg/utils"
)

// CredentialRepository implements issued credential operations
type CredentialRepository struct {
	db *gorm.DB
}

// NewCredentialRepository creates a new credential repository
func NewCredentialRepository(db *gorm.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Create appends an issued credential
func (r *CredentialRepository) Create(ctx context.Context, credential *entities.IssuedCredential) error {
	if credential.ID == uuid.Nil {
		credential.ID = utils.GenerateUUIDv7()
	}
	if credential.CreatedAt.IsZero() {
		credential.CreatedAt = time.Now()
	}

	m := &models.IssuedCredential{
		ID:              credential.ID,
		TokenID:         credential.TokenID,
		ContractAddress: credential.ContractAddress,
		MetadataURI:     credential.MetadataURI,
		OwnerWalletID:   credential.OwnerWalletID,
		Kind:            string(credential.Kind),
		ReferenceID:     credential.ReferenceID,
		TransactionHash: credential.TransactionHash,
		BlockNumber:     credential.BlockNumber,
		CreatedAt:       credential.CreatedAt,
	}
	if err := GetDB(ctx, r.db).Create(m).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return err
	}
	return nil
}

// GetByReference gets the credential minted for a reference id
func (r *CredentialRepository) GetByReference(ctx context.Context, referenceID string) (*entities.IssuedCredential, error) {
	var m models.IssuedCredential
	if err := GetDB(ctx, r.db).Where("reference_id = ?", referenceID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toCredentialEntity(&m), nil
}

// ListByWallet lists credentials attributed to a wallet, newest first
func (r *CredentialRepository) ListByWallet(ctx context.Context, walletID uuid.UUID, pagination utils.PaginationParams) ([]*entities.IssuedCredential, int64, error) {
	var total int64
	if err := GetDB(ctx, r.db).Model(&models.IssuedCredential{}).
		Where("owner_wallet_id = ?", walletID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := GetDB(ctx, r.db).Where("owner_wallet_id = ?", walletID).Order("created_at DESC")
	if pagination.Limit > 0 {
		query = query.Limit(pagination.Limit).Offset(pagination.CalculateOffset())
	}

	var rows []models.IssuedCredential
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]*entities.IssuedCredential, 0, len(rows))
	for i := range rows {
		out = append(out, toCredentialEntity(&rows[i]))
	}
	return out, total, nil
}

func toCredentialEntity(m *models.IssuedCredential) *entities.IssuedCredential {
	return &entities.IssuedCredential{
		ID:              m.ID,
		TokenID:         m.TokenID,
		ContractAddress: m.ContractAddress,
		MetadataURI:     m.MetadataURI,
		OwnerWalletID:   m.OwnerWalletID,
		Kind:            entities.CredentialKind(m.Kind),
		ReferenceID:     m.ReferenceID,
		TransactionHash: m.TransactionHash,
		BlockNumber:     m.BlockNumber,
		CreatedAt:       m.CreatedAt,
	}
}
