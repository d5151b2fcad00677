package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"soulbound.backend/internal/domain/entities"
	domainerrors "soulbound.backend/internal/domain/errors"
	"soulbound.backend/internal/infrastructure/models"
	"soulbound.backend/pkg/utils"
)

// WalletRepository implements wallet data operations
type WalletRepository struct {
	db *gorm.DB
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// Create creates a new wallet. The address is stored lower-cased.
func (r *WalletRepository) Create(ctx context.Context, wallet *entities.Wallet) error {
	if wallet.ID == uuid.Nil {
		wallet.ID = utils.GenerateUUIDv7()
	}
	if wallet.CreatedAt.IsZero() {
		wallet.CreatedAt = time.Now()
	}
	wallet.Address = entities.NormalizeAddress(wallet.Address)

	m := &models.Wallet{
		ID:                  wallet.ID,
		UserID:              wallet.UserID,
		Address:             wallet.Address,
		IsExternal:          wallet.IsExternal,
		EncryptedPrivateKey: wallet.EncryptedPrivateKey.Ptr(),
		ChainID:             wallet.ChainID.Ptr(),
		CreatedAt:           wallet.CreatedAt,
	}
	if err := GetDB(ctx, r.db).Create(m).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrAlreadyLinked
		}
		return err
	}
	return nil
}

// GetByID gets a wallet by ID
func (r *WalletRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Wallet, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByUserID gets the wallet owned by a user
func (r *WalletRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error) {
	return r.first(ctx, "user_id = ?", userID)
}

// GetByAddress gets a wallet by address, case-insensitively
func (r *WalletRepository) GetByAddress(ctx context.Context, address string) (*entities.Wallet, error) {
	return r.first(ctx, "address = ?", entities.NormalizeAddress(address))
}

// Delete removes a wallet row
func (r *WalletRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := GetDB(ctx, r.db).Where("id = ?", id).Delete(&models.Wallet{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrWalletNotFound
	}
	return nil
}

func (r *WalletRepository) first(ctx context.Context, query string, args ...interface{}) (*entities.Wallet, error) {
	var m models.Wallet
	if err := GetDB(ctx, r.db).Where(query, args...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrWalletNotFound
		}
		return nil, err
	}
	return toWalletEntity(&m), nil
}

func toWalletEntity(m *models.Wallet) *entities.Wallet {
	return &entities.Wallet{
		ID:                  m.ID,
		UserID:              m.UserID,
		Address:             m.Address,
		IsExternal:          m.IsExternal,
		EncryptedPrivateKey: null.StringFromPtr(m.EncryptedPrivateKey),
		ChainID:             null.Int64FromPtr(m.ChainID),
		CreatedAt:           m.CreatedAt,
	}
}
