package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"soulbound.backend/internal/domain/entities"
	domainerrors "soulbound.backend/internal/domain/errors"
	"soulbound.backend/internal/domain/repositories"
	"soulbound.backend/pkg/logger"
	"soulbound.backend/pkg/utils"
)

// generateKey is swapped in tests to simulate entropy failures.
var generateKey = crypto.GenerateKey

// CustodyUsecase creates and unlocks platform-held wallets.
type CustodyUsecase struct {
	walletRepo repositories.WalletRepository
	cipher     KeyCipher
}

// NewCustodyUsecase creates a new custody usecase
func NewCustodyUsecase(walletRepo repositories.WalletRepository, cipher KeyCipher) *CustodyUsecase {
	return &CustodyUsecase{walletRepo: walletRepo, cipher: cipher}
}

// CreateCustodialWallet generates a fresh key pair and returns the lower-cased
// address with the encrypted private key.
func (u *CustodyUsecase) CreateCustodialWallet() (string, string, error) {
	key, err := generateKey()
	if err != nil {
		return "", "", fmt.Errorf("generate custodial key: %w", err)
	}

	privateKeyHex := hexutil.Encode(crypto.FromECDSA(key))[2:]
	encrypted, err := u.cipher.Encrypt(privateKeyHex)
	if err != nil {
		return "", "", fmt.Errorf("encrypt custodial key: %w", err)
	}

	address := entities.NormalizeAddress(crypto.PubkeyToAddress(key.PublicKey).Hex())
	return address, encrypted, nil
}

// DecryptPrivateKey returns the hex private key stored in encrypted.
func (u *CustodyUsecase) DecryptPrivateKey(encrypted string) (string, error) {
	return u.cipher.Decrypt(encrypted)
}

// ProvisionWallet creates and stores the custodial wallet for a new user.
func (u *CustodyUsecase) ProvisionWallet(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error) {
	existing, err := u.walletRepo.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, domainerrors.ErrAlreadyLinked
	}

	address, encrypted, err := u.CreateCustodialWallet()
	if err != nil {
		return nil, err
	}

	wallet := &entities.Wallet{
		ID:                  utils.GenerateUUIDv7(),
		UserID:              userID,
		Address:             address,
		IsExternal:          false,
		EncryptedPrivateKey: null.StringFrom(encrypted),
	}
	if err := u.walletRepo.Create(ctx, wallet); err != nil {
		return nil, err
	}

	logger.Info(ctx, "Provisioned custodial wallet",
		zap.String("user_id", userID.String()),
		zap.String("address", address),
	)
	return wallet, nil
}
