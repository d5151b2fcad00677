package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"soulbound.backend/internal/domain/entities"
	domainerrors "soulbound.backend/internal/domain/errors"
	"soulbound.backend/internal/domain/repositories"
	"soulbound.backend/internal/infrastructure/metrics"
	"soulbound.backend/pkg/crypto"
	"soulbound.backend/pkg/logger"
)

const (
	nonceBytes         = 32
	nonceMessageHeader = "Sign this message to link your wallet to your credentials account."
)

// WalletUsecase handles linking and unlinking of external wallets
type WalletUsecase struct {
	walletRepo repositories.WalletRepository
	nonces     NonceStore
	metrics    *metrics.Metrics
}

// NewWalletUsecase creates a new wallet usecase. A nil nonce store disables
// the single-use nonce check and only the signature is verified.
func NewWalletUsecase(walletRepo repositories.WalletRepository, nonces NonceStore, m *metrics.Metrics) *WalletUsecase {
	return &WalletUsecase{walletRepo: walletRepo, nonces: nonces, metrics: m}
}

// GenerateNonce returns 32 random bytes as hex.
func (u *WalletUsecase) GenerateNonce() (string, error) {
	return crypto.GenerateRandomToken(nonceBytes)
}

// GenerateNonceMessage builds the exact text the user signs.
func (u *WalletUsecase) GenerateNonceMessage(nonce string) string {
	return fmt.Sprintf("%s\n\nNonce: %s", nonceMessageHeader, nonce)
}

// VerifySignature reports whether message was signed by expectedAddress.
func (u *WalletUsecase) VerifySignature(message, signature, expectedAddress string) bool {
	return crypto.VerifySignature(message, signature, expectedAddress)
}

// IssueNonce creates a challenge for address and stores it until it expires or is used.
func (u *WalletUsecase) IssueNonce(ctx context.Context, address string) (*entities.WalletNonce, error) {
	if !common.IsHexAddress(address) {
		return nil, domainerrors.ErrInvalidAddress
	}

	nonce, err := u.GenerateNonce()
	if err != nil {
		return nil, err
	}
	if u.nonces != nil {
		if err := u.nonces.Issue(ctx, entities.NormalizeAddress(address), nonce); err != nil {
			return nil, fmt.Errorf("store wallet nonce: %w", err)
		}
	}

	return &entities.WalletNonce{
		Nonce:   nonce,
		Message: u.GenerateNonceMessage(nonce),
	}, nil
}

// LinkExternalWallet attaches a user-controlled address to userID after proof of control.
func (u *WalletUsecase) LinkExternalWallet(ctx context.Context, userID uuid.UUID, input *entities.LinkWalletInput) (*entities.Wallet, error) {
	wallet, err := u.link(ctx, userID, input)
	switch {
	case err == nil:
		u.metrics.IncWalletLink("linked")
	case errors.Is(err, domainerrors.ErrConflict):
		u.metrics.IncWalletLink("conflict")
	case errors.Is(err, domainerrors.ErrValidation):
		u.metrics.IncWalletLink("rejected")
	default:
		u.metrics.IncWalletLink("error")
	}
	return wallet, err
}

func (u *WalletUsecase) link(ctx context.Context, userID uuid.UUID, input *entities.LinkWalletInput) (*entities.Wallet, error) {
	if input == nil || !common.IsHexAddress(input.Address) {
		return nil, domainerrors.ErrInvalidAddress
	}
	address := entities.NormalizeAddress(input.Address)

	if !u.VerifySignature(input.Message, input.Signature, address) {
		return nil, domainerrors.ErrInvalidSignature
	}

	if u.nonces != nil {
		ok, err := u.nonces.Consume(ctx, address, input.Message)
		if err != nil {
			return nil, fmt.Errorf("consume wallet nonce: %w", err)
		}
		if !ok {
			return nil, domainerrors.ErrNonceMismatch
		}
	}

	if _, err := u.walletRepo.GetByUserID(ctx, userID); err == nil {
		return nil, domainerrors.ErrAlreadyLinked
	} else if !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}

	if existing, err := u.walletRepo.GetByAddress(ctx, address); err == nil {
		if existing.UserID != userID {
			logger.Warn(ctx, "Wallet address already linked to another user",
				zap.String("address", address),
			)
		}
		return nil, domainerrors.ErrAlreadyLinked
	} else if !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}

	wallet := &entities.Wallet{
		UserID:     userID,
		Address:    address,
		IsExternal: true,
	}
	if input.ChainID != nil {
		wallet.ChainID = null.Int64From(*input.ChainID)
	}

	// the unique indexes decide concurrent links of the same user or address
	if err := u.walletRepo.Create(ctx, wallet); err != nil {
		return nil, err
	}

	logger.Info(ctx, "Linked external wallet",
		zap.String("user_id", userID.String()),
		zap.String("address", address),
	)
	return wallet, nil
}

// UnlinkWallet removes the user's external wallet. Issued credentials keep
// pointing at the removed wallet.
func (u *WalletUsecase) UnlinkWallet(ctx context.Context, userID uuid.UUID) error {
	wallet, err := u.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if wallet.IsCustodial() {
		return domainerrors.ErrCustodialUnlink
	}
	if err := u.walletRepo.Delete(ctx, wallet.ID); err != nil {
		return err
	}

	logger.Info(ctx, "Unlinked external wallet",
		zap.String("user_id", userID.String()),
		zap.String("address", wallet.Address),
	)
	return nil
}

// GetWallet gets the user's wallet
func (u *WalletUsecase) GetWallet(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error) {
	return u.walletRepo.GetByUserID(ctx, userID)
}
