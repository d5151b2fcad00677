package usecases

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"soulbound.backend/internal/domain/entities"
	domainerrors "soulbound.backend/internal/domain/errors"
	"soulbound.backend/internal/domain/repositories"
	"soulbound.backend/pkg/utils"
)

// CredentialUsecase answers credential and ownership lookups
type CredentialUsecase struct {
	credentialRepo repositories.CredentialRepository
	walletRepo     repositories.WalletRepository
	gateway        CredentialGateway
}

// NewCredentialUsecase creates a new credential usecase
func NewCredentialUsecase(
	credentialRepo repositories.CredentialRepository,
	walletRepo repositories.WalletRepository,
	gateway CredentialGateway,
) *CredentialUsecase {
	return &CredentialUsecase{
		credentialRepo: credentialRepo,
		walletRepo:     walletRepo,
		gateway:        gateway,
	}
}

// ListMyCredentials lists the recorded credentials of the user's current wallet
func (u *CredentialUsecase) ListMyCredentials(ctx context.Context, userID uuid.UUID, pagination utils.PaginationParams) ([]*entities.IssuedCredential, utils.PaginationMeta, error) {
	wallet, err := u.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}

	credentials, total, err := u.credentialRepo.ListByWallet(ctx, wallet.ID, pagination)
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}
	return credentials, utils.CalculateMeta(total, pagination.Page, pagination.Limit), nil
}

// GetCredentialsByOwner lists token ids held by address on chain. An unreachable
// chain yields an empty list.
func (u *CredentialUsecase) GetCredentialsByOwner(ctx context.Context, address string) ([]string, error) {
	if !common.IsHexAddress(address) {
		return nil, domainerrors.ErrInvalidAddress
	}
	return u.gateway.GetCredentialsByOwner(ctx, address), nil
}

// CheckExternalOwnership reports whether owner holds a token of contract.
// tokenID may be empty for ERC-721 contracts.
func (u *CredentialUsecase) CheckExternalOwnership(ctx context.Context, contract, owner, tokenID string) (bool, error) {
	if !common.IsHexAddress(contract) || !common.IsHexAddress(owner) {
		return false, domainerrors.ErrInvalidAddress
	}

	var id *big.Int
	if tokenID != "" {
		parsed, ok := new(big.Int).SetString(tokenID, 10)
		if !ok || parsed.Sign() < 0 {
			return false, domainerrors.ErrValidation
		}
		id = parsed
	}
	return u.gateway.CheckExternalOwnership(ctx, contract, owner, id), nil
}
