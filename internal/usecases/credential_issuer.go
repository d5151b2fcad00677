package usecases

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"soulbound.backend/internal/domain/entities"
	domainerrors "soulbound.backend/internal/domain/errors"
	"soulbound.backend/internal/domain/repositories"
	"soulbound.backend/pkg/logger"
	"soulbound.backend/pkg/utils"
)

// IssueRequest asks for one credential to be minted and recorded.
type IssueRequest struct {
	Wallet      *entities.Wallet
	Kind        entities.CredentialKind
	ReferenceID string
	Facts       entities.CredentialFacts

	// OnIssued runs in the transaction that records the credential.
	OnIssued func(ctx context.Context, credential *entities.IssuedCredential) error
}

// CredentialIssuer mints credentials and records confirmed mints.
type CredentialIssuer struct {
	gateway        CredentialGateway
	credentialRepo repositories.CredentialRepository
	walletRepo     repositories.WalletRepository
	uow            repositories.UnitOfWork
}

// NewCredentialIssuer creates a new credential issuer
func NewCredentialIssuer(
	gateway CredentialGateway,
	credentialRepo repositories.CredentialRepository,
	walletRepo repositories.WalletRepository,
	uow repositories.UnitOfWork,
) *CredentialIssuer {
	return &CredentialIssuer{
		gateway:        gateway,
		credentialRepo: credentialRepo,
		walletRepo:     walletRepo,
		uow:            uow,
	}
}

// Issue builds the metadata, mints, then records the credential. The mint runs
// outside any transaction; only the bookkeeping after confirmation is atomic.
func (i *CredentialIssuer) Issue(ctx context.Context, req IssueRequest) (*entities.IssuedCredential, error) {
	if req.Wallet == nil {
		return nil, domainerrors.ErrNoWalletAvailable
	}
	if req.Facts.ReferenceID == "" {
		req.Facts.ReferenceID = req.ReferenceID
	}

	metadataURI, err := MetadataURI(BuildCredentialMetadata(req.Kind, req.Facts))
	if err != nil {
		return nil, err
	}

	result, err := i.gateway.Mint(ctx, entities.MintRequest{
		RecipientAddress: req.Wallet.Address,
		MetadataURI:      metadataURI,
		Kind:             req.Kind,
		ReferenceID:      req.ReferenceID,
	})
	if err != nil {
		logger.Warn(ctx, "Credential mint did not complete",
			zap.String("reference_id", req.ReferenceID),
			zap.String("tx_hash", domainerrors.TxHashOf(err)),
			zap.Error(err),
		)
		return nil, err
	}

	credential := &entities.IssuedCredential{
		ID:              utils.GenerateUUIDv7(),
		TokenID:         result.TokenID,
		ContractAddress: i.gateway.ContractAddress(),
		MetadataURI:     metadataURI,
		OwnerWalletID:   req.Wallet.ID,
		Kind:            req.Kind,
		ReferenceID:     req.ReferenceID,
		TransactionHash: result.TransactionHash,
		BlockNumber:     result.BlockNumber,
	}

	err = i.uow.Do(ctx, func(txCtx context.Context) error {
		if err := i.credentialRepo.Create(txCtx, credential); err != nil {
			return err
		}
		return runOnIssued(txCtx, req, credential)
	})
	if errors.Is(err, domainerrors.ErrConflict) {
		// the reconciler recorded this reference while the receipt was pending
		existing, adoptErr := i.adopt(ctx, req)
		if adoptErr == nil {
			logger.Info(ctx, "Credential already recorded by reconciliation",
				zap.String("reference_id", req.ReferenceID),
				zap.String("token_id", existing.TokenID),
			)
			return existing, nil
		}
		err = adoptErr
	}
	if err != nil {
		// the token exists on chain; reconciliation recovers the record from the chain
		logger.Error(ctx, "Minted credential could not be recorded",
			zap.String("reference_id", req.ReferenceID),
			zap.String("token_id", result.TokenID),
			zap.String("tx_hash", result.TransactionHash),
			zap.Error(err),
		)
		return nil, domainerrors.WithTxHash(fmt.Errorf("record issued credential: %w", err), result.TransactionHash)
	}

	logger.Info(ctx, "Credential issued",
		zap.String("reference_id", req.ReferenceID),
		zap.String("token_id", credential.TokenID),
		zap.String("tx_hash", credential.TransactionHash),
		zap.String("kind", string(req.Kind)),
	)
	return credential, nil
}

func (i *CredentialIssuer) adopt(ctx context.Context, req IssueRequest) (*entities.IssuedCredential, error) {
	existing, err := i.credentialRepo.GetByReference(ctx, req.ReferenceID)
	if err != nil {
		return nil, err
	}
	err = i.uow.Do(ctx, func(txCtx context.Context) error {
		return runOnIssued(txCtx, req, existing)
	})
	if err != nil {
		return nil, err
	}
	return existing, nil
}

func runOnIssued(ctx context.Context, req IssueRequest, credential *entities.IssuedCredential) error {
	if req.OnIssued == nil {
		return nil
	}
	return req.OnIssued(ctx, credential)
}
