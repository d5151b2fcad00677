package usecases

import (
	"context"
	"errors"
	"math/big"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"soulbound.backend/internal/domain/entities"
	domainerrors "soulbound.backend/internal/domain/errors"
	"soulbound.backend/internal/domain/repositories"
	"soulbound.backend/internal/infrastructure/metrics"
	"soulbound.backend/pkg/logger"
)

// credentialRecovery records credentials that exist on chain but were never
// written locally. It only reads the chain.
type credentialRecovery struct {
	gateway        CredentialGateway
	credentialRepo repositories.CredentialRepository
	walletRepo     repositories.WalletRepository
	uow            repositories.UnitOfWork
}

// pendingClaim is one PENDING row waiting for its credential.
type pendingClaim struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	ReferenceID string
	MintTxHash  string
	MarkIssued  func(ctx context.Context, credentialID uuid.UUID) error
}

// recover reports whether the credential of claim is recorded once it returns.
func (c credentialRecovery) recover(ctx context.Context, claim pendingClaim) (bool, error) {
	if existing, err := c.credentialRepo.GetByReference(ctx, claim.ReferenceID); err == nil {
		return true, claim.MarkIssued(ctx, existing.ID)
	} else if !errors.Is(err, domainerrors.ErrNotFound) {
		return false, err
	}

	wallet, err := c.walletRepo.GetByUserID(ctx, claim.UserID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	found := c.gateway.FindCredentialForReference(ctx, wallet.Address, claim.ReferenceID)
	if !found.Available || found.Value == nil {
		return false, nil
	}

	credential := &entities.IssuedCredential{
		TokenID:         found.Value.TokenID,
		ContractAddress: c.gateway.ContractAddress(),
		OwnerWalletID:   wallet.ID,
		Kind:            found.Value.Kind,
		ReferenceID:     claim.ReferenceID,
		TransactionHash: claim.MintTxHash,
	}
	if tokenID, ok := new(big.Int).SetString(found.Value.TokenID, 10); ok {
		if uri := c.gateway.TokenURI(ctx, tokenID); uri.Available {
			credential.MetadataURI = uri.Value
		}
	}
	if claim.MintTxHash != "" {
		if block := c.gateway.TransactionBlock(ctx, claim.MintTxHash); block.Available {
			credential.BlockNumber = block.Value
		}
	}

	err = c.uow.Do(ctx, func(txCtx context.Context) error {
		if err := c.credentialRepo.Create(txCtx, credential); err != nil {
			return err
		}
		return claim.MarkIssued(txCtx, credential.ID)
	})
	if errors.Is(err, domainerrors.ErrConflict) {
		// recorded concurrently by the issuer
		existing, getErr := c.credentialRepo.GetByReference(ctx, claim.ReferenceID)
		if getErr != nil {
			return false, getErr
		}
		return true, claim.MarkIssued(ctx, existing.ID)
	}
	if err != nil {
		return false, err
	}

	logger.Info(ctx, "Reconciled pending credential",
		zap.String("claim_id", claim.ID.String()),
		zap.String("reference_id", claim.ReferenceID),
		zap.String("token_id", credential.TokenID),
	)
	return true, nil
}

// reconcileClaims runs recover over claims and counts the recovered ones.
// Per-claim failures are logged and skipped.
func (c credentialRecovery) reconcileClaims(ctx context.Context, claims []pendingClaim, m *metrics.Metrics) (int, error) {
	reconciled := 0
	for _, claim := range claims {
		if ctx.Err() != nil {
			return reconciled, ctx.Err()
		}
		ok, err := c.recover(ctx, claim)
		if err != nil {
			logger.Warn(ctx, "Pending credential reconciliation failed",
				zap.String("claim_id", claim.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if ok {
			reconciled++
			m.IncReconciled()
		}
	}
	return reconciled, nil
}
