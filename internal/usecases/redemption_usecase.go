package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"soulbound.backend/internal/domain/entities"
	domainerrors "soulbound.backend/internal/domain/errors"
	"soulbound.backend/internal/domain/repositories"
	"soulbound.backend/internal/infrastructure/metrics"
	"soulbound.backend/pkg/crypto"
	"soulbound.backend/pkg/logger"
)

const (
	codePrefix        = "EVT-"
	codeLength        = 8
	codeCreateRetries = 3
)

// RedemptionUsecase is the redemption ledger
type RedemptionUsecase struct {
	codeRepo       repositories.RedemptionCodeRepository
	redemptionRepo repositories.RedemptionRepository
	eventRepo      repositories.EventRepository
	userRepo       repositories.UserRepository
	walletRepo     repositories.WalletRepository
	credentialRepo repositories.CredentialRepository
	uow            repositories.UnitOfWork
	issuer         *CredentialIssuer
	gateway        CredentialGateway
	metrics        *metrics.Metrics
	recovery       credentialRecovery
}

// NewRedemptionUsecase creates a new redemption usecase
func NewRedemptionUsecase(
	codeRepo repositories.RedemptionCodeRepository,
	redemptionRepo repositories.RedemptionRepository,
	eventRepo repositories.EventRepository,
	userRepo repositories.UserRepository,
	walletRepo repositories.WalletRepository,
	credentialRepo repositories.CredentialRepository,
	uow repositories.UnitOfWork,
	issuer *CredentialIssuer,
	gateway CredentialGateway,
	m *metrics.Metrics,
) *RedemptionUsecase {
	return &RedemptionUsecase{
		codeRepo:       codeRepo,
		redemptionRepo: redemptionRepo,
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		walletRepo:     walletRepo,
		credentialRepo: credentialRepo,
		uow:            uow,
		issuer:         issuer,
		gateway:        gateway,
		metrics:        m,
		recovery: credentialRecovery{
			gateway:        gateway,
			credentialRepo: credentialRepo,
			walletRepo:     walletRepo,
			uow:            uow,
		},
	}
}

// Redeem records that userID redeemed code and mints the attendance credential.
// A failed mint leaves the redemption standing with a pending credential.
func (u *RedemptionUsecase) Redeem(ctx context.Context, userID uuid.UUID, code string) (*entities.RedeemResult, error) {
	result, err := u.redeem(ctx, userID, strings.TrimSpace(code))
	if err != nil {
		u.metrics.IncRedemption(redeemOutcome(err))
		return nil, err
	}
	if result.Credential != nil {
		u.metrics.IncRedemption("issued")
	} else {
		u.metrics.IncRedemption("pending")
	}
	return result, nil
}

func (u *RedemptionUsecase) redeem(ctx context.Context, userID uuid.UUID, code string) (*entities.RedeemResult, error) {
	rc, err := u.codeRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !rc.IsActive {
		return nil, domainerrors.ErrCodeInactive
	}

	if _, err := u.redemptionRepo.GetByCodeAndUser(ctx, rc.ID, userID); err == nil {
		return nil, domainerrors.ErrAlreadyRedeemed
	} else if !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}

	wallet, err := u.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.ErrNoWalletAvailable
		}
		return nil, err
	}

	redemption := &entities.Redemption{
		CodeID:           rc.ID,
		UserID:           userID,
		CredentialStatus: entities.CredentialStatusPending,
	}
	// the (code_id, user_id) unique index settles concurrent attempts
	if err := u.redemptionRepo.Create(ctx, redemption); err != nil {
		return nil, err
	}

	logger.Info(ctx, "Code redeemed",
		zap.String("code", rc.Code),
		zap.String("user_id", userID.String()),
		zap.String("redemption_id", redemption.ID.String()),
	)

	credential, err := u.issuer.Issue(ctx, IssueRequest{
		Wallet:      wallet,
		Kind:        entities.CredentialKindEventAttendance,
		ReferenceID: redemption.ReferenceID(),
		Facts:       u.attendanceFacts(ctx, rc, userID),
		OnIssued:    u.markIssued(redemption.ID),
	})
	if err != nil {
		reason := pendingReason(err)
		txHash := domainerrors.TxHashOf(err)
		if markErr := u.redemptionRepo.MarkPending(context.WithoutCancel(ctx), redemption.ID, reason, txHash); markErr != nil {
			logger.Error(ctx, "Failed to record pending reason",
				zap.String("redemption_id", redemption.ID.String()),
				zap.Error(markErr),
			)
		}
		return &entities.RedeemResult{
			Redeemed:      true,
			RedemptionID:  redemption.ID,
			PendingReason: reason,
		}, nil
	}

	return &entities.RedeemResult{
		Redeemed:     true,
		RedemptionID: redemption.ID,
		Credential:   credential,
	}, nil
}

func (u *RedemptionUsecase) markIssued(redemptionID uuid.UUID) func(context.Context, *entities.IssuedCredential) error {
	return func(ctx context.Context, credential *entities.IssuedCredential) error {
		return u.redemptionRepo.MarkIssued(ctx, redemptionID, credential.ID)
	}
}

// attendanceFacts gathers metadata facts. Lookup failures only thin out the metadata.
func (u *RedemptionUsecase) attendanceFacts(ctx context.Context, rc *entities.RedemptionCode, userID uuid.UUID) entities.CredentialFacts {
	var facts entities.CredentialFacts

	event := rc.Event
	if event == nil || event.Owner == nil {
		if e, err := u.eventRepo.GetByID(ctx, rc.OwnerEventID); err == nil {
			event = e
		} else {
			logger.Warn(ctx, "Event lookup failed for credential metadata", zap.Error(err))
		}
	}
	if event != nil {
		facts.Title = event.Title
		facts.Date = event.StartsAt
		if event.Owner != nil {
			facts.IssuerName = event.Owner.Name
		}
	}

	if user, err := u.userRepo.GetByID(ctx, userID); err == nil {
		facts.RecipientName = user.Name
	}
	return facts
}

// Deactivate stops new redemptions of code. Only the owner of the code's event may do it.
func (u *RedemptionUsecase) Deactivate(ctx context.Context, code string, requesterID uuid.UUID) (*entities.RedemptionCode, error) {
	rc, err := u.codeRepo.GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	if err := u.requireEventOwner(ctx, rc.OwnerEventID, requesterID); err != nil {
		return nil, err
	}

	if rc.IsActive {
		if err := u.codeRepo.Deactivate(ctx, rc.ID); err != nil {
			return nil, err
		}
		rc.IsActive = false
		logger.Info(ctx, "Redemption code deactivated",
			zap.String("code", rc.Code),
			zap.String("requested_by", requesterID.String()),
		)
	}
	return rc, nil
}

// CreateCode issues a new active code for an event the requester owns.
func (u *RedemptionUsecase) CreateCode(ctx context.Context, eventID, requesterID uuid.UUID) (*entities.RedemptionCode, error) {
	if err := u.requireEventOwner(ctx, eventID, requesterID); err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		suffix, err := crypto.GenerateCode(codeLength)
		if err != nil {
			return nil, err
		}
		rc := &entities.RedemptionCode{
			Code:         codePrefix + suffix,
			OwnerEventID: eventID,
			IsActive:     true,
		}
		err = u.codeRepo.Create(ctx, rc)
		if err == nil {
			return rc, nil
		}
		if !errors.Is(err, domainerrors.ErrConflict) || attempt == codeCreateRetries {
			return nil, err
		}
	}
}

func (u *RedemptionUsecase) requireEventOwner(ctx context.Context, eventID, requesterID uuid.UUID) error {
	event, err := u.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event.OwnerUserID != requesterID {
		return domainerrors.ErrForbidden
	}
	return nil
}

// ReconcilePending looks on chain for credentials of pending redemptions and
// records the ones that were minted. It never submits a transaction.
func (u *RedemptionUsecase) ReconcilePending(ctx context.Context, limit int) (int, error) {
	if !u.gateway.IsReady() {
		return 0, nil
	}

	pending, err := u.redemptionRepo.ListPending(ctx, limit)
	if err != nil {
		return 0, err
	}

	claims := make([]pendingClaim, 0, len(pending))
	for _, r := range pending {
		claims = append(claims, pendingClaim{
			ID:          r.ID,
			UserID:      r.UserID,
			ReferenceID: r.ReferenceID(),
			MintTxHash:  r.MintTxHash.String,
			MarkIssued: func(ctx context.Context, credentialID uuid.UUID) error {
				return u.redemptionRepo.MarkIssued(ctx, r.ID, credentialID)
			},
		})
	}
	return u.recovery.reconcileClaims(ctx, claims, u.metrics)
}

func pendingReason(err error) string {
	var reason string
	switch {
	case errors.Is(err, domainerrors.ErrChainUnavailable):
		reason = "chain unavailable"
	case errors.Is(err, domainerrors.ErrMintOutcomeUnknown):
		reason = "mint outcome unknown, awaiting reconciliation"
	case errors.Is(err, domainerrors.ErrMintReverted):
		reason = "mint transaction reverted"
	case errors.Is(err, domainerrors.ErrMint):
		reason = "mint failed"
	default:
		reason = "credential could not be recorded"
	}
	if hash := domainerrors.TxHashOf(err); hash != "" {
		reason = fmt.Sprintf("%s (tx %s)", reason, hash)
	}
	return reason
}

func redeemOutcome(err error) string {
	switch {
	case errors.Is(err, domainerrors.ErrAlreadyRedeemed):
		return "already_redeemed"
	case errors.Is(err, domainerrors.ErrCodeInactive):
		return "inactive"
	case errors.Is(err, domainerrors.ErrCodeNotFound):
		return "not_found"
	case errors.Is(err, domainerrors.ErrNoWalletAvailable):
		return "no_wallet"
	default:
		return "error"
	}
}
