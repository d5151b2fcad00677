package usecases

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"soulbound.backend/internal/domain/entities"
	domainerrors "soulbound.backend/internal/domain/errors"
	"soulbound.backend/internal/domain/repositories"
	"soulbound.backend/internal/infrastructure/metrics"
	"soulbound.backend/pkg/logger"
)

const questPendingInProgress = "credential issuance in progress"

// QuestUsecase issues quest completion credentials. A uniquely indexed
// completion claim is written before the mint, so one (quest, user) pair can
// never mint twice.
type QuestUsecase struct {
	questRepo      repositories.QuestRepository
	completionRepo repositories.QuestCompletionRepository
	userRepo       repositories.UserRepository
	walletRepo     repositories.WalletRepository
	credentialRepo repositories.CredentialRepository
	issuer         *CredentialIssuer
	gateway        CredentialGateway
	metrics        *metrics.Metrics
	recovery       credentialRecovery
}

// NewQuestUsecase creates a new quest usecase
func NewQuestUsecase(
	questRepo repositories.QuestRepository,
	completionRepo repositories.QuestCompletionRepository,
	userRepo repositories.UserRepository,
	walletRepo repositories.WalletRepository,
	credentialRepo repositories.CredentialRepository,
	uow repositories.UnitOfWork,
	issuer *CredentialIssuer,
	gateway CredentialGateway,
	m *metrics.Metrics,
) *QuestUsecase {
	return &QuestUsecase{
		questRepo:      questRepo,
		completionRepo: completionRepo,
		userRepo:       userRepo,
		walletRepo:     walletRepo,
		credentialRepo: credentialRepo,
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

// ApproveSubmission issues the completion credential of questID to userID.
// Only the owner of the quest may approve.
func (u *QuestUsecase) ApproveSubmission(ctx context.Context, questID, userID, requesterID uuid.UUID) (*entities.QuestCompletionResult, error) {
	quest, err := u.questRepo.GetByID(ctx, questID)
	if err != nil {
		return nil, err
	}
	if quest.OwnerUserID != requesterID {
		return nil, domainerrors.ErrForbidden
	}

	facts := entities.CredentialFacts{
		Title:        quest.Title,
		RewardAmount: quest.RewardAmount,
	}
	if quest.Owner != nil {
		facts.IssuerName = quest.Owner.Name
	}
	if user, err := u.userRepo.GetByID(ctx, userID); err == nil {
		facts.RecipientName = user.Name
	}
	return u.IssueQuestCompletion(ctx, userID, questID, facts)
}

// IssueQuestCompletion mints the completion credential at most once per
// (quest, user). A repeated call reports the existing claim instead of minting.
func (u *QuestUsecase) IssueQuestCompletion(ctx context.Context, userID, questID uuid.UUID, facts entities.CredentialFacts) (*entities.QuestCompletionResult, error) {
	result, err := u.issueQuestCompletion(ctx, userID, questID, facts)
	switch {
	case err != nil:
		u.metrics.IncQuestCompletion("error")
	case result.Credential != nil:
		u.metrics.IncQuestCompletion("issued")
	default:
		u.metrics.IncQuestCompletion("pending")
	}
	return result, err
}

func (u *QuestUsecase) issueQuestCompletion(ctx context.Context, userID, questID uuid.UUID, facts entities.CredentialFacts) (*entities.QuestCompletionResult, error) {
	if existing, err := u.completionRepo.GetByQuestAndUser(ctx, questID, userID); err == nil {
		return u.existingResult(ctx, existing)
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

	completion := &entities.QuestCompletion{
		QuestID:          questID,
		UserID:           userID,
		CredentialStatus: entities.CredentialStatusPending,
	}
	// the (quest_id, user_id) unique index settles concurrent approvals
	if err := u.completionRepo.Create(ctx, completion); err != nil {
		if !errors.Is(err, domainerrors.ErrConflict) {
			return nil, err
		}
		existing, getErr := u.completionRepo.GetByQuestAndUser(ctx, questID, userID)
		if getErr != nil {
			return nil, getErr
		}
		return u.existingResult(ctx, existing)
	}

	logger.Info(ctx, "Quest completion claimed",
		zap.String("quest_id", questID.String()),
		zap.String("user_id", userID.String()),
		zap.String("completion_id", completion.ID.String()),
	)

	credential, err := u.issuer.Issue(ctx, IssueRequest{
		Wallet:      wallet,
		Kind:        entities.CredentialKindQuestCompletion,
		ReferenceID: completion.ReferenceID(),
		Facts:       facts,
		OnIssued: func(ctx context.Context, credential *entities.IssuedCredential) error {
			return u.completionRepo.MarkIssued(ctx, completion.ID, credential.ID)
		},
	})
	if err != nil {
		reason := pendingReason(err)
		if markErr := u.completionRepo.MarkPending(context.WithoutCancel(ctx), completion.ID, reason, domainerrors.TxHashOf(err)); markErr != nil {
			logger.Error(ctx, "Failed to record pending reason",
				zap.String("completion_id", completion.ID.String()),
				zap.Error(markErr),
			)
		}
		return &entities.QuestCompletionResult{
			Completed:     true,
			CompletionID:  completion.ID,
			PendingReason: reason,
		}, nil
	}

	return &entities.QuestCompletionResult{
		Completed:    true,
		CompletionID: completion.ID,
		Credential:   credential,
	}, nil
}

func (u *QuestUsecase) existingResult(ctx context.Context, c *entities.QuestCompletion) (*entities.QuestCompletionResult, error) {
	result := &entities.QuestCompletionResult{Completed: true, CompletionID: c.ID}
	if c.CredentialStatus == entities.CredentialStatusIssued {
		credential, err := u.credentialRepo.GetByReference(ctx, c.ReferenceID())
		if err != nil {
			return nil, err
		}
		result.Credential = credential
		return result, nil
	}
	result.PendingReason = c.PendingReason.String
	if result.PendingReason == "" {
		result.PendingReason = questPendingInProgress
	}
	return result, nil
}

// ReconcilePending records completion credentials that were minted but never
// written. It never submits a transaction.
func (u *QuestUsecase) ReconcilePending(ctx context.Context, limit int) (int, error) {
	if !u.gateway.IsReady() {
		return 0, nil
	}

	pending, err := u.completionRepo.ListPending(ctx, limit)
	if err != nil {
		return 0, err
	}

	claims := make([]pendingClaim, 0, len(pending))
	for _, c := range pending {
		claims = append(claims, pendingClaim{
			ID:          c.ID,
			UserID:      c.UserID,
			ReferenceID: c.ReferenceID(),
			MintTxHash:  c.MintTxHash.String,
			MarkIssued: func(ctx context.Context, credentialID uuid.UUID) error {
				return u.completionRepo.MarkIssued(ctx, c.ID, credentialID)
			},
		})
	}
	return u.recovery.reconcileClaims(ctx, claims, u.metrics)
}
