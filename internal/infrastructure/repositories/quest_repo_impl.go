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

// QuestRepository implements quest reads
type QuestRepository struct {
	db *gorm.DB
}

// NewQuestRepository creates a new quest repository
func NewQuestRepository(db *gorm.DB) *QuestRepository {
	return &QuestRepository{db: db}
}

// Create creates a new quest
func (r *QuestRepository) Create(ctx context.Context, quest *entities.Quest) error {
	if quest.ID == uuid.Nil {
		quest.ID = utils.GenerateUUIDv7()
	}
	if quest.CreatedAt.IsZero() {
		quest.CreatedAt = time.Now()
	}
	m := &models.Quest{
		ID:           quest.ID,
		OwnerUserID:  quest.OwnerUserID,
		Title:        quest.Title,
		RewardAmount: quest.RewardAmount,
		CreatedAt:    quest.CreatedAt,
	}
	return GetDB(ctx, r.db).Create(m).Error
}

// GetByID gets a quest with its owner
func (r *QuestRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Quest, error) {
	var m models.Quest
	if err := GetDB(ctx, r.db).Preload("Owner").Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrQuestNotFound
		}
		return nil, err
	}
	q := &entities.Quest{
		ID:           m.ID,
		OwnerUserID:  m.OwnerUserID,
		Title:        m.Title,
		RewardAmount: m.RewardAmount,
		CreatedAt:    m.CreatedAt,
	}
	if m.Owner != nil {
		q.Owner = toUserEntity(m.Owner)
	}
	return q, nil
}

// QuestCompletionRepository implements completion claim operations
type QuestCompletionRepository struct {
	db *gorm.DB
}

// NewQuestCompletionRepository creates a new quest completion repository
func NewQuestCompletionRepository(db *gorm.DB) *QuestCompletionRepository {
	return &QuestCompletionRepository{db: db}
}

// Create inserts a completion claim. The (quest_id, user_id) unique index decides concurrent races.
func (r *QuestCompletionRepository) Create(ctx context.Context, completion *entities.QuestCompletion) error {
	if completion.ID == uuid.Nil {
		completion.ID = utils.GenerateUUIDv7()
	}
	now := time.Now()
	completion.CreatedAt = now
	completion.UpdatedAt = now
	if completion.CredentialStatus == "" {
		completion.CredentialStatus = entities.CredentialStatusPending
	}

	m := &models.QuestCompletion{
		ID:               completion.ID,
		QuestID:          completion.QuestID,
		UserID:           completion.UserID,
		CredentialStatus: string(completion.CredentialStatus),
		PendingReason:    completion.PendingReason.Ptr(),
		MintTxHash:       completion.MintTxHash.Ptr(),
		CredentialID:     completion.CredentialID,
		CreatedAt:        completion.CreatedAt,
		UpdatedAt:        completion.UpdatedAt,
	}
	if err := GetDB(ctx, r.db).Create(m).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return err
	}
	return nil
}

// GetByQuestAndUser gets the completion claim of a quest by a user
func (r *QuestCompletionRepository) GetByQuestAndUser(ctx context.Context, questID, userID uuid.UUID) (*entities.QuestCompletion, error) {
	var m models.QuestCompletion
	err := GetDB(ctx, r.db).Where("quest_id = ? AND user_id = ?", questID, userID).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toQuestCompletionEntity(&m), nil
}

// MarkIssued links the completion to its credential
func (r *QuestCompletionRepository) MarkIssued(ctx context.Context, id, credentialID uuid.UUID) error {
	return updateByID(GetDB(ctx, r.db).Model(&models.QuestCompletion{}), id, map[string]interface{}{
		"credential_status": string(entities.CredentialStatusIssued),
		"credential_id":     credentialID,
		"pending_reason":    nil,
		"updated_at":        time.Now(),
	})
}

// MarkPending records why the credential is not issued yet. Rows already ISSUED are left untouched.
func (r *QuestCompletionRepository) MarkPending(ctx context.Context, id uuid.UUID, reason, txHash string) error {
	return markPending(GetDB(ctx, r.db).Model(&models.QuestCompletion{}), id, reason, txHash)
}

// ListPending returns the oldest completions still waiting for a credential
func (r *QuestCompletionRepository) ListPending(ctx context.Context, limit int) ([]*entities.QuestCompletion, error) {
	var rows []models.QuestCompletion
	err := GetDB(ctx, r.db).
		Where("credential_status = ?", string(entities.CredentialStatusPending)).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*entities.QuestCompletion, 0, len(rows))
	for i := range rows {
		out = append(out, toQuestCompletionEntity(&rows[i]))
	}
	return out, nil
}

func toQuestCompletionEntity(m *models.QuestCompletion) *entities.QuestCompletion {
	return &entities.QuestCompletion{
		ID:               m.ID,
		QuestID:          m.QuestID,
		UserID:           m.UserID,
		CredentialStatus: entities.CredentialStatus(m.CredentialStatus),
		PendingReason:    null.StringFromPtr(m.PendingReason),
		MintTxHash:       null.StringFromPtr(m.MintTxHash),
		CredentialID:     m.CredentialID,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}
