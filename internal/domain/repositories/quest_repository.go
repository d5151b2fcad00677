package repositories

import (
	"context"

	"github.com/google/uuid"
	"soulbound.backend/internal/domain/entities"
)

// QuestRepository defines the quest reads approval needs
type QuestRepository interface {
	Create(ctx context.Context, quest *entities.Quest) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Quest, error)
}

// QuestCompletionRepository defines completion claim operations.
// Create returns ErrConflict when (quest, user) already exists.
// MarkPending only touches rows that are still PENDING.
type QuestCompletionRepository interface {
	Create(ctx context.Context, completion *entities.QuestCompletion) error
	GetByQuestAndUser(ctx context.Context, questID, userID uuid.UUID) (*entities.QuestCompletion, error)
	MarkIssued(ctx context.Context, id, credentialID uuid.UUID) error
	MarkPending(ctx context.Context, id uuid.UUID, reason, txHash string) error
	ListPending(ctx context.Context, limit int) ([]*entities.QuestCompletion, error)
}
