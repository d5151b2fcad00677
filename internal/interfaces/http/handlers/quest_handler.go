package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"soulbound.backend/internal/domain/entities"
	domainerrors "soulbound.backend/internal/domain/errors"
	"soulbound.backend/internal/interfaces/http/middleware"
	"soulbound.backend/internal/interfaces/http/response"
	"soulbound.backend/internal/usecases"
)

type questService interface {
	ApproveSubmission(ctx context.Context, questID, userID, requesterID uuid.UUID) (*entities.QuestCompletionResult, error)
}

// QuestHandler handles quest completion endpoints
type QuestHandler struct {
	questUsecase questService
}

// NewQuestHandler creates a new quest handler
func NewQuestHandler(questUsecase *usecases.QuestUsecase) *QuestHandler {
	return &QuestHandler{questUsecase: questUsecase}
}

// ApproveCompletion approves a user's submission for a quest the caller owns.
// POST /api/v1/quests/:id/completions
func (h *QuestHandler) ApproveCompletion(c *gin.Context) {
	questID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid quest ID"))
		return
	}

	var input entities.ApproveQuestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}
	userID, err := uuid.Parse(input.UserID)
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid user ID"))
		return
	}

	requesterID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	result, err := h.questUsecase.ApproveSubmission(c.Request.Context(), questID, userID, requesterID)
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusCreated
	if result.Credential == nil {
		status = http.StatusAccepted
	}
	response.Success(c, status, result)
}
