package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"soulbound.backend/internal/domain/entities"
	domainerrors "soulbound.backend/internal/domain/errors"
	"soulbound.backend/internal/interfaces/http/middleware"
	"soulbound.backend/internal/interfaces/http/response"
	"soulbound.backend/internal/usecases"
)

type redemptionService interface {
	Redeem(ctx context.Context, userID uuid.UUID, code string) (*entities.RedeemResult, error)
	CreateCode(ctx context.Context, eventID, requesterID uuid.UUID) (*entities.RedemptionCode, error)
	Deactivate(ctx context.Context, code string, requesterID uuid.UUID) (*entities.RedemptionCode, error)
}

// RedemptionHandler handles redemption code endpoints
type RedemptionHandler struct {
	redemptionUsecase redemptionService
}

// NewRedemptionHandler creates a new redemption handler
func NewRedemptionHandler(redemptionUsecase *usecases.RedemptionUsecase) *RedemptionHandler {
	return &RedemptionHandler{redemptionUsecase: redemptionUsecase}
}

// Redeem redeems a code for the caller. A redemption whose credential is still
// pending answers 202 with the pending reason.
// POST /api/v1/redemptions
func (h *RedemptionHandler) Redeem(c *gin.Context) {
	var input entities.RedeemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	result, err := h.redemptionUsecase.Redeem(c.Request.Context(), userID, strings.TrimSpace(input.Code))
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

// CreateCode issues a new redemption code for an event the caller owns
// POST /api/v1/events/:id/codes
func (h *RedemptionHandler) CreateCode(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid event ID"))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	code, err := h.redemptionUsecase.CreateCode(c.Request.Context(), eventID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"code": code})
}

// Deactivate disables a redemption code
// POST /api/v1/codes/:code/deactivate
func (h *RedemptionHandler) Deactivate(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	code, err := h.redemptionUsecase.Deactivate(c.Request.Context(), c.Param("code"), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"code": code})
}
