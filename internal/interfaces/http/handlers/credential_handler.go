package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	domainerrors "soulbound.backend/internal/domain/errors"
	"soulbound.backend/internal/interfaces/http/response"
	"soulbound.backend/internal/usecases"
)

type credentialQueryService interface {
	GetCredentialsByOwner(ctx context.Context, address string) ([]string, error)
	CheckExternalOwnership(ctx context.Context, contract, owner, tokenID string) (bool, error)
}

// CredentialHandler serves on-chain credential lookups
type CredentialHandler struct {
	credentialUsecase credentialQueryService
}

// NewCredentialHandler creates a new credential handler
func NewCredentialHandler(credentialUsecase *usecases.CredentialUsecase) *CredentialHandler {
	return &CredentialHandler{credentialUsecase: credentialUsecase}
}

// ListByOwner lists credential token ids held by an address
// GET /api/v1/credentials/:address
func (h *CredentialHandler) ListByOwner(c *gin.Context) {
	address := c.Param("address")

	tokenIDs, err := h.credentialUsecase.GetCredentialsByOwner(c.Request.Context(), address)
	if err != nil {
		response.Error(c, err)
		return
	}
	if tokenIDs == nil {
		tokenIDs = []string{}
	}

	response.Success(c, http.StatusOK, gin.H{
		"address":  address,
		"tokenIds": tokenIDs,
	})
}

type ownershipQuery struct {
	Contract string `form:"contract" binding:"required"`
	Owner    string `form:"owner" binding:"required"`
	TokenID  string `form:"tokenId"`
}

// CheckOwnership reports whether owner holds a token of an external contract.
// tokenId is optional for ERC-721 contracts.
// GET /api/v1/ownership
func (h *CredentialHandler) CheckOwnership(c *gin.Context) {
	var query ownershipQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, domainerrors.BadRequest("contract and owner are required"))
		return
	}

	owned, err := h.credentialUsecase.CheckExternalOwnership(c.Request.Context(), query.Contract, query.Owner, query.TokenID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"owned": owned})
}
