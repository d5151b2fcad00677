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
	"soulbound.backend/pkg/utils"
)

type walletService interface {
	IssueNonce(ctx context.Context, address string) (*entities.WalletNonce, error)
	LinkExternalWallet(ctx context.Context, userID uuid.UUID, input *entities.LinkWalletInput) (*entities.Wallet, error)
	UnlinkWallet(ctx context.Context, userID uuid.UUID) error
	GetWallet(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error)
}

type custodyService interface {
	ProvisionWallet(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error)
}

type credentialLister interface {
	ListMyCredentials(ctx context.Context, userID uuid.UUID, pagination utils.PaginationParams) ([]*entities.IssuedCredential, utils.PaginationMeta, error)
}

// WalletHandler handles wallet linking endpoints
type WalletHandler struct {
	walletUsecase     walletService
	custodyUsecase    custodyService
	credentialUsecase credentialLister
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(
	walletUsecase *usecases.WalletUsecase,
	custodyUsecase *usecases.CustodyUsecase,
	credentialUsecase *usecases.CredentialUsecase,
) *WalletHandler {
	return &WalletHandler{
		walletUsecase:     walletUsecase,
		custodyUsecase:    custodyUsecase,
		credentialUsecase: credentialUsecase,
	}
}

// Nonce issues a one-time message for the caller to sign
// POST /api/v1/wallets/nonce
func (h *WalletHandler) Nonce(c *gin.Context) {
	var input entities.NonceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	nonce, err := h.walletUsecase.IssueNonce(c.Request.Context(), input.Address)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, nonce)
}

// Link links an externally controlled wallet
// POST /api/v1/wallets/link
func (h *WalletHandler) Link(c *gin.Context) {
	var input entities.LinkWalletInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	wallet, err := h.walletUsecase.LinkExternalWallet(c.Request.Context(), userID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"message": "Wallet linked successfully",
		"wallet":  wallet,
	})
}

// ProvisionCustodial creates a platform-held wallet for a caller without one
// POST /api/v1/wallets/custodial
func (h *WalletHandler) ProvisionCustodial(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	wallet, err := h.custodyUsecase.ProvisionWallet(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"wallet": wallet})
}

// Unlink removes the caller's external wallet
// DELETE /api/v1/wallets
func (h *WalletHandler) Unlink(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	if err := h.walletUsecase.UnlinkWallet(c.Request.Context(), userID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Wallet unlinked"})
}

// GetMyWallet returns the caller's wallet
// GET /api/v1/wallets/me
func (h *WalletHandler) GetMyWallet(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	wallet, err := h.walletUsecase.GetWallet(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"wallet": wallet})
}

// ListMyCredentials lists credentials recorded for the caller
// GET /api/v1/wallets/me/credentials
func (h *WalletHandler) ListMyCredentials(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	var query utils.PaginationParams
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid pagination"))
		return
	}
	params := utils.GetPaginationParams(query.Page, query.Limit)

	items, meta, err := h.credentialUsecase.ListMyCredentials(c.Request.Context(), userID, params)
	if err != nil {
		response.Error(c, err)
		return
	}
	if items == nil {
		items = []*entities.IssuedCredential{}
	}

	response.Success(c, http.StatusOK, gin.H{
		"items": items,
		"meta":  meta,
	})
}
