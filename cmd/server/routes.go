package main

import (
	"github.com/gin-gonic/gin"

	"soulbound.backend/internal/interfaces/http/handlers"
	"soulbound.backend/internal/interfaces/http/middleware"
)

type routeDeps struct {
	walletHandler     *handlers.WalletHandler
	redemptionHandler *handlers.RedemptionHandler
	credentialHandler *handlers.CredentialHandler
	questHandler      *handlers.QuestHandler
	authMiddleware    gin.HandlerFunc
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	{
		// Wallet routes (protected)
		wallets := v1.Group("/wallets")
		wallets.Use(d.authMiddleware)
		{
			wallets.POST("/nonce", d.walletHandler.Nonce)
			wallets.POST("/link", d.walletHandler.Link)
			wallets.POST("/custodial", d.walletHandler.ProvisionCustodial)
			wallets.DELETE("", d.walletHandler.Unlink)
			wallets.GET("/me", d.walletHandler.GetMyWallet)
			wallets.GET("/me/credentials", d.walletHandler.ListMyCredentials)
		}

		// Redemption routes (protected)
		redemptions := v1.Group("/redemptions")
		redemptions.Use(d.authMiddleware)
		{
			redemptions.POST("", middleware.IdempotencyMiddleware(), d.redemptionHandler.Redeem)
		}

		events := v1.Group("/events")
		events.Use(d.authMiddleware)
		{
			events.POST("/:id/codes", d.redemptionHandler.CreateCode)
		}

		quests := v1.Group("/quests")
		quests.Use(d.authMiddleware)
		{
			quests.POST("/:id/completions", middleware.IdempotencyMiddleware(), d.questHandler.ApproveCompletion)
		}

		codes := v1.Group("/codes")
		codes.Use(d.authMiddleware)
		{
			codes.POST("/:code/deactivate", d.redemptionHandler.Deactivate)
		}

		// Chain lookups (public)
		v1.GET("/credentials/:address", d.credentialHandler.ListByOwner)
		v1.GET("/ownership", d.credentialHandler.CheckOwnership)
	}
}
