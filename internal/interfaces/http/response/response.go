package response

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainerrors "soulbound.backend/internal/domain/errors"
	"soulbound.backend/pkg/logger"
)

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error sends an error response. Domain errors are mapped by category.
func Error(c *gin.Context, err error) {
	appErr := domainerrors.FromError(err)

	if appErr.Status >= 500 {
		logger.Error(c.Request.Context(), "Request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}

	body := gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
	}
	if txHash := domainerrors.TxHashOf(err); txHash != "" {
		body["transactionHash"] = txHash
	}
	c.JSON(appErr.Status, body)
}

// ErrorWithError sends an error response with a specific status and message
func ErrorWithError(c *gin.Context, status int, code string, message string) {
	c.JSON(status, gin.H{
		"code":    code,
		"message": message,
	})
}
