package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/ikkim/storefront-backend/pkg/logger"
)

// TokenRevoker records a bearer token as unusable until it would have expired
type TokenRevoker interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
}

type AuthController struct {
	revoker TokenRevoker
}

// NewAuthController builds the controller. revoker may be nil when redis is
// disabled; logout then only succeeds client-side.
func NewAuthController(revoker TokenRevoker) *AuthController {
	return &AuthController{
		revoker: revoker,
	}
}

// Logout revokes the caller's access token
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c)
	if !ok {
		return
	}
	token, ttl, ok := middleware.GetAccessToken(c)
	if !ok {
		apperrors.Unauthorized(c, "authentication required")
		return
	}

	if ctrl.revoker == nil {
		log.Warn("Token revocation disabled, logout is client-side only", logger.Fields{
			"user_id": userID,
		})
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"revoked": false,
		})
		return
	}

	if err := ctrl.revoker.Revoke(c.Request.Context(), token, ttl); err != nil {
		log.Error("Failed to revoke token", err, logger.Fields{
			"user_id": userID,
		})
		apperrors.InternalError(c, "failed to log out")
		return
	}

	log.Info("User logged out", logger.Fields{
		"user_id": userID,
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"revoked": true,
	})
}
