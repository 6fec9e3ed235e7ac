package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/ikkim/storefront-backend/pkg/logger"
)

// respondError logs err at a level matching its status and writes the error body
func respondError(c *gin.Context, err error, context string) {
	log := middleware.GetLoggerFromContext(c)

	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.ParseError(err, context)
	}
	status := apperrors.StatusFor(appErr.Kind)

	if status >= http.StatusInternalServerError {
		log.Error("Request failed", err, logger.Fields{
			"context": context,
		})
	} else {
		log.Warn("Request rejected", logger.Fields{
			"context": context,
			"code":    appErr.Code,
			"error":   err.Error(),
		})
	}

	var fields service.FieldErrors
	if errors.As(err, &fields) {
		apperrors.RespondWithValidationError(c, fields)
		return
	}
	apperrors.Respond(c, appErr, context)
}

// requireUser returns the authenticated user id or writes a 401
func requireUser(c *gin.Context) (uint, bool) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		middleware.GetLoggerFromContext(c).Warn("Unauthenticated request", logger.Fields{
			"path": c.Request.URL.Path,
		})
		apperrors.Unauthorized(c, "")
		return 0, false
	}
	return userID, true
}

// parseID reads a positive numeric path parameter or writes a 400
func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "invalid "+param)
		return 0, false
	}
	return uint(id), true
}

// bindJSON decodes the body or writes a 400
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.GetLoggerFromContext(c).Warn("Invalid request body", logger.Fields{
			"path":  c.Request.URL.Path,
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid request body")
		return false
	}
	return true
}

func respondSuccess(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true})
}
