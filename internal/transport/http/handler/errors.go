package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/account-service/internal/domain"
	"github.com/gin-gonic/gin"
)

const (
	errInternalServer   = "Internal server error"
	errUnauthorized     = "Unauthorized"
	errAccountNotFound  = "Account not found"
	errTokenInvalid     = "Token is invalid or expired"
	errStoreUnavailable = "Service temporarily unavailable"
)

// respondError maps a domain error onto the HTTP surface. Expired and
// forged tokens both arrive as ErrUnauthorized here; the distinction only
// exists in logs.
func respondError(c *gin.Context, logger *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": errAccountNotFound})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
	case errors.Is(err, domain.ErrActionTokenInvalid):
		c.JSON(http.StatusGone, gin.H{"error": errTokenInvalid})
	case errors.Is(err, domain.ErrStoreUnavailable):
		logger.ErrorContext(c.Request.Context(), op, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errStoreUnavailable})
	default:
		logger.ErrorContext(c.Request.Context(), op, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
	}
}
