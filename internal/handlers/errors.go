package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rentora/rentora-api/internal/services"
)

// respondError maps service errors onto HTTP statuses. Unknown errors become
// a 500 without leaking internals to the client.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have access to this resource"})
	case errors.Is(err, services.ErrAlreadySigned):
		c.JSON(http.StatusConflict, gin.H{"error": "Already signed"})
	case errors.Is(err, services.ErrAlreadyFinalized):
		c.JSON(http.StatusConflict, gin.H{"error": "Lease is already finalized"})
	case errors.Is(err, services.ErrConsentRequired):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Explicit consent is required to sign"})
	case errors.Is(err, services.ErrSignaturesIncomplete):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Both signatures are required before finalization"})
	case errors.Is(err, services.ErrNotFinalized):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Lease document is not available yet"})
	case errors.Is(err, services.ErrInvalidState):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrStorageFailure):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Document storage is temporarily unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
