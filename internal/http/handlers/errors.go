package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/you/chainguard/domain"
)

// writeError maps a flow or session failure to a status and inline message
func writeError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Validation failed", "field_errors": verr.Fields})
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
	case errors.Is(err, domain.ErrIncompleteCode):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Enter all 6 digits"})
	case errors.Is(err, domain.ErrOTPExpired):
		c.JSON(http.StatusGone, gin.H{"error": "Code has expired, request a new one"})
	case errors.Is(err, domain.ErrOTPMismatch):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid verification code"})
	case errors.Is(err, domain.ErrUserAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists"})
	case errors.Is(err, domain.ErrNoPendingSignup):
		c.JSON(http.StatusConflict, gin.H{"error": "No signup awaiting verification"})
	case errors.Is(err, domain.ErrResendNotAllowed):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Wait for the code to expire before resending"})
	case errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "Not available on this screen"})
	case errors.Is(err, domain.ErrNetworkFailure):
		log.Printf("UPSTREAM_FAILURE: path=%s error=%v", c.FullPath(), err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Something went wrong, please try again"})
	default:
		log.Printf("HANDLER_ERROR: path=%s error=%v", c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}
