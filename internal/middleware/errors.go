package middleware

import (
	"errors"
	"net/http"

	"github.com/Beegash/BBWallet/internal/models"
	"github.com/gin-gonic/gin"
)

// StatusFor maps a domain error to its HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConcurrencyConflict):
		return http.StatusServiceUnavailable
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// RespondWithDomainError writes err's status. Client errors echo the error text;
// server errors are logged through the request context and answered with fallback.
func RespondWithDomainError(c *gin.Context, err error, fallback string) {
	code := StatusFor(err)
	if code >= http.StatusInternalServerError {
		_ = c.Error(err)
		if code == http.StatusServiceUnavailable {
			RespondWithError(c, code, "The account is busy, please retry")
			return
		}
		RespondWithError(c, code, fallback)
		return
	}
	RespondWithError(c, code, err.Error())
}
