package handler

import (
	"net/http"
	"time"

	"github.com/Beegash/BBWallet/internal/middleware"
	"github.com/Beegash/BBWallet/internal/utils"
	"github.com/gin-gonic/gin"
)

// bindJSON decodes and validates the request body, writing the 400 itself on failure.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return false
	}
	return true
}

// optionalDate parses a validated YYYY-MM-DD pointer field.
func optionalDate(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := utils.ParseDate(*s)
	if err != nil {
		return nil
	}
	return &t
}

func mustDate(s string) time.Time {
	t, _ := utils.ParseDate(s)
	return t
}
