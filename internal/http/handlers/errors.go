package handlers

import (
	"errors"
	"net/http"

	"tableadmin/internal/domain"
	"tableadmin/internal/http/middleware"
	"tableadmin/internal/state"
	"tableadmin/internal/utils"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	payload := gin.H{
		"error":      message,
		"code":       code,
		"message":    message,
		"request_id": middleware.GetRequestID(c),
	}
	if details != nil {
		payload["details"] = details
	}
	c.JSON(status, payload)
}

// RespondDomainError maps domain errors to HTTP responses. A batch error is
// checked first: it wraps the per-id causes, which would otherwise match the
// single-record cases.
func RespondDomainError(c *gin.Context, err error) {
	var batch domain.BatchError
	switch {
	case errors.As(err, &batch):
		respondError(c, http.StatusBadGateway, "partial_failure", err.Error(), gin.H{
			"failed": batch.FailedIDs(),
			"total":  batch.Total,
		})
	case errors.Is(err, state.ErrBusy):
		respondError(c, http.StatusConflict, "busy", err.Error(), nil)
	case domain.IsValidation(err):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, "conflict", err.Error(), nil)
	case domain.IsTransport(err):
		respondError(c, http.StatusBadGateway, "backend_unavailable", err.Error(), nil)
	default:
		utils.LogError(middleware.GetRequestID(c), "http", "unhandled", err)
		respondError(c, http.StatusInternalServerError, "internal_error", "something went wrong", nil)
	}
}
