package handlers

import (
	"errors"
	"net/http"

	"tableadmin/internal/domain"

	"github.com/gin-gonic/gin"
)

type confirmRequest struct {
	Ticket string `json:"ticket" binding:"required"`
}

// PrepareBulkStatus stages the status toggle and returns the confirmation
// dialog with its ticket.
func PrepareBulkStatus(c *gin.Context) {
	s, ok := consoleSession(c)
	if !ok {
		return
	}
	pending, err := s.Bulk.PrepareStatusChange(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending": pending})
}

func PrepareBulkDelete(c *gin.Context) {
	s, ok := consoleSession(c)
	if !ok {
		return
	}
	pending, err := s.Bulk.PrepareDelete(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending": pending})
}

// ConfirmBulk runs the staged action. A partially failed delete answers 502
// with both the deleted and the failed ids.
func ConfirmBulk(c *gin.Context) {
	s, ok := consoleSession(c)
	if !ok {
		return
	}
	var req confirmRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	report, err := s.Bulk.Confirm(c.Request.Context(), req.Ticket)
	var batch domain.BatchError
	if errors.As(err, &batch) {
		respondError(c, http.StatusBadGateway, "partial_failure", report.Message, gin.H{
			"deleted": report.Deleted,
			"failed":  batch.FailedIDs(),
			"error":   err.Error(),
		})
		return
	}
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	message := report.Message
	if message == "" {
		message = "status updated"
	}
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"deleted": report.Deleted,
		"view":    s.Store.View(),
	})
}

func CancelBulk(c *gin.Context) {
	s, ok := consoleSession(c)
	if !ok {
		return
	}
	if err := s.Bulk.Cancel(); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cancelled", "phase": s.Bulk.Phase()})
}

func BulkProgress(c *gin.Context) {
	s, ok := consoleSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": s.Bulk.Progress(), "phase": s.Bulk.Phase()})
}
