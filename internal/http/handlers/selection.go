package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type selectRequest struct {
	ID int64 `json:"id" binding:"required"`
}

type selectAllRequest struct {
	Checked bool `json:"checked"`
}

func respondSelection(c *gin.Context, extra gin.H) {
	s, ok := consoleSession(c)
	if !ok {
		return
	}
	out := gin.H{"selection": s.Store.Selection(), "phase": s.Bulk.Phase()}
	for k, v := range extra {
		out[k] = v
	}
	c.JSON(http.StatusOK, out)
}

// ToggleSelect flips the checkbox of one visible row.
func ToggleSelect(c *gin.Context) {
	s, ok := consoleSession(c)
	if !ok {
		return
	}
	var req selectRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	checked, err := s.Store.Toggle(req.ID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondSelection(c, gin.H{"id": req.ID, "checked": checked})
}

func SelectAll(c *gin.Context) {
	s, ok := consoleSession(c)
	if !ok {
		return
	}
	var req selectAllRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	s.Store.SelectAll(req.Checked)
	respondSelection(c, nil)
}

func ClearSelection(c *gin.Context) {
	s, ok := consoleSession(c)
	if !ok {
		return
	}
	s.Store.ClearSelection()
	respondSelection(c, nil)
}

// GetSelection reports count, aggregate status, the toggle action and the
// selected total.
func GetSelection(c *gin.Context) {
	respondSelection(c, nil)
}
