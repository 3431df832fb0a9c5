package handlers

import (
	"net/http"

	"tableadmin/internal/services"

	"github.com/gin-gonic/gin"
)

// NewRecordForm returns the blank add dialog for ?kind=item|transfer.
func NewRecordForm(c *gin.Context) {
	s, ok := consoleSession(c)
	if !ok {
		return
	}
	form, err := s.Records.Blank(c.DefaultQuery("kind", "item"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"form": form})
}

// GetRecordForm returns the edit dialog of a row on the current page.
func GetRecordForm(c *gin.Context) {
	s, ok := consoleSession(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	form, err := s.Records.EditForm(id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	rec, _ := s.Store.Find(id)
	c.JSON(http.StatusOK, gin.H{"form": form, "deletePrompt": services.DeletePrompt(rec)})
}

func CreateRecord(c *gin.Context) {
	s, ok := consoleSession(c)
	if !ok {
		return
	}
	var form services.RecordForm
	if !BindJSONOrError(c, &form) {
		return
	}
	rec, err := s.Records.Create(c.Request.Context(), form)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"record": rec, "view": s.Store.View()})
}

func UpdateRecord(c *gin.Context) {
	s, ok := consoleSession(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var form services.RecordForm
	if !BindJSONOrError(c, &form) {
		return
	}
	rec, err := s.Records.Update(c.Request.Context(), id, form)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": rec, "view": s.Store.View()})
}

func DeleteRecord(c *gin.Context) {
	s, ok := consoleSession(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := s.Records.Delete(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted", "view": s.Store.View()})
}
