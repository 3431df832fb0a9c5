package handlers

import (
	"context"
	"fmt"
	"net/http"

	"tableadmin/internal/domain"
	"tableadmin/internal/render"
	"tableadmin/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	mimePDF  = "application/pdf"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// GetSummary asks the gateway for fresh totals over all records.
func GetSummary(c *gin.Context) {
	s, ok := consoleSession(c)
	if !ok {
		return
	}
	sum, err := s.Store.Gateway().GetSummary(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": sum, "panel": render.Summary(sum)})
}

type exportFunc func(services.ExportService, context.Context, domain.Criteria, domain.Sort) ([]byte, string, error)

func exportWith(mime string, fn exportFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := consoleSession(c)
		if !ok {
			return
		}
		v := s.Store.View()
		svc := services.ExportService{Gateway: s.Store.Gateway()}
		data, filename, err := fn(svc, c.Request.Context(), v.Criteria, v.Sort)
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		c.Data(http.StatusOK, mime, data)
	}
}

// ExportPDF and ExportXLSX download every record matching the session's
// current filter and sort.
var (
	ExportPDF  = exportWith(mimePDF, services.ExportService.PDF)
	ExportXLSX = exportWith(mimeXLSX, services.ExportService.XLSX)
)
