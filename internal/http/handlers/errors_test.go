package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"tableadmin/internal/domain"
	"tableadmin/internal/http/middleware"
	"tableadmin/internal/state"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRespondDomainError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	batch := domain.BatchError{Op: "bulk delete", Total: 3, Failures: []domain.ItemFailure{
		{ID: 2, Err: domain.NotFoundError{Resource: "record", ID: 2}},
	}}
	cases := []struct {
		name string
		err  error
		code int
		body string
	}{
		{"validation", domain.ValidationError{Field: "amount", Msg: "bad"}, http.StatusBadRequest, "validation_error"},
		{"not found", fmt.Errorf("edit: %w", domain.NotFoundError{Resource: "record", ID: 9}), http.StatusNotFound, "not_found"},
		{"conflict", domain.ConflictError{Resource: "bulk action", Msg: "nothing"}, http.StatusConflict, "conflict"},
		{"busy", state.ErrBusy, http.StatusConflict, "busy"},
		{"transport", domain.TransportError{Op: "list", Err: errors.New("refused")}, http.StatusBadGateway, "backend_unavailable"},
		{"batch wins over its causes", batch, http.StatusBadGateway, `"failed":[2]`},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(middleware.RequestID())
			r.GET("/", func(c *gin.Context) { RespondDomainError(c, tc.err) })

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(middleware.RequestIDHeader, "rid-1")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.code, w.Code)
			assert.Contains(t, w.Body.String(), tc.body)
			assert.Contains(t, w.Body.String(), `"request_id":"rid-1"`)
		})
	}
}
