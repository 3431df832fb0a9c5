package handlers

import (
	"errors"
	"net/http"

	"tableadmin/internal/domain"
	"tableadmin/internal/http/middleware"
	"tableadmin/internal/render"
	"tableadmin/internal/services"
	"tableadmin/internal/session"
	"tableadmin/internal/state"
	"tableadmin/internal/utils"

	"github.com/gin-gonic/gin"
)

type filterRequest struct {
	Status    string `json:"status"`
	MinAmount string `json:"minAmount"`
	MaxAmount string `json:"maxAmount"`
}

type sortRequest struct {
	Field  string `json:"field" binding:"required"`
	Order  string `json:"order"`
	Toggle bool   `json:"toggle"`
}

type pageRequest struct {
	Page int `json:"page" binding:"required"`
}

// buildPage is the screen of one session, with the bulk dialog and progress
// laid over the table.
func buildPage(s *session.Session) render.Page {
	p := render.Build(s.Store.View())
	if pending, ok := s.Bulk.Pending(); ok {
		p.Confirm = &render.Confirm{Message: pending.Message, Lines: pending.Lines, Ticket: pending.Ticket}
	}
	if prog := s.Bulk.Progress(); prog.Running || prog.Message != "" {
		p.Progress = prog.Message
	}
	return p
}

// ensureLoaded runs the first load of a fresh session. A load already in
// flight is not an error here: the screen shows whatever is published.
func ensureLoaded(c *gin.Context, s *session.Session) error {
	if s.Store.View().Loaded {
		return nil
	}
	err := s.Store.Load(c.Request.Context())
	if errors.Is(err, state.ErrBusy) {
		return nil
	}
	return err
}

func sortFrom(req sortRequest) domain.Sort {
	return domain.Sort{Field: req.Field, Order: req.Order}
}

func respondView(c *gin.Context, s *session.Session) {
	c.JSON(http.StatusOK, gin.H{"view": s.Store.View()})
}

// ConsolePage renders the full HTML console.
func ConsolePage(c *gin.Context) {
	s, ok := consoleSession(c)
	if !ok {
		return
	}
	if err := ensureLoaded(c, s); err != nil {
		utils.LogError(middleware.GetRequestID(c), "console", "page", err)
		p := buildPage(s)
		p.StatusLine = "Failed to load data"
		p.Error = err.Error()
		c.HTML(http.StatusBadGateway, "page", p)
		return
	}
	c.HTML(http.StatusOK, "page", buildPage(s))
}

// ConsoleRows renders only the table body.
func ConsoleRows(c *gin.Context) {
	s, ok := consoleSession(c)
	if !ok {
		return
	}
	if err := ensureLoaded(c, s); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.HTML(http.StatusOK, "rows", buildPage(s))
}

func GetView(c *gin.Context) {
	s, ok := consoleSession(c)
	if !ok {
		return
	}
	if err := ensureLoaded(c, s); err != nil {
		RespondDomainError(c, err)
		return
	}
	respondView(c, s)
}

func ApplyFilter(c *gin.Context) {
	s, ok := consoleSession(c)
	if !ok {
		return
	}
	var req filterRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	crit, err := services.ParseCriteria(req.Status, req.MinAmount, req.MaxAmount)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if err := s.Store.ApplyFilter(c.Request.Context(), crit); err != nil {
		RespondDomainError(c, err)
		return
	}
	respondView(c, s)
}

func ResetFilter(c *gin.Context) {
	s, ok := consoleSession(c)
	if !ok {
		return
	}
	if err := s.Store.ResetFilter(c.Request.Context()); err != nil {
		RespondDomainError(c, err)
		return
	}
	respondView(c, s)
}

// SetSort orders by {field, order}; with toggle it behaves like a header
// click and flips the direction of the current field.
func SetSort(c *gin.Context) {
	s, ok := consoleSession(c)
	if !ok {
		return
	}
	var req sortRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	ctx := c.Request.Context()
	var err error
	if req.Toggle {
		err = s.Store.ToggleSort(ctx, req.Field)
	} else {
		err = s.Store.SetSort(ctx, sortFrom(req))
	}
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondView(c, s)
}

func GoToPage(c *gin.Context) {
	s, ok := consoleSession(c)
	if !ok {
		return
	}
	var req pageRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if err := s.Store.GoToPage(c.Request.Context(), req.Page); err != nil {
		RespondDomainError(c, err)
		return
	}
	respondView(c, s)
}

func NextPage(c *gin.Context) {
	s, ok := consoleSession(c)
	if !ok {
		return
	}
	if err := s.Store.Next(c.Request.Context()); err != nil {
		RespondDomainError(c, err)
		return
	}
	respondView(c, s)
}

func PrevPage(c *gin.Context) {
	s, ok := consoleSession(c)
	if !ok {
		return
	}
	if err := s.Store.Prev(c.Request.Context()); err != nil {
		RespondDomainError(c, err)
		return
	}
	respondView(c, s)
}

// RefreshView is the refresh button: it waits for a running load and keeps
// the selection.
func RefreshView(c *gin.Context) {
	s, ok := consoleSession(c)
	if !ok {
		return
	}
	if err := s.Store.Refresh(c.Request.Context()); err != nil {
		RespondDomainError(c, err)
		return
	}
	respondView(c, s)
}
