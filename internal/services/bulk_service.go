package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"tableadmin/internal/domain"
	"tableadmin/internal/domain/models"
	"tableadmin/internal/selection"
	"tableadmin/internal/state"
	"tableadmin/internal/utils"

	"github.com/shopspring/decimal"
)

// Phase is where a console is in the bulk workflow.
type Phase string

const (
	PhaseIdle           Phase = "Idle"
	PhaseSelecting      Phase = "Selecting"
	PhaseConfirmPending Phase = "ConfirmPending"
	PhaseApplying       Phase = "Applying"
)

type ActionKind string

const (
	ActionStatus ActionKind = "status"
	ActionDelete ActionKind = "delete"
)

// PendingAction is what the confirmation dialog shows and the ticket signs.
type PendingAction struct {
	Kind      ActionKind      `json:"kind"`
	IDs       []int64         `json:"ids"`
	Target    models.Status   `json:"target,omitempty"`
	Total     decimal.Decimal `json:"-"`
	TotalText string          `json:"total"`
	Lines     []string        `json:"lines"`
	Message   string          `json:"message"`
	Ticket    string          `json:"ticket"`
	ExpiresAt time.Time       `json:"expiresAt"`

	ticketID string
}

// Progress of the running or last bulk delete.
type Progress struct {
	Done    int    `json:"done"`
	Total   int    `json:"total"`
	Failed  int    `json:"failed"`
	Running bool   `json:"running"`
	Message string `json:"message"`
}

// DeleteReport lists the outcome of a bulk delete in input order.
type DeleteReport struct {
	Deleted []int64              `json:"deleted"`
	Failed  []domain.ItemFailure `json:"-"`
	Message string               `json:"message"`
}

// FailedIDs is the JSON-friendly view of Failed.
func (r DeleteReport) FailedIDs() []int64 {
	out := make([]int64, 0, len(r.Failed))
	for _, f := range r.Failed {
		out = append(out, f.ID)
	}
	return out
}

// BulkService runs select -> confirm -> mutate -> refresh for one console.
type BulkService struct {
	Store      *state.Store
	Tickets    *TicketSigner
	SessionID  string
	OnProgress func(Progress)

	mu       sync.Mutex
	pending  *PendingAction
	applying bool
	progress Progress
}

func NewBulkService(store *state.Store, tickets *TicketSigner, sessionID string) *BulkService {
	return &BulkService{Store: store, Tickets: tickets, SessionID: sessionID}
}

func (s *BulkService) Phase() Phase {
	s.mu.Lock()
	applying, pending := s.applying, s.pending != nil
	s.mu.Unlock()
	switch {
	case applying:
		return PhaseApplying
	case pending:
		return PhaseConfirmPending
	case s.Store.Selection().Count > 0:
		return PhaseSelecting
	default:
		return PhaseIdle
	}
}

// Pending returns a copy of the action awaiting confirmation.
func (s *BulkService) Pending() (PendingAction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return PendingAction{}, false
	}
	return *s.pending, true
}

func (s *BulkService) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// PrepareStatusChange stages the toggle offered for a uniform selection.
func (s *BulkService) PrepareStatusChange(ctx context.Context) (PendingAction, error) {
	sel := s.Store.Selection()
	if sel.Count == 0 {
		return PendingAction{}, domain.ValidationError{Field: "selection", Msg: "no records selected"}
	}
	if sel.Aggregate == selection.AggregateMixed {
		return PendingAction{}, domain.ValidationError{Field: "selection", Msg: selection.MixedWarning}
	}
	p := PendingAction{
		Kind:      ActionStatus,
		IDs:       sel.IDs,
		Target:    sel.Action.Target,
		Total:     sel.Total,
		TotalText: sel.TotalText,
		Lines:     labels(sel.Records),
		Message: fmt.Sprintf("Set %d %s to %s? Total amount: %s",
			sel.Count, plural(sel.Count), sel.Action.Target, sel.TotalText),
	}
	return s.stage(ctx, p)
}

// PrepareDelete stages a delete of every selected record.
func (s *BulkService) PrepareDelete(ctx context.Context) (PendingAction, error) {
	sel := s.Store.Selection()
	if sel.Count == 0 {
		return PendingAction{}, domain.ValidationError{Field: "selection", Msg: "no records selected"}
	}
	p := PendingAction{
		Kind:      ActionDelete,
		IDs:       sel.IDs,
		Total:     sel.Total,
		TotalText: sel.TotalText,
		Lines:     labels(sel.Records),
		Message:   fmt.Sprintf("Delete %d %s? This cannot be undone.", sel.Count, plural(sel.Count)),
	}
	return s.stage(ctx, p)
}

func (s *BulkService) stage(ctx context.Context, p PendingAction) (PendingAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applying {
		return PendingAction{}, domain.ConflictError{Resource: "bulk action", Msg: "another bulk action is running"}
	}
	token, jti, exp, err := s.Tickets.Issue(p, s.SessionID)
	if err != nil {
		return PendingAction{}, err
	}
	p.Ticket, p.ticketID, p.ExpiresAt = token, jti, exp
	s.pending = &p
	utils.LogEvent(utils.RequestIDFrom(ctx), "bulk", "prepare_"+string(p.Kind), fmt.Sprintf("ids=%v", p.IDs))
	return p, nil
}

// Cancel drops the pending action.
func (s *BulkService) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applying {
		return domain.ConflictError{Resource: "bulk action", Msg: "a running bulk action cannot be cancelled"}
	}
	if s.pending == nil {
		return domain.ConflictError{Resource: "bulk action", Msg: "nothing to cancel"}
	}
	s.pending = nil
	return nil
}

// Confirm executes the pending action once ticket proves the user saw it.
// Once applying it runs to completion even if ctx is cancelled.
func (s *BulkService) Confirm(ctx context.Context, ticket string) (DeleteReport, error) {
	s.mu.Lock()
	if s.applying {
		s.mu.Unlock()
		return DeleteReport{}, domain.ConflictError{Resource: "bulk action", Msg: "a bulk action is already running"}
	}
	if s.pending == nil {
		s.mu.Unlock()
		return DeleteReport{}, domain.ConflictError{Resource: "bulk action", Msg: "no action awaiting confirmation"}
	}
	claims, err := s.Tickets.Verify(ticket)
	if err != nil {
		s.mu.Unlock()
		return DeleteReport{}, err
	}
	if !claims.matches(*s.pending, s.SessionID) {
		s.mu.Unlock()
		return DeleteReport{}, domain.ConflictError{Resource: "bulk action", Msg: "confirmation does not match the pending action"}
	}
	p := *s.pending
	s.pending = nil
	s.applying = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.applying = false
		s.mu.Unlock()
	}()

	ctx = context.WithoutCancel(ctx)
	switch p.Kind {
	case ActionStatus:
		return DeleteReport{}, s.applyStatus(ctx, p)
	default:
		return s.applyDelete(ctx, p)
	}
}

func (s *BulkService) applyStatus(ctx context.Context, p PendingAction) error {
	rid := utils.RequestIDFrom(ctx)
	if err := s.Store.Gateway().BulkUpdateStatus(ctx, p.IDs, p.Target); err != nil {
		utils.LogError(rid, "bulk", "set_status", err)
		return err
	}
	utils.LogEvent(rid, "bulk", "set_status", fmt.Sprintf("%d records -> %s", len(p.IDs), p.Target))
	s.Store.ClearSelection()
	return s.Store.Refresh(ctx)
}

// applyDelete deletes strictly one id after another in input order. A
// failed id is recorded and the batch moves on.
func (s *BulkService) applyDelete(ctx context.Context, p PendingAction) (DeleteReport, error) {
	rid := utils.RequestIDFrom(ctx)
	n := len(p.IDs)
	s.setProgress(Progress{Total: n, Running: true, Message: progressText(0, n)})

	report := DeleteReport{Deleted: make([]int64, 0, n)}
	for i, id := range p.IDs {
		if err := s.Store.Gateway().DeleteRecord(ctx, id); err != nil {
			utils.LogError(rid, "bulk", "delete", fmt.Errorf("id %d: %w", id, err))
			report.Failed = append(report.Failed, domain.ItemFailure{ID: id, Err: err})
		} else {
			report.Deleted = append(report.Deleted, id)
		}
		s.setProgress(Progress{Done: i + 1, Total: n, Failed: len(report.Failed), Running: i+1 < n, Message: progressText(len(report.Deleted), n)})
	}
	report.Message = progressText(len(report.Deleted), n)
	utils.LogEvent(rid, "bulk", "delete", report.Message)

	s.Store.ClearSelection()
	refreshErr := s.Store.Refresh(ctx)

	if len(report.Failed) == 0 {
		return report, refreshErr
	}
	batchErr := domain.BatchError{Op: "bulk delete", Total: n, Failures: report.Failed}
	if refreshErr != nil {
		return report, errors.Join(batchErr, refreshErr)
	}
	return report, batchErr
}

func (s *BulkService) setProgress(p Progress) {
	s.mu.Lock()
	s.progress = p
	cb := s.OnProgress
	s.mu.Unlock()
	if cb != nil {
		cb(p)
	}
}

func progressText(deleted, total int) string {
	return strconv.Itoa(deleted) + " of " + strconv.Itoa(total) + " deleted"
}

func labels(records []models.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Label())
	}
	return out
}

func plural(n int) string {
	if n == 1 {
		return "record"
	}
	return "records"
}
