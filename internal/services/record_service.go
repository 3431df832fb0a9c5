package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"tableadmin/internal/domain"
	"tableadmin/internal/domain/models"
	"tableadmin/internal/state"
	"tableadmin/internal/utils"
)

// RecordForm is the add/edit dialog payload, flat like the wire record.
type RecordForm struct {
	ID          int64         `json:"id,omitempty"`
	Kind        models.Kind   `json:"kind"`
	Amount      string        `json:"amount"`
	Status      models.Status `json:"status"`
	LastName    string        `json:"lastName,omitempty"`
	FirstName   string        `json:"firstName,omitempty"`
	Email       string        `json:"email,omitempty"`
	Website     string        `json:"website,omitempty"`
	ReferenceNo string        `json:"referenceNo,omitempty"`
	From        string        `json:"from,omitempty"`
	To          string        `json:"to,omitempty"`
	MessageType string        `json:"messageType,omitempty"`
}

// FormFromRecord pre-populates the edit dialog.
func FormFromRecord(r models.Record) RecordForm {
	f := RecordForm{ID: r.ID, Kind: r.Kind, Amount: r.Amount, Status: r.Status}
	if r.Item != nil {
		f.LastName, f.FirstName, f.Email, f.Website = r.Item.LastName, r.Item.FirstName, r.Item.Email, r.Item.Website
	}
	if r.Transfer != nil {
		f.ReferenceNo, f.From, f.To, f.MessageType = r.Transfer.ReferenceNo, r.Transfer.From, r.Transfer.To, r.Transfer.MessageType
	}
	return f
}

// Record validates the form and builds the record it describes. The amount
// comes back in canonical "$1,234.56" form.
func (f RecordForm) Record() (models.Record, error) {
	kind, ok := models.ParseKind(string(f.Kind))
	if !ok {
		return models.Record{}, domain.ValidationError{Field: "kind", Msg: "unknown kind " + string(f.Kind)}
	}
	status, ok := models.ParseStatus(string(f.Status))
	if !ok {
		return models.Record{}, domain.ValidationError{Field: "status", Msg: "must be Active or Inactive"}
	}
	if status == "" {
		status = models.StatusActive
	}
	amount, err := utils.NormalizeAmount(f.Amount)
	if err != nil {
		return models.Record{}, err
	}

	if kind == models.KindTransfer {
		tr := models.TransferFields{
			ReferenceNo: utils.NormalizeSpace(f.ReferenceNo),
			From:        utils.NormalizeSpace(f.From),
			To:          utils.NormalizeSpace(f.To),
			MessageType: utils.NormalizeSpace(f.MessageType),
		}
		switch {
		case tr.ReferenceNo == "":
			return models.Record{}, domain.ValidationError{Field: "referenceNo", Msg: "is required"}
		case tr.From == "":
			return models.Record{}, domain.ValidationError{Field: "from", Msg: "is required"}
		case tr.To == "":
			return models.Record{}, domain.ValidationError{Field: "to", Msg: "is required"}
		}
		return models.NewTransfer(f.ID, tr, amount, status), nil
	}

	it := models.ItemFields{
		LastName:  utils.NormalizeSpace(f.LastName),
		FirstName: utils.NormalizeSpace(f.FirstName),
		Email:     utils.TrimOrEmpty(f.Email),
		Website:   utils.TrimOrEmpty(f.Website),
	}
	if it.LastName == "" {
		return models.Record{}, domain.ValidationError{Field: "lastName", Msg: "is required"}
	}
	if it.Email != "" {
		if _, err := mail.ParseAddress(it.Email); err != nil {
			return models.Record{}, domain.ValidationError{Field: "email", Msg: "is not a valid address", Err: err}
		}
	}
	return models.NewItem(f.ID, it, amount, status), nil
}

// RecordService handles the single-row add/edit/delete dialogs.
type RecordService struct {
	Store *state.Store
	Now   func() time.Time
}

func (s RecordService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return utils.NowUTC()
}

// Blank is an empty add form for kind.
func (s RecordService) Blank(kind string) (RecordForm, error) {
	k, ok := models.ParseKind(kind)
	if !ok {
		return RecordForm{}, domain.ValidationError{Field: "kind", Msg: "unknown kind " + kind}
	}
	return RecordForm{Kind: k, Status: models.StatusActive}, nil
}

// EditForm loads the row from the current page; a row that has left the
// page is stale.
func (s RecordService) EditForm(id int64) (RecordForm, error) {
	r, ok := s.Store.Find(id)
	if !ok {
		return RecordForm{}, domain.NotFoundError{Resource: "record", ID: id}
	}
	return FormFromRecord(r), nil
}

func (s RecordService) Create(ctx context.Context, f RecordForm) (models.Record, error) {
	rid := utils.RequestIDFrom(ctx)
	rec, err := f.Record()
	if err != nil {
		return models.Record{}, err
	}
	rec.ID = 0
	rec.LastUpdate = s.now()
	out, err := s.Store.Gateway().CreateRecord(ctx, rec)
	if err != nil {
		utils.LogError(rid, "records", "create", err)
		return models.Record{}, err
	}
	utils.LogEvent(rid, "records", "create", fmt.Sprintf("id=%d kind=%s", out.ID, out.Kind))
	return out, s.Store.Refresh(ctx)
}

func (s RecordService) Update(ctx context.Context, id int64, f RecordForm) (models.Record, error) {
	rid := utils.RequestIDFrom(ctx)
	f.ID = id
	rec, err := f.Record()
	if err != nil {
		return models.Record{}, err
	}
	rec.LastUpdate = s.now()
	out, err := s.Store.Gateway().UpdateRecord(ctx, id, rec)
	if err != nil {
		utils.LogError(rid, "records", "update", err)
		return models.Record{}, err
	}
	utils.LogEvent(rid, "records", "update", fmt.Sprintf("id=%d", id))
	return out, s.Store.Refresh(ctx)
}

func (s RecordService) Delete(ctx context.Context, id int64) error {
	rid := utils.RequestIDFrom(ctx)
	if err := s.Store.Gateway().DeleteRecord(ctx, id); err != nil {
		utils.LogError(rid, "records", "delete", err)
		return err
	}
	utils.LogEvent(rid, "records", "delete", fmt.Sprintf("id=%d", id))
	return s.Store.Refresh(ctx)
}

// DeletePrompt is the single-row confirmation text.
func DeletePrompt(r models.Record) string {
	return "Delete this record?\n" + strings.TrimSpace(r.Label())
}
