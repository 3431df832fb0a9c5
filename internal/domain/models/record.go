package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a record.
type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Toggled returns the opposite status.
func (s Status) Toggled() Status {
	if s == StatusActive {
		return StatusInactive
	}
	return StatusActive
}

// ParseStatus accepts any casing; empty input yields "" and ok.
func ParseStatus(raw string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return "", true
	case "active":
		return StatusActive, true
	case "inactive":
		return StatusInactive, true
	default:
		return "", false
	}
}

// Kind tags the domain variant of a record.
type Kind string

const (
	KindItem     Kind = "item"
	KindTransfer Kind = "transfer"
)

func ParseKind(raw string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "item", "items":
		return KindItem, true
	case "transfer", "transfers":
		return KindTransfer, true
	default:
		return "", false
	}
}

// ItemFields are the person/contact columns of the generic item table.
type ItemFields struct {
	LastName  string
	FirstName string
	Email     string
	Website   string
}

// TransferFields are the payment message columns of the transfer table.
type TransferFields struct {
	ReferenceNo string
	From        string
	To          string
	MessageType string
}

// Record is one table row. Amount keeps the display string ("$1,234.56");
// exactly one of Item / Transfer is set, matching Kind.
type Record struct {
	ID         int64
	Kind       Kind
	Amount     string
	Status     Status
	LastUpdate time.Time
	Item       *ItemFields
	Transfer   *TransferFields
}

// NewItem and NewTransfer build records with their variant fields attached.
func NewItem(id int64, f ItemFields, amount string, status Status) Record {
	return Record{ID: id, Kind: KindItem, Amount: amount, Status: status, Item: &f}
}

func NewTransfer(id int64, f TransferFields, amount string, status Status) Record {
	return Record{ID: id, Kind: KindTransfer, Amount: amount, Status: status, Transfer: &f}
}

// Field returns the string value of a named column, "" when the column does
// not belong to the record's variant.
func (r Record) Field(name string) string {
	switch name {
	case "amount":
		return r.Amount
	case "status":
		return string(r.Status)
	}
	if r.Item != nil {
		switch name {
		case "lastName":
			return r.Item.LastName
		case "firstName":
			return r.Item.FirstName
		case "email":
			return r.Item.Email
		case "website":
			return r.Item.Website
		}
	}
	if r.Transfer != nil {
		switch name {
		case "referenceNo":
			return r.Transfer.ReferenceNo
		case "from":
			return r.Transfer.From
		case "to":
			return r.Transfer.To
		case "messageType":
			return r.Transfer.MessageType
		}
	}
	return ""
}

// Label is the one-line description shown in delete confirmations.
func (r Record) Label() string {
	switch {
	case r.Transfer != nil:
		return fmt.Sprintf("%s %s -> %s - %s", r.Transfer.ReferenceNo, r.Transfer.From, r.Transfer.To, r.Amount)
	case r.Item != nil:
		return fmt.Sprintf("%s, %s (%s) - %s", r.Item.LastName, r.Item.FirstName, r.Item.Email, r.Amount)
	default:
		return fmt.Sprintf("#%d - %s", r.ID, r.Amount)
	}
}

// Clone copies the record including its variant fields.
func (r Record) Clone() Record {
	out := r
	if r.Item != nil {
		it := *r.Item
		out.Item = &it
	}
	if r.Transfer != nil {
		tr := *r.Transfer
		out.Transfer = &tr
	}
	return out
}

// recordWire is the flat JSON shape used by the record backend. Items carry
// their amount in "due", transfers in "amount".
type recordWire struct {
	ID          int64  `json:"id"`
	Kind        Kind   `json:"kind,omitempty"`
	Status      Status `json:"status"`
	LastUpdate  string `json:"lastUpdate,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	FirstName   string `json:"firstName,omitempty"`
	Email       string `json:"email,omitempty"`
	Website     string `json:"website,omitempty"`
	Due         string `json:"due,omitempty"`
	ReferenceNo string `json:"referenceNo,omitempty"`
	From        string `json:"from,omitempty"`
	To          string `json:"to,omitempty"`
	MessageType string `json:"messageType,omitempty"`
	Amount      string `json:"amount,omitempty"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	w := recordWire{ID: r.ID, Kind: r.Kind, Status: r.Status}
	if !r.LastUpdate.IsZero() {
		w.LastUpdate = r.LastUpdate.UTC().Format(time.RFC3339Nano)
	}
	switch {
	case r.Transfer != nil:
		w.Kind = KindTransfer
		w.ReferenceNo = r.Transfer.ReferenceNo
		w.From = r.Transfer.From
		w.To = r.Transfer.To
		w.MessageType = r.Transfer.MessageType
		w.Amount = r.Amount
	default:
		w.Kind = KindItem
		if r.Item != nil {
			w.LastName = r.Item.LastName
			w.FirstName = r.Item.FirstName
			w.Email = r.Item.Email
			w.Website = r.Item.Website
		}
		w.Due = r.Amount
	}
	return json.Marshal(w)
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var w recordWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	kind := w.Kind
	if kind == "" {
		if w.ReferenceNo != "" || w.From != "" || w.To != "" || w.MessageType != "" {
			kind = KindTransfer
		} else {
			kind = KindItem
		}
	}
	out := Record{ID: w.ID, Kind: kind, Status: w.Status, LastUpdate: parseTimestamp(w.LastUpdate)}
	if kind == KindTransfer {
		out.Amount = w.Amount
		out.Transfer = &TransferFields{ReferenceNo: w.ReferenceNo, From: w.From, To: w.To, MessageType: w.MessageType}
	} else {
		out.Amount = w.Due
		if out.Amount == "" {
			out.Amount = w.Amount
		}
		out.Item = &ItemFields{LastName: w.LastName, FirstName: w.FirstName, Email: w.Email, Website: w.Website}
	}
	*r = out
	return nil
}

// parseTimestamp accepts ISO-8601 (what browsers emit) and MySQL datetimes.
// Anything else yields the zero time.
func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
