// Package selection tracks which rows of the visible page are checked and
// derives the bulk toolbar state from them.
package selection

import (
	"tableadmin/internal/domain"
	"tableadmin/internal/domain/models"
	"tableadmin/internal/listing"

	"github.com/shopspring/decimal"
)

// Aggregate is the combined status of the selected rows.
type Aggregate string

const (
	AggregateNone     Aggregate = "None"
	AggregateActive   Aggregate = "Active"
	AggregateInactive Aggregate = "Inactive"
	AggregateMixed    Aggregate = "Mixed"
)

// MixedWarning replaces the toggle button when statuses differ.
const MixedWarning = "Selected items have different statuses"

// Action is the status toggle offered for the current selection. When
// Visible is false the Warning (if any) is shown instead.
type Action struct {
	Label   string        `json:"label,omitempty"`
	Target  models.Status `json:"target,omitempty"`
	Visible bool          `json:"visible"`
	Warning string        `json:"warning,omitempty"`
}

// Tracker is not safe for concurrent use; the state store guards it.
type Tracker struct {
	visible  []models.Record
	selected map[int64]bool
}

func New() *Tracker {
	return &Tracker{selected: map[int64]bool{}}
}

// SetVisible replaces the page rows and drops the selection.
func (t *Tracker) SetVisible(records []models.Record) {
	t.visible = make([]models.Record, len(records))
	copy(t.visible, records)
	t.selected = map[int64]bool{}
}

// Toggle flips one row. Ids that are not on the page are rejected.
func (t *Tracker) Toggle(id int64) (bool, error) {
	if !t.onPage(id) {
		return false, domain.NotFoundError{Resource: "record", ID: id}
	}
	if t.selected[id] {
		delete(t.selected, id)
		return false, nil
	}
	t.selected[id] = true
	return true, nil
}

// SetAll checks or unchecks every visible row.
func (t *Tracker) SetAll(checked bool) {
	t.selected = map[int64]bool{}
	if !checked {
		return
	}
	for _, r := range t.visible {
		t.selected[r.ID] = true
	}
}

func (t *Tracker) Clear() {
	t.selected = map[int64]bool{}
}

// AllSelected drives the header checkbox; an empty page is never all selected.
func (t *Tracker) AllSelected() bool {
	return len(t.visible) > 0 && len(t.selected) == len(t.visible)
}

func (t *Tracker) Count() int { return len(t.selected) }

func (t *Tracker) IsSelected(id int64) bool { return t.selected[id] }

// IDs lists the selected ids in page order.
func (t *Tracker) IDs() []int64 {
	out := make([]int64, 0, len(t.selected))
	for _, r := range t.visible {
		if t.selected[r.ID] {
			out = append(out, r.ID)
		}
	}
	return out
}

// Selected returns copies of the selected records in page order.
func (t *Tracker) Selected() []models.Record {
	out := make([]models.Record, 0, len(t.selected))
	for _, r := range t.visible {
		if t.selected[r.ID] {
			out = append(out, r.Clone())
		}
	}
	return out
}

// Total sums the selected amounts; unparseable amounts add 0.
func (t *Tracker) Total() decimal.Decimal {
	return listing.Total(t.Selected())
}

func (t *Tracker) Aggregate() Aggregate {
	var active, inactive bool
	for _, r := range t.visible {
		if !t.selected[r.ID] {
			continue
		}
		switch r.Status {
		case models.StatusActive:
			active = true
		case models.StatusInactive:
			inactive = true
		}
	}
	switch {
	case active && inactive:
		return AggregateMixed
	case active:
		return AggregateActive
	case inactive:
		return AggregateInactive
	default:
		return AggregateNone
	}
}

func (t *Tracker) ToggleAction() Action {
	switch t.Aggregate() {
	case AggregateActive:
		return Action{Label: "Set Inactive", Target: models.StatusInactive, Visible: true}
	case AggregateInactive:
		return Action{Label: "Set Active", Target: models.StatusActive, Visible: true}
	case AggregateMixed:
		return Action{Warning: MixedWarning}
	default:
		return Action{}
	}
}

func (t *Tracker) onPage(id int64) bool {
	for _, r := range t.visible {
		if r.ID == id {
			return true
		}
	}
	return false
}
