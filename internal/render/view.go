// Package render turns a state.View into the table view model shared by the
// HTML console and the CLI.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"tableadmin/internal/domain"
	"tableadmin/internal/domain/models"
	"tableadmin/internal/state"
	"tableadmin/internal/utils"
)

// EmptyText is the placeholder row of an empty table.
const EmptyText = "No data available"

type Column struct {
	Field    string
	Title    string
	Sortable bool
	Sorted   bool
	Desc     bool
}

type Row struct {
	ID       int64
	Kind     models.Kind
	Cells    []string
	Status   models.Status
	Selected bool
	Label    string
}

type SummaryPanel struct {
	TotalAmount    string
	TotalCount     int
	ActiveAmount   string
	ActiveCount    int
	InactiveAmount string
	InactiveCount  int
}

type SelectionBar struct {
	Visible      bool
	Count        int
	Total        string
	AllSelected  bool
	ActionLabel  string
	ActionTarget models.Status
	Warning      string
}

// Confirm is an open confirmation dialog.
type Confirm struct {
	Message string
	Lines   []string
	Ticket  string
}

type Filter struct {
	Status    string
	MinAmount string
	MaxAmount string
}

// Page is the whole console screen.
type Page struct {
	Title      string
	Columns    []Column
	Rows       []Row
	Empty      bool
	EmptyText  string
	Filter     Filter
	Statuses   []string
	PageLabel  string
	RangeLabel string
	StatusLine string
	// Error is a blocking notice shown above the table, e.g. a failed load.
	Error      string
	Page       int
	TotalPages int
	HasPrev    bool
	HasNext    bool
	Selection  SelectionBar
	Summary    SummaryPanel
	Confirm    *Confirm
	Progress   string
}

var (
	itemColumns = []Column{
		{Field: "lastName", Title: "Last Name"},
		{Field: "firstName", Title: "First Name"},
		{Field: "email", Title: "Email"},
		{Field: "website", Title: "Website"},
		{Field: "amount", Title: "Due"},
		{Field: "status", Title: "Status"},
		{Field: "lastUpdate", Title: "Last Update"},
	}
	transferColumns = []Column{
		{Field: "referenceNo", Title: "Reference No"},
		{Field: "from", Title: "From"},
		{Field: "to", Title: "To"},
		{Field: "messageType", Title: "Message Type"},
		{Field: "amount", Title: "Amount"},
		{Field: "status", Title: "Status"},
		{Field: "lastUpdate", Title: "Last Update"},
	}
	// GenericColumns serve a page mixing both kinds, and exports.
	GenericColumns = []Column{
		{Field: "id", Title: "ID"},
		{Field: "kind", Title: "Kind"},
		{Field: "", Title: "Name / Reference"},
		{Field: "", Title: "Contact / Route"},
		{Field: "amount", Title: "Amount"},
		{Field: "status", Title: "Status"},
		{Field: "lastUpdate", Title: "Last Update"},
	}
)

// Build derives the screen from a view snapshot.
func Build(v state.View) Page {
	kind := pageKind(v.Records)
	cols := columnsFor(kind, v.Sort)

	rows := make([]Row, 0, len(v.Records))
	selected := make(map[int64]bool, len(v.Selection.IDs))
	for _, id := range v.Selection.IDs {
		selected[id] = true
	}
	for _, r := range v.Records {
		rows = append(rows, Row{
			ID:       r.ID,
			Kind:     r.Kind,
			Cells:    cellsFor(kind, r),
			Status:   r.Status,
			Selected: selected[r.ID],
			Label:    r.Label(),
		})
	}

	p := v.Pagination
	totalPages := max(1, p.TotalPages)
	page := Page{
		Title:      "Records",
		Columns:    cols,
		Rows:       rows,
		Empty:      len(rows) == 0,
		EmptyText:  EmptyText,
		Filter:     filterValues(v.Criteria),
		Statuses:   []string{"", string(models.StatusActive), string(models.StatusInactive)},
		PageLabel:  fmt.Sprintf("Page %d of %d", p.Page, totalPages),
		RangeLabel: fmt.Sprintf("Showing %d to %d of %d entries", p.FirstRow(), p.LastRow(), p.Total),
		StatusLine: v.StatusLine,
		Page:       p.Page,
		TotalPages: totalPages,
		HasPrev:    p.HasPrev(),
		HasNext:    p.HasNext(),
		Selection: SelectionBar{
			Visible:      v.Selection.Count > 0,
			Count:        v.Selection.Count,
			Total:        v.Selection.TotalText,
			AllSelected:  v.Selection.AllSelected,
			ActionLabel:  v.Selection.Action.Label,
			ActionTarget: v.Selection.Action.Target,
			Warning:      v.Selection.Action.Warning,
		},
		Summary: Summary(v.Summary),
	}
	return page
}

// Summary formats the summary panel amounts.
func Summary(s domain.Summary) SummaryPanel {
	return SummaryPanel{
		TotalAmount:    utils.FormatAmount(s.TotalAmount),
		TotalCount:     s.TotalCount,
		ActiveAmount:   utils.FormatAmount(s.ActiveAmount),
		ActiveCount:    s.ActiveCount,
		InactiveAmount: utils.FormatAmount(s.InactiveAmount),
		InactiveCount:  s.InactiveCount,
	}
}

// GenericCells flattens a record into GenericColumns order.
func GenericCells(r models.Record) []string {
	var primary, secondary string
	switch {
	case r.Transfer != nil:
		primary = r.Transfer.ReferenceNo
		secondary = r.Transfer.From + " -> " + r.Transfer.To
		if r.Transfer.MessageType != "" {
			secondary += " (" + r.Transfer.MessageType + ")"
		}
	case r.Item != nil:
		primary = strings.Trim(r.Item.LastName+", "+r.Item.FirstName, ", ")
		secondary = r.Item.Email
	}
	return []string{
		strconv.FormatInt(r.ID, 10),
		string(r.Kind),
		primary,
		secondary,
		r.Amount,
		string(r.Status),
		utils.FormatDateTime(r.LastUpdate),
	}
}

// pageKind is the single kind on the page, or "" when kinds are mixed. An
// empty page shows item columns.
func pageKind(records []models.Record) models.Kind {
	if len(records) == 0 {
		return models.KindItem
	}
	kind := records[0].Kind
	for _, r := range records[1:] {
		if r.Kind != kind {
			return ""
		}
	}
	return kind
}

func columnsFor(kind models.Kind, sort domain.Sort) []Column {
	var base []Column
	switch kind {
	case models.KindItem:
		base = itemColumns
	case models.KindTransfer:
		base = transferColumns
	default:
		base = GenericColumns
	}
	out := make([]Column, len(base))
	for i, c := range base {
		c.Sortable = c.Field != "" && c.Field != "kind"
		c.Sorted = c.Sortable && c.Field == sort.Field
		c.Desc = c.Sorted && sort.Desc()
		out[i] = c
	}
	return out
}

func cellsFor(kind models.Kind, r models.Record) []string {
	if kind == "" {
		return GenericCells(r)
	}
	cols := itemColumns
	if kind == models.KindTransfer {
		cols = transferColumns
	}
	out := make([]string, len(cols))
	for i, c := range cols {
		if c.Field == "lastUpdate" {
			out[i] = utils.FormatDateTime(r.LastUpdate)
			continue
		}
		out[i] = r.Field(c.Field)
	}
	return out
}

func filterValues(c domain.Criteria) Filter {
	f := Filter{Status: string(c.Status)}
	if !c.MinAmount.IsZero() {
		f.MinAmount = c.MinAmount.String()
	}
	if c.MaxAmount != nil {
		f.MaxAmount = c.MaxAmount.String()
	}
	return f
}
