package domain

import (
	"strings"

	"tableadmin/internal/domain/models"

	"github.com/shopspring/decimal"
)

// DefaultPageSize is the fixed number of rows per table page.
const DefaultPageSize = 10

const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// SortFields whitelists the record fields a view can be ordered by.
var SortFields = []string{
	"id", "amount", "status", "lastUpdate",
	"referenceNo", "from", "to", "messageType",
	"lastName", "firstName", "email", "website",
}

// Criteria is the conjunctive filter of a view. Empty Status means any,
// nil MaxAmount means no upper bound.
type Criteria struct {
	Status    models.Status    `json:"status,omitempty"`
	MinAmount decimal.Decimal  `json:"minAmount"`
	MaxAmount *decimal.Decimal `json:"maxAmount,omitempty"`
}

// Validate rejects unknown statuses and inverted bounds.
func (c Criteria) Validate() error {
	if c.Status != "" && !c.Status.Valid() {
		return ValidationError{Field: "status", Msg: "unknown status " + string(c.Status)}
	}
	if c.MinAmount.IsNegative() {
		return ValidationError{Field: "minAmount", Msg: "must not be negative"}
	}
	if c.MaxAmount != nil && c.MaxAmount.LessThan(c.MinAmount) {
		return ValidationError{Field: "maxAmount", Msg: "must not be below minAmount"}
	}
	return nil
}

// IsZero reports whether the criteria match everything.
func (c Criteria) IsZero() bool {
	return c.Status == "" && c.MinAmount.IsZero() && c.MaxAmount == nil
}

// Sort defines sorting preference.
type Sort struct {
	Field string `json:"field"`
	Order string `json:"order"` // asc / desc
}

// DefaultSort orders by last update, newest first.
func DefaultSort() Sort {
	return Sort{Field: "lastUpdate", Order: OrderDesc}
}

// Normalize fills defaults and validates the field against SortFields.
func (s Sort) Normalize() (Sort, error) {
	out := Sort{Field: strings.TrimSpace(s.Field), Order: strings.ToLower(strings.TrimSpace(s.Order))}
	if out.Field == "" {
		out.Field = DefaultSort().Field
	}
	if out.Order == "" {
		out.Order = OrderAsc
	}
	if out.Order != OrderAsc && out.Order != OrderDesc {
		return Sort{}, ValidationError{Field: "order", Msg: "must be asc or desc"}
	}
	for _, f := range SortFields {
		if f == out.Field {
			return out, nil
		}
	}
	return Sort{}, ValidationError{Field: "field", Msg: "cannot sort by " + out.Field}
}

// Desc reports a descending order.
func (s Sort) Desc() bool { return s.Order == OrderDesc }

// Pagination carries paging params and totals.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// FirstRow and LastRow are the 1-based bounds shown as
// "Showing a to b of n entries"; both are 0 for an empty view.
func (p Pagination) FirstRow() int {
	if p.Total == 0 {
		return 0
	}
	return (p.Page-1)*p.PageSize + 1
}

func (p Pagination) LastRow() int {
	if p.Total == 0 {
		return 0
	}
	return min(p.Page*p.PageSize, p.Total)
}

// HasPrev and HasNext drive the pager buttons.
func (p Pagination) HasPrev() bool { return p.Page > 1 }
func (p Pagination) HasNext() bool { return p.Page < p.TotalPages }

// ListQuery is one listRecords request.
type ListQuery struct {
	Criteria Criteria `json:"criteria"`
	Sort     Sort     `json:"sort"`
	Page     int      `json:"page"`
	PageSize int      `json:"pageSize"`
}

// ListResult is one page of records plus the counts of the whole filtered set.
type ListResult struct {
	Records    []models.Record `json:"records"`
	TotalCount int             `json:"totalCount"`
	TotalPages int             `json:"totalPages"`
	Page       int             `json:"page"`
}

// Summary aggregates amounts and counts by status.
type Summary struct {
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	TotalCount     int             `json:"totalCount"`
	ActiveAmount   decimal.Decimal `json:"activeAmount"`
	ActiveCount    int             `json:"activeCount"`
	InactiveAmount decimal.Decimal `json:"inactiveAmount"`
	InactiveCount  int             `json:"inactiveCount"`
}
