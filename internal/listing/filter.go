// Package listing is the filter/sort/paginate engine for record sets held in
// memory. It is pure: no function mutates its input slice.
package listing

import (
	"fmt"

	"tableadmin/internal/domain"
	"tableadmin/internal/domain/models"
	"tableadmin/internal/utils"

	"github.com/shopspring/decimal"
)

// Amount is the numeric value of a record; unparseable amounts count as 0.
func Amount(r models.Record) decimal.Decimal {
	d, _ := utils.AmountOrZero(r.Amount)
	return d
}

// Matches evaluates the conjunctive criteria predicate for one record.
func Matches(r models.Record, c domain.Criteria) bool {
	if c.Status != "" && r.Status != c.Status {
		return false
	}
	amt := Amount(r)
	if amt.LessThan(c.MinAmount) {
		return false
	}
	if c.MaxAmount != nil && amt.GreaterThan(*c.MaxAmount) {
		return false
	}
	return true
}

// Filter returns the records satisfying c, in input order.
func Filter(records []models.Record, c domain.Criteria) []models.Record {
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if Matches(r, c) {
			out = append(out, r)
		}
	}
	return out
}

// StatusLine builds the "N records" / "Showing N of M records" caption.
func StatusLine(shown, total int) string {
	if shown == total {
		return fmt.Sprintf("%d records", total)
	}
	return fmt.Sprintf("Showing %d of %d records", shown, total)
}
