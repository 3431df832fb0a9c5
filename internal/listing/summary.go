package listing

import (
	"tableadmin/internal/domain"
	"tableadmin/internal/domain/models"

	"github.com/shopspring/decimal"
)

// Summarize totals amounts and counts by status. Unparseable amounts add 0
// but the record is still counted.
func Summarize(records []models.Record) domain.Summary {
	s := domain.Summary{
		TotalAmount:    decimal.Zero,
		ActiveAmount:   decimal.Zero,
		InactiveAmount: decimal.Zero,
	}
	for _, r := range records {
		amt := Amount(r)
		s.TotalAmount = s.TotalAmount.Add(amt)
		s.TotalCount++
		switch r.Status {
		case models.StatusActive:
			s.ActiveAmount = s.ActiveAmount.Add(amt)
			s.ActiveCount++
		case models.StatusInactive:
			s.InactiveAmount = s.InactiveAmount.Add(amt)
			s.InactiveCount++
		}
	}
	return s
}

// Total sums the amounts of records.
func Total(records []models.Record) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range records {
		sum = sum.Add(Amount(r))
	}
	return sum
}
