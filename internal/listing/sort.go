package listing

import (
	"slices"
	"strings"

	"tableadmin/internal/domain"
	"tableadmin/internal/domain/models"
)

// Sort returns a copy of records ordered by s. Ties fall back to id
// ascending so the order is total and page boundaries are stable.
func Sort(records []models.Record, s domain.Sort) []models.Record {
	out := slices.Clone(records)
	cmp := comparator(s.Field)
	slices.SortStableFunc(out, func(a, b models.Record) int {
		c := cmp(a, b)
		if s.Desc() {
			c = -c
		}
		if c != 0 {
			return c
		}
		return compareInt(a.ID, b.ID)
	})
	return out
}

func comparator(field string) func(a, b models.Record) int {
	switch field {
	case "id":
		return func(a, b models.Record) int { return compareInt(a.ID, b.ID) }
	case "amount":
		return func(a, b models.Record) int { return Amount(a).Cmp(Amount(b)) }
	case "lastUpdate":
		return func(a, b models.Record) int { return a.LastUpdate.Compare(b.LastUpdate) }
	default:
		return func(a, b models.Record) int {
			return strings.Compare(strings.ToLower(a.Field(field)), strings.ToLower(b.Field(field)))
		}
	}
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
