package listing

import (
	"fmt"
	"testing"
	"time"

	"tableadmin/internal/domain"
	"tableadmin/internal/domain/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id int64, amount string, status models.Status) models.Record {
	r := models.NewItem(id, models.ItemFields{LastName: fmt.Sprintf("L%02d", id)}, amount, status)
	r.LastUpdate = time.Date(2024, 1, 1, 0, 0, int(id), 0, time.UTC)
	return r
}

func ids(records []models.Record) []int64 {
	out := make([]int64, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func sample() []models.Record {
	return []models.Record{
		item(1, "$100.00", models.StatusActive),
		item(2, "$50.00", models.StatusInactive),
		item(3, "$1,500.00", models.StatusActive),
		item(4, "garbage", models.StatusActive),
		item(5, "$0.00", models.StatusInactive),
		item(6, "$75.25", models.StatusActive),
	}
}

func TestFilterConjunction(t *testing.T) {
	tests := []struct {
		name string
		c    domain.Criteria
		want []int64
	}{
		{"any", domain.Criteria{}, []int64{1, 2, 3, 4, 5, 6}},
		{"status only", domain.Criteria{Status: models.StatusInactive}, []int64{2, 5}},
		{"min bound", domain.Criteria{MinAmount: decimal.NewFromInt(75)}, []int64{1, 3, 6}},
		{"max bound", domain.Criteria{MaxAmount: dec("100")}, []int64{1, 2, 4, 5, 6}},
		{"all three", domain.Criteria{Status: models.StatusActive, MinAmount: decimal.NewFromInt(60), MaxAmount: dec("1000")}, []int64{1, 6}},
		{"thousands separator parsed", domain.Criteria{MinAmount: decimal.NewFromInt(1000)}, []int64{3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(sample(), tt.c)
			assert.Equal(t, tt.want, ids(got))
			for _, r := range got {
				assert.True(t, Matches(r, tt.c))
			}
		})
	}
}

func TestFilterIdempotent(t *testing.T) {
	criteria := []domain.Criteria{
		{},
		{Status: models.StatusActive},
		{MinAmount: decimal.NewFromInt(1), MaxAmount: dec("99.99")},
	}
	for _, c := range criteria {
		once := Filter(sample(), c)
		twice := Filter(once, c)
		assert.Equal(t, ids(once), ids(twice))
	}
}

func TestUnparseableAmountCountsAsZero(t *testing.T) {
	bad := item(9, "n/a", models.StatusActive)
	assert.False(t, Matches(bad, domain.Criteria{MinAmount: decimal.NewFromInt(1)}))
	assert.True(t, Matches(bad, domain.Criteria{MaxAmount: dec("10")}))
	assert.True(t, Amount(bad).IsZero())
}

func TestSortDefaultNewestFirstWithIDTieBreak(t *testing.T) {
	records := sample()
	records[0].LastUpdate = records[5].LastUpdate
	got := Sort(records, domain.DefaultSort())
	assert.Equal(t, []int64{1, 6, 5, 4, 3, 2}, ids(got))
	assert.Equal(t, int64(1), records[0].ID, "input must not be reordered")
}

func TestSortByAmount(t *testing.T) {
	got := Sort(sample(), domain.Sort{Field: "amount", Order: domain.OrderAsc})
	assert.Equal(t, []int64{4, 5, 2, 6, 1, 3}, ids(got))

	got = Sort(sample(), domain.Sort{Field: "amount", Order: domain.OrderDesc})
	assert.Equal(t, []int64{3, 1, 6, 2, 4, 5}, ids(got))
}

func TestSortByStringFieldIgnoresCase(t *testing.T) {
	a := models.NewTransfer(1, models.TransferFields{From: "bob"}, "$1.00", models.StatusActive)
	b := models.NewTransfer(2, models.TransferFields{From: "Alice"}, "$1.00", models.StatusActive)
	got := Sort([]models.Record{a, b}, domain.Sort{Field: "from", Order: domain.OrderAsc})
	assert.Equal(t, []int64{2, 1}, ids(got))
}

func TestPagination(t *testing.T) {
	records := make([]models.Record, 0, 23)
	for i := 1; i <= 23; i++ {
		records = append(records, item(int64(i), "$1.00", models.StatusActive))
	}
	pages := TotalPages(len(records), domain.DefaultPageSize)
	require.Equal(t, 3, pages)
	for p := 1; p <= pages; p++ {
		rows := PageSlice(records, p, domain.DefaultPageSize)
		if p < pages {
			assert.Len(t, rows, domain.DefaultPageSize)
		} else {
			assert.Len(t, rows, 3)
		}
	}
	assert.Empty(t, PageSlice(records, 4, domain.DefaultPageSize))
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
}

func TestClampPage(t *testing.T) {
	assert.Equal(t, 1, ClampPage(0, 5))
	assert.Equal(t, 1, ClampPage(3, 0))
	assert.Equal(t, 5, ClampPage(9, 5))
	assert.Equal(t, 2, ClampPage(2, 5))
}

func TestQueryClampsAndCounts(t *testing.T) {
	res := Query(sample(), domain.ListQuery{
		Criteria: domain.Criteria{Status: models.StatusActive},
		Sort:     domain.Sort{Field: "id", Order: domain.OrderAsc},
		Page:     7,
		PageSize: 3,
	})
	assert.Equal(t, 4, res.TotalCount)
	assert.Equal(t, 2, res.TotalPages)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, []int64{6}, ids(res.Records))
}

func TestSummarize(t *testing.T) {
	s := Summarize([]models.Record{
		item(1, "$100.00", models.StatusActive),
		item(2, "$50.00", models.StatusInactive),
	})
	assert.True(t, s.TotalAmount.Equal(decimal.RequireFromString("150.00")))
	assert.True(t, s.ActiveAmount.Equal(decimal.RequireFromString("100.00")))
	assert.True(t, s.InactiveAmount.Equal(decimal.RequireFromString("50.00")))
	assert.Equal(t, 2, s.TotalCount)
	assert.Equal(t, 1, s.ActiveCount)
	assert.Equal(t, 1, s.InactiveCount)
}

func TestSummarizeUnparseableContributesZero(t *testing.T) {
	s := Summarize(sample())
	assert.True(t, s.TotalAmount.Equal(decimal.RequireFromString("1725.25")))
	assert.Equal(t, 6, s.TotalCount)
	assert.Equal(t, 4, s.ActiveCount)
	assert.True(t, Total(sample()[:2]).Equal(decimal.NewFromInt(150)))
}

func TestStatusLine(t *testing.T) {
	assert.Equal(t, "6 records", StatusLine(6, 6))
	assert.Equal(t, "Showing 2 of 6 records", StatusLine(2, 6))
}
