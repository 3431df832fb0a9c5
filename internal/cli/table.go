package cli

import (
	"fmt"
	"io"
	"strconv"

	"tableadmin/internal/render"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	amountStyle = cellStyle.Align(lipgloss.Right)
	mutedStyle  = lipgloss.NewStyle().Faint(true)
)

// printPage draws the table, the pager line and the summary panel.
func printPage(w io.Writer, p render.Page) {
	headers := []string{"ID"}
	amountCol := -1
	for i, c := range p.Columns {
		headers = append(headers, c.Title)
		if c.Field == "amount" {
			amountCol = i + 1
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == amountCol:
				return amountStyle
			default:
				return cellStyle
			}
		})
	if p.Empty {
		t.Row("", p.EmptyText)
	}
	for _, r := range p.Rows {
		t.Row(append([]string{strconv.FormatInt(r.ID, 10)}, r.Cells...)...)
	}

	fmt.Fprintln(w, t.String())
	fmt.Fprintln(w, mutedStyle.Render(p.RangeLabel+"  "+p.PageLabel))
	if p.StatusLine != "" {
		fmt.Fprintln(w, p.StatusLine)
	}
	printSummary(w, p.Summary)
}

func printSummary(w io.Writer, s render.SummaryPanel) {
	fmt.Fprintf(w, "Total: %s (%d)  Active: %s (%d)  Inactive: %s (%d)\n",
		s.TotalAmount, s.TotalCount, s.ActiveAmount, s.ActiveCount, s.InactiveAmount, s.InactiveCount)
}
