package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"tableadmin/internal/domain"
	"tableadmin/internal/domain/models"
	"tableadmin/internal/gateway"
	"tableadmin/internal/listing"
	"tableadmin/internal/render"
	"tableadmin/internal/utils"

	"github.com/phpdave11/gofpdf"
	"github.com/xuri/excelize/v2"
)

// exportPageSize is how many rows each gateway call fetches while walking
// the filtered set.
const exportPageSize = 100

// ExportService renders the filtered, sorted view (every page) and the
// summary as PDF or XLSX.
type ExportService struct {
	Gateway gateway.Gateway
	Now     func() time.Time
}

// ExportData is everything one export document shows.
type ExportData struct {
	Criteria    domain.Criteria
	Sort        domain.Sort
	Records     []models.Record
	Summary     domain.Summary
	GeneratedAt time.Time
}

func (s ExportService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Collect walks every page of the query through the gateway.
func (s ExportService) Collect(ctx context.Context, c domain.Criteria, sort domain.Sort) (ExportData, error) {
	out := ExportData{Criteria: c, Sort: sort, GeneratedAt: s.now()}
	q := domain.ListQuery{Criteria: c, Sort: sort, Page: 1, PageSize: exportPageSize}
	for {
		res, err := s.Gateway.ListRecords(ctx, q)
		if err != nil {
			return ExportData{}, err
		}
		out.Records = append(out.Records, res.Records...)
		if len(res.Records) == 0 || q.Page >= res.TotalPages {
			break
		}
		q.Page++
	}
	sum, err := s.Gateway.GetSummary(ctx)
	if err != nil {
		return ExportData{}, err
	}
	out.Summary = sum
	return out, nil
}

func (s ExportService) PDF(ctx context.Context, c domain.Criteria, sort domain.Sort) ([]byte, string, error) {
	data, err := s.Collect(ctx, c, sort)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(utils.RequestIDFrom(ctx), "export", "pdf", fmt.Sprintf("rows=%d", len(data.Records)))
	return buildRecordsPDF(data)
}

func (s ExportService) XLSX(ctx context.Context, c domain.Criteria, sort domain.Sort) ([]byte, string, error) {
	data, err := s.Collect(ctx, c, sort)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(utils.RequestIDFrom(ctx), "export", "xlsx", fmt.Sprintf("rows=%d", len(data.Records)))
	return buildRecordsXLSX(data)
}

// DescribeCriteria is the one-line filter caption used in exports and the CLI.
func DescribeCriteria(c domain.Criteria, sort domain.Sort) string {
	status := "Any"
	if c.Status != "" {
		status = string(c.Status)
	}
	upper := "none"
	if c.MaxAmount != nil {
		upper = utils.FormatAmount(*c.MaxAmount)
	}
	if sort.Field == "" {
		sort = domain.DefaultSort()
	}
	return fmt.Sprintf("Status: %s | Min: %s | Max: %s | Sort: %s %s",
		status, utils.FormatAmount(c.MinAmount), upper, sort.Field, utils.Fallback(sort.Order, domain.OrderAsc))
}

func exportHeaders() []string {
	out := make([]string, len(render.GenericColumns))
	for i, c := range render.GenericColumns {
		out[i] = c.Title
	}
	return out
}

func summaryLines(s domain.Summary) [][2]string {
	return [][2]string{
		{"Total", fmt.Sprintf("%s (%d)", utils.FormatAmount(s.TotalAmount), s.TotalCount)},
		{"Active", fmt.Sprintf("%s (%d)", utils.FormatAmount(s.ActiveAmount), s.ActiveCount)},
		{"Inactive", fmt.Sprintf("%s (%d)", utils.FormatAmount(s.InactiveAmount), s.InactiveCount)},
	}
}

func exportFilename(t time.Time, ext string) string {
	return "records_" + utils.FileStamp(t) + "." + ext
}

func buildRecordsPDF(d ExportData) ([]byte, string, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Records", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "RECORDS")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 6, DescribeCriteria(d.Criteria, d.Sort))
	pdf.Ln(6)
	pdf.Cell(0, 6, "Generated "+utils.FormatDateTime(d.GeneratedAt)+" - "+listing.StatusLine(len(d.Records), d.Summary.TotalCount))
	pdf.Ln(9)

	widths := []float64{16, 22, 60, 75, 32, 22, 40}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range exportHeaders() {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	if len(d.Records) == 0 {
		pdf.CellFormat(totalWidth(widths), 7, "No data available", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}
	for _, r := range d.Records {
		for i, v := range render.GenericCells(r) {
			align := "L"
			if i == 4 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 6, v, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 7, "Summary")
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range summaryLines(d.Summary) {
		pdf.CellFormat(30, 6, line[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(60, 6, line[1], "", 0, "R", false, 0, "")
		pdf.Ln(6)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), exportFilename(d.GeneratedAt, "pdf"), nil
}

func buildRecordsXLSX(d ExportData) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Records"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, "", err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, "", err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, "", err
	}

	for i, h := range exportHeaders() {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	f.SetCellStyle(sheet, "A1", "G1", bold)

	row := 2
	for _, r := range d.Records {
		vals := render.GenericCells(r)
		for i, v := range vals {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			if i == 4 {
				// numeric cell so spreadsheet sums work; raw text when unparseable
				if amt, ok := utils.AmountOrZero(v); ok {
					f.SetCellValue(sheet, cell, amt.InexactFloat64())
					f.SetCellStyle(sheet, cell, cell, money)
					continue
				}
			}
			if i == 0 {
				f.SetCellValue(sheet, cell, r.ID)
				continue
			}
			f.SetCellValue(sheet, cell, v)
		}
		row++
	}

	row++
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Summary")
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), bold)
	for _, part := range []struct {
		label  string
		amount float64
		count  int
	}{
		{"Total", d.Summary.TotalAmount.InexactFloat64(), d.Summary.TotalCount},
		{"Active", d.Summary.ActiveAmount.InexactFloat64(), d.Summary.ActiveCount},
		{"Inactive", d.Summary.InactiveAmount.InexactFloat64(), d.Summary.InactiveCount},
	} {
		row++
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), part.label)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), part.amount)
		f.SetCellStyle(sheet, fmt.Sprintf("E%d", row), fmt.Sprintf("E%d", row), money)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), part.count)
	}
	f.SetColWidth(sheet, "C", "D", 32)
	f.SetColWidth(sheet, "G", "G", 20)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), exportFilename(d.GeneratedAt, "xlsx"), nil
}

func totalWidth(ws []float64) float64 {
	var t float64
	for _, w := range ws {
		t += w
	}
	return t
}
