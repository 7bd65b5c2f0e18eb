package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	aging "parcelops/internal/aging/domain"
	"parcelops/internal/observability/metrics"
)

// BuildAgingPDF renders the aging report as a flat table, one row per
// party.
func BuildAgingPDF(report aging.Report) ([]byte, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveAgingExport("pdf", result, time.Since(start))
	}()

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Receivables Aging Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("As of: %s", report.AsOf.Format("2006-01-02")))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(60, 6, "Party", "1", 0, "L", false, 0, "")
	for _, header := range []string{"Current", "1-30", "31-60", "61-90", "90+", "Total"} {
		pdf.CellFormat(36, 6, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, row := range report.Rows {
		pdf.CellFormat(60, 6, row.PartyName, "1", 0, "L", false, 0, "")
		for _, amount := range []float64{row.Current, row.Days1To30, row.Days31To60, row.Days61To90, row.Days90Plus, row.Total} {
			pdf.CellFormat(36, 6, fmt.Sprintf("%.2f", amount), "1", 0, "R", false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(60+36*5, 6, "Grand Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(36, 6, fmt.Sprintf("%.2f", report.GrandTotal), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildAgingXLSX renders the aging report as a single flat sheet.
func BuildAgingXLSX(report aging.Report) ([]byte, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveAgingExport("xlsx", result, time.Since(start))
	}()

	f := excelize.NewFile()
	sheet := "aging"
	f.SetSheetName("Sheet1", sheet)

	_ = f.SetCellValue(sheet, "A1", "Receivables Aging Report")
	_ = f.SetCellValue(sheet, "A2", "As of")
	_ = f.SetCellValue(sheet, "B2", report.AsOf.Format("2006-01-02"))

	headers := []string{"Party", "Current", "1-30", "31-60", "61-90", "90+", "Total"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 4)
		_ = f.SetCellValue(sheet, cell, header)
	}

	for i, row := range report.Rows {
		values := []interface{}{row.PartyName, row.Current, row.Days1To30, row.Days31To60, row.Days61To90, row.Days90Plus, row.Total}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+5)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	totalRow := len(report.Rows) + 5
	cell, _ := excelize.CoordinatesToCellName(1, totalRow)
	_ = f.SetCellValue(sheet, cell, "Grand Total")
	cell, _ = excelize.CoordinatesToCellName(7, totalRow)
	_ = f.SetCellValue(sheet, cell, report.GrandTotal)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return buf.Bytes(), nil
}
