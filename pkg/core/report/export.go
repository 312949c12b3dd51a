package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

// Export formats.
const (
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

// ContentType returns the MIME type of an export format.
func ContentType(format string) (string, error) {
	switch strings.ToLower(format) {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil
	case FormatPDF:
		return "application/pdf", nil
	}
	return "", fmt.Errorf("unsupported export format %q", format)
}

// Export renders t in the given format.
func Export(t Table, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatXLSX:
		return XLSX(t)
	case FormatPDF:
		return PDF(t)
	}
	return nil, fmt.Errorf("unsupported export format %q", format)
}

const sheetName = "cashflow"

// XLSX writes t to a single-sheet workbook. Row 1 holds the column headers;
// amounts are numeric cells so spreadsheets can total them.
func XLSX(t Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, 0, len(t.Columns)+1)
	header = append(header, "Concept")
	for _, c := range t.Columns {
		header = append(header, c)
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range t.Rows {
		cells := make([]interface{}, 0, len(r.Values)+1)
		cells = append(cells, r.Label)
		for _, v := range r.Values {
			cells = append(cells, v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
			return nil, fmt.Errorf("failed to write row %s: %w", r.Key, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// PDF renders t as a landscape A4 table.
func PDF(t Table) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	title := t.Title
	if title == "" {
		title = "Report"
	}
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, title)
	pdf.Ln(10)

	labelWidth := 55.0
	colWidth := 25.0
	if n := len(t.Columns); n > 0 {
		// 277mm printable width on landscape A4
		if w := (277 - labelWidth) / float64(n); w < colWidth {
			colWidth = w
		}
	}

	pdf.SetFont("Arial", "B", 8)
	pdf.CellFormat(labelWidth, 6, "Concept", "1", 0, "L", false, 0, "")
	for _, c := range t.Columns {
		pdf.CellFormat(colWidth, 6, c, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, r := range t.Rows {
		pdf.CellFormat(labelWidth, 6, r.Label, "1", 0, "L", false, 0, "")
		for _, v := range r.Values {
			pdf.CellFormat(colWidth, 6, fmt.Sprintf("%.2f", v), "1", 0, "R", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
