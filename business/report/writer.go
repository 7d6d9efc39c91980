package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"pharmaSupply/domain"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"
)

const (
	pdfMaxRows    = 50
	pdfMaxCellLen = 20
	excelSheet    = "Report"
	excelColWidth = 15
)

// Write renders t in format f.
func Write(w io.Writer, f domain.ReportFormat, t Table, generated time.Time) error {
	switch f {
	case domain.ReportJSON:
		return writeJSON(w, t)
	case domain.ReportCSV:
		return writeCSV(w, t)
	case domain.ReportExcel:
		return writeExcel(w, t)
	case domain.ReportPDF:
		return writePDF(w, t, generated)
	}
	return domain.NewValidation("Unsupported format: %s", f)
}

func writeJSON(w io.Writer, t Table) error {
	rows := t.Rows
	if rows == nil {
		rows = []Row{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func writeCSV(w io.Writer, t Table) error {
	if len(t.Rows) == 0 {
		return nil
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	record := make([]string, len(t.Columns))
	for _, r := range t.Rows {
		for i, c := range t.Columns {
			record[i] = cellString(r[c])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeExcel(w io.Writer, t Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", excelSheet); err != nil {
		return err
	}
	if len(t.Rows) == 0 {
		return f.Write(w)
	}

	header := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(excelSheet, "A1", &header); err != nil {
		return err
	}

	for i, r := range t.Rows {
		values := make([]interface{}, len(t.Columns))
		for j, c := range t.Columns {
			values[j] = excelValue(r[c])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(excelSheet, cell, &values); err != nil {
			return err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(t.Columns))
	if err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E0E0E0"}},
	})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(excelSheet, "A1", lastCol+"1", style); err != nil {
		return err
	}
	if err := f.SetColWidth(excelSheet, "A", lastCol, excelColWidth); err != nil {
		return err
	}

	return f.Write(w)
}

func excelValue(v any) any {
	switch x := v.(type) {
	case int64, float64, string, nil:
		return x
	}
	return cellString(v)
}

func writePDF(w io.Writer, t Table, generated time.Time) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.Cell(0, 10, "Report")
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, "Generated: "+generated.UTC().Format("2006-01-02 15:04:05 MST"))
	pdf.Ln(12)

	if len(t.Rows) == 0 {
		pdf.Cell(0, 8, "No data available")
		return pdf.Output(w)
	}

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	colW := (pageW - left - right) / float64(len(t.Columns))

	pdf.SetFont("Helvetica", "B", 10)
	for _, c := range t.Columns {
		pdf.CellFormat(colW, 7, truncate(c), "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for i, r := range t.Rows {
		if i == pdfMaxRows {
			break
		}
		for _, c := range t.Columns {
			pdf.CellFormat(colW, 6, truncate(cellString(r[c])), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(t.Rows) > pdfMaxRows {
		pdf.Ln(2)
		pdf.Cell(0, 6, fmt.Sprintf("... and %d more rows", len(t.Rows)-pdfMaxRows))
	}

	return pdf.Output(w)
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) > pdfMaxCellLen {
		return string(r[:pdfMaxCellLen])
	}
	return s
}
