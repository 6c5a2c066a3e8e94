package extract

import (
	"fmt"
	"strings"

	"github.com/Ryan-gw-park/local-file-search/internal/errs"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
)

const (
	maxTableRows = 50
	maxTableCols = 30
)

// extractExcel renders each sheet's first 50 rows as a Markdown table,
// truncating to the rightmost 30 columns and blanking NaN cells (§4.5).
// One Unit per sheet; the chunker decides whether it needs splitting.
//
// tealeg/xlsx predates several OOXML features current Excel writes (rich
// shared-string runs, some chart/table extensions); when it refuses to open
// a workbook, excelize is tried as a best-effort fallback before the file
// downgrades to metadata-only.
func extractExcel(path string) ([]Unit, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		units, fallbackErr := extractExcelFallback(path)
		if fallbackErr != nil {
			return nil, errs.ExtractionError(fmt.Sprintf("open xlsx %s", path), err)
		}
		return units, nil
	}

	units := make([]Unit, 0, len(f.Sheets))
	for _, sheet := range f.Sheets {
		text := renderSheetMarkdown(sheet)
		if strings.TrimSpace(text) == "" {
			continue
		}
		units = append(units, Unit{
			Kind:      KindSheet,
			Text:      text,
			SheetName: sheet.Name,
			RowRange:  fmt.Sprintf("1-%d", min(len(sheet.Rows), maxTableRows)),
		})
	}

	if len(units) == 0 {
		return nil, errs.ExtractionError(fmt.Sprintf("no non-empty sheets in %s", path), nil)
	}
	return units, nil
}

// extractExcelFallback re-reads path with excelize, rendering each sheet's
// rows through the same Markdown-table shape tealeg/xlsx produces so the
// chunker sees an identical Unit regardless of which library opened it.
func extractExcelFallback(path string) ([]Unit, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errs.ExtractionError(fmt.Sprintf("open xlsx (excelize fallback) %s", path), err)
	}
	defer f.Close()

	units := make([]Unit, 0, len(f.GetSheetList()))
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		text := renderSheetMarkdownExcelize(sheetName, rows)
		if strings.TrimSpace(text) == "" {
			continue
		}
		units = append(units, Unit{
			Kind:      KindSheet,
			Text:      text,
			SheetName: sheetName,
			RowRange:  fmt.Sprintf("1-%d", min(len(rows), maxTableRows)),
		})
	}

	if len(units) == 0 {
		return nil, errs.ExtractionError(fmt.Sprintf("no non-empty sheets in %s", path), nil)
	}
	return units, nil
}

func renderSheetMarkdownExcelize(sheetName string, allRows [][]string) string {
	totalRows := len(allRows)
	rows := allRows
	truncatedRows := totalRows > maxTableRows
	if truncatedRows {
		rows = rows[:maxTableRows]
	}

	maxCols := 0
	for _, row := range rows {
		if len(row) > maxCols {
			maxCols = len(row)
		}
	}
	colStart := 0
	truncatedCols := false
	if maxCols > maxTableCols {
		colStart = maxCols - maxTableCols
		truncatedCols = true
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Sheet: %s\n\n", sheetName)

	for i, row := range rows {
		cells := make([]string, 0, maxCols-colStart)
		for c := colStart; c < maxCols; c++ {
			v := ""
			if c < len(row) {
				v = row[c]
			}
			if v == "NaN" {
				v = ""
			}
			cells = append(cells, v)
		}
		b.WriteString("| ")
		b.WriteString(strings.Join(cells, " | "))
		b.WriteString(" |\n")
		if i == 0 {
			sep := make([]string, len(cells))
			for j := range sep {
				sep[j] = "---"
			}
			b.WriteString("| ")
			b.WriteString(strings.Join(sep, " | "))
			b.WriteString(" |\n")
		}
	}

	if truncatedCols {
		fmt.Fprintf(&b, "\n(Columns truncated to the rightmost %d)\n", maxTableCols)
	}
	if truncatedRows {
		fmt.Fprintf(&b, "\n(Table truncated: total rows = %d)\n", totalRows)
	}

	return b.String()
}

func renderSheetMarkdown(sheet *xlsx.Sheet) string {
	totalRows := len(sheet.Rows)
	rows := sheet.Rows
	truncatedRows := totalRows > maxTableRows
	if truncatedRows {
		rows = rows[:maxTableRows]
	}

	maxCols := 0
	for _, row := range rows {
		if len(row.Cells) > maxCols {
			maxCols = len(row.Cells)
		}
	}
	colStart := 0
	truncatedCols := false
	if maxCols > maxTableCols {
		colStart = maxCols - maxTableCols
		truncatedCols = true
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Sheet: %s\n\n", sheet.Name)

	for i, row := range rows {
		cells := cellValues(row, colStart, maxCols)
		b.WriteString("| ")
		b.WriteString(strings.Join(cells, " | "))
		b.WriteString(" |\n")
		if i == 0 {
			b.WriteString("| ")
			sep := make([]string, len(cells))
			for j := range sep {
				sep[j] = "---"
			}
			b.WriteString(strings.Join(sep, " | "))
			b.WriteString(" |\n")
		}
	}

	if truncatedCols {
		fmt.Fprintf(&b, "\n(Columns truncated to the rightmost %d)\n", maxTableCols)
	}
	if truncatedRows {
		fmt.Fprintf(&b, "\n(Table truncated: total rows = %d)\n", totalRows)
	}

	return b.String()
}

func cellValues(row *xlsx.Row, colStart, maxCols int) []string {
	values := make([]string, 0, maxCols-colStart)
	for i := colStart; i < maxCols; i++ {
		if i >= len(row.Cells) {
			values = append(values, "")
			continue
		}
		v := row.Cells[i].String()
		if v == "NaN" {
			v = ""
		}
		values = append(values, v)
	}
	return values
}
