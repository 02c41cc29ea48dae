package extract

import (
	"fmt"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

type sheet struct {
	name string
	rows [][]string
}

// extractXLSX reads an Office Open XML workbook
func extractXLSX(path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var sheets []sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return "", fmt.Errorf("read sheet %q: %w", name, err)
		}
		sheets = append(sheets, sheet{name: name, rows: rows})
	}
	return renderSheets(sheets), nil
}

// xlsMaxCols is the BIFF8 column limit
const xlsMaxCols = 256

// extractXLS reads a legacy BIFF workbook
func extractXLS(path string) (string, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return "", err
	}

	var sheets []sheet
	for i := 0; i < wb.NumSheets(); i++ {
		ws := wb.GetSheet(i)
		if ws == nil {
			continue
		}
		s := sheet{name: ws.Name}
		for r := 0; r <= int(ws.MaxRow); r++ {
			row := xlsRow(ws, r)
			if row == nil {
				continue
			}
			// rows known only through their cells carry no column span
			last := row.LastCol()
			if last <= 0 {
				last = xlsMaxCols
			}
			cells := make([]string, 0, last)
			for c := 0; c < last; c++ {
				cells = append(cells, row.Col(c))
			}
			s.rows = append(s.rows, trimTrailingBlanks(cells))
		}
		sheets = append(sheets, s)
	}
	return renderSheets(sheets), nil
}

// xlsRow returns nil for row numbers the sheet holds no record of.
// WorkSheet.Row dereferences a missing map entry, so it is recovered here.
func xlsRow(ws *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return ws.Row(i)
}

func trimTrailingBlanks(cells []string) []string {
	for len(cells) > 0 && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	return cells
}

// renderSheets writes a "=== Sheet: name ===" header per sheet followed by
// one tab-separated line per non-empty row
func renderSheets(sheets []sheet) string {
	var b strings.Builder
	for i, s := range sheets {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "=== Sheet: %s ===\n", s.name)
		for _, row := range s.rows {
			if blankRow(row) {
				continue
			}
			b.WriteString(strings.Join(row, "\t"))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
