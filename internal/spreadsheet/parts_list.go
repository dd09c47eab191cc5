package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrUnreadable     = errors.New("workbook is not a readable xlsx file")
	ErrMissingColumns = errors.New(`parts list needs "SAP PN" and "DESCRIPTION" columns`)
)

// PartRow is one usable line of a parts list.
type PartRow struct {
	SapPN string
	Name  string
}

// ReadPartsList reads the first worksheet of an .xlsx parts list. The first row
// must name the "SAP PN" and "DESCRIPTION" columns (case-insensitive). Rows
// missing either value are counted in skipped.
func ReadPartsList(r io.Reader) (rows []PartRow, skipped int, err error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, 0, ErrMissingColumns
	}

	all, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, 0, fmt.Errorf("read rows: %w", err)
	}
	if len(all) == 0 {
		return nil, 0, ErrMissingColumns
	}

	sapCol, nameCol := -1, -1
	for i, h := range all[0] {
		switch strings.ToUpper(strings.TrimSpace(h)) {
		case "SAP PN":
			sapCol = i
		case "DESCRIPTION":
			nameCol = i
		}
	}
	if sapCol < 0 || nameCol < 0 {
		return nil, 0, ErrMissingColumns
	}

	for _, raw := range all[1:] {
		sap := column(raw, sapCol)
		name := column(raw, nameCol)
		if sap == "" || name == "" {
			if sap != "" || name != "" {
				skipped++
			}
			continue
		}
		rows = append(rows, PartRow{SapPN: sap, Name: name})
	}
	return rows, skipped, nil
}

// column returns the trimmed value at i; GetRows drops trailing empty cells.
func column(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
