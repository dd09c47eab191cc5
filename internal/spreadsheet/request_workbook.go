package spreadsheet

import (
	"bytes"
	_ "embed"
	"fmt"
	_ "image/png"
	"time"

	"github.com/xuri/excelize/v2"
)

// SheetName is the single worksheet of an exported request.
const SheetName = "Request"

// ContentType is the MIME type of .xlsx files.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Layout rows. The items table header sits on tableHeaderRow and items follow it.
const (
	titleRow       = 1
	firstInfoRow   = 3
	tableHeaderRow = 9
)

//go:embed assets/logo.png
var defaultLogo []byte

var tableHeaders = []string{"#", "SAP PN", "MATERIAL", "QTY", "NOTES", "STATUS"}

var columnWidths = map[string]float64{"A": 6, "B": 14, "C": 48, "D": 8, "E": 36, "F": 13}

// RequestSheet is the data rendered into an exported workbook.
type RequestSheet struct {
	Code        string
	Date        time.Time
	ProjectSite string
	Team        string
	RequestedBy string
	Items       []SheetItem
}

type SheetItem struct {
	Number   int
	SapPN    string
	Name     string
	Quantity int
	Notes    string
	Status   string
}

// Filename is the download name for an exported request.
func Filename(code string) string {
	return fmt.Sprintf("%s_Material_Request.xlsx", code)
}

// BuildRequestWorkbook renders data into a styled workbook and returns the encoded file.
// A nil logo uses the embedded default.
func BuildRequestWorkbook(data RequestSheet, logo []byte) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	st, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	w := &sheetWriter{f: f, sheet: SheetName}

	for col, width := range columnWidths {
		w.colWidth(col, width)
	}

	// Title
	w.rowHeight(titleRow, 48)
	w.merge("B1", "F1")
	w.set("B1", "MATERIAL REQUEST")
	w.style("A1", "F1", st.title)
	if logo == nil {
		logo = defaultLogo
	}
	if len(logo) > 0 {
		w.picture("A1", logo)
	}

	// Header block
	team := data.Team
	if team == "" {
		team = "-"
	}
	info := [][2]string{
		{"Request ID", data.Code},
		{"Date", data.Date.Format("1/2/2006")},
		{"Project / Site", data.ProjectSite},
		{"Team", team},
		{"Requested by", data.RequestedBy},
	}
	for i, kv := range info {
		row := firstInfoRow + i
		label := cell(1, row)
		w.merge(label, cell(2, row))
		w.set(label, kv[0])
		w.style(label, cell(2, row), st.label)

		value := cell(3, row)
		w.merge(value, cell(6, row))
		w.set(value, kv[1])
		w.style(value, cell(6, row), st.value)
	}

	// Items table
	w.rowHeight(tableHeaderRow, 22)
	for i, h := range tableHeaders {
		w.set(cell(i+1, tableHeaderRow), h)
	}
	w.style(cell(1, tableHeaderRow), cell(len(tableHeaders), tableHeaderRow), st.header)

	for i, it := range data.Items {
		row := tableHeaderRow + 1 + i
		w.set(cell(1, row), it.Number)
		w.set(cell(2, row), it.SapPN)
		w.set(cell(3, row), it.Name)
		w.set(cell(4, row), it.Quantity)
		w.set(cell(5, row), it.Notes)
		w.set(cell(6, row), it.Status)

		body, centered := st.body, st.bodyCentered
		if i%2 == 1 {
			body, centered = st.zebra, st.zebraCentered
		}
		w.style(cell(1, row), cell(1, row), centered)
		w.style(cell(2, row), cell(3, row), body)
		w.style(cell(4, row), cell(4, row), centered)
		w.style(cell(5, row), cell(5, row), body)
		status := centered
		if it.Status == "COMPLETE" {
			status = st.complete
		}
		w.style(cell(6, row), cell(6, row), status)
	}

	if w.err != nil {
		return nil, w.err
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      tableHeaderRow,
		TopLeftCell: cell(1, tableHeaderRow+1),
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze panes: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}

type styles struct {
	title, label, value, header    int
	body, bodyCentered             int
	zebra, zebraCentered, complete int
}

func newStyles(f *excelize.File) (*styles, error) {
	thin := func(color string) []excelize.Border {
		return []excelize.Border{
			{Type: "left", Color: color, Style: 1},
			{Type: "right", Color: color, Style: 1},
			{Type: "top", Color: color, Style: 1},
			{Type: "bottom", Color: color, Style: 1},
		}
	}
	fill := func(color string) excelize.Fill {
		return excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1}
	}
	left := &excelize.Alignment{Horizontal: "left", Vertical: "center", WrapText: true}
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center"}

	st := &styles{}
	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&st.title, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 18, Color: "FFFFFF"}, Fill: fill("1F6F43"), Alignment: center}},
		{&st.label, &excelize.Style{Font: &excelize.Font{Bold: true}, Fill: fill("E2EFDA"), Border: thin("A9D08E"), Alignment: left}},
		{&st.value, &excelize.Style{Border: thin("A9D08E"), Alignment: left}},
		{&st.header, &excelize.Style{Font: &excelize.Font{Bold: true, Color: "FFFFFF"}, Fill: fill("375623"), Border: thin("000000"), Alignment: center}},
		{&st.body, &excelize.Style{Border: thin("BFBFBF"), Alignment: left}},
		{&st.bodyCentered, &excelize.Style{Border: thin("BFBFBF"), Alignment: center}},
		{&st.zebra, &excelize.Style{Fill: fill("F2F2F2"), Border: thin("BFBFBF"), Alignment: left}},
		{&st.zebraCentered, &excelize.Style{Fill: fill("F2F2F2"), Border: thin("BFBFBF"), Alignment: center}},
		{&st.complete, &excelize.Style{Font: &excelize.Font{Bold: true, Color: "006100"}, Fill: fill("C6EFCE"), Border: thin("BFBFBF"), Alignment: center}},
	}

	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return nil, fmt.Errorf("create style: %w", err)
		}
		*d.dst = id
	}
	return st, nil
}

// sheetWriter keeps the first error from a run of cell operations.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (w *sheetWriter) do(op string, fn func() error) {
	if w.err != nil {
		return
	}
	if err := fn(); err != nil {
		w.err = fmt.Errorf("%s: %w", op, err)
	}
}

func (w *sheetWriter) set(axis string, v interface{}) {
	w.do("set "+axis, func() error { return w.f.SetCellValue(w.sheet, axis, v) })
}

func (w *sheetWriter) style(from, to string, id int) {
	w.do("style "+from, func() error { return w.f.SetCellStyle(w.sheet, from, to, id) })
}

func (w *sheetWriter) merge(from, to string) {
	w.do("merge "+from, func() error { return w.f.MergeCell(w.sheet, from, to) })
}

func (w *sheetWriter) colWidth(col string, width float64) {
	w.do("width "+col, func() error { return w.f.SetColWidth(w.sheet, col, col, width) })
}

func (w *sheetWriter) rowHeight(row int, height float64) {
	w.do("height", func() error { return w.f.SetRowHeight(w.sheet, row, height) })
}

func (w *sheetWriter) picture(axis string, png []byte) {
	w.do("logo", func() error {
		return w.f.AddPictureFromBytes(w.sheet, axis, &excelize.Picture{
			Extension: ".png",
			File:      png,
			Format: &excelize.GraphicOptions{
				ScaleX:          0.45,
				ScaleY:          0.45,
				OffsetX:         4,
				OffsetY:         4,
				LockAspectRatio: true,
				Positioning:     "oneCell",
			},
		})
	})
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
