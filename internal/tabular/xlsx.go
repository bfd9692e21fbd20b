package tabular

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// XLSXExtension is the file extension accepted by XLSXDecoder.
const XLSXExtension = ".xlsx"

// XLSXDecoder reads the first worksheet of an Office Open XML workbook.
// The first row is the header. Rows whose cells are all empty are dropped,
// and a repeated header name keeps its first column. A sheet without a
// named header cell decodes to a Table with no columns and no rows.
type XLSXDecoder struct{}

// Decode implements Decoder.
func (XLSXDecoder) Decode(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	t := &Table{}
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return t, nil
	}

	// Raw values keep full float precision for coordinates.
	grid, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(grid) == 0 {
		return t, nil
	}

	// column position -> header name, "" for unnamed or repeated columns
	header := make([]string, len(grid[0]))
	seen := make(map[string]bool, len(grid[0]))
	for i, name := range grid[0] {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		header[i] = name
		t.Columns = append(t.Columns, name)
	}
	if len(t.Columns) == 0 {
		return t, nil
	}

	for _, cells := range grid[1:] {
		row := make(Row, len(t.Columns))
		blank := true
		for i, name := range header {
			if name == "" {
				continue
			}
			var c Cell
			if i < len(cells) && cells[i] != "" {
				c = Cell{Value: cells[i], Valid: true}
				blank = false
			}
			row[name] = c
		}
		if blank {
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// WriteXLSX writes header and rows as a single-sheet workbook.
// Nil values leave the cell empty.
func WriteXLSX(w io.Writer, sheet string, header []string, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "" && sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return err
		}
	} else {
		sheet = "Sheet1"
	}

	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	_, err := f.WriteTo(w)
	return err
}
