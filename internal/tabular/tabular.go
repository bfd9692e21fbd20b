// Package tabular converts spreadsheet documents to and from ordered rows
// keyed by column name.
package tabular

import "io"

// Cell is one spreadsheet cell. Valid is false for an empty or absent cell.
type Cell struct {
	Value string
	Valid bool
}

// Row maps a column name to the cell found under it.
type Row map[string]Cell

// Get returns the cell for column, reporting false when the row has no such column.
func (r Row) Get(column string) (Cell, bool) {
	c, ok := r[column]
	return c, ok
}

// Table is a decoded sheet: the header in document order and the data rows below it.
type Table struct {
	Columns []string
	Rows    []Row
}

// HasColumn reports whether name appears in the header.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Decoder parses an uploaded document into a Table.
type Decoder interface {
	Decode(r io.Reader) (*Table, error)
}
