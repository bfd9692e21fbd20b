package importer

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidRequest means the upload itself is unusable: no file, or a
	// filename without the spreadsheet extension.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrDecode means the file could not be parsed as a spreadsheet.
	ErrDecode = errors.New("decode spreadsheet")

	// ErrSchema is wrapped by *SchemaError.
	ErrSchema = errors.New("schema mismatch")

	// ErrUnexpected marks a batch-fatal failure while processing rows.
	ErrUnexpected = errors.New("unexpected import failure")
)

// SchemaError lists the required columns absent from the header row.
type SchemaError struct {
	Required []string
	Missing  []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("spreadsheet must have column names: %s (missing: %s)",
		strings.Join(e.Required, ", "), strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// RowError is a batch-fatal failure on one data row. Row is the 1-based
// sheet row number, counting the header as row 1.
type RowError struct {
	Row int
	IP  string
	Err error
}

func (e *RowError) Error() string {
	if e.IP != "" {
		return fmt.Sprintf("row %d (%s): %v", e.Row, e.IP, e.Err)
	}
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() []error { return []error{ErrUnexpected, e.Err} }
