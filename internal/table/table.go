package table

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Cell is a single spreadsheet value: a string, a number or nil for empty
type Cell = any

// Row is an ordered sequence of cells
type Row []Cell

// Table is an ordered sequence of rows. Row 0 is the header.
type Table []Row

// ErrMissingColumn is matched by every *MissingColumnError
var ErrMissingColumn = errors.New("missing column")

// MissingColumnError reports a mandatory column that is absent from a header
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s column not found", e.Column)
}

// Is lets errors.Is(err, ErrMissingColumn) match
func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

// Header returns the header row as strings, or nil for an empty table
func (t Table) Header() []string {
	if len(t) == 0 {
		return nil
	}
	header := make([]string, len(t[0]))
	for i, c := range t[0] {
		header[i] = CellString(c)
	}
	return header
}

// DataRows returns the rows after the header
func (t Table) DataRows() []Row {
	if len(t) < 2 {
		return nil
	}
	return t[1:]
}

// Clone returns a deep copy of the row slices; cell values are shared
func (t Table) Clone() Table {
	if t == nil {
		return nil
	}
	out := make(Table, len(t))
	for i, row := range t {
		out[i] = append(Row(nil), row...)
	}
	return out
}

// At returns the cell at index i, or nil when the row is too short or i is -1
func (r Row) At(i int) Cell {
	if i < 0 || i >= len(r) {
		return nil
	}
	return r[i]
}

// CellString renders a cell the way a spreadsheet would show it
func CellString(c Cell) string {
	switch v := c.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// IsBlank reports whether a cell is empty or whitespace only
func IsBlank(c Cell) bool {
	return strings.TrimSpace(CellString(c)) == ""
}
