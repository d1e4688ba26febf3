package augment

import (
	"fmt"

	"github.com/wutianlong220/keywords-tools/internal/table"
)

// Augment builds the augmented table of t. lookup returns the translation
// of a data row by its 0-based index. The input table is not modified.
func Augment(t table.Table, lookup func(row int) string) (table.Table, error) {
	header := t.Header()
	cols, err := table.LocateColumns(header)
	if err != nil {
		return nil, fmt.Errorf("locate columns: %w", err)
	}

	layout := NewLayout(header, cols)
	rows := t.DataRows()

	out := make(table.Table, 0, len(rows)+1)
	out = append(out, layout.Header())
	for i, row := range rows {
		out = append(out, layout.Row(row, lookup(i)))
	}
	return out, nil
}
