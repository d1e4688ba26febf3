package augment

import (
	"github.com/wutianlong220/keywords-tools/internal/table"
)

// Names of the inserted columns
const (
	TranslationColumn = "Translation"
	KdroiColumn       = "Kdroi"
	SERPColumn        = "SERP"
	TrendsColumn      = "Google Trends"
	AhrefsColumn      = "Ahrefs Keyword Difficulty Checker"
)

type slotKind int

const (
	slotOriginal slotKind = iota
	slotTranslation
	slotKdroi
	slotSERP
	slotTrends
	slotAhrefs
)

type slot struct {
	kind slotKind
	// src is the original column of a slotOriginal
	src int
}

// Layout is the ordered column model of an augmented table
type Layout struct {
	slots   []slot
	header  []string
	columns table.Columns
}

// NewLayout places Translation right after the keyword column and the four
// derived columns right after the cpc column, or after the last header
// column when there is no cpc column
func NewLayout(header []string, cols table.Columns) Layout {
	slots := make([]slot, 0, len(header)+5)
	derived := []slot{{kind: slotKdroi}, {kind: slotSERP}, {kind: slotTrends}, {kind: slotAhrefs}}

	for i := range header {
		slots = append(slots, slot{kind: slotOriginal, src: i})
		if i == cols.Keyword {
			slots = append(slots, slot{kind: slotTranslation})
		}
		if i == cols.CPC {
			slots = append(slots, derived...)
		}
	}
	if cols.CPC < 0 || cols.CPC >= len(header) {
		slots = append(slots, derived...)
	}

	return Layout{slots: slots, header: header, columns: cols}
}

// Width is the number of columns of the augmented header
func (l Layout) Width() int {
	return len(l.slots)
}

// Header returns the augmented header row
func (l Layout) Header() table.Row {
	row := make(table.Row, len(l.slots))
	for i, s := range l.slots {
		row[i] = l.name(s)
	}
	return row
}

// Index returns the position of the named inserted column, or -1
func (l Layout) Index(name string) int {
	for i, s := range l.slots {
		if s.kind != slotOriginal && l.name(s) == name {
			return i
		}
	}
	return -1
}

func (l Layout) name(s slot) string {
	switch s.kind {
	case slotTranslation:
		return TranslationColumn
	case slotKdroi:
		return KdroiColumn
	case slotSERP:
		return SERPColumn
	case slotTrends:
		return TrendsColumn
	case slotAhrefs:
		return AhrefsColumn
	default:
		return l.header[s.src]
	}
}

// Row builds the augmented form of one data row. Rows shorter than the
// header are padded with empty cells; cells beyond the header are kept, in
// order, after the last column.
func (l Layout) Row(row table.Row, translation string) table.Row {
	raw := row.At(l.columns.Keyword)
	keyword := table.CellString(raw)

	out := make(table.Row, 0, len(l.slots)+max(0, len(row)-len(l.header)))
	for _, s := range l.slots {
		switch s.kind {
		case slotOriginal:
			out = append(out, row.At(s.src))
		case slotTranslation:
			out = append(out, translation)
		case slotKdroi:
			out = append(out, RowKdroi(row, l.columns))
		case slotSERP:
			out = append(out, SERPURL(keyword))
		case slotTrends:
			out = append(out, TrendsURL(keyword))
		case slotAhrefs:
			out = append(out, AhrefsURL(keyword))
		}
	}
	if len(row) > len(l.header) {
		out = append(out, row[len(l.header):]...)
	}
	return out
}
