package table

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Header name fragments, matched case-insensitively as substrings
const (
	KeywordHeader    = "keyword"
	IntentHeader     = "intent"
	VolumeHeader     = "volume"
	DifficultyHeader = "difficulty"
	CPCHeader        = "cpc"
)

// Columns maps the keyword-research fields to header positions.
// -1 means the column is absent; only Keyword is mandatory.
type Columns struct {
	Keyword    int
	Intent     int
	Volume     int
	Difficulty int
	CPC        int
}

// FindColumn returns the index of the first header containing fragment,
// compared case-insensitively, or -1
func FindColumn(header []string, fragment string) int {
	fragment = strings.ToLower(fragment)
	for i, h := range header {
		if h != "" && strings.Contains(strings.ToLower(h), fragment) {
			return i
		}
	}
	return -1
}

// LocateColumns resolves all known columns in header. A missing keyword
// column yields a *MissingColumnError.
func LocateColumns(header []string) (Columns, error) {
	cols := Columns{
		Keyword:    FindColumn(header, KeywordHeader),
		Intent:     FindColumn(header, IntentHeader),
		Volume:     FindColumn(header, VolumeHeader),
		Difficulty: FindColumn(header, DifficultyHeader),
		CPC:        FindColumn(header, CPCHeader),
	}
	if cols.Keyword == -1 {
		return cols, &MissingColumnError{Column: "Keyword"}
	}
	return cols, nil
}

// ExtractKeywords locates the columns of t and returns the trimmed,
// non-empty keywords in row order. Blank keyword cells are skipped.
func ExtractKeywords(t Table) (Columns, []string, error) {
	cols, err := LocateColumns(t.Header())
	if err != nil {
		return cols, nil, err
	}

	var keywords []string
	for _, row := range t.DataRows() {
		if kw := KeywordAt(row, cols.Keyword); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return cols, keywords, nil
}

// KeywordAt returns the trimmed keyword of row, or "" if blank
func KeywordAt(row Row, col int) string {
	return strings.TrimSpace(CellString(row.At(col)))
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseNumber reads the leading decimal number of a cell, ignoring any
// trailing text ("12.5 USD" is 12.5). ok is false when no number is found.
func ParseNumber(c Cell) (float64, bool) {
	switch v := c.(type) {
	case float64:
		return v, !math.IsNaN(v)
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}

	s := strings.TrimSpace(CellString(c))
	if s == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f, true
	}
	m := leadingNumber.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// NumberOr parses the cell at col, returning def when the column is absent
// or the cell does not hold a number
func NumberOr(row Row, col int, def float64) float64 {
	if col < 0 {
		return def
	}
	if f, ok := ParseNumber(row.At(col)); ok {
		return f
	}
	return def
}
