package table

import (
	"errors"
	"reflect"
	"testing"
)

func TestLocateColumns(t *testing.T) {
	tests := []struct {
		name    string
		header  []string
		want    Columns
		wantErr bool
	}{
		{
			name:   "semrush style header",
			header: []string{"Keyword", "Intent", "Volume", "Keyword Difficulty", "CPC (USD)"},
			want:   Columns{Keyword: 0, Intent: 1, Volume: 2, Difficulty: 3, CPC: 4},
		},
		{
			name:   "case insensitive substring match",
			header: []string{"Search VOLUME", "my keyword", "cpc"},
			want:   Columns{Keyword: 1, Intent: -1, Volume: 0, Difficulty: -1, CPC: 2},
		},
		{
			name:   "first match wins",
			header: []string{"Keyword", "Keyword Difficulty", "Difficulty"},
			want:   Columns{Keyword: 0, Intent: -1, Volume: -1, Difficulty: 1, CPC: -1},
		},
		{
			name:    "missing keyword column",
			header:  []string{"Volume", "CPC"},
			wantErr: true,
		},
		{
			name:    "empty header",
			header:  nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LocateColumns(tt.header)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				if !errors.Is(err, ErrMissingColumn) {
					t.Errorf("Expected ErrMissingColumn, got %v", err)
				}
				var mce *MissingColumnError
				if !errors.As(err, &mce) || mce.Column != "Keyword" {
					t.Errorf("Expected *MissingColumnError for Keyword, got %#v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("LocateColumns() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExtractKeywords(t *testing.T) {
	tbl := Table{
		{"Keyword", "Volume"},
		{"  running shoes ", "100"},
		{"", "50"},
		{"   ", "10"},
		{"trail shoes", nil},
		{},
		{nil, "5"},
		{"hiking boots"},
	}

	cols, keywords, err := ExtractKeywords(tbl)
	if err != nil {
		t.Fatalf("ExtractKeywords failed: %v", err)
	}
	if cols.Keyword != 0 || cols.Volume != 1 {
		t.Errorf("Unexpected columns: %+v", cols)
	}

	want := []string{"running shoes", "trail shoes", "hiking boots"}
	if !reflect.DeepEqual(keywords, want) {
		t.Errorf("ExtractKeywords() = %v, want %v", keywords, want)
	}
}

func TestExtractKeywords_HeaderOnly(t *testing.T) {
	_, keywords, err := ExtractKeywords(Table{{"Keyword"}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(keywords) != 0 {
		t.Errorf("Expected no keywords, got %v", keywords)
	}
}

func TestExtractKeywords_MissingColumn(t *testing.T) {
	_, _, err := ExtractKeywords(Table{{"Term", "Volume"}, {"a", "1"}})
	if !errors.Is(err, ErrMissingColumn) {
		t.Errorf("Expected ErrMissingColumn, got %v", err)
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in     Cell
		want   float64
		wantOK bool
	}{
		{"100", 100, true},
		{" 2.5 ", 2.5, true},
		{"12.5 USD", 12.5, true},
		{"-3", -3, true},
		{".5", 0.5, true},
		{"1e3", 1000, true},
		{"n/a", 0, false},
		{"", 0, false},
		{nil, 0, false},
		{42.0, 42, true},
		{7, 7, true},
		{"NaN", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseNumber(%#v) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestNumberOr(t *testing.T) {
	row := Row{"kw", "abc", "0", "3"}

	if got := NumberOr(row, -1, 1); got != 1 {
		t.Errorf("Absent column should use default, got %v", got)
	}
	if got := NumberOr(row, 1, 1); got != 1 {
		t.Errorf("Unparseable cell should use default, got %v", got)
	}
	if got := NumberOr(row, 2, 1); got != 0 {
		t.Errorf("Zero must not be replaced by the default, got %v", got)
	}
	if got := NumberOr(row, 9, 5); got != 5 {
		t.Errorf("Short row should use default, got %v", got)
	}
	if got := NumberOr(row, 3, 0); got != 3 {
		t.Errorf("Expected 3, got %v", got)
	}
}

func TestCellString(t *testing.T) {
	tests := []struct {
		in   Cell
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{25.0, "25"},
		{2.75, "2.75"},
		{3, "3"},
		{true, "true"},
	}
	for _, tt := range tests {
		if got := CellString(tt.in); got != tt.want {
			t.Errorf("CellString(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTable_HeaderAndRows(t *testing.T) {
	var empty Table
	if empty.Header() != nil || empty.DataRows() != nil {
		t.Error("Empty table should have no header and no rows")
	}

	tbl := Table{{"Keyword", 1.0}, {"a", 2.0}}
	if got := tbl.Header(); !reflect.DeepEqual(got, []string{"Keyword", "1"}) {
		t.Errorf("Header() = %v", got)
	}
	if len(tbl.DataRows()) != 1 {
		t.Errorf("Expected 1 data row, got %d", len(tbl.DataRows()))
	}

	clone := tbl.Clone()
	clone[1][0] = "b"
	if tbl[1][0] != "a" {
		t.Error("Clone shares row storage with the original")
	}
}
