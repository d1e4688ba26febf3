package workbook

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/wutianlong220/keywords-tools/internal/table"
)

var (
	// ErrEmptySheet is returned when a file has no header row
	ErrEmptySheet = errors.New("sheet is empty")
	// ErrUnsupportedFormat is returned for files that are neither .xlsx nor .csv
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Supported reports whether path has an extension ReadFile accepts
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".csv":
		return true
	}
	return false
}

// ReadFile reads the first sheet of an .xlsx file, or a .csv file
func ReadFile(path string) (table.Table, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !Supported(path) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if ext == ".csv" {
		return ReadCSV(bytes.NewReader(data))
	}
	return Read(bytes.NewReader(data))
}

// Read parses the first sheet of an .xlsx workbook
func Read(r io.Reader) (table.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySheet
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return fromStrings(rows)
}

// ReadCSV parses a comma separated export. A leading byte order mark is
// ignored and rows may have different lengths.
func ReadCSV(r io.Reader) (table.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return fromStrings(rows)
}

func fromStrings(rows [][]string) (table.Table, error) {
	// Drop trailing rows without any content
	for len(rows) > 0 && blankRow(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}

	t := make(table.Table, len(rows))
	for i, row := range rows {
		out := make(table.Row, len(row))
		for j, s := range row {
			if i == 0 {
				out[j] = s
				continue
			}
			out[j] = toCell(s)
		}
		t[i] = out
	}
	return t, nil
}

func blankRow(row []string) bool {
	for _, s := range row {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}

// toCell keeps numbers as numbers. Only canonical decimal text is
// converted, so values such as "007" or "1.50" stay text.
func toCell(s string) table.Cell {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || strconv.FormatFloat(f, 'f', -1, 64) != s {
		return s
	}
	return f
}
