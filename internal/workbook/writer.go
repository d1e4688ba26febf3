package workbook

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/wutianlong220/keywords-tools/internal"
	"github.com/wutianlong220/keywords-tools/internal/augment"
	"github.com/wutianlong220/keywords-tools/internal/batch"
	"github.com/wutianlong220/keywords-tools/internal/table"
)

// OverviewSheet is the name of the first sheet of a merged workbook
const OverviewSheet = "Overview"

// Status values shown in the overview
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// instructionsColumn is column I, where the usage notes start
const instructionsColumn = 9

var overviewHeader = []any{"File Name", "Word Root", "Keyword Count", "Row Count", "Status", "Processed At"}

var instructions = []string{
	"Keyword Ocean - merged results",
	"",
	"How to use:",
	"1. Each sheet holds the data of one input file",
	"2. This overview lists every input file and its status",
	"3. Every keyword is translated and has a Kdroi value",
	"4. Lookup links are generated for every keyword",
	"",
	"Columns:",
	"Keyword: original keyword",
	"Translation: keyword in the target language",
	"Intent: search intent",
	"Volume: monthly search volume",
	"Keyword Difficulty: ranking difficulty",
	"CPC (USD): cost per click",
	"Kdroi: Volume x CPC / Difficulty",
	"SERP: Google search link",
	"Google Trends: Google Trends link",
	"Ahrefs Keyword Difficulty Checker: Ahrefs difficulty link",
	"",
	"Notes:",
	"- Keywords whose translation failed keep their original text",
	"- Files that failed are listed here but have no sheet",
	"- Kdroi is rounded to two decimals",
}

// OverviewEntry is one line of the overview sheet
type OverviewEntry struct {
	FileName     string
	WordRoot     string
	KeywordCount int
	RowCount     int
	Status       string
	ProcessedAt  time.Time
}

// Overview lists every record, failed ones included
func Overview(records []*batch.FileRecord, at time.Time) []OverviewEntry {
	entries := make([]OverviewEntry, 0, len(records))
	for _, rec := range records {
		status := StatusSuccess
		if !rec.OK() {
			reason := "not processed"
			if rec.Err != nil {
				reason = rec.Err.Error()
			}
			status = fmt.Sprintf("%s: %s", StatusFailed, reason)
		}
		entries = append(entries, OverviewEntry{
			FileName:     filepath.Base(rec.FileName),
			WordRoot:     internal.WordRoot(rec.FileName),
			KeywordCount: rec.KeywordCount,
			RowCount:     rec.RowCount(),
			Status:       status,
			ProcessedAt:  at,
		})
	}
	return entries
}

// WriteMerged writes the overview sheet and one sheet per successful record
func WriteMerged(w io.Writer, overview []OverviewEntry, records []*batch.FileRecord) error {
	f, err := buildMerged(overview, records)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// SaveMerged writes the merged workbook to path
func SaveMerged(path string, overview []OverviewEntry, records []*batch.FileRecord) error {
	return saveTo(path, func(w io.Writer) error {
		return WriteMerged(w, overview, records)
	})
}

// SheetNames returns the data sheet name of each successful record, in
// record order, as WriteMerged assigns them
func SheetNames(records []*batch.FileRecord) map[int]string {
	taken := map[string]bool{strings.ToLower(OverviewSheet): true}
	names := make(map[int]string)
	for _, rec := range records {
		if !rec.OK() {
			continue
		}
		name := internal.UniqueSheetName(internal.SanitizeSheetName(rec.FileName), taken)
		taken[strings.ToLower(name)] = true
		names[rec.FileIndex] = name
	}
	return names
}

func buildMerged(overview []OverviewEntry, records []*batch.FileRecord) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), OverviewSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name overview sheet: %w", err)
	}
	if err := writeOverview(f, overview); err != nil {
		f.Close()
		return nil, err
	}

	names := SheetNames(records)
	for _, rec := range records {
		name, ok := names[rec.FileIndex]
		if !ok {
			continue
		}
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to add sheet %s: %w", name, err)
		}
		if err := writeSheet(f, name, rec.ProcessedTable); err != nil {
			f.Close()
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

func writeOverview(f *excelize.File, overview []OverviewEntry) error {
	rows := [][]any{overviewHeader}
	for _, e := range overview {
		rows = append(rows, []any{
			e.FileName,
			e.WordRoot,
			e.KeywordCount,
			e.RowCount,
			e.Status,
			e.ProcessedAt.Format("2006-01-02 15:04:05"),
		})
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(OverviewSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write overview row %d: %w", i+1, err)
		}
	}

	for i, line := range instructions {
		if line == "" {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(instructionsColumn, i+1)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(OverviewSheet, cell, line); err != nil {
			return fmt.Errorf("failed to write instructions: %w", err)
		}
	}
	return nil
}

// writeSheet streams a table into an existing sheet. The Kdroi column is
// formatted with two decimals.
func writeSheet(f *excelize.File, sheet string, t table.Table) error {
	kdroiFormat := "0.00"
	styleID, err := f.NewStyle(&excelize.Style{CustomNumFmt: &kdroiFormat})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	kdroiCol := -1
	for i, h := range t.Header() {
		if h == augment.KdroiColumn {
			kdroiCol = i
			break
		}
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("failed to open sheet %s: %w", sheet, err)
	}

	for i, row := range t {
		values := make([]any, len(row))
		for j, c := range row {
			if i > 0 && j == kdroiCol {
				values[j] = excelize.Cell{StyleID: styleID, Value: c}
				continue
			}
			values[j] = c
		}

		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+1, sheet, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet %s: %w", sheet, err)
	}
	return nil
}

// WriteTable writes a single table as a one-sheet workbook
func WriteTable(w io.Writer, sheet string, t table.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := writeSheet(f, sheet, t); err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// SaveTable writes a single table workbook to path
func SaveTable(path, sheet string, t table.Table) error {
	return saveTo(path, func(w io.Writer) error {
		return WriteTable(w, sheet, t)
	})
}

func saveTo(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := write(file); err != nil {
		file.Close()
		_ = os.Remove(path)
		return err
	}
	return file.Close()
}
