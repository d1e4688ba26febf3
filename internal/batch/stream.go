package batch

import (
	"github.com/wutianlong220/keywords-tools/internal/table"
)

// FileRecord tracks one input file through a run
type FileRecord struct {
	FileIndex    int
	FileName     string
	KeywordCount int
	Columns      table.Columns

	// OriginalTable is nil when the file could not be read
	OriginalTable table.Table
	// ProcessedTable is set once, when the file is reconstructed
	ProcessedTable table.Table
	Err            error
}

// OK reports whether the file has been reconstructed without error
func (r *FileRecord) OK() bool {
	return r.Err == nil && r.ProcessedTable != nil
}

// RowCount returns the number of data rows in the original table
func (r *FileRecord) RowCount() int {
	return len(r.OriginalTable.DataRows())
}

// Entry is one keyword in the global stream
type Entry struct {
	FileIndex int
	// RowIndex is the 0-based data row in the file, header excluded
	RowIndex int
	Keyword  string
	// Translation is nil until results are distributed
	Translation *string
}

// Stream is the ordered keyword stream of a run
type Stream []Entry

// BuildStream appends every non-blank keyword of every readable record,
// in record order then row order. Records with an error or without a
// table contribute nothing. KeywordCount is set on each record.
func BuildStream(records []*FileRecord) Stream {
	var stream Stream
	for _, rec := range records {
		rec.KeywordCount = 0
		if rec.Err != nil || rec.OriginalTable == nil {
			continue
		}
		for rowIndex, row := range rec.OriginalTable.DataRows() {
			kw := table.KeywordAt(row, rec.Columns.Keyword)
			if kw == "" {
				continue
			}
			stream = append(stream, Entry{
				FileIndex: rec.FileIndex,
				RowIndex:  rowIndex,
				Keyword:   kw,
			})
			rec.KeywordCount++
		}
	}
	return stream
}

// Keywords returns the keywords of the stream in order
func (s Stream) Keywords() []string {
	out := make([]string, len(s))
	for i, e := range s {
		out[i] = e.Keyword
	}
	return out
}

// ForFile returns the row-indexed translations of one file's entries.
// Entries without a translation are left out.
func (s Stream) ForFile(fileIndex int) map[int]string {
	out := make(map[int]string)
	for _, e := range s {
		if e.FileIndex == fileIndex && e.Translation != nil {
			out[e.RowIndex] = *e.Translation
		}
	}
	return out
}
