// Package distribute scatters stream-ordered translations back onto their
// files and rebuilds each file's augmented table.
package distribute

import (
	"errors"
	"fmt"

	"github.com/wutianlong220/keywords-tools/internal/augment"
	"github.com/wutianlong220/keywords-tools/internal/batch"
	"github.com/wutianlong220/keywords-tools/internal/table"
)

// ErrStreamMismatch is returned when the translations do not line up with
// the stream. It fails the whole run.
var ErrStreamMismatch = errors.New("translations do not match keyword stream")

// Distribute sets every entry's translation from translations, indexed by
// stream position, then reconstructs each readable file. An entry whose
// translation is empty keeps its keyword. Per-file reconstruction errors are
// stored on the record; only a length mismatch is returned.
func Distribute(translations []string, stream batch.Stream, records []*batch.FileRecord) error {
	if len(translations) != len(stream) {
		return fmt.Errorf("%w: %d translations for %d keywords", ErrStreamMismatch, len(translations), len(stream))
	}

	for i := range stream {
		tr := translations[i]
		if tr == "" {
			tr = stream[i].Keyword
		}
		stream[i].Translation = &tr
	}

	for _, rec := range records {
		if rec.Err != nil || rec.OriginalTable == nil {
			continue
		}
		processed, err := Reconstruct(rec, stream.ForFile(rec.FileIndex))
		if err != nil {
			rec.Err = fmt.Errorf("reconstruct %s: %w", rec.FileName, err)
			continue
		}
		rec.ProcessedTable = processed
	}
	return nil
}

// Reconstruct augments one file. Rows without a stream entry, such as rows
// with a blank keyword, fall back to their trimmed keyword cell.
func Reconstruct(rec *batch.FileRecord, byRow map[int]string) (processed table.Table, err error) {
	// A malformed table must not take the other files down with it
	defer func() {
		if r := recover(); r != nil {
			processed, err = nil, fmt.Errorf("%v", r)
		}
	}()

	rows := rec.OriginalTable.DataRows()
	return augment.Augment(rec.OriginalTable, func(i int) string {
		if tr, ok := byRow[i]; ok {
			return tr
		}
		return table.KeywordAt(rows[i], rec.Columns.Keyword)
	})
}
