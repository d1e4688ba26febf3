// Package processor runs the keyword pipeline: it scans the input files,
// builds the keyword stream, schedules the translation batches, scatters
// the results back and writes the merged workbook. Every run is recorded
// in the history database.
package processor
