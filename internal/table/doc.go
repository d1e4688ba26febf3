// Package table holds the in-memory spreadsheet model (a header row
// followed by data rows) and the record extractor that locates the
// keyword-research columns and pulls the keyword list out of a sheet.
package table
