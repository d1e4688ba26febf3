// Package workbook converts between spreadsheet files and the in-memory
// table model. It reads .xlsx and .csv exports and writes the merged
// result workbook: an overview sheet followed by one sheet per file.
package workbook
