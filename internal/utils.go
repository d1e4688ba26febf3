package internal

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

// Version is the kwocean release version
const Version = "0.4.1"

// maxSheetNameLen is the longest sheet name a workbook accepts
const maxSheetNameLen = 31

// WordRoot derives the keyword root from an export file name.
// Keyword tools name their exports "<root>_broad-match_<country>_<date>.xlsx",
// so everything from "_broad-match_" on is dropped along with the extension.
func WordRoot(filename string) string {
	name := StripExtension(filepath.Base(filename))
	if idx := strings.Index(name, "_broad-match_"); idx != -1 {
		return name[:idx]
	}
	return name
}

// StripExtension removes the last extension from a file name
func StripExtension(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// SanitizeSheetName turns a file name into a valid worksheet name:
// forbidden characters become '_' and the result is cut to 31 runes
func SanitizeSheetName(filename string) string {
	name := StripExtension(filepath.Base(filename))
	var b strings.Builder
	for _, r := range name {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}

	runes := []rune(strings.Trim(b.String(), "'"))
	if len(runes) > maxSheetNameLen {
		runes = runes[:maxSheetNameLen]
	}
	if len(runes) == 0 {
		return "Sheet"
	}
	return string(runes)
}

// UniqueSheetName returns name, or name with a " (n)" suffix if it is
// already taken. The result still respects the 31 rune limit.
func UniqueSheetName(name string, taken map[string]bool) string {
	if !taken[strings.ToLower(name)] {
		return name
	}
	for n := 2; ; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		base := []rune(name)
		if limit := maxSheetNameLen - len(suffix); len(base) > limit {
			base = base[:limit]
		}
		candidate := string(base) + suffix
		if !taken[strings.ToLower(candidate)] {
			return candidate
		}
	}
}

// SanitizeFilename creates a safe filename from a string
func SanitizeFilename(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

// MergedFileName returns the default name of the merged output workbook
func MergedFileName(t time.Time) string {
	return fmt.Sprintf("keyword_ocean_%s.xlsx", t.Format("2006-01-02"))
}
