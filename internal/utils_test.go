package internal

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestWordRoot(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{"broad match export", "running shoes_broad-match_us_2024-05-01.xlsx", "running shoes"},
		{"plain name", "keywords.xlsx", "keywords"},
		{"with directory", "/tmp/exports/yoga_broad-match_uk.csv", "yoga"},
		{"no extension", "coffee", "coffee"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WordRoot(tt.filename); got != tt.want {
				t.Errorf("WordRoot(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func TestSanitizeSheetName(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{"strips extension", "report.xlsx", "report"},
		{"replaces forbidden characters", `a:b\c?d*e[f]g.xlsx`, "a_b_c_d_e_f_g"},
		{"uses the base name", "/exports/shoes:us.xlsx", "shoes_us"},
		{"empty becomes Sheet", ".xlsx", "Sheet"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeSheetName(tt.filename); got != tt.want {
				t.Errorf("SanitizeSheetName(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}

	long := strings.Repeat("ключ", 20) + ".xlsx"
	got := SanitizeSheetName(long)
	if n := utf8.RuneCountInString(got); n != 31 {
		t.Errorf("Expected 31 runes, got %d (%q)", n, got)
	}
}

func TestUniqueSheetName(t *testing.T) {
	taken := map[string]bool{"report": true, "report (2)": true}

	if got := UniqueSheetName("summary", taken); got != "summary" {
		t.Errorf("Expected untouched name, got %q", got)
	}
	if got := UniqueSheetName("Report", taken); got != "Report (3)" {
		t.Errorf("Expected 'Report (3)', got %q", got)
	}

	long := strings.Repeat("x", 31)
	taken[long] = true
	got := UniqueSheetName(long, taken)
	if utf8.RuneCountInString(got) > 31 {
		t.Errorf("Unique name exceeds 31 runes: %q", got)
	}
	if !strings.HasSuffix(got, " (2)") {
		t.Errorf("Expected ' (2)' suffix, got %q", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	if got := SanitizeFilename("мой файл/1"); got != "мой_файл_1" {
		t.Errorf("SanitizeFilename = %q", got)
	}
}

func TestMergedFileName(t *testing.T) {
	ts := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	if got := MergedFileName(ts); got != "keyword_ocean_2024-03-09.xlsx" {
		t.Errorf("MergedFileName = %q", got)
	}
}
