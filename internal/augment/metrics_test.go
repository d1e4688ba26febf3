package augment

import (
	"testing"

	"github.com/wutianlong220/keywords-tools/internal/table"
)

func TestKdroi(t *testing.T) {
	tests := []struct {
		name                    string
		volume, cpc, difficulty float64
		want                    float64
	}{
		{"reference values", 100, 2.5, 10, 25},
		{"zero difficulty", 100, 2.5, 0, 0},
		{"negative difficulty", 100, 2.5, -3, 0},
		{"rounds to two decimals", 10, 1, 3, 3.33},
		{"rounds half up", 1, 0.125, 1, 0.13},
		{"zero volume", 0, 5, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Kdroi(tt.volume, tt.cpc, tt.difficulty); got != tt.want {
				t.Errorf("Kdroi(%v, %v, %v) = %v, want %v", tt.volume, tt.cpc, tt.difficulty, got, tt.want)
			}
		})
	}
}

func TestRowKdroi_Defaults(t *testing.T) {
	cols := table.Columns{Keyword: 0, Intent: -1, Volume: 1, Difficulty: 2, CPC: 3}

	tests := []struct {
		name string
		row  table.Row
		want float64
	}{
		{"all present", table.Row{"k", "100", "10", "2.5"}, 25},
		{"difficulty unparseable defaults to 1", table.Row{"k", "100", "n/a", "2.5"}, 250},
		{"difficulty zero stays zero", table.Row{"k", "100", "0", "2.5"}, 0},
		{"volume missing defaults to 0", table.Row{"k", nil, "10", "2.5"}, 0},
		{"short row", table.Row{"k"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RowKdroi(tt.row, cols); got != tt.want {
				t.Errorf("RowKdroi(%v) = %v, want %v", tt.row, got, tt.want)
			}
		})
	}
}

func TestEncodeURIComponent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"running shoes", "running%20shoes"},
		{"a+b", "a%2Bb"},
		{"c&d=e", "c%26d%3De"},
		{"it's (new)!*~", "it's%20(new)!*~"},
		{"咖啡", "%E5%92%96%E5%95%A1"},
		{"a/b?c#d", "a%2Fb%3Fc%23d"},
	}

	for _, tt := range tests {
		if got := EncodeURIComponent(tt.in); got != tt.want {
			t.Errorf("EncodeURIComponent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLinks(t *testing.T) {
	kw := "trail & road"
	if got := SERPURL(kw); got != "https://www.google.com/search?q=trail%20%26%20road" {
		t.Errorf("SERPURL = %s", got)
	}
	if got := TrendsURL(kw); got != "https://trends.google.com/trends/explore?q=trail%20%26%20road" {
		t.Errorf("TrendsURL = %s", got)
	}
	if got := AhrefsURL(kw); got != "https://ahrefs.com/keyword-difficulty/?country=us&input=trail%20%26%20road" {
		t.Errorf("AhrefsURL = %s", got)
	}
}
