package augment

import (
	"math"
	"net/url"
	"strings"

	"github.com/wutianlong220/keywords-tools/internal/table"
)

// Defaults for unparseable or absent metric cells
const (
	defaultVolume     = 0
	defaultDifficulty = 1
	defaultCPC        = 0
)

const (
	serpBase   = "https://www.google.com/search?q="
	trendsBase = "https://trends.google.com/trends/explore?q="
	ahrefsBase = "https://ahrefs.com/keyword-difficulty/?country=us&input="
)

// Kdroi is volume*cpc/difficulty rounded to two decimals, or 0 when
// difficulty is not positive
func Kdroi(volume, cpc, difficulty float64) float64 {
	if difficulty <= 0 {
		return 0
	}
	return Round2(volume * cpc / difficulty)
}

// RowKdroi computes Kdroi from the metric cells of a data row
func RowKdroi(row table.Row, cols table.Columns) float64 {
	volume := table.NumberOr(row, cols.Volume, defaultVolume)
	difficulty := table.NumberOr(row, cols.Difficulty, defaultDifficulty)
	cpc := table.NumberOr(row, cols.CPC, defaultCPC)
	return Kdroi(volume, cpc, difficulty)
}

// Round2 rounds half away from zero to two decimals
func Round2(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return math.Round(f*100) / 100
}

var uriComponentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeURIComponent escapes s so that only letters, digits and
// -_.!~*'() are left as is, with spaces as %20
func EncodeURIComponent(s string) string {
	return uriComponentUnescaper.Replace(url.QueryEscape(s))
}

// SERPURL links to the Google results page of keyword
func SERPURL(keyword string) string {
	return serpBase + EncodeURIComponent(keyword)
}

// TrendsURL links to the Google Trends explore page of keyword
func TrendsURL(keyword string) string {
	return trendsBase + EncodeURIComponent(keyword)
}

// AhrefsURL links to the Ahrefs keyword difficulty checker for keyword
func AhrefsURL(keyword string) string {
	return ahrefsBase + EncodeURIComponent(keyword)
}
