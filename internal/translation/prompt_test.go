package translation

import (
	"reflect"
	"strings"
	"testing"
)

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt([]string{"running shoes", "trail shoes"}, "")

	if !strings.Contains(prompt, "into Chinese") {
		t.Errorf("Expected default target language in prompt: %q", prompt)
	}
	if !strings.HasSuffix(prompt, "\n\n1. running shoes\n2. trail shoes") {
		t.Errorf("Unexpected keyword list in prompt: %q", prompt)
	}

	prompt = BuildPrompt([]string{"a"}, "German")
	if !strings.Contains(prompt, "into German") {
		t.Errorf("Expected German in prompt: %q", prompt)
	}
}

func TestMaxTokensFor(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 1},
		{1, 20},
		{40, 800},
		{200, 4000},
		{500, 4000},
	}

	for _, tt := range tests {
		if got := MaxTokensFor(tt.n); got != tt.want {
			t.Errorf("MaxTokensFor(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestResolveTranslation(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		fallback string
		want     string
	}{
		{"numbered", "1. 跑鞋", "running shoes", "跑鞋"},
		{"no space after dot", "12.跑鞋", "x", "跑鞋"},
		{"double quotes", `3. "越野跑鞋"`, "x", "越野跑鞋"},
		{"single quotes", "4. '徒步靴'", "x", "徒步靴"},
		{"trailing space", "5.   咖啡   ", "x", "咖啡"},
		{"indented line keeps its number", "  7. 茶", "x", "7. 茶"},
		{"nested quotes lose one pair", `8. "'靴子'"`, "x", "'靴子'"},
		{"lone quote", `9. "`, "boots", "boots"},
		{"empty after cleaning", `6. ""`, "coffee", "coffee"},
		{"missing line", "", "coffee", "coffee"},
		{"unnumbered", "咖啡", "coffee", "咖啡"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveTranslation(tt.raw, tt.fallback); got != tt.want {
				t.Errorf("ResolveTranslation(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseTranslations(t *testing.T) {
	keywords := []string{"running shoes", "trail shoes", "hiking boots"}

	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "complete reply",
			content: "1. 跑鞋\n2. 越野跑鞋\n3. 徒步靴",
			want:    []string{"跑鞋", "越野跑鞋", "徒步靴"},
		},
		{
			name:    "blank lines are skipped",
			content: "\n1. 跑鞋\n\n   \n2. 越野跑鞋\n3. 徒步靴\n",
			want:    []string{"跑鞋", "越野跑鞋", "徒步靴"},
		},
		{
			name:    "short reply falls back to keywords",
			content: "1. 跑鞋",
			want:    []string{"跑鞋", "trail shoes", "hiking boots"},
		},
		{
			name:    "long reply is truncated",
			content: "1. a\n2. b\n3. c\n4. d",
			want:    []string{"a", "b", "c"},
		},
		{
			name:    "empty reply",
			content: "",
			want:    keywords,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTranslations(tt.content, keywords)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseTranslations() = %v, want %v", got, tt.want)
			}
		})
	}
}
