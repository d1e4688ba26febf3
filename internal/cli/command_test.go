package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/wutianlong220/keywords-tools/internal/history"
	"github.com/wutianlong220/keywords-tools/internal/testutil"
)

// resetViper isolates a test from global viper state and the user's home
func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("KWOCEAN_API_KEY", "")
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
}

func TestCreateRootCommand(t *testing.T) {
	resetViper(t)
	flags := NewFlags()
	cmd := CreateRootCommand(flags)

	if cmd.Use != "kwocean [files...]" {
		t.Errorf("Expected Use to be 'kwocean [files...]', got %s", cmd.Use)
	}
	if !strings.Contains(cmd.Short, "Keyword Ocean") {
		t.Errorf("Expected Short description to contain 'Keyword Ocean'")
	}

	flagTests := []struct {
		name       string
		persistent bool
	}{
		{"config", true},
		{"verbose", true},
		{"provider", true},
		{"endpoint", true},
		{"api-key", true},
		{"model", true},
		{"batch-size", true},
		{"concurrency", true},
		{"timeout", true},
		{"max-retries", true},
		{"retry-step", true},
		{"rate-limit", true},
		{"breaker-threshold", true},
		{"target-language", true},
		{"history-db", true},
		{"output", false},
		{"files-from", false},
		{"split", false},
		{"list-models", false},
		{"no-history", false},
	}

	for _, tt := range flagTests {
		t.Run("flag_"+tt.name, func(t *testing.T) {
			var flag *pflag.Flag
			if tt.persistent {
				flag = cmd.PersistentFlags().Lookup(tt.name)
			} else {
				flag = cmd.Flags().Lookup(tt.name)
			}
			if flag == nil {
				t.Errorf("Expected flag %s to exist", tt.name)
			}
		})
	}

	for _, name := range []string{"config", "history"} {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected subcommand %s", name)
		}
	}
}

func TestSetupFlags(t *testing.T) {
	resetViper(t)
	cmd := &cobra.Command{}
	flags := NewFlags()

	setupFlags(cmd, flags)

	defaults := map[string]string{
		"batch-size":      "40",
		"concurrency":     "25",
		"timeout":         "30s",
		"max-retries":     "9",
		"retry-step":      "1s",
		"target-language": "Chinese",
		"provider":        "openai",
	}
	for name, want := range defaults {
		flag := cmd.PersistentFlags().Lookup(name)
		if flag == nil {
			t.Fatalf("%s flag not found", name)
		}
		if flag.DefValue != want {
			t.Errorf("Expected default %s to be %s, got %s", name, want, flag.DefValue)
		}
	}

	if out := cmd.Flags().Lookup("output"); out == nil || out.DefValue != "." {
		t.Errorf("Expected output to default to the current directory")
	}
}

func TestApplyConfig_Defaults(t *testing.T) {
	resetViper(t)
	flags := NewFlags()
	CreateRootCommand(flags)

	ApplyConfig(flags)

	if flags.BatchSize != 40 || flags.Concurrency != 25 {
		t.Errorf("Expected default sizes, got %d/%d", flags.BatchSize, flags.Concurrency)
	}
	if flags.Timeout != 30*time.Second || flags.RetryStep != time.Second || flags.MaxRetries != 9 {
		t.Errorf("Expected default retry settings, got %v/%v/%d", flags.Timeout, flags.RetryStep, flags.MaxRetries)
	}
	if flags.Provider != "openai" || flags.TargetLanguage != "Chinese" || flags.OutputDir != "." {
		t.Errorf("Unexpected defaults: %+v", flags)
	}
	if flags.APIKey != "" {
		t.Errorf("Expected no API key, got %q", flags.APIKey)
	}
}

func TestApplyConfig_ConfigFile(t *testing.T) {
	resetViper(t)

	cfgPath := filepath.Join(t.TempDir(), "kwocean.yaml")
	testutil.CreateTestFile(t, cfgPath, []byte(`api:
  endpoint: https://api.deepseek.com
  key: file-key
  model: deepseek-chat
processing:
  batch_size: 60
  concurrency_limit: 10
  timeout: 45s
  retry_step: 500ms
  rate_limit: 2.5
translation:
  target_language: Japanese
`))

	flags := NewFlags()
	cmd := CreateRootCommand(flags)

	_, stderr := testutil.CaptureOutput(t, func() {
		InitConfig(cfgPath)
	})
	if !strings.Contains(stderr, "Using config file:") {
		t.Errorf("Expected config file notice, got %q", stderr)
	}

	// Flags set on the command line win over the file
	if err := cmd.PersistentFlags().Set("concurrency", "5"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	ApplyConfig(flags)

	if flags.Endpoint != "https://api.deepseek.com" || flags.APIKey != "file-key" || flags.Model != "deepseek-chat" {
		t.Errorf("API settings not loaded: %+v", flags)
	}
	if flags.BatchSize != 60 {
		t.Errorf("Expected batch size 60 from file, got %d", flags.BatchSize)
	}
	if flags.Concurrency != 5 {
		t.Errorf("Expected concurrency 5 from flag, got %d", flags.Concurrency)
	}
	if flags.Timeout != 45*time.Second || flags.RetryStep != 500*time.Millisecond {
		t.Errorf("Durations not parsed: %v %v", flags.Timeout, flags.RetryStep)
	}
	if flags.RateLimit != 2.5 || flags.TargetLanguage != "Japanese" {
		t.Errorf("Unexpected settings: %+v", flags)
	}
	// Untouched keys keep their defaults
	if flags.MaxRetries != 9 {
		t.Errorf("Expected default retries, got %d", flags.MaxRetries)
	}
}

func TestGetAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		env      map[string]string
		want     string
	}{
		{"prefixed env wins", "openai", map[string]string{"KWOCEAN_API_KEY": "kw", "DEEPSEEK_API_KEY": "ds"}, "kw"},
		{"deepseek fallback", "openai", map[string]string{"DEEPSEEK_API_KEY": "ds"}, "ds"},
		{"gemini fallback", "gemini", map[string]string{"GEMINI_API_KEY": "gm", "DEEPSEEK_API_KEY": "ds"}, "gm"},
		{"nothing set", "openai", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			CreateRootCommand(NewFlags())
			InitConfig("")

			if got := GetAPIKey(tt.provider); got != tt.want {
				t.Errorf("GetAPIKey(%s) = %q, want %q", tt.provider, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Flags {
		f := NewFlags()
		f.Endpoint = "https://api.deepseek.com"
		f.APIKey = "sk-test"
		return f
	}

	tests := []struct {
		name    string
		mutate  func(f *Flags)
		wantErr string
	}{
		{"valid", func(f *Flags) {}, ""},
		{"range minimums", func(f *Flags) { f.BatchSize = 15; f.Concurrency = 2 }, ""},
		{"range maximums", func(f *Flags) { f.BatchSize = 85; f.Concurrency = 25 }, ""},
		{"gemini without endpoint", func(f *Flags) { f.Provider = "gemini"; f.Endpoint = "" }, ""},
		{"unknown provider", func(f *Flags) { f.Provider = "bard" }, "unknown provider"},
		{"missing endpoint", func(f *Flags) { f.Endpoint = "" }, "endpoint is required"},
		{"endpoint without scheme", func(f *Flags) { f.Endpoint = "api.deepseek.com" }, "not an http(s) URL"},
		{"ftp endpoint", func(f *Flags) { f.Endpoint = "ftp://example.com" }, "not an http(s) URL"},
		{"missing key", func(f *Flags) { f.APIKey = "  " }, "API key is required"},
		{"batch too small", func(f *Flags) { f.BatchSize = 14 }, "batch size 14"},
		{"batch too large", func(f *Flags) { f.BatchSize = 86 }, "batch size 86"},
		{"concurrency too small", func(f *Flags) { f.Concurrency = 1 }, "concurrency 1"},
		{"concurrency too large", func(f *Flags) { f.Concurrency = 26 }, "concurrency 26"},
		{"zero timeout", func(f *Flags) { f.Timeout = 0 }, "timeout"},
		{"negative retries", func(f *Flags) { f.MaxRetries = -1 }, "retries"},
		{"negative rate", func(f *Flags) { f.RateLimit = -1 }, "rate limit"},
		{"empty language", func(f *Flags) { f.TargetLanguage = "" }, "target language"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid()
			tt.mutate(f)

			err := Validate(f)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Expected ErrInvalidConfig, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	resetViper(t)
	path := filepath.Join(t.TempDir(), "conf", "kwocean.yaml")

	saved := NewFlags()
	saved.Endpoint = "https://api.deepseek.com"
	saved.APIKey = "sk-secret"
	saved.BatchSize = 50
	saved.Concurrency = 8
	saved.Timeout = 20 * time.Second
	saved.TargetLanguage = "German"

	if err := SaveConfig(path, saved); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	testutil.AssertFileContains(t, path, "batch_size: 50")

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected config mode 0600, got %v", info.Mode().Perm())
	}

	loaded := NewFlags()
	CreateRootCommand(loaded)
	testutil.CaptureOutput(t, func() { InitConfig(path) })
	ApplyConfig(loaded)

	if loaded.Endpoint != saved.Endpoint || loaded.APIKey != saved.APIKey {
		t.Errorf("API settings not restored: %+v", loaded)
	}
	if loaded.BatchSize != 50 || loaded.Concurrency != 8 || loaded.Timeout != 20*time.Second {
		t.Errorf("Processing settings not restored: %+v", loaded)
	}
	if loaded.TargetLanguage != "German" {
		t.Errorf("Expected German, got %s", loaded.TargetLanguage)
	}
}

func TestShowConfig(t *testing.T) {
	flags := NewFlags()
	flags.APIKey = "sk-1234567890wxyz"
	flags.Endpoint = "https://api.deepseek.com"

	var buf bytes.Buffer
	ShowConfig(&buf, flags)
	out := buf.String()

	if strings.Contains(out, "sk-1234567890wxyz") {
		t.Error("Expected API key to be masked")
	}
	if !strings.Contains(out, "********wxyz") || !strings.Contains(out, "https://api.deepseek.com") {
		t.Errorf("Unexpected output:\n%s", out)
	}
	if strings.Index(out, "api.endpoint") > strings.Index(out, "processing.batch_size") {
		t.Error("Expected keys sorted")
	}
}

func TestConfigCommand_SaveAndClear(t *testing.T) {
	resetViper(t)
	path := filepath.Join(t.TempDir(), "kwocean.yaml")

	flags := NewFlags()
	cmd := CreateRootCommand(flags)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	cmd.SetArgs([]string{"config", "save", "--config", path, "--endpoint", "https://api.deepseek.com", "--api-key", "sk-abc123"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config save failed: %v", err)
	}
	testutil.AssertFileContains(t, path, "sk-abc123")
	if !strings.Contains(out.String(), "Settings saved to "+path) {
		t.Errorf("Unexpected output: %s", out.String())
	}

	cmd.SetArgs([]string{"config", "clear", "--config", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config clear failed: %v", err)
	}
	testutil.AssertFileNotExists(t, path)
}

func TestConfigCommand_SaveRejectsInvalid(t *testing.T) {
	resetViper(t)
	path := filepath.Join(t.TempDir(), "kwocean.yaml")

	cmd := CreateRootCommand(NewFlags())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"config", "save", "--config", path, "--endpoint", "https://api.deepseek.com", "--api-key", "k", "--batch-size", "100"})

	if err := cmd.Execute(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
	testutil.AssertFileNotExists(t, path)
}

func TestHistoryCommand(t *testing.T) {
	resetViper(t)
	dbPath := filepath.Join(t.TempDir(), "history.db")

	store, err := history.Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	run := &history.Run{
		StartedAt:  start,
		FinishedAt: start.Add(2 * time.Second),
		Outcome:    history.OutcomeCompleted,
		FileCount:  1,
		Keywords:   42,
		Files:      []history.FileResult{{FileName: "shoes.xlsx", KeywordCount: 42, Status: "success"}},
	}
	if err := store.Record(context.Background(), run); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	store.Close()

	var out bytes.Buffer
	cmd := CreateRootCommand(NewFlags())
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"history", "--history-db", dbPath})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out.String(), run.ID) || !strings.Contains(out.String(), "completed") {
		t.Errorf("Unexpected listing: %s", out.String())
	}

	out.Reset()
	cmd.SetArgs([]string{"history", "--history-db", dbPath, run.ID})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("history <id> failed: %v", err)
	}
	if !strings.Contains(out.String(), "shoes.xlsx") || !strings.Contains(out.String(), "42 in 0 batches") {
		t.Errorf("Unexpected detail: %s", out.String())
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLogger(&buf, false)
	logger.Debug("hidden")
	logger.Info("shown", "file", "a.xlsx")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("Expected debug output to be suppressed")
	}
	if !strings.Contains(buf.String(), "shown") || !strings.Contains(buf.String(), "a.xlsx") {
		t.Errorf("Unexpected log output: %q", buf.String())
	}

	buf.Reset()
	NewLogger(&buf, true).Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("Expected debug output when verbose, got %q", buf.String())
	}
}
