package cli

import (
	"os"
	"path/filepath"
	"time"

	"github.com/wutianlong220/keywords-tools/internal/translation"
)

// Processing defaults
const (
	DefaultBatchSize   = 40
	DefaultConcurrency = 25
)

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile    string
	OutputDir  string
	FileList   string
	Split      bool
	Verbose    bool
	ListModels bool
	NoHistory  bool

	// API flags
	Provider string
	Endpoint string
	APIKey   string
	Model    string

	// Processing flags
	BatchSize        int
	Concurrency      int
	Timeout          time.Duration
	MaxRetries       int
	RetryStep        time.Duration
	RateLimit        float64
	BreakerThreshold int

	TargetLanguage string
	HistoryPath    string
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	retry := translation.DefaultRetryPolicy()
	return &Flags{
		OutputDir:      ".",
		Provider:       "openai",
		BatchSize:      DefaultBatchSize,
		Concurrency:    DefaultConcurrency,
		Timeout:        translation.DefaultTimeout,
		MaxRetries:     retry.MaxRetries,
		RetryStep:      retry.Step,
		TargetLanguage: translation.DefaultTargetLanguage,
		HistoryPath:    DefaultHistoryPath(),
	}
}

// DefaultHistoryPath is where run history is kept unless configured
func DefaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".kwocean", "history.db")
	}
	return filepath.Join(home, ".local", "state", "kwocean", "history.db")
}

// RetryPolicy returns the configured backoff
func (f *Flags) RetryPolicy() translation.RetryPolicy {
	return translation.RetryPolicy{MaxRetries: f.MaxRetries, Step: f.RetryStep}
}

// ProviderConfig returns the connection settings of the translation backend
func (f *Flags) ProviderConfig() translation.ProviderConfig {
	return translation.ProviderConfig{
		Provider: f.Provider,
		Endpoint: f.Endpoint,
		APIKey:   f.APIKey,
	}
}

// TranslatorConfig returns the translator settings
func (f *Flags) TranslatorConfig() translation.Config {
	return translation.Config{
		Model:            f.Model,
		TargetLanguage:   f.TargetLanguage,
		Timeout:          f.Timeout,
		Retry:            f.RetryPolicy(),
		RateLimit:        f.RateLimit,
		BreakerThreshold: f.BreakerThreshold,
	}
}
