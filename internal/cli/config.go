package cli

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Accepted ranges
const (
	MinBatchSize   = 15
	MaxBatchSize   = 85
	MinConcurrency = 2
	MaxConcurrency = 25
)

// ErrInvalidConfig is returned when settings are rejected before a run
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate rejects settings a run cannot start with
func Validate(flags *Flags) error {
	switch flags.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("%w: unknown provider %q (use openai or gemini)", ErrInvalidConfig, flags.Provider)
	}

	if flags.Endpoint == "" && flags.Provider == "openai" {
		return fmt.Errorf("%w: API endpoint is required (--endpoint or api.endpoint)", ErrInvalidConfig)
	}
	if flags.Endpoint != "" {
		u, err := url.Parse(flags.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: API endpoint %q is not an http(s) URL", ErrInvalidConfig, flags.Endpoint)
		}
	}
	if strings.TrimSpace(flags.APIKey) == "" {
		return fmt.Errorf("%w: API key is required (--api-key, KWOCEAN_API_KEY or DEEPSEEK_API_KEY)", ErrInvalidConfig)
	}

	if flags.BatchSize < MinBatchSize || flags.BatchSize > MaxBatchSize {
		return fmt.Errorf("%w: batch size %d must be between %d and %d", ErrInvalidConfig, flags.BatchSize, MinBatchSize, MaxBatchSize)
	}
	if flags.Concurrency < MinConcurrency || flags.Concurrency > MaxConcurrency {
		return fmt.Errorf("%w: concurrency %d must be between %d and %d", ErrInvalidConfig, flags.Concurrency, MinConcurrency, MaxConcurrency)
	}

	if flags.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	if flags.MaxRetries < 0 || flags.RetryStep < 0 {
		return fmt.Errorf("%w: retries and retry step must not be negative", ErrInvalidConfig)
	}
	if flags.RateLimit < 0 || flags.BreakerThreshold < 0 {
		return fmt.Errorf("%w: rate limit and breaker threshold must not be negative", ErrInvalidConfig)
	}
	if strings.TrimSpace(flags.TargetLanguage) == "" {
		return fmt.Errorf("%w: target language is required", ErrInvalidConfig)
	}
	return nil
}

// Settings returns the persisted configuration keys and their values
func Settings(flags *Flags) map[string]any {
	return map[string]any{
		"api.provider":                 flags.Provider,
		"api.endpoint":                 flags.Endpoint,
		"api.key":                      flags.APIKey,
		"api.model":                    flags.Model,
		"processing.batch_size":        flags.BatchSize,
		"processing.concurrency_limit": flags.Concurrency,
		"processing.timeout":           flags.Timeout.String(),
		"processing.max_retries":       flags.MaxRetries,
		"processing.retry_step":        flags.RetryStep.String(),
		"processing.rate_limit":        flags.RateLimit,
		"processing.breaker_threshold": flags.BreakerThreshold,
		"translation.target_language":  flags.TargetLanguage,
		"history.path":                 flags.HistoryPath,
	}
}

// ConfigPath returns the file settings are saved to
func ConfigPath(cfgFile string) string {
	if cfgFile != "" {
		return cfgFile
	}
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".kwocean.yaml"
	}
	return filepath.Join(home, ".kwocean.yaml")
}

// SaveConfig writes the current settings to path as YAML
func SaveConfig(path string, flags *Flags) error {
	v := viper.New()
	v.SetConfigType("yaml")
	for key, value := range Settings(flags) {
		v.Set(key, value)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	// The file holds the API key
	return os.Chmod(path, 0600)
}

// ShowConfig prints the current settings with the API key masked
func ShowConfig(w io.Writer, flags *Flags) {
	settings := Settings(flags)
	settings["api.key"] = MaskKey(flags.APIKey)

	keys := make([]string, 0, len(settings))
	for key := range settings {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fmt.Fprintf(w, "%-30s %v\n", key, settings[key])
	}
}

// MaskKey hides all but the last four characters of an API key
func MaskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 4 {
		return "****"
	}
	return strings.Repeat("*", 8) + key[len(key)-4:]
}

// NewConfigCommand creates the config subcommand
func NewConfigCommand(flags *Flags) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show, save or clear persisted settings",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			ShowConfig(cmd.OutOrStdout(), flags)
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "save",
		Short: "Persist the effective settings to the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := Validate(flags); err != nil {
				return err
			}
			path := ConfigPath(flags.CfgFile)
			if err := SaveConfig(path, flags); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Settings saved to %s\n", path)
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ConfigPath(flags.CfgFile)
			if err := os.Remove(path); err != nil {
				if errors.Is(err, os.ErrNotExist) {
					fmt.Fprintf(cmd.OutOrStdout(), "No config file at %s\n", path)
					return nil
				}
				return fmt.Errorf("failed to remove config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", path)
			return nil
		},
	})

	return configCmd
}
