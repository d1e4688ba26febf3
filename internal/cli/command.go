package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/wutianlong220/keywords-tools/internal"
)

// CreateRootCommand creates and configures the root cobra command with its
// config and history subcommands
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "kwocean [files...]",
		Short: "Keyword Ocean batch translator",
		Long: `kwocean translates the keywords of keyword-tool exports and merges
them into a single workbook.

Every .xlsx or .csv file needs a "Keyword" column. The merged workbook
holds an overview sheet and one sheet per file, with a translation
column, a Kdroi value and SERP, Google Trends and Ahrefs links added
to every row.

Examples:
  kwocean shoes_broad-match_us.xlsx boots_broad-match_us.xlsx
  kwocean --files-from exports.txt -o merged.xlsx
  kwocean config save --endpoint https://api.deepseek.com --api-key sk-...`,
		Args:    cobra.ArbitraryArgs,
		Version: internal.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ApplyConfig(flags)
		},
		SilenceUsage: true,
	}

	setupFlags(rootCmd, flags)

	rootCmd.AddCommand(NewConfigCommand(flags))
	rootCmd.AddCommand(NewHistoryCommand(flags))

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	// Global flags, shared with the config subcommands so settings can be saved
	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.kwocean.yaml)")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable debug logging")
	pf.StringVar(&flags.Provider, "provider", flags.Provider, "Translation backend: openai (any OpenAI-compatible endpoint) or gemini")
	pf.StringVar(&flags.Endpoint, "endpoint", "", "Chat completion endpoint, e.g. https://api.deepseek.com")
	pf.StringVar(&flags.APIKey, "api-key", "", "API key (default from KWOCEAN_API_KEY or DEEPSEEK_API_KEY)")
	pf.StringVar(&flags.Model, "model", "", "Model name (default deepseek-chat, or gemini-2.0-flash for gemini)")
	pf.IntVarP(&flags.BatchSize, "batch-size", "b", flags.BatchSize, fmt.Sprintf("Keywords per request (%d-%d)", MinBatchSize, MaxBatchSize))
	pf.IntVarP(&flags.Concurrency, "concurrency", "c", flags.Concurrency, fmt.Sprintf("Requests in flight per wave (%d-%d)", MinConcurrency, MaxConcurrency))
	pf.DurationVar(&flags.Timeout, "timeout", flags.Timeout, "Timeout of a single request")
	pf.IntVar(&flags.MaxRetries, "max-retries", flags.MaxRetries, "Retries per batch before keeping the original keywords")
	pf.DurationVar(&flags.RetryStep, "retry-step", flags.RetryStep, "Backoff step; retry n waits n times this")
	pf.Float64Var(&flags.RateLimit, "rate-limit", 0, "Maximum requests per second (0 = unlimited)")
	pf.IntVar(&flags.BreakerThreshold, "breaker-threshold", 0, "Consecutive failures that pause requests to the endpoint (0 = disabled)")
	pf.StringVar(&flags.TargetLanguage, "target-language", flags.TargetLanguage, "Language to translate keywords into")
	pf.StringVar(&flags.HistoryPath, "history-db", flags.HistoryPath, "Run history database")

	// Local flags
	cmd.Flags().StringVarP(&flags.OutputDir, "output", "o", flags.OutputDir, "Output directory, or the .xlsx file to write")
	cmd.Flags().StringVar(&flags.FileList, "files-from", "", "Read input file paths from file (one per line)")
	cmd.Flags().BoolVar(&flags.Split, "split", false, "Also write one workbook per input file")
	cmd.Flags().BoolVar(&flags.ListModels, "list-models", false, "List the models available on the configured endpoint")
	cmd.Flags().BoolVar(&flags.NoHistory, "no-history", false, "Do not record this run in the history database")

	bindFlagsToViper(cmd)
}

func bindFlagsToViper(cmd *cobra.Command) {
	bindFlags(cmd.PersistentFlags(), map[string]string{
		"api.provider":                 "provider",
		"api.endpoint":                 "endpoint",
		"api.key":                      "api-key",
		"api.model":                    "model",
		"processing.batch_size":        "batch-size",
		"processing.concurrency_limit": "concurrency",
		"processing.timeout":           "timeout",
		"processing.max_retries":       "max-retries",
		"processing.retry_step":        "retry-step",
		"processing.rate_limit":        "rate-limit",
		"processing.breaker_threshold": "breaker-threshold",
		"translation.target_language":  "target-language",
		"history.path":                 "history-db",
	})
	bindFlags(cmd.Flags(), map[string]string{
		"output.directory": "output",
	})
}

func bindFlags(fs *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		viper.BindPFlag(key, fs.Lookup(name))
	}
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".kwocean" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".kwocean")
	}

	// Environment variables, e.g. KWOCEAN_API_KEY for api.key
	viper.SetEnvPrefix("KWOCEAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// ApplyConfig copies the merged flag, environment and config file values
// into flags
func ApplyConfig(flags *Flags) {
	flags.Provider = viper.GetString("api.provider")
	flags.Endpoint = viper.GetString("api.endpoint")
	flags.Model = viper.GetString("api.model")
	flags.APIKey = GetAPIKey(flags.Provider)

	flags.BatchSize = viper.GetInt("processing.batch_size")
	flags.Concurrency = viper.GetInt("processing.concurrency_limit")
	flags.Timeout = viper.GetDuration("processing.timeout")
	flags.MaxRetries = viper.GetInt("processing.max_retries")
	flags.RetryStep = viper.GetDuration("processing.retry_step")
	flags.RateLimit = viper.GetFloat64("processing.rate_limit")
	flags.BreakerThreshold = viper.GetInt("processing.breaker_threshold")

	flags.TargetLanguage = viper.GetString("translation.target_language")
	flags.HistoryPath = viper.GetString("history.path")
	flags.OutputDir = viper.GetString("output.directory")
}

// GetAPIKey retrieves the API key from flags, config or environment
func GetAPIKey(provider string) string {
	// --api-key, KWOCEAN_API_KEY or api.key from the config file
	if key := viper.GetString("api.key"); key != "" {
		return key
	}

	if provider == "gemini" {
		return os.Getenv("GEMINI_API_KEY")
	}
	return os.Getenv("DEEPSEEK_API_KEY")
}
