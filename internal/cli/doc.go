// Package cli provides command-line interface setup and configuration
// for kwocean. It handles flag parsing, command creation, validation and
// persisted settings using cobra and viper.
package cli
