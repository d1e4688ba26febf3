package cli

import (
	"io"

	"github.com/charmbracelet/log"
)

// NewLogger creates the run logger. Verbose enables debug output.
func NewLogger(w io.Writer, verbose bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		ReportCaller:    verbose,
		Prefix:          "kwocean",
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}
