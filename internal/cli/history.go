package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/wutianlong220/keywords-tools/internal/history"
)

// NewHistoryCommand creates the history subcommand
func NewHistoryCommand(flags *Flags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recent runs, or show one run in detail",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := history.Open(flags.HistoryPath)
			if err != nil {
				return err
			}
			defer store.Close()

			if len(args) == 1 {
				run, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				PrintRun(cmd.OutOrStdout(), run)
				return nil
			}

			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			PrintRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to list")
	return cmd
}

// PrintRuns prints one line per run
func PrintRuns(w io.Writer, runs []history.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded yet")
		return
	}
	for _, run := range runs {
		fmt.Fprintf(w, "%s  %s  %-9s  %3d files  %7d keywords  %s\n",
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Outcome,
			run.FileCount,
			run.Keywords,
			run.Duration().Round(time.Millisecond))
	}
}

// PrintRun prints a run and its files
func PrintRun(w io.Writer, run *history.Run) {
	fmt.Fprintf(w, "Run:          %s\n", run.ID)
	fmt.Fprintf(w, "Started:      %s\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Duration:     %s\n", run.Duration().Round(time.Millisecond))
	fmt.Fprintf(w, "Outcome:      %s\n", run.Outcome)
	fmt.Fprintf(w, "Keywords:     %d in %d batches (batch size %d, concurrency %d)\n",
		run.Keywords, run.Batches, run.BatchSize, run.Concurrency)
	fmt.Fprintf(w, "Requests:     %d, %d batches kept untranslated\n", run.Attempts, run.DegradedBatches)
	if run.Output != "" {
		fmt.Fprintf(w, "Output:       %s\n", run.Output)
	}

	fmt.Fprintf(w, "Files:        %d (%d failed)\n", run.FileCount, run.FailedFiles)
	for _, f := range run.Files {
		fmt.Fprintf(w, "  %-40s %6d keywords  %s\n", f.FileName, f.KeywordCount, f.Status)
	}
}
