package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wutianlong220/keywords-tools/internal/cli"
	"github.com/wutianlong220/keywords-tools/internal/history"
	"github.com/wutianlong220/keywords-tools/internal/models"
	"github.com/wutianlong220/keywords-tools/internal/processor"
	"github.com/wutianlong220/keywords-tools/internal/stop"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Create root command
	rootCmd := cli.CreateRootCommand(flags)

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	// Set the run function
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, args, flags)
	}

	// Execute command
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCommand(cmd *cobra.Command, args []string, flags *cli.Flags) error {
	logger := cli.NewLogger(os.Stderr, flags.Verbose)

	// Handle --list-models flag
	if flags.ListModels {
		lister := models.NewLister(flags.Endpoint, flags.APIKey, flags.Model)
		return lister.ListAvailableModels(cmd.Context())
	}

	paths, err := processor.CollectInputs(args, flags.FileList)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return cmd.Help()
	}

	if err := cli.Validate(flags); err != nil {
		return err
	}

	proc, err := processor.NewProcessor(flags, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	token := stop.New()
	watchSignals(ctx, token, cancel)

	summary, err := proc.Run(ctx, token, paths)
	if err != nil {
		return err
	}
	if summary.Output == "" && summary.Outcome == history.OutcomeCompleted {
		return errors.New("no input file could be processed")
	}
	return nil
}

// watchSignals stops the run on the first interrupt, letting batches in
// flight finish, and cancels it on the second
func watchSignals(ctx context.Context, token *stop.Token, cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			fmt.Fprintln(os.Stderr, "\nStopping after the batches in flight... (press Ctrl+C again to abort)")
			token.Stop()
		case <-ctx.Done():
			return
		}
		select {
		case <-sigs:
			cancel()
		case <-ctx.Done():
		}
	}()
}
