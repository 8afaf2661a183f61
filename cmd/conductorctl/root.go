package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var flagVerbose bool

// rootCmd is conductorctl's base command, grounded on the teacher pack's
// cobra root-command pattern (AbdelazizMoustafa10m-Raven's internal/cli/root.go).
var rootCmd = &cobra.Command{
	Use:           "conductorctl",
	Short:         "Drive a workflow conductor from spec files and event fixtures",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if flagVerbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(newComposeCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newResumeCmd())
}

// Execute runs the root command and returns a process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
