package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wfcore/conductor/internal/specnative"
	"github.com/wfcore/conductor/workflow"
)

func newComposeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compose <spec.yaml>",
		Short: "Validate a native-dialect spec and print its composed graph as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompose(cmd, args[0])
		},
	}
	return cmd
}

func runCompose(cmd *cobra.Command, specPath string) error {
	data, err := os.ReadFile(specPath)
	if err != nil {
		return fmt.Errorf("read spec: %w", err)
	}

	spec, err := specnative.Parse(data)
	if err != nil {
		return fmt.Errorf("parse spec: %w", err)
	}
	if errs := spec.Inspect(); len(errs) > 0 {
		return fmt.Errorf("spec validation failed: %v", errs)
	}

	graph, err := workflow.Compose(spec)
	if err != nil {
		return fmt.Errorf("compose: %w", err)
	}

	out, err := json.MarshalIndent(graph, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal graph: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
