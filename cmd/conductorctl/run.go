package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wfcore/conductor/internal/specnative"
	"github.com/wfcore/conductor/workflow"
)

type runFlags struct {
	inputsPath string
	eventsPath string
	storeDSN   string
	workflowID string
}

func newRunCmd() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run <spec.yaml>",
		Short: "Start a new workflow run and drive it through an events fixture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.inputsPath, "inputs", "", "path to a JSON object of workflow inputs")
	cmd.Flags().StringVar(&flags.eventsPath, "events", "", "path to a JSON array of action-execution events")
	cmd.Flags().StringVar(&flags.storeDSN, "store", "memory", `"memory", a sqlite file path, or "mysql://<dsn>"`)
	cmd.Flags().StringVar(&flags.workflowID, "workflow-id", "", "run identifier (default: a generated uuid)")

	return cmd
}

func runRun(cmd *cobra.Command, specPath string, flags runFlags) error {
	specData, err := os.ReadFile(specPath)
	if err != nil {
		return fmt.Errorf("read spec: %w", err)
	}
	spec, err := specnative.Parse(specData)
	if err != nil {
		return fmt.Errorf("parse spec: %w", err)
	}

	inputs, err := loadInputs(flags.inputsPath)
	if err != nil {
		return err
	}
	events, err := loadFixture(flags.eventsPath)
	if err != nil {
		return err
	}

	workflowID := flags.workflowID
	if workflowID == "" {
		workflowID = newWorkflowID()
	}

	c, err := workflow.New(spec, inputs,
		workflow.WithEmitter(defaultEmitter()),
		workflow.WithWorkflowID(workflowID),
	)
	if err != nil {
		return fmt.Errorf("construct conductor: %w", err)
	}

	if err := c.RequestWorkflowStatus(workflow.StatusRunning); err != nil {
		return fmt.Errorf("start workflow: %w", err)
	}
	if err := driveFixture(c, events); err != nil {
		return err
	}

	st, err := openStore(flags.storeDSN)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	doc, err := c.Serialize()
	if err != nil {
		return fmt.Errorf("serialize conductor: %w", err)
	}
	if err := st.SaveLatest(cmd.Context(), workflowID, len(events), doc); err != nil {
		return fmt.Errorf("save run state: %w", err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "workflow %s status: %s\n", workflowID, c.GetWorkflowStatus())

	if workflow.IsCompleted(c.GetWorkflowStatus()) {
		output, err := c.GetWorkflowOutput()
		if err != nil {
			return fmt.Errorf("get output: %w", err)
		}
		enc, err := json.MarshalIndent(output, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal output: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(enc))
		return nil
	}

	return printNextTasks(cmd.OutOrStdout(), c)
}
