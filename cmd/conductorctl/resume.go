package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wfcore/conductor/internal/specnative"
	"github.com/wfcore/conductor/workflow"
)

type resumeFlags struct {
	eventsPath string
	storeDSN   string
	checkpoint string
}

func newResumeCmd() *cobra.Command {
	var flags resumeFlags

	cmd := &cobra.Command{
		Use:   "resume <spec.yaml> <workflow-id>",
		Short: "Resume a persisted workflow run and drive it through more events",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResume(cmd, args[0], args[1], flags)
		},
	}

	cmd.Flags().StringVar(&flags.eventsPath, "events", "", "path to a JSON array of action-execution events")
	cmd.Flags().StringVar(&flags.storeDSN, "store", "memory", `"memory", a sqlite file path, or "mysql://<dsn>"`)
	cmd.Flags().StringVar(&flags.checkpoint, "checkpoint", "", "resume from a named checkpoint instead of the latest saved state")

	return cmd
}

func runResume(cmd *cobra.Command, specPath, workflowID string, flags resumeFlags) error {
	specData, err := os.ReadFile(specPath)
	if err != nil {
		return fmt.Errorf("read spec: %w", err)
	}
	spec, err := specnative.Parse(specData)
	if err != nil {
		return fmt.Errorf("parse spec: %w", err)
	}

	st, err := openStore(flags.storeDSN)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	var doc []byte
	var seq int
	if flags.checkpoint != "" {
		doc, seq, err = st.LoadCheckpoint(cmd.Context(), workflowID, flags.checkpoint)
	} else {
		doc, seq, err = st.LoadLatest(cmd.Context(), workflowID)
	}
	if err != nil {
		return fmt.Errorf("load run state: %w", err)
	}

	c, err := workflow.Deserialize(doc, spec,
		workflow.WithEmitter(defaultEmitter()),
		workflow.WithWorkflowID(workflowID),
	)
	if err != nil {
		return fmt.Errorf("deserialize conductor: %w", err)
	}

	events, err := loadFixture(flags.eventsPath)
	if err != nil {
		return err
	}
	if err := driveFixture(c, events); err != nil {
		return err
	}

	newDoc, err := c.Serialize()
	if err != nil {
		return fmt.Errorf("serialize conductor: %w", err)
	}
	if err := st.SaveLatest(cmd.Context(), workflowID, seq+len(events), newDoc); err != nil {
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
