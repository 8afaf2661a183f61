package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/wfcore/conductor/workflow"
	"github.com/wfcore/conductor/workflow/emit"
	"github.com/wfcore/conductor/workflow/store"
)

// fixtureEvent is one externally generated action-execution event, as read
// from a --events JSON fixture: an ordered array of fixtureEvent.
type fixtureEvent struct {
	Task    string         `json:"task"`
	Route   int            `json:"route"`
	Status  workflow.Status `json:"status"`
	Result  any            `json:"result,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

func loadFixture(path string) ([]fixtureEvent, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read events fixture: %w", err)
	}
	var events []fixtureEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("parse events fixture: %w", err)
	}
	return events, nil
}

func loadInputs(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read inputs: %w", err)
	}
	var inputs map[string]any
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("parse inputs: %w", err)
	}
	return inputs, nil
}

// driveFixture applies each fixtureEvent in order to c via UpdateTaskState.
// Tasks the fixture never mentions are left staged; this lets a run invocation
// exercise a partial fixture and a later resume invocation supply the rest.
func driveFixture(c *workflow.Conductor, events []fixtureEvent) error {
	for _, ev := range events {
		err := c.UpdateTaskState(ev.Task, ev.Route, workflow.ActionExecutionEvent{
			Status:  ev.Status,
			Result:  ev.Result,
			Context: ev.Context,
		})
		if err != nil {
			return fmt.Errorf("apply event for %s@%d: %w", ev.Task, ev.Route, err)
		}
		slog.Debug("applied event", "task", ev.Task, "route", ev.Route, "status", ev.Status)
	}
	return nil
}

// printNextTasks writes the conductor's currently runnable task instances as
// JSON to stdout, for a caller (human or external action runtime) to act on.
func printNextTasks(w io.Writer, c *workflow.Conductor) error {
	next := c.GetNextTasks()
	out, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal next tasks: %w", err)
	}
	fmt.Fprintln(w, string(out))
	return nil
}

// openStore resolves the --store flag ("memory", a sqlite file path, or a
// MySQL DSN prefixed "mysql://") into a store.Store.
func openStore(dsn string) (store.Store, error) {
	switch {
	case dsn == "" || dsn == "memory":
		return store.NewMemoryStore(nil), nil
	case len(dsn) > 8 && dsn[:8] == "mysql://":
		return store.NewMySQLStore(dsn[8:])
	default:
		return store.NewSQLiteStore(dsn)
	}
}

// newWorkflowID returns a fresh run identifier when the caller didn't supply
// one via --workflow-id.
func newWorkflowID() string { return uuid.NewString() }

// defaultEmitter returns the slog-backed emitter conductorctl uses for every
// run and resume.
func defaultEmitter() emit.Emitter {
	return emit.NewSlogEmitter(slog.Default())
}
