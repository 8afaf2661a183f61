// Package emit provides observability event emission for the conductor,
// adapted from the teacher's graph/emit package: the same Emitter contract,
// reworked from a concurrent node-execution engine's event fields
// (RunID/Step/NodeID) to the conductor's own vocabulary (workflow id, task
// name, route, status).
package emit

// Event represents a single observability event emitted while the
// conductor folds requests and action-execution events into state.
//
// Common Msg values: "workflow_status", "task_status", "task_staged",
// "retry_scheduled".
type Event struct {
	// WorkflowID identifies the conductor run that emitted this event.
	WorkflowID string

	// TaskName/Route identify the task instance the event concerns; both
	// are empty for workflow-level events.
	TaskName string
	Route    int

	// Msg is a human-readable description of the event.
	Msg string

	// Meta contains additional structured data specific to this event,
	// e.g. {"from": "running", "to": "succeeded"} for a status change.
	Meta map[string]interface{}
}
