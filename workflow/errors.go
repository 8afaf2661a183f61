package workflow

import "errors"

// Sentinel errors for the conductor's public API. Wrap these with
// errors.Is/errors.As; ConductorError carries the contextual detail.
var (
	// ErrInvalidStatusTransition is returned when a requested status change
	// is not permitted by the status transition matrix (status.go).
	ErrInvalidStatusTransition = errors.New("workflow: invalid status transition")

	// ErrUnknownTask is returned when an operation names a task instance
	// (name, route) that the workflow state does not hold, or an item_id
	// outside a with-items task's list.
	ErrUnknownTask = errors.New("workflow: unknown task")

	// ErrUnknownRoute is returned when an operation names a route index
	// absent from workflow_state.routes.
	ErrUnknownRoute = errors.New("workflow: unknown route")

	// ErrSpecValidation is returned by Compose when spec.Inspect() reports
	// errors; composition refuses to run against an invalid spec.
	ErrSpecValidation = errors.New("workflow: spec validation failed")

	// ErrNotRunning names the case of a workflow that is not in a status
	// that can produce runnable tasks. GetNextTasks does not return it: it
	// returns an empty list in that case.
	ErrNotRunning = errors.New("workflow: not running")

	// ErrNotTerminal is returned by GetWorkflowOutput when the workflow has
	// not yet reached a terminal status.
	ErrNotTerminal = errors.New("workflow: not terminal")
)

// ErrorKind classifies a ConductorError for programmatic handling, mirroring
// the error-kind taxonomy of spec.md §7 rather than Go's type system, since
// callers typically branch on kind rather than on concrete type.
type ErrorKind string

const (
	KindInvalidStatusTransition ErrorKind = "InvalidStatusTransition"
	KindExpressionEvaluation    ErrorKind = "ExpressionEvaluationError"
	KindUnknownTask             ErrorKind = "UnknownTask"
	KindUnknownRoute            ErrorKind = "UnknownRoute"
	KindSpecValidation          ErrorKind = "SpecValidationError"
	KindExhaustedRetries        ErrorKind = "ExhaustedRetries"
)

// ConductorError is a structured error carrying enough context to localize a
// failure to a task instance, grounded on the teacher's NodeError
// (graph/node.go): a Kind + human Message + optional TaskID/Route + wrapped
// Cause.
type ConductorError struct {
	Kind    ErrorKind
	Message string
	TaskID  string
	Route   int
	Cause   error
}

func (e *ConductorError) Error() string {
	if e.TaskID != "" {
		return string(e.Kind) + ": " + e.Message + " (task " + e.TaskID + ")"
	}
	return string(e.Kind) + ": " + e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is/errors.As against
// the sentinel errors above.
func (e *ConductorError) Unwrap() error { return e.Cause }

// StatusTransitionError reports a rejected status transition. It is always
// wrapped so errors.Is(err, ErrInvalidStatusTransition) succeeds.
type StatusTransitionError struct {
	From, To Status
	IsTask   bool
}

func (e *StatusTransitionError) Error() string {
	subject := "workflow"
	if e.IsTask {
		subject = "task"
	}
	return "workflow: invalid " + subject + " status transition from " + string(e.From) + " to " + string(e.To)
}

func (e *StatusTransitionError) Unwrap() error { return ErrInvalidStatusTransition }
