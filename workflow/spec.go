package workflow

// WorkflowSpec is consumed by the composer and conductor, never produced by
// them (spec.md §6). Two dialects exist upstream (native and foreign); both
// are represented through this single interface so the composer and
// conductor depend only on it, never on a concrete dialect (Design Notes §9).
type WorkflowSpec interface {
	// Tasks returns the task-graph view of the spec.
	Tasks() TaskSpecs

	// Vars returns the declared workflow variables, merged into the root
	// context alongside runtime inputs at conductor construction.
	Vars() map[string]any

	// Outputs returns the declared output-name -> expression map, rendered
	// once against the final context when the workflow reaches a terminal
	// status.
	Outputs() map[string]string

	// Inspect validates the spec and returns a (possibly empty) list of
	// validation errors. Compose refuses to run unless Inspect returns
	// empty (ErrSpecValidation).
	Inspect() []string

	// Serialize/Deserialize round-trip the spec for conductor persistence
	// (spec.md §6 "Conductor serialization").
	Serialize() ([]byte, error)
}

// TaskSpecs is the task-graph-shaped view a WorkflowSpec exposes to the
// composer, matching the capabilities enumerated in spec.md §6.
type TaskSpecs interface {
	// GetStartTasks returns every task with no incoming transitions, as
	// (name, expr, condition) triples mirroring the transition records
	// the composer consumes for every other task via GetNextTasks.
	GetStartTasks() []TransitionRecord

	// GetNextTasks returns the outbound transitions of name, in spec
	// order (the composer's BFS walk is deterministic over this order).
	GetNextTasks(name string) []TransitionRecord

	// IsJoinTask reports whether name declares `join: all` or `join: N`.
	IsJoinTask(name string) bool

	// IsSplitTask reports whether name forks into more than one distinct
	// outbound successor (cyclic/back edges excluded). A split task causes
	// the conductor to allocate a new route per firing successor.
	IsSplitTask(name string) bool

	// InCycle reports whether name belongs to a strongly connected
	// component of size >1, or has a self-loop.
	InCycle(name string) bool

	// GetTask returns the full task definition for name.
	GetTask(name string) (TaskSpec, bool)

	// ConditionStatuses maps a transition condition name to the set of
	// task statuses it is satisfied by. For the foreign dialect this is
	// fixed (on-success/on-error/on-complete); for the native dialect it
	// is spec-defined per workflow.
	ConditionStatuses(condition string) []Status
}

// TransitionRecord is a (next task, optional author expression, condition)
// triple, named identically across GetStartTasks/GetNextTasks per spec.md §6.
type TransitionRecord struct {
	TaskName  string
	Expr      string
	Condition string

	// Publish maps a variable name to the expression (against the firing
	// predecessor's context) that produces its published value. Evaluated
	// once per fire when the transition's criteria are truthy
	// (spec.md §4.4 "Contexts").
	Publish map[string]string
}

// TaskSpec is a single task's definition as consumed by the composer and
// conductor.
type TaskSpec struct {
	Name   string
	Action string
	Input  map[string]string // rendered per spec.md §7 via exprlang
	With   *WithItemsSpec
	Retry  *RetrySpec
	Join   string // "" (not a join), "all", or a decimal integer string
	Next   []TransitionRecord
}

// WithItemsSpec describes a with-items iteration, spec.md §4.4.
type WithItemsSpec struct {
	// Items is the expression evaluated to a finite ordered sequence.
	Items string

	// Concurrency, if >0, bounds the number of simultaneously dispatched
	// items. Zero means unbounded (dispatch all at once).
	Concurrency int
}

// RetrySpec describes a task's retry policy, spec.md §4.4.
type RetrySpec struct {
	Count int
	When  string // optional expression; empty means unconditional retry
	Delay int64  // milliseconds, reported to the caller but never enforced
}
