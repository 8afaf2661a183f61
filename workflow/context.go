package workflow

// Reserved context keys threaded through a task's rendered context, per
// spec.md §3 "Task context": `__current_task`, `__state`, `__task_states`
// plus the with-items bindings `__item`/`__result` consumed by exprlang's
// native-dialect item()/result() functions (workflow/exprlang/native.go).
const (
	keyCurrentTask = "__current_task"
	keyState       = "__state"
	keyTaskStates  = "__task_states"
)

// currentTaskRef is the value bound to __current_task in a rendered
// context, identifying the task instance the context belongs to.
type currentTaskRef struct {
	ID    int `json:"id"`
	Route int `json:"route"`
}

// runtimeContext returns entry's merged context (spec.md §3 "Contexts are
// composed by merge: base workflow vars → inherited context along the
// predecessor edge → locally published vars") enriched with the reserved
// keys a runtime expects when handed a task to execute. These keys are
// computed at render time only — they are never appended to
// WorkflowState.Contexts, keeping the append-only context list free of
// volatile, point-in-time data (spec.md §3 "Lifecycle").
func (c *Conductor) runtimeContext(entry *TaskStateEntry) map[string]any {
	ctx := c.mergedContext(entry)
	ctx[keyCurrentTask] = currentTaskRef{ID: entry.ID, Route: entry.Route}
	ctx[keyTaskStates] = c.taskStatesView()
	ctx[keyState] = c.stateSnapshot()
	return ctx
}

// taskStatesView derives a {name@route: status} view of every task
// instance so far known to the conductor, for authored expressions that
// inspect sibling outcomes by full instance key rather than by bare name
// (contrast with taskStatusesMap, which the composer's injected
// task_status(name) guard reads from — by-name, last-route-wins).
func (c *Conductor) taskStatesView() map[string]any {
	out := make(map[string]any, len(c.state.Entries))
	for i := range c.state.Entries {
		e := &c.state.Entries[i]
		out[entryKey(e.Name, e.Route)] = string(e.Status)
	}
	return out
}

// stateSnapshot returns the shallow view of the workflow document a
// runtime needs without exposing the full mutable WorkflowState.
func (c *Conductor) stateSnapshot() map[string]any {
	return map[string]any{
		"status":   string(c.state.Status),
		"sequence": append([]int{}, c.state.Sequence...),
	}
}
