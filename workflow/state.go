package workflow

import "fmt"

// Route is a linear history of split decisions: an ordered sequence of
// split-task names. The root route is the empty sequence, always stored at
// index 0.
type Route []string

// ParentRoute strips the most recent split, used when predecessors from
// distinct routes rejoin at a join task (spec.md §4.4).
func (r Route) ParentRoute() Route {
	if len(r) == 0 {
		return Route{}
	}
	cp := make(Route, len(r)-1)
	copy(cp, r[:len(r)-1])
	return cp
}

func (r Route) equal(o Route) bool {
	if len(r) != len(o) {
		return false
	}
	for i := range r {
		if r[i] != o[i] {
			return false
		}
	}
	return true
}

// Fork appends splitTask to r, yielding the route a successor at a split
// task forks onto.
func (r Route) Fork(splitTask string) Route {
	cp := make(Route, len(r)+1)
	copy(cp, r)
	cp[len(r)] = splitTask
	return cp
}

// taskKey uniquely identifies a task instance by (name, route index).
type taskKey struct {
	name  string
	route int
}

func (k taskKey) String() string { return fmt.Sprintf("%s@%d", k.name, k.route) }

// RetryState tracks a task's retry tally.
type RetryState struct {
	Count int   `json:"count"`
	Delay int64 `json:"delay"`
	Tally int   `json:"tally"`
}

// TaskStateEntry is a single task instance's full record, per spec.md §3.
type TaskStateEntry struct {
	ID     int            `json:"id"`
	Name   string         `json:"name"`
	Route  int            `json:"route"`
	Ctxs   []int          `json:"ctxs"`
	Prev   map[string]string `json:"prev"` // "name@route" -> transition label
	Next   map[string]string `json:"next"`
	Status Status         `json:"status"`
	Term   bool           `json:"term,omitempty"`
	Retry  *RetryState    `json:"retry,omitempty"`

	// Items holds with-items expansion bookkeeping; nil for non-with-items
	// tasks.
	Items *ItemsState `json:"items,omitempty"`
}

// StagedTask is a runnable-but-not-yet-dispatched task entry, removed from
// WorkflowState.Staged once the task has no more pending work.
type StagedTask struct {
	Name    string           `json:"name"`
	Route   int              `json:"route"`
	Ctxs    []int            `json:"ctxs"`
	Ready   bool             `json:"ready"`
	Items   []int            `json:"items,omitempty"`   // item ids currently dispatched (with-items)
	Actions []RenderedAction `json:"actions,omitempty"` // rendered action calls to hand to the runtime
}

// RenderedAction is a single action-execution request surfaced to the
// caller via GetNextTasks.
type RenderedAction struct {
	Action string         `json:"action"`
	Input  map[string]any `json:"input"`
	ItemID *int           `json:"item_id,omitempty"`
}

// StateError is an evaluation or rendering error localized to a task
// instance, accumulated in WorkflowState.Errors (spec.md §7).
type StateError struct {
	TaskID     string `json:"task_id,omitempty"`
	Route      int    `json:"route,omitempty"`
	Expression string `json:"expression"`
	Message    string `json:"message"`
}

// WorkflowState is the serializable mutable document described by
// spec.md §3. All mutation happens through Conductor; WorkflowState itself
// only exposes query/append primitives so that invariants (append-only
// contexts/routes, id resolution) are enforced in one place.
type WorkflowState struct {
	Contexts []map[string]any `json:"contexts"`
	Routes   []Route          `json:"routes"`
	Sequence []int            `json:"sequence"` // entry indices, in terminal-or-later-active order
	Staged   []StagedTask     `json:"staged"`
	Entries  []TaskStateEntry `json:"entries"`
	Tasks    map[string]int   `json:"tasks"` // "name@route" -> index into Entries

	Status Status            `json:"status"`
	Output map[string]any    `json:"output,omitempty"`
	Errors []StateError      `json:"errors,omitempty"`
}

// NewWorkflowState returns a state seeded with the root context and root
// route, status Unset.
func NewWorkflowState(rootCtx map[string]any) *WorkflowState {
	return &WorkflowState{
		Contexts: []map[string]any{cloneCtx(rootCtx)},
		Routes:   []Route{{}},
		Tasks:    map[string]int{},
		Status:   StatusUnset,
	}
}

func cloneCtx(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// AddContext appends an immutable context snapshot and returns its index.
// Contexts are never mutated in place (spec.md §3 invariant).
func (s *WorkflowState) AddContext(ctx map[string]any) int {
	s.Contexts = append(s.Contexts, cloneCtx(ctx))
	return len(s.Contexts) - 1
}

// Context returns the context at idx.
func (s *WorkflowState) Context(idx int) map[string]any {
	if idx < 0 || idx >= len(s.Contexts) {
		return nil
	}
	return s.Contexts[idx]
}

// AddRoute appends a new split-history and returns its index.
func (s *WorkflowState) AddRoute(r Route) int {
	s.Routes = append(s.Routes, r)
	return len(s.Routes) - 1
}

// FindRoute returns the index of an existing route equal to r, or -1.
func (s *WorkflowState) FindRoute(r Route) int {
	for i, existing := range s.Routes {
		if existing.equal(r) {
			return i
		}
	}
	return -1
}

// RouteOrCreate returns the index of r, creating it if absent.
func (s *WorkflowState) RouteOrCreate(r Route) int {
	if i := s.FindRoute(r); i >= 0 {
		return i
	}
	return s.AddRoute(r)
}

func entryKey(name string, route int) string {
	return taskKey{name: name, route: route}.String()
}

// GetEntry returns the task entry for (name, route), or nil.
func (s *WorkflowState) GetEntry(name string, route int) *TaskStateEntry {
	idx, ok := s.Tasks[entryKey(name, route)]
	if !ok {
		return nil
	}
	return &s.Entries[idx]
}

// NewEntry creates and indexes a task entry the first time the conductor
// stages the task or records an inbound transition to it. Returns the new
// entry's pointer (live view into Entries).
func (s *WorkflowState) NewEntry(name string, route int, ctxs []int) *TaskStateEntry {
	e := TaskStateEntry{
		ID:     len(s.Entries),
		Name:   name,
		Route:  route,
		Ctxs:   append([]int{}, ctxs...),
		Prev:   map[string]string{},
		Next:   map[string]string{},
		Status: StatusUnset,
	}
	s.Entries = append(s.Entries, e)
	idx := len(s.Entries) - 1
	s.Tasks[entryKey(name, route)] = idx
	return &s.Entries[idx]
}

// MarkTerminalIfDone appends the entry's index to Sequence the first time it
// reaches a COMPLETED status (spec.md §3 Lifecycle).
func (s *WorkflowState) MarkTerminalIfDone(e *TaskStateEntry) {
	if e.Term {
		return
	}
	if IsCompleted(e.Status) {
		e.Term = true
		s.Sequence = append(s.Sequence, s.Tasks[entryKey(e.Name, e.Route)])
	}
}

// GetStagedTask returns the staged entry for (name, route), or nil.
func (s *WorkflowState) GetStagedTask(name string, route int) *StagedTask {
	for i := range s.Staged {
		if s.Staged[i].Name == name && s.Staged[i].Route == route {
			return &s.Staged[i]
		}
	}
	return nil
}

// RemoveStagedTask drops the staged entry for (name, route), used once a
// task has no more pending work.
func (s *WorkflowState) RemoveStagedTask(name string, route int) {
	for i := range s.Staged {
		if s.Staged[i].Name == name && s.Staged[i].Route == route {
			s.Staged = append(s.Staged[:i], s.Staged[i+1:]...)
			return
		}
	}
}

// UpsertStagedTask adds or replaces the staged entry for (name, route).
func (s *WorkflowState) UpsertStagedTask(t StagedTask) {
	for i := range s.Staged {
		if s.Staged[i].Name == t.Name && s.Staged[i].Route == t.Route {
			s.Staged[i] = t
			return
		}
	}
	s.Staged = append(s.Staged, t)
}

// AddError appends an expression/rendering error to Errors.
func (s *WorkflowState) AddError(e StateError) {
	s.Errors = append(s.Errors, e)
}
