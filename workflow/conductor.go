package workflow

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/wfcore/conductor/workflow/emit"
	"github.com/wfcore/conductor/workflow/exprlang"
)

// ActionExecutionEvent is the unit of external input the conductor folds
// into its state (spec.md §6). Context carries event-scoped overrides; for
// with-items tasks, Context["item_id"] identifies which item the event
// belongs to.
type ActionExecutionEvent struct {
	Status  Status
	Result  any
	Context map[string]any
}

// RenderedTask is a single runnable task entry as returned by GetNextTasks,
// per spec.md §4.4's `{id, name, route, ctx, spec, actions?, items_count?,
// concurrency?, delay?}` shape.
type RenderedTask struct {
	ID    int            `json:"id"`
	Name  string         `json:"name"`
	Route int            `json:"route"`
	Ctx   map[string]any `json:"ctx"`

	// Action/Input are populated for a plain (non-with-items) task.
	Action string         `json:"action,omitempty"`
	Input  map[string]any `json:"input,omitempty"`

	// Actions carries the currently dispatchable batch for a with-items
	// task; Action/Input are left unset in that case.
	Actions     []RenderedAction `json:"actions,omitempty"`
	ItemsCount  *int             `json:"items_count,omitempty"`
	Concurrency *int             `json:"concurrency,omitempty"`

	Delay *int64 `json:"delay,omitempty"`
}

// Conductor is the single-threaded, event-driven state machine described in
// spec.md §4.4/§5. It never spawns goroutines, performs I/O, or blocks; all
// mutation happens inside RequestWorkflowStatus/UpdateTaskState, grounded on
// the teacher's Engine (graph/engine.go) but reworked from a concurrent
// scheduler into a synchronous fold over events.
type Conductor struct {
	graph  *WorkflowGraph
	spec   WorkflowSpec
	tasks  TaskSpecs
	state  *WorkflowState
	inputs map[string]any
	exprs  *exprlang.Registry

	id      string
	emitter emit.Emitter
	metrics *Metrics
	clock   func() time.Time
}

// New composes spec into a graph, seeds workflow state from spec.Vars()
// merged with inputs, and leaves workflow status UNSET — the caller drives
// it to RUNNING via RequestWorkflowStatus (spec.md §4.4 "new").
func New(spec WorkflowSpec, inputs map[string]any, opts ...Option) (*Conductor, error) {
	g, err := Compose(spec)
	if err != nil {
		return nil, err
	}
	cfg := defaultConductorConfig()
	for _, o := range opts {
		if err := o(cfg); err != nil {
			return nil, err
		}
	}

	root := map[string]any{}
	for k, v := range spec.Vars() {
		root[k] = v
	}
	for k, v := range inputs {
		root[k] = v
	}

	c := &Conductor{
		graph:   g,
		spec:    spec,
		tasks:   spec.Tasks(),
		state:   NewWorkflowState(root),
		inputs:  inputs,
		exprs:   cfg.exprs,
		id:      cfg.id,
		emitter: cfg.emitter,
		metrics: cfg.metrics,
		clock:   cfg.clock,
	}
	return c, nil
}

// Deserialize restores a Conductor from Serialize's output. Spec parsing is
// an external collaborator (spec.md §1): the caller supplies the already
// decoded WorkflowSpec rather than this function reconstructing one.
func Deserialize(data []byte, spec WorkflowSpec, opts ...Option) (*Conductor, error) {
	var doc conductorDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	cfg := defaultConductorConfig()
	for _, o := range opts {
		if err := o(cfg); err != nil {
			return nil, err
		}
	}
	return &Conductor{
		graph:   doc.Graph,
		spec:    spec,
		tasks:   spec.Tasks(),
		state:   doc.State,
		inputs:  doc.Inputs,
		exprs:   cfg.exprs,
		id:      cfg.id,
		emitter: cfg.emitter,
		metrics: cfg.metrics,
		clock:   cfg.clock,
	}, nil
}

type conductorDoc struct {
	Version int            `json:"version"`
	Graph   *WorkflowGraph `json:"graph"`
	Spec    string         `json:"spec"`
	Inputs  map[string]any `json:"inputs"`
	State   *WorkflowState `json:"state"`
}

const conductorSchemaVersion = 1

// Serialize renders the full conductor document (spec.md §6 "Conductor
// serialization"): graph, serialized spec, inputs, workflow state, version.
func (c *Conductor) Serialize() ([]byte, error) {
	specBytes, err := c.spec.Serialize()
	if err != nil {
		return nil, err
	}
	doc := conductorDoc{
		Version: conductorSchemaVersion,
		Graph:   c.graph,
		Spec:    string(specBytes),
		Inputs:  c.inputs,
		State:   c.state,
	}
	return json.Marshal(doc)
}

// GetWorkflowStatus returns the current workflow status.
func (c *Conductor) GetWorkflowStatus() Status { return c.state.Status }

// SetWorkflowState replaces the conductor's mutable document wholesale,
// validating that the incoming status is a recognized value.
func (c *Conductor) SetWorkflowState(s *WorkflowState) error {
	if !IsValidWorkflowStatus(s.Status) {
		return ErrInvalidStatusTransition
	}
	c.state = s
	return nil
}

// RequestWorkflowStatus validates and applies a workflow-level status
// change, special-casing cancellation and pause requests per spec.md §4.4.
func (c *Conductor) RequestWorkflowStatus(s Status) error {
	cur := c.state.Status
	target := s

	switch s {
	case StatusCanceling, StatusCanceled:
		if len(c.activeEntries()) > 0 {
			target = StatusCanceling
		} else {
			target = StatusCanceled
		}
	case StatusPaused:
		if cur == StatusRunning {
			target = StatusPausing
		}
	}

	if !IsValidWorkflowStatusTransition(cur, target) {
		return &StatusTransitionError{From: cur, To: target}
	}
	c.state.Status = target
	c.emitEvent("", 0, "workflow_status", map[string]any{"from": string(cur), "to": string(target)})
	c.metrics.observeWorkflowStatus(target)

	switch {
	case target == StatusRunning && cur == StatusUnset:
		c.stageStartTasks()
	case target == StatusCanceling:
		c.beginCancellation()
	case target == StatusCanceled:
		c.renderOutput()
	}
	c.settleWorkflowStatus()
	return nil
}

// GetWorkflowOutput renders output expressions against the workflow's
// accumulated context, available only once the workflow is terminal.
func (c *Conductor) GetWorkflowOutput() (map[string]any, error) {
	if !IsCompleted(c.state.Status) {
		return nil, ErrNotTerminal
	}
	return c.state.Output, nil
}

// GetNextTasks reads the current staged work without changing any task or
// workflow status. Its one side effect: an input expression that fails to
// evaluate while a task is rendered appends a StateError to the state's
// error list.
func (c *Conductor) GetNextTasks() []RenderedTask {
	if c.state.Status != StatusRunning {
		return nil
	}
	var out []RenderedTask
	for _, st := range c.state.Staged {
		if !st.Ready {
			continue
		}
		entry := c.state.GetEntry(st.Name, st.Route)
		if entry == nil {
			continue
		}
		out = append(out, c.renderTask(st, entry))
	}
	return out
}

func (c *Conductor) renderTask(st StagedTask, entry *TaskStateEntry) RenderedTask {
	ctx := c.runtimeContext(entry)
	rt := RenderedTask{ID: entry.ID, Name: entry.Name, Route: entry.Route, Ctx: ctx}

	ts, _ := c.tasks.GetTask(entry.Name)
	if entry.Items != nil {
		n := entry.Items.Count()
		rt.ItemsCount = &n
		if entry.Items.Concurrency > 0 {
			k := entry.Items.Concurrency
			rt.Concurrency = &k
		}
		rt.Actions = st.Actions
	} else {
		rt.Action = ts.Action
		rt.Input = c.renderInput(ts.Input, ctx)
	}
	if ts.Retry != nil {
		d := ts.Retry.Delay
		rt.Delay = &d
	}
	return rt
}

// UpdateTaskState folds an ActionExecutionEvent into the named task
// instance: advances its status per the transition matrix, and on a
// terminal event evaluates outbound transitions to stage newly-runnable
// successors (spec.md §4.4).
func (c *Conductor) UpdateTaskState(name string, route int, ev ActionExecutionEvent) error {
	if route < 0 || route >= len(c.state.Routes) {
		return &ConductorError{
			Kind: KindUnknownRoute, Message: fmt.Sprintf("no such route %d", route),
			TaskID: name, Route: route, Cause: ErrUnknownRoute,
		}
	}
	entry := c.state.GetEntry(name, route)
	if entry == nil {
		return &ConductorError{
			Kind: KindUnknownTask, Message: fmt.Sprintf("no such task instance %s@%d", name, route),
			TaskID: name, Route: route, Cause: ErrUnknownTask,
		}
	}

	if itemID, ok := itemIDFromEvent(ev); ok && entry.Items != nil {
		return c.updateItemState(entry, itemID, ev)
	}

	if !IsValidTaskStatusTransition(entry.Status, ev.Status) {
		return &ConductorError{
			Kind: KindInvalidStatusTransition, Message: fmt.Sprintf("%s -> %s", entry.Status, ev.Status),
			TaskID: name, Route: route, Cause: ErrInvalidStatusTransition,
		}
	}
	from := entry.Status
	entry.Status = ev.Status
	c.emitEvent(name, route, "task_status", map[string]any{"from": string(from), "to": string(ev.Status)})
	c.metrics.observeTaskStatus(name, ev.Status)

	if !IsCompleted(ev.Status) {
		if st := c.state.GetStagedTask(name, route); st != nil {
			st.Ready = false
		}
		return nil
	}

	ctxIdx := c.appendEventContext(entry, ev)
	entry.Ctxs = append(entry.Ctxs, ctxIdx)

	if IsAbended(ev.Status) && c.maybeRetry(entry, c.mergedContext(entry)) {
		return nil
	}

	c.state.RemoveStagedTask(name, route)
	c.state.MarkTerminalIfDone(entry)
	c.fireOutbound(entry)
	return nil
}

func itemIDFromEvent(ev ActionExecutionEvent) (int, bool) {
	if ev.Context == nil {
		return 0, false
	}
	v, ok := ev.Context["item_id"]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func (c *Conductor) updateItemState(entry *TaskStateEntry, itemID int, ev ActionExecutionEvent) error {
	if itemID < 0 || itemID >= entry.Items.Count() {
		return &ConductorError{
			Kind: KindUnknownTask, Message: fmt.Sprintf("item_id %d out of range", itemID),
			TaskID: entry.Name, Route: entry.Route, Cause: ErrUnknownTask,
		}
	}
	prev := entry.Items.Statuses[itemID]
	if prev != StatusUnset && !IsValidTaskStatusTransition(prev, ev.Status) {
		return &ConductorError{
			Kind: KindInvalidStatusTransition, Message: fmt.Sprintf("item %d: %s -> %s", itemID, prev, ev.Status),
			TaskID: entry.Name, Route: entry.Route, Cause: ErrInvalidStatusTransition,
		}
	}
	entry.Items.RecordResult(itemID, ev.Status, ev.Result)

	rollup := entry.Items.Rollup()
	if rollup != entry.Status && IsValidTaskStatusTransition(entry.Status, rollup) {
		from := entry.Status
		entry.Status = rollup
		c.emitEvent(entry.Name, entry.Route, "task_status", map[string]any{"from": string(from), "to": string(rollup)})
		c.metrics.observeTaskStatus(entry.Name, rollup)
	}

	st := c.state.GetStagedTask(entry.Name, entry.Route)
	if !IsCompleted(rollup) {
		if st != nil {
			c.refreshItemsBatch(entry, st)
		}
		return nil
	}

	if IsAbended(rollup) && c.maybeRetry(entry, c.itemsResultContext(entry)) {
		return nil
	}

	if st != nil {
		st.Actions = nil
	}
	ctxIdx := c.state.AddContext(c.itemsResultContext(entry))
	entry.Ctxs = append(entry.Ctxs, ctxIdx)

	c.state.RemoveStagedTask(entry.Name, entry.Route)
	c.state.MarkTerminalIfDone(entry)
	c.fireOutbound(entry)
	return nil
}

func (c *Conductor) itemsResultContext(entry *TaskStateEntry) map[string]any {
	ctx := c.mergedContext(entry)
	ctx["__result"] = append([]any{}, entry.Items.Results...)
	return ctx
}

func (c *Conductor) appendEventContext(entry *TaskStateEntry, ev ActionExecutionEvent) int {
	merged := c.mergedContext(entry)
	for k, v := range ev.Context {
		merged[k] = v
	}
	merged["__result"] = ev.Result
	return c.state.AddContext(merged)
}

// maybeRetry re-stages entry for another attempt under the same (name,
// route) if its RetrySpec permits it (spec.md §4.4 "Retry").
func (c *Conductor) maybeRetry(entry *TaskStateEntry, ctx map[string]any) bool {
	ts, ok := c.tasks.GetTask(entry.Name)
	if !ok || ts.Retry == nil {
		return false
	}
	if entry.Retry == nil {
		entry.Retry = &RetryState{Count: ts.Retry.Count, Delay: ts.Retry.Delay}
	}
	if entry.Retry.Tally >= entry.Retry.Count {
		return false
	}
	if ts.Retry.When != "" {
		v, err := c.exprs.Evaluate(ts.Retry.When, ctx)
		if err != nil || !isTruthy(v) {
			return false
		}
	}
	entry.Retry.Tally++
	entry.Term = false
	entry.Items = nil
	c.emitEvent(entry.Name, entry.Route, "retry_scheduled", map[string]any{"tally": entry.Retry.Tally, "delay_ms": entry.Retry.Delay})
	c.metrics.observeRetry(entry.Name)
	// stageEntry re-runs the same staging path a fresh instance takes,
	// so a with-items task's iteration is re-expanded rather than the
	// retry silently collapsing it into a plain single action.
	c.stageEntry(entry)
	return true
}

// fireOutbound evaluates every outbound edge of a just-terminated task and
// stages each successor whose criteria evaluate truthy.
func (c *Conductor) fireOutbound(entry *TaskStateEntry) {
	ctx := c.mergedContext(entry)
	ctx["__task_statuses"] = c.taskStatusesMap()

	for _, e := range c.graph.EdgesFrom(entry.Name) {
		ok, err := c.evalCriteria(e.Criteria, ctx)
		if err != nil {
			c.state.AddError(StateError{
				TaskID: entry.Name, Route: entry.Route,
				Expression: strings.Join(e.Criteria, " && "), Message: err.Error(),
			})
			continue
		}
		if ok {
			c.stageSuccessor(entry, e)
		}
	}
	c.settleWorkflowStatus()
}

func (c *Conductor) taskStatusesMap() map[string]any {
	out := map[string]any{}
	for i := range c.state.Entries {
		out[c.state.Entries[i].Name] = string(c.state.Entries[i].Status)
	}
	return out
}

func (c *Conductor) evalCriteria(criteria []string, ctx map[string]any) (bool, error) {
	for _, expr := range criteria {
		v, err := c.exprs.Evaluate(expr, ctx)
		if err != nil {
			return false, err
		}
		if !isTruthy(v) {
			return false, nil
		}
	}
	return true, nil
}

func (c *Conductor) emitEvent(task string, route int, msg string, meta map[string]any) {
	if c.emitter == nil {
		return
	}
	if meta == nil {
		meta = map[string]any{}
	}
	meta["ts"] = c.clock().UTC().Format(time.RFC3339Nano)
	c.emitter.Emit(emit.Event{WorkflowID: c.id, TaskName: task, Route: route, Msg: msg, Meta: meta})
}

func isTruthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	default:
		return true
	}
}

// resolveSuccessorRoute implements the route-forking rule resolved against
// scenario S6 (fork on predecessor-is-split) and S5 (join-parent-route
// merge): a new route is forked whenever the firing predecessor is itself a
// split task (never deduplicated — every outbound firing edge from a split
// gets its own index); a join successor instead shares one route per parent
// route (deduplicated via RouteOrCreate); anything else inherits the
// predecessor's own route unchanged.
func (c *Conductor) resolveSuccessorRoute(pred *TaskStateEntry, successor string) int {
	predRoute := c.state.Routes[pred.Route]
	if c.tasks.IsSplitTask(pred.Name) && !c.tasks.InCycle(pred.Name) {
		return c.state.AddRoute(predRoute.Fork(pred.Name))
	}
	if c.tasks.IsJoinTask(successor) {
		return c.state.RouteOrCreate(predRoute.ParentRoute())
	}
	return pred.Route
}

func (c *Conductor) stageSuccessor(pred *TaskStateEntry, e *Edge) {
	// pred may be stale: a prior iteration of this same fan-out (or any
	// other NewEntry call since pred was obtained) can have grown and
	// reallocated state.Entries, orphaning the caller's pointer. Re-resolve
	// it against the live slice before reading or writing through it.
	pred = c.state.GetEntry(pred.Name, pred.Route)
	route := c.resolveSuccessorRoute(pred, e.To)
	predCtx := c.mergedContext(pred)

	merged := cloneCtx(predCtx)
	for k, expr := range e.Publish {
		v, err := c.exprs.Evaluate(expr, predCtx)
		if err != nil {
			c.state.AddError(StateError{TaskID: e.To, Route: route, Expression: expr, Message: err.Error()})
			continue
		}
		merged[k] = v
	}
	ctxIdx := c.state.AddContext(merged)

	entry := c.state.GetEntry(e.To, route)
	if entry == nil {
		entry = c.state.NewEntry(e.To, route, []int{ctxIdx})
	} else {
		entry.Ctxs = append(entry.Ctxs, ctxIdx)
	}

	label := strings.Join(e.Criteria, " && ")
	entry.Prev[entryKey(pred.Name, pred.Route)] = label
	pred.Next[entryKey(e.To, route)] = label

	if entry.Status == StatusUnset && c.barrierSatisfied(entry) {
		c.stageEntry(entry)
	}
}

// barrierSatisfied implements spec.md §4.4's barrier-satisfaction rule,
// resolved against scenario S5: satisfaction counts distinct predecessors
// that fired a truthy edge (entry.Prev), never mere terminality.
func (c *Conductor) barrierSatisfied(entry *TaskStateEntry) bool {
	attrs := c.graph.Attrs(entry.Name)
	fired := len(entry.Prev)
	if attrs == nil {
		return fired >= 1
	}
	switch attrs.Barrier.Kind {
	case BarrierAll:
		total := len(c.graph.Predecessors(entry.Name))
		return total > 0 && fired >= total
	case BarrierCount:
		return fired >= attrs.Barrier.Count
	default:
		return fired >= 1
	}
}

func (c *Conductor) mergedContext(entry *TaskStateEntry) map[string]any {
	out := map[string]any{}
	for _, idx := range entry.Ctxs {
		for k, v := range c.state.Context(idx) {
			out[k] = v
		}
	}
	return out
}

func (c *Conductor) stageStartTasks() {
	for _, start := range c.tasks.GetStartTasks() {
		entry := c.state.GetEntry(start.TaskName, 0)
		if entry == nil {
			entry = c.state.NewEntry(start.TaskName, 0, []int{0})
		}
		if entry.Status == StatusUnset {
			c.stageEntry(entry)
		}
	}
}

// stageEntry transitions entry from UNSET to REQUESTED and either stages a
// plain StagedTask or expands a with-items task's iteration (spec.md §4.4
// "With-items expansion", steps 1-3).
func (c *Conductor) stageEntry(entry *TaskStateEntry) {
	entry.Status = StatusRequested
	c.emitEvent(entry.Name, entry.Route, "task_staged", nil)
	c.metrics.observeStaged(entry.Name)
	ts, _ := c.tasks.GetTask(entry.Name)

	if ts.With == nil {
		c.state.UpsertStagedTask(StagedTask{
			Name: entry.Name, Route: entry.Route, Ctxs: append([]int{}, entry.Ctxs...), Ready: true,
		})
		return
	}

	ctx := c.mergedContext(entry)
	seq, err := c.evalItems(ts.With.Items, ctx)
	if err != nil {
		c.state.AddError(StateError{TaskID: entry.Name, Route: entry.Route, Expression: ts.With.Items, Message: err.Error()})
		entry.Status = StatusFailed
		c.state.MarkTerminalIfDone(entry)
		c.fireOutbound(entry)
		return
	}

	entry.Items = NewItemsState(seq, ts.With.Concurrency)
	if entry.Items.Count() == 0 {
		entry.Status = StatusSucceeded
		c.state.MarkTerminalIfDone(entry)
		c.fireOutbound(entry)
		return
	}

	st := StagedTask{Name: entry.Name, Route: entry.Route, Ctxs: append([]int{}, entry.Ctxs...), Ready: true}
	c.refreshItemsBatch(entry, &st)
	c.state.UpsertStagedTask(st)
}

func (c *Conductor) evalItems(expr string, ctx map[string]any) ([]any, error) {
	v, err := c.exprs.Evaluate(expr, ctx)
	if err != nil {
		return nil, err
	}
	switch vv := v.(type) {
	case []any:
		return vv, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("with-items expression did not evaluate to a sequence: %T", v)
	}
}

// refreshItemsBatch dispatches the next available batch of un-dispatched
// items, up to the task's concurrency bound, rendering each as a
// RenderedAction bound to item() (spec.md §4.4 steps 3-4).
func (c *Conductor) refreshItemsBatch(entry *TaskStateEntry, st *StagedTask) {
	batch := entry.Items.NextBatch()
	ts, _ := c.tasks.GetTask(entry.Name)

	actions := make([]RenderedAction, 0, len(batch))
	for _, i := range batch {
		entry.Items.MarkDispatched(i)
		itemCtx := c.mergedContext(entry)
		itemCtx["__item"] = entry.Items.Items[i]
		input := c.renderInput(ts.Input, itemCtx)
		id := i
		actions = append(actions, RenderedAction{Action: ts.Action, Input: input, ItemID: &id})
		c.metrics.observeItemDispatched()
	}
	st.Items = batch
	st.Actions = actions
}

func (c *Conductor) renderInput(spec map[string]string, ctx map[string]any) map[string]any {
	out := make(map[string]any, len(spec))
	for k, expr := range spec {
		v, err := c.exprs.Evaluate(expr, ctx)
		if err != nil {
			c.state.AddError(StateError{Expression: expr, Message: err.Error()})
			continue
		}
		out[k] = v
	}
	return out
}

// activeEntries returns every task instance that has been dispatched
// (status != UNSET) but has not reached a terminal status — the population
// the cancellation protocol and the running/settle rollup both key off.
func (c *Conductor) activeEntries() []*TaskStateEntry {
	var out []*TaskStateEntry
	for i := range c.state.Entries {
		e := &c.state.Entries[i]
		if e.Status != StatusUnset && !IsCompleted(e.Status) {
			out = append(out, e)
		}
	}
	return out
}

// beginCancellation implements spec.md §4.4's cancellation protocol: every
// active task is driven to CANCELING (with-items tasks stop dispatching and
// settle their undispatched items via ItemsState.CancelPending), and any
// staged-but-never-dispatched plain task is canceled and dropped outright.
func (c *Conductor) beginCancellation() {
	active := c.activeEntries()
	if len(active) == 0 {
		c.state.Status = StatusCanceled
		return
	}
	for _, e := range active {
		if e.Status == StatusRequested && e.Items == nil {
			// never dispatched, so no action event will ever settle it
			e.Status = StatusCanceled
			c.state.MarkTerminalIfDone(e)
			continue
		}
		if IsValidTaskStatusTransition(e.Status, StatusCanceling) {
			e.Status = StatusCanceling
		}
		if e.Items != nil {
			e.Items.CancelPending()
		}
	}

	var kept []StagedTask
	for _, st := range c.state.Staged {
		e := c.state.GetEntry(st.Name, st.Route)
		if e != nil && e.Items == nil && (e.Status == StatusCanceling || e.Status == StatusCanceled) {
			continue // plain task with nothing further to hand out; drop it
		}
		kept = append(kept, st)
	}
	c.state.Staged = kept
}

// settleWorkflowStatus rolls workflow status forward once every active task
// has reached a terminal status, per spec.md §4.4.
func (c *Conductor) settleWorkflowStatus() {
	switch c.state.Status {
	case StatusCanceling:
		if len(c.activeEntries()) == 0 {
			c.state.Status = StatusCanceled
			c.emitEvent("", 0, "workflow_status", map[string]any{"from": string(StatusCanceling), "to": string(StatusCanceled)})
			c.metrics.observeWorkflowStatus(StatusCanceled)
			c.renderOutput()
		}
		return
	case StatusRunning:
		// fall through to the settle check below
	default:
		return
	}

	if len(c.activeEntries()) > 0 || len(c.state.Staged) > 0 {
		return
	}
	from := c.state.Status
	if c.anyAbended() {
		c.state.Status = StatusFailed
	} else {
		c.state.Status = StatusSucceeded
	}
	c.emitEvent("", 0, "workflow_status", map[string]any{"from": string(from), "to": string(c.state.Status)})
	c.metrics.observeWorkflowStatus(c.state.Status)
	c.renderOutput()
}

func (c *Conductor) anyAbended() bool {
	for i := range c.state.Entries {
		if IsAbended(c.state.Entries[i].Status) {
			return true
		}
	}
	return false
}

// renderOutput evaluates every declared output expression against the
// union of every context snapshot created during the run (spec.md §4.4
// "Output rendering"). Evaluation errors are collected but never revert the
// already-settled status (spec.md §7).
func (c *Conductor) renderOutput() {
	ctx := map[string]any{}
	for _, m := range c.state.Contexts {
		for k, v := range m {
			ctx[k] = v
		}
	}
	out := map[string]any{}
	for name, expr := range c.spec.Outputs() {
		v, err := c.exprs.Evaluate(expr, ctx)
		if err != nil {
			c.state.AddError(StateError{Expression: expr, Message: err.Error()})
			continue
		}
		out[name] = v
	}
	c.state.Output = out
}
