package workflow

import (
	"fmt"
	"strings"
)

// conditionCriterion renders the task_status(T) in [...] guard that the
// composer always prepends to a transition's criteria list, wrapped in the
// dialect-A marker, followed by the author-supplied expression if any.
// Grounded on orquesta's composers/mistral.py _compose_transition_criteria.
func conditionCriterion(taskName string, statuses []Status, expr string) []string {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	guard := fmt.Sprintf("<%% task_status(%s) in [%s] %%>", taskName, strings.Join(names, ", "))
	if expr == "" {
		return []string{guard}
	}
	return []string{guard, expr}
}

type composeQueueItem struct {
	name   string
	splits []string
}

// Compose performs a breadth-first walk of spec, starting from every start
// task, producing a WorkflowGraph enriched with barrier/split/cycle routing
// metadata. Preconditions: spec.Inspect() returned empty (spec.md §4.3).
//
// The walk is deterministic: the queue is FIFO and each task's outbound
// transitions are visited in spec order (TaskSpecs.GetNextTasks order).
func Compose(spec WorkflowSpec) (*WorkflowGraph, error) {
	if errs := spec.Inspect(); len(errs) > 0 {
		return nil, &ConductorError{
			Kind:    KindSpecValidation,
			Message: fmt.Sprintf("%d validation error(s): %v", len(errs), errs),
			Cause:   ErrSpecValidation,
		}
	}

	tasks := spec.Tasks()
	g := NewWorkflowGraph()

	var queue []composeQueueItem
	for _, start := range tasks.GetStartTasks() {
		queue = append(queue, composeQueueItem{name: start.TaskName})
	}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		taskName := item.name
		splits := item.splits

		g.AddTask(taskName)

		if tasks.IsJoinTask(taskName) {
			if ts, ok := tasks.GetTask(taskName); ok {
				g.SetBarrier(taskName, parseBarrier(ts.Join))
			}
		}

		if tasks.IsSplitTask(taskName) && !tasks.InCycle(taskName) {
			splits = append(append([]string{}, splits...), taskName)
		}
		g.SetInCycle(taskName, tasks.InCycle(taskName))

		if len(splits) > 0 {
			g.UpdateSplits(taskName, splits)
		}

		for _, next := range tasks.GetNextTasks(taskName) {
			nextName := next.TaskName

			if !g.HasTask(nextName) || !tasks.InCycle(nextName) {
				queue = append(queue, composeQueueItem{name: nextName, splits: append([]string{}, splits...)})
			}

			statuses := tasks.ConditionStatuses(next.Condition)
			criteria := conditionCriterion(taskName, statuses, next.Expr)
			g.AddOrMergeTransition(taskName, nextName, criteria, next.Publish)
		}
	}

	return g, nil
}

// parseBarrier converts a TaskSpec.Join value ("", "all", or an integer
// string) into a Barrier.
func parseBarrier(join string) Barrier {
	if join == "" {
		return Barrier{Kind: BarrierUnset}
	}
	if join == "all" {
		return Barrier{Kind: BarrierAll}
	}
	var n int
	if _, err := fmt.Sscanf(join, "%d", &n); err == nil {
		return Barrier{Kind: BarrierCount, Count: n}
	}
	return Barrier{Kind: BarrierUnset}
}
