package specnative

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/wfcore/conductor/workflow"
)

// Spec is a parsed native-dialect workflow spec, implementing
// workflow.WorkflowSpec. Build one with Parse.
type Spec struct {
	doc  *doc
	info *taskGraphInfo
}

// Parse reads a native-dialect YAML document into a Spec. Parse does not
// validate the spec's semantics — call Inspect (directly, or implicitly via
// workflow.Compose) before relying on the result.
func Parse(data []byte) (*Spec, error) {
	d, err := parseDoc(data)
	if err != nil {
		return nil, err
	}
	return &Spec{doc: d, info: buildTaskGraphInfo(d)}, nil
}

func (s *Spec) Tasks() workflow.TaskSpecs { return &nativeTasks{s: s} }

func (s *Spec) Vars() map[string]any { return s.doc.Vars }

func (s *Spec) Outputs() map[string]string { return s.doc.Output }

// Inspect validates structural properties Compose depends on: every `next.do`
// target must name a declared task, every `join` value must parse, and every
// `next.condition` must resolve against the conditions table.
func (s *Spec) Inspect() []string {
	var errs []string
	for name, t := range s.doc.Tasks {
		if t.Action == "" && t.With == nil {
			errs = append(errs, fmt.Sprintf("task %q: action is required", name))
		}
		if t.Join != "" && t.Join != "all" {
			var n int
			if _, err := fmt.Sscanf(t.Join, "%d", &n); err != nil || n < 1 {
				errs = append(errs, fmt.Sprintf("task %q: invalid join value %q", name, t.Join))
			}
		}
		for _, next := range t.Next {
			if _, ok := s.doc.Tasks[next.Do]; !ok {
				errs = append(errs, fmt.Sprintf("task %q: next references undeclared task %q", name, next.Do))
				continue
			}
			cond := next.Condition
			if cond == "" {
				cond = "on-success"
			}
			if _, ok := s.doc.Conditions[cond]; !ok {
				errs = append(errs, fmt.Sprintf("task %q: next references undeclared condition %q", name, cond))
			}
		}
	}
	if len(s.doc.Tasks) > 0 && len(s.startTaskNames()) == 0 {
		errs = append(errs, "spec has no start task (every task has an inbound transition)")
	}
	return errs
}

// Serialize round-trips the spec back to its native YAML form, for
// persistence alongside a Conductor's own Serialize output.
func (s *Spec) Serialize() ([]byte, error) {
	return yaml.Marshal(s.doc)
}

// Deserialize parses data as a native-dialect spec. Present as a package
// function (mirroring Parse) rather than a method, since a WorkflowSpec is
// constructed fresh from bytes, never mutated in place.
func Deserialize(data []byte) (workflow.WorkflowSpec, error) {
	return Parse(data)
}

func (s *Spec) startTaskNames() []string {
	var names []string
	for name := range s.doc.Tasks {
		if len(s.info.predecessors[name]) == 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// nativeTasks is the workflow.TaskSpecs view over a parsed Spec.
type nativeTasks struct {
	s *Spec
}

func (t *nativeTasks) GetStartTasks() []workflow.TransitionRecord {
	names := t.s.startTaskNames()
	out := make([]workflow.TransitionRecord, len(names))
	for i, name := range names {
		out[i] = workflow.TransitionRecord{TaskName: name}
	}
	return out
}

func (t *nativeTasks) GetNextTasks(name string) []workflow.TransitionRecord {
	task, ok := t.s.doc.Tasks[name]
	if !ok {
		return nil
	}
	out := make([]workflow.TransitionRecord, 0, len(task.Next))
	for _, n := range task.Next {
		condition := n.Condition
		if condition == "" {
			condition = "on-success"
		}
		out = append(out, workflow.TransitionRecord{
			TaskName:  n.Do,
			Expr:      n.When,
			Condition: condition,
			Publish:   n.Publish,
		})
	}
	return out
}

func (t *nativeTasks) IsJoinTask(name string) bool {
	task, ok := t.s.doc.Tasks[name]
	return ok && task.Join != ""
}

func (t *nativeTasks) IsSplitTask(name string) bool {
	return len(t.s.info.successors[name]) > 1
}

func (t *nativeTasks) InCycle(name string) bool {
	return t.s.info.inCycle[name]
}

func (t *nativeTasks) GetTask(name string) (workflow.TaskSpec, bool) {
	task, ok := t.s.doc.Tasks[name]
	if !ok {
		return workflow.TaskSpec{}, false
	}

	spec := workflow.TaskSpec{
		Name:   name,
		Action: task.Action,
		Input:  task.Input,
		Join:   task.Join,
		Next:   t.GetNextTasks(name),
	}
	if task.With != nil {
		spec.With = &workflow.WithItemsSpec{
			Items:       task.With.Items,
			Concurrency: task.With.Concurrency,
		}
	}
	if task.Retry != nil {
		spec.Retry = &workflow.RetrySpec{
			Count: task.Retry.Count,
			When:  task.Retry.When,
			Delay: task.Retry.Delay,
		}
	}
	return spec, true
}

func (t *nativeTasks) ConditionStatuses(condition string) []workflow.Status {
	names, ok := t.s.doc.Conditions[condition]
	if !ok {
		return nil
	}
	out := make([]workflow.Status, len(names))
	for i, n := range names {
		out[i] = workflow.Status(n)
	}
	return out
}
