package specnative

import (
	"testing"

	"github.com/wfcore/conductor/workflow"
)

const linearYAML = `
vars:
  greeting: hello
tasks:
  fetch:
    action: core.fetch
    input:
      url: "<% ctx().url %>"
    next:
      - do: parse
        publish:
          data: "<% result() %>"
  parse:
    action: core.parse
output:
  data: "<% ctx().data %>"
`

func TestParse_Linear(t *testing.T) {
	spec, err := Parse([]byte(linearYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if errs := spec.Inspect(); len(errs) != 0 {
		t.Fatalf("Inspect errors: %v", errs)
	}

	if got := spec.Vars()["greeting"]; got != "hello" {
		t.Errorf("Vars()[greeting] = %v, want hello", got)
	}
	if got := spec.Outputs()["data"]; got != "<% ctx().data %>" {
		t.Errorf("Outputs()[data] = %q", got)
	}

	tasks := spec.Tasks()
	starts := tasks.GetStartTasks()
	if len(starts) != 1 || starts[0].TaskName != "fetch" {
		t.Fatalf("GetStartTasks() = %+v, want [fetch]", starts)
	}

	next := tasks.GetNextTasks("fetch")
	if len(next) != 1 || next[0].TaskName != "parse" || next[0].Condition != "on-success" {
		t.Fatalf("GetNextTasks(fetch) = %+v", next)
	}
	if next[0].Publish["data"] != "<% result() %>" {
		t.Errorf("Publish[data] = %q", next[0].Publish["data"])
	}

	if tasks.IsSplitTask("parse") {
		t.Error("parse should not be a split task")
	}
	if tasks.InCycle("fetch") || tasks.InCycle("parse") {
		t.Error("linear spec has no cycles")
	}
}

const splitYAML = `
tasks:
  s:
    action: core.noop
    next: [{do: a}, {do: b}]
  a:
    action: core.noop
    next: [{do: c}]
  b:
    action: core.noop
    next: [{do: c}]
  c:
    action: core.noop
    join: all
`

func TestParse_SplitAndJoin(t *testing.T) {
	spec, err := Parse([]byte(splitYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if errs := spec.Inspect(); len(errs) != 0 {
		t.Fatalf("Inspect errors: %v", errs)
	}

	tasks := spec.Tasks()
	if !tasks.IsSplitTask("s") {
		t.Error("s should be a split task (two distinct successors, a and b)")
	}
	if tasks.IsSplitTask("a") || tasks.IsSplitTask("b") || tasks.IsSplitTask("c") {
		t.Error("a, b, and c each have at most one successor and are not splits")
	}
	if !tasks.IsJoinTask("c") {
		t.Error("c should be a join task")
	}
	ts, ok := tasks.GetTask("c")
	if !ok || ts.Join != "all" {
		t.Fatalf("GetTask(c) = %+v, ok=%v", ts, ok)
	}

	starts := tasks.GetStartTasks()
	if len(starts) != 1 || starts[0].TaskName != "s" {
		t.Fatalf("GetStartTasks() = %+v, want [s]", starts)
	}
}

const cycleYAML = `
tasks:
  start:
    action: core.noop
    next: [{do: loop}]
  loop:
    action: core.noop
    next:
      - do: loop
        when: "<% ctx().again %>"
      - do: done
  done:
    action: core.noop
`

func TestParse_Cycle(t *testing.T) {
	spec, err := Parse([]byte(cycleYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if errs := spec.Inspect(); len(errs) != 0 {
		t.Fatalf("Inspect errors: %v", errs)
	}

	tasks := spec.Tasks()
	if !tasks.InCycle("loop") {
		t.Error("loop has a self-transition and should be in cycle")
	}
	if tasks.InCycle("start") || tasks.InCycle("done") {
		t.Error("start/done are not in any cycle")
	}
}

func TestInspect_CatchesBadReferences(t *testing.T) {
	bad := `
tasks:
  a:
    action: core.noop
    next:
      - do: nonexistent
`
	spec, err := Parse([]byte(bad))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	errs := spec.Inspect()
	if len(errs) == 0 {
		t.Fatal("expected Inspect to flag the undeclared next target")
	}
}

func TestInspect_CatchesBadJoin(t *testing.T) {
	bad := `
tasks:
  a:
    action: core.noop
    join: "maybe"
`
	spec, err := Parse([]byte(bad))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	errs := spec.Inspect()
	if len(errs) == 0 {
		t.Fatal("expected Inspect to flag the invalid join value")
	}
}

func TestConditionStatuses_Defaults(t *testing.T) {
	spec, err := Parse([]byte(linearYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	tasks := spec.Tasks()

	got := tasks.ConditionStatuses("on-success")
	if len(got) != 1 || got[0] != workflow.StatusSucceeded {
		t.Errorf("ConditionStatuses(on-success) = %v", got)
	}

	got = tasks.ConditionStatuses("on-error")
	if len(got) == 0 {
		t.Error("ConditionStatuses(on-error) should be non-empty")
	}
}

func TestConditionStatuses_CustomOverride(t *testing.T) {
	custom := `
conditions:
  on-success: [succeeded, abandoned]
tasks:
  a:
    action: core.noop
`
	spec, err := Parse([]byte(custom))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := spec.Tasks().ConditionStatuses("on-success")
	if len(got) != 2 {
		t.Fatalf("ConditionStatuses(on-success) = %v, want 2 entries", got)
	}
}

func TestSerialize_RoundTrips(t *testing.T) {
	spec, err := Parse([]byte(linearYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	data, err := spec.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	reparsed, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if errs := reparsed.Inspect(); len(errs) != 0 {
		t.Fatalf("reparsed Inspect errors: %v", errs)
	}
	if reparsed.Vars()["greeting"] != "hello" {
		t.Errorf("round-tripped Vars()[greeting] = %v", reparsed.Vars()["greeting"])
	}
}

func TestGetTask_WithItemsAndRetry(t *testing.T) {
	src := `
tasks:
  fanout:
    action: core.process
    with:
      items: "<% ctx().items %>"
      concurrency: 3
    retry:
      count: 2
      when: "<% not success() %>"
      delay: 500
`
	spec, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ts, ok := spec.Tasks().GetTask("fanout")
	if !ok {
		t.Fatal("GetTask(fanout) not found")
	}
	if ts.With == nil || ts.With.Concurrency != 3 {
		t.Fatalf("With = %+v", ts.With)
	}
	if ts.Retry == nil || ts.Retry.Count != 2 || ts.Retry.Delay != 500 {
		t.Fatalf("Retry = %+v", ts.Retry)
	}
}
