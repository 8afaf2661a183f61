package emit

import (
	"context"
	"log/slog"
	"testing"
)

func TestNullEmitterDiscardsEverything(t *testing.T) {
	n := NewNullEmitter()
	n.Emit(Event{Msg: "task_staged"})
	if err := n.EmitBatch(context.Background(), []Event{{Msg: "a"}, {Msg: "b"}}); err != nil {
		t.Fatalf("EmitBatch: %v", err)
	}
	if err := n.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func TestBufferedEmitterRecordsPerWorkflowHistory(t *testing.T) {
	b := NewBufferedEmitter()
	b.Emit(Event{WorkflowID: "wf1", TaskName: "fetch", Msg: "task_staged"})
	b.Emit(Event{WorkflowID: "wf1", TaskName: "parse", Msg: "task_status"})
	b.Emit(Event{WorkflowID: "wf2", TaskName: "fetch", Msg: "task_staged"})

	wf1 := b.GetHistory("wf1")
	if len(wf1) != 2 {
		t.Fatalf("expected 2 events for wf1, got %d", len(wf1))
	}
	if wf1[0].TaskName != "fetch" || wf1[1].TaskName != "parse" {
		t.Fatalf("expected emission order preserved, got %+v", wf1)
	}

	wf2 := b.GetHistory("wf2")
	if len(wf2) != 1 {
		t.Fatalf("expected wf1 and wf2 histories to be independent, got %d for wf2", len(wf2))
	}
}

func TestBufferedEmitterHistoryFilter(t *testing.T) {
	b := NewBufferedEmitter()
	b.Emit(Event{WorkflowID: "wf1", TaskName: "fetch", Msg: "task_staged"})
	b.Emit(Event{WorkflowID: "wf1", TaskName: "fetch", Msg: "task_status"})
	b.Emit(Event{WorkflowID: "wf1", TaskName: "parse", Msg: "task_status"})

	byTask := b.GetHistoryWithFilter("wf1", HistoryFilter{TaskName: "fetch"})
	if len(byTask) != 2 {
		t.Fatalf("expected 2 fetch events, got %d", len(byTask))
	}

	byMsg := b.GetHistoryWithFilter("wf1", HistoryFilter{Msg: "task_status"})
	if len(byMsg) != 2 {
		t.Fatalf("expected 2 task_status events, got %d", len(byMsg))
	}

	both := b.GetHistoryWithFilter("wf1", HistoryFilter{TaskName: "parse", Msg: "task_status"})
	if len(both) != 1 {
		t.Fatalf("expected combined filter to AND its fields, got %d", len(both))
	}
}

func TestBufferedEmitterClear(t *testing.T) {
	b := NewBufferedEmitter()
	b.Emit(Event{WorkflowID: "wf1", Msg: "a"})
	b.Emit(Event{WorkflowID: "wf2", Msg: "b"})

	b.Clear("wf1")
	if len(b.GetHistory("wf1")) != 0 {
		t.Fatal("expected wf1 history cleared")
	}
	if len(b.GetHistory("wf2")) != 1 {
		t.Fatal("expected wf2 history untouched by a scoped clear")
	}

	b.Clear("")
	if len(b.GetHistory("wf2")) != 0 {
		t.Fatal("expected an empty-string clear to drop every workflow")
	}
}

func TestSlogEmitterDoesNotPanic(t *testing.T) {
	e := NewSlogEmitter(slog.Default())
	e.Emit(Event{WorkflowID: "wf1", TaskName: "fetch", Route: 0, Msg: "task_staged", Meta: map[string]any{"from": "requested"}})
	if err := e.EmitBatch(context.Background(), []Event{{Msg: "a"}}); err != nil {
		t.Fatalf("EmitBatch: %v", err)
	}

	fallback := NewSlogEmitter(nil)
	fallback.Emit(Event{Msg: "fallback"})
}
