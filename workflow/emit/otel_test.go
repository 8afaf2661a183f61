package emit

import (
	"context"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingTracer() (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	return sr, tp
}

func TestOTelEmitterRecordsOneSpanPerEvent(t *testing.T) {
	sr, tp := newRecordingTracer()
	e := NewOTelEmitter(tp.Tracer("conductor-test"))

	e.Emit(Event{
		WorkflowID: "wf1", TaskName: "fetch", Route: 0, Msg: "task_status",
		Meta: map[string]interface{}{"from": "running", "to": "succeeded"},
	})

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 recorded span, got %d", len(spans))
	}
	if spans[0].Name() != "task_status" {
		t.Fatalf("expected span name task_status, got %s", spans[0].Name())
	}

	var sawWorkflowID bool
	for _, attr := range spans[0].Attributes() {
		if string(attr.Key) == "conductor.workflow_id" && attr.Value.AsString() == "wf1" {
			sawWorkflowID = true
		}
	}
	if !sawWorkflowID {
		t.Fatal("expected conductor.workflow_id attribute on the span")
	}
}

func TestOTelEmitterEmitBatch(t *testing.T) {
	sr, tp := newRecordingTracer()
	e := NewOTelEmitter(tp.Tracer("conductor-test"))

	err := e.EmitBatch(context.Background(), []Event{
		{Msg: "task_staged"},
		{Msg: "task_status"},
	})
	if err != nil {
		t.Fatalf("EmitBatch: %v", err)
	}
	if got := len(sr.Ended()); got != 2 {
		t.Fatalf("expected 2 spans from EmitBatch, got %d", got)
	}
}
