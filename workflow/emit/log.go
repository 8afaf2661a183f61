package emit

import (
	"context"
	"log/slog"
)

// SlogEmitter implements Emitter by writing structured log records through
// log/slog, the ambient logging convention this module carries regardless
// of the teacher's io.Writer-based LogEmitter (graph/emit/log.go) — the
// teacher's engine itself injects no logger, so its logging *sink* is the
// only thing to adapt, and slog is the standard-library idiom for it.
type SlogEmitter struct {
	logger *slog.Logger
}

// NewSlogEmitter returns a SlogEmitter writing through logger. A nil logger
// falls back to slog.Default().
func NewSlogEmitter(logger *slog.Logger) *SlogEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogEmitter{logger: logger}
}

func (s *SlogEmitter) Emit(event Event) {
	attrs := []any{
		slog.String("workflow_id", event.WorkflowID),
	}
	if event.TaskName != "" {
		attrs = append(attrs, slog.String("task", event.TaskName), slog.Int("route", event.Route))
	}
	for k, v := range event.Meta {
		attrs = append(attrs, slog.Any(k, v))
	}
	s.logger.Info(event.Msg, attrs...)
}

func (s *SlogEmitter) EmitBatch(_ context.Context, events []Event) error {
	for _, e := range events {
		s.Emit(e)
	}
	return nil
}

func (s *SlogEmitter) Flush(context.Context) error { return nil }
