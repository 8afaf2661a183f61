package emit

import "context"

// Emitter receives observability events from the conductor. Implementations
// must not block the conductor's synchronous event loop (spec.md §5: the
// conductor never blocks) and must never panic.
type Emitter interface {
	// Emit sends a single event to the configured backend.
	Emit(event Event)

	// EmitBatch sends multiple events in one operation, preserving order.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush blocks until any buffered events have been delivered.
	Flush(ctx context.Context) error
}
