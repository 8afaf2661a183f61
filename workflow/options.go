package workflow

import (
	"time"

	"github.com/wfcore/conductor/workflow/emit"
	"github.com/wfcore/conductor/workflow/exprlang"
)

// Option is a functional option for configuring a Conductor at construction,
// mirroring the teacher's graph.Option pattern (graph/options.go): chainable,
// self-documenting, and optional.
type Option func(*conductorConfig) error

// conductorConfig collects options before New/Deserialize builds a Conductor.
type conductorConfig struct {
	exprs   *exprlang.Registry
	emitter emit.Emitter
	metrics *Metrics
	clock   func() time.Time
	id      string
}

func defaultConductorConfig() *conductorConfig {
	return &conductorConfig{
		exprs:   exprlang.DefaultRegistry(),
		emitter: emit.NewNullEmitter(),
		clock:   time.Now,
	}
}

// WithExprRegistry overrides the expression dialect registry. Default is
// exprlang.DefaultRegistry() (native "<% %>" + double-brace "{{ }}").
func WithExprRegistry(r *exprlang.Registry) Option {
	return func(cfg *conductorConfig) error {
		cfg.exprs = r
		return nil
	}
}

// WithEmitter wires an observability sink for workflow/task status events.
// Default is emit.NewNullEmitter() (discard).
func WithEmitter(e emit.Emitter) Option {
	return func(cfg *conductorConfig) error {
		cfg.emitter = e
		return nil
	}
}

// WithMetrics wires a Prometheus metrics collector. Default is nil (disabled
// — every Metrics method on a nil receiver is a safe no-op).
func WithMetrics(m *Metrics) Option {
	return func(cfg *conductorConfig) error {
		cfg.metrics = m
		return nil
	}
}

// WithClock overrides the time source used to stamp emitted events, for
// deterministic tests. Default is time.Now. The conductor never uses the
// clock for scheduling — delay is reported, never enforced (spec.md §1).
func WithClock(now func() time.Time) Option {
	return func(cfg *conductorConfig) error {
		cfg.clock = now
		return nil
	}
}

// WithWorkflowID sets the identifier stamped on every emitted Event's
// WorkflowID field. Default is the empty string.
func WithWorkflowID(id string) Option {
	return func(cfg *conductorConfig) error {
		cfg.id = id
		return nil
	}
}
