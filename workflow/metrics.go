package workflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects Prometheus-compatible counters for conductor activity,
// adapted from the teacher's PrometheusMetrics (graph/metrics.go): the same
// namespaced-counter/gauge shape, reworked from node-execution concurrency
// metrics to task/workflow status-rollup metrics.
type Metrics struct {
	tasksStaged     *prometheus.CounterVec
	taskStatus      *prometheus.CounterVec
	workflowStatus  *prometheus.CounterVec
	itemsDispatched prometheus.Counter
	retries         *prometheus.CounterVec
}

// NewMetrics registers the conductor's metrics with registry (use
// prometheus.DefaultRegisterer for the global registry).
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)
	return &Metrics{
		tasksStaged: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "conductor",
			Name:      "tasks_staged_total",
			Help:      "Number of task instances staged as runnable.",
		}, []string{"task"}),
		taskStatus: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "conductor",
			Name:      "task_status_total",
			Help:      "Task status transitions, by resulting status.",
		}, []string{"task", "status"}),
		workflowStatus: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "conductor",
			Name:      "workflow_status_total",
			Help:      "Workflow status transitions, by resulting status.",
		}, []string{"status"}),
		itemsDispatched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "conductor",
			Name:      "items_dispatched_total",
			Help:      "With-items actions dispatched across all tasks.",
		}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "conductor",
			Name:      "retries_total",
			Help:      "Task retry attempts scheduled after an abend.",
		}, []string{"task"}),
	}
}

func (m *Metrics) observeStaged(task string) {
	if m == nil {
		return
	}
	m.tasksStaged.WithLabelValues(task).Inc()
}

func (m *Metrics) observeTaskStatus(task string, status Status) {
	if m == nil {
		return
	}
	m.taskStatus.WithLabelValues(task, string(status)).Inc()
}

func (m *Metrics) observeWorkflowStatus(status Status) {
	if m == nil {
		return
	}
	m.workflowStatus.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) observeItemDispatched() {
	if m == nil {
		return
	}
	m.itemsDispatched.Inc()
}

func (m *Metrics) observeRetry(task string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(task).Inc()
}
