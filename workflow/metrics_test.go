package workflow

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestMetricsNilReceiverIsSafeNoOp(t *testing.T) {
	var m *Metrics
	m.observeStaged("fetch")
	m.observeTaskStatus("fetch", StatusSucceeded)
	m.observeWorkflowStatus(StatusSucceeded)
	m.observeItemDispatched()
	m.observeRetry("fetch")
}

func TestMetricsRecordsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.observeStaged("fetch")
	m.observeTaskStatus("fetch", StatusSucceeded)
	m.observeWorkflowStatus(StatusSucceeded)
	m.observeItemDispatched()
	m.observeRetry("fetch")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	seen := map[string]bool{}
	for _, f := range families {
		seen[f.GetName()] = true
	}
	for _, want := range []string{
		"conductor_tasks_staged_total",
		"conductor_task_status_total",
		"conductor_workflow_status_total",
		"conductor_items_dispatched_total",
		"conductor_retries_total",
	} {
		if !seen[want] {
			t.Errorf("expected metric family %q to be registered", want)
		}
	}
}

func TestMetricsTaskStatusLabelValues(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.observeTaskStatus("fetch", StatusSucceeded)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var found *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "conductor_task_status_total" {
			found = f
		}
	}
	if found == nil || len(found.Metric) != 1 {
		t.Fatalf("expected a single task_status sample, got %+v", found)
	}
	labels := found.Metric[0].GetLabel()
	if len(labels) != 2 {
		t.Fatalf("expected task+status labels, got %+v", labels)
	}
}
