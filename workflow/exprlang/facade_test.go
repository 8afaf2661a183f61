package exprlang

import "testing"

func TestRegistryEvaluateLiteralTextUnchanged(t *testing.T) {
	r := DefaultRegistry()
	v, err := r.Evaluate("no expressions here", nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if v != "no expressions here" {
		t.Fatalf("expected literal text unchanged, got %v", v)
	}
}

func TestRegistryEvaluateSingleFragmentReturnsNativeValue(t *testing.T) {
	r := DefaultRegistry()
	ctx := map[string]any{"count": float64(3)}
	v, err := r.Evaluate("{{ count }}", ctx)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if v != float64(3) {
		t.Fatalf("expected the raw numeric value, got %v (%T)", v, v)
	}
}

func TestRegistryEvaluateInterpolatesMixedText(t *testing.T) {
	r := DefaultRegistry()
	ctx := map[string]any{"name": "world"}
	v, err := r.Evaluate("hello {{ name }}!", ctx)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if v != "hello world!" {
		t.Fatalf("expected interpolated string, got %v", v)
	}
}

func TestRegistryNativeDialectTaskStatusGuard(t *testing.T) {
	r := DefaultRegistry()
	ctx := map[string]any{"__task_statuses": map[string]any{"fetch": "succeeded"}}
	v, err := r.Evaluate("<% task_status(fetch) in [succeeded, failed] %>", ctx)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if v != true {
		t.Fatalf("expected guard to evaluate true, got %v", v)
	}
}

func TestRegistryDialectsDoNotCrossMarkers(t *testing.T) {
	r := DefaultRegistry()
	ctx := map[string]any{"x": float64(1)}
	// A native fragment and a jinja fragment in the same text, each scoped
	// to its own markers.
	v, err := r.Evaluate("<% 1 == 1 %> and {{ x }}", ctx)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if v != "true and 1" {
		t.Fatalf("expected both fragments evaluated independently, got %v", v)
	}
}

func TestRegistryHasExpression(t *testing.T) {
	r := DefaultRegistry()
	if r.HasExpression("plain text") {
		t.Fatal("expected no expression detected in plain text")
	}
	if !r.HasExpression("{{ x }}") {
		t.Fatal("expected an expression detected")
	}
}

func TestRegistryValidateReportsIssues(t *testing.T) {
	r := DefaultRegistry()
	issues := r.Validate("{{ ( }}")
	if len(issues) == 0 {
		t.Fatal("expected a validation issue for malformed expression")
	}
}

func TestRegistryExtractVars(t *testing.T) {
	r := DefaultRegistry()
	vars := r.ExtractVars("{{ a }} and <% ctx(b) %>")
	if !vars["a"] || !vars["b"] {
		t.Fatalf("expected both a and b extracted, got %v", vars)
	}
}

func TestRegistryEvaluationErrorWraps(t *testing.T) {
	r := DefaultRegistry()
	_, err := r.Evaluate("{{ unknown_fn() }}", nil)
	if err == nil {
		t.Fatal("expected an error for an unknown function call")
	}
	evalErr, ok := err.(*EvaluationError)
	if !ok {
		t.Fatalf("expected *EvaluationError, got %T", err)
	}
	if evalErr.Dialect != "jinja" {
		t.Fatalf("expected jinja dialect in error, got %s", evalErr.Dialect)
	}
}
