package exprlang

import "fmt"

// NativeDialect implements Evaluator for the "<% … %>" marker. It supplies
// the primitives the conductor itself calls out to: task_status(name),
// ctx(var), item(), result(), plus list/`in`/comparison/boolean grammar —
// enough to evaluate the composer's own task_status(...) in [...] guards
// and typical author join/retry conditions (spec.md §4.2, §9).
type NativeDialect struct {
	l *lang
}

// NewNativeDialect returns a NativeDialect evaluator.
func NewNativeDialect() *NativeDialect {
	d := &NativeDialect{l: &lang{bareword: barewordLiteral}}
	d.l.funcs = map[string]fn{
		"task_status": func(args []any, ctx map[string]any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("task_status() takes exactly one argument")
			}
			name := fmt.Sprint(args[0])
			statuses, _ := ctx["__task_statuses"].(map[string]any)
			if v, ok := statuses[name]; ok {
				return v, nil
			}
			return "", nil
		},
		"ctx": func(args []any, ctx map[string]any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("ctx() takes exactly one argument")
			}
			name := fmt.Sprint(args[0])
			if v, ok := ctx[name]; ok {
				return v, nil
			}
			return nil, nil
		},
		"item": func(args []any, ctx map[string]any) (any, error) {
			return ctx["__item"], nil
		},
		"result": func(args []any, ctx map[string]any) (any, error) {
			return ctx["__result"], nil
		},
	}
	return d
}

func (d *NativeDialect) Name() string  { return "native" }
func (d *NativeDialect) Open() string  { return "<%" }
func (d *NativeDialect) Close() string { return "%>" }

func (d *NativeDialect) Validate(body string) []ValidationIssue {
	if _, err := parseExpr(body); err != nil {
		return []ValidationIssue{{Message: err.Error()}}
	}
	return nil
}

func (d *NativeDialect) Evaluate(body string, ctx map[string]any) (any, error) {
	n, err := parseExpr(body)
	if err != nil {
		return nil, err
	}
	return n.eval(d.l, ctx)
}

func (d *NativeDialect) ExtractVars(body string) map[string]bool {
	out := map[string]bool{}
	n, err := parseExpr(body)
	if err != nil {
		return out
	}
	extractVars(n, out)
	return out
}
