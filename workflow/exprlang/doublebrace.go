package exprlang

// DoubleBraceDialect implements Evaluator for the "{{ … }}" marker, the
// foreign dialect's templating surface. Unlike the native dialect, bare
// identifiers and dotted paths resolve against ctx directly (Jinja-like
// variable resolution) rather than acting as string literals — the one
// semantic axis on which the two dialects genuinely differ for the
// conductor's purposes (spec.md §4.2: "a single fragment must use one
// marker consistently").
type DoubleBraceDialect struct {
	l *lang
}

// NewDoubleBraceDialect returns a DoubleBraceDialect evaluator.
func NewDoubleBraceDialect() *DoubleBraceDialect {
	return &DoubleBraceDialect{l: &lang{bareword: barewordVar, funcs: map[string]fn{}}}
}

func (d *DoubleBraceDialect) Name() string  { return "jinja" }
func (d *DoubleBraceDialect) Open() string  { return "{{" }
func (d *DoubleBraceDialect) Close() string { return "}}" }

func (d *DoubleBraceDialect) Validate(body string) []ValidationIssue {
	if _, err := parseExpr(body); err != nil {
		return []ValidationIssue{{Message: err.Error()}}
	}
	return nil
}

func (d *DoubleBraceDialect) Evaluate(body string, ctx map[string]any) (any, error) {
	n, err := parseExpr(body)
	if err != nil {
		return nil, err
	}
	return n.eval(d.l, ctx)
}

func (d *DoubleBraceDialect) ExtractVars(body string) map[string]bool {
	out := map[string]bool{}
	n, err := parseExpr(body)
	if err != nil {
		return out
	}
	extractVars(n, out)
	return out
}
