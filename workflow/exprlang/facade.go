// Package exprlang is the expression façade: dialect-agnostic dispatch over
// text that may embed expressions, plus two bounded reference dialects.
// Spec parsers and full expression languages are external collaborators
// (spec.md §1); this package only validates/evaluates/extracts against a
// context through the small Evaluator interface spec.md §4.2 requires.
package exprlang

import (
	"fmt"
	"strings"
)

// ValidationIssue is a single problem reported by Validate, per spec.md §4.2.
type ValidationIssue struct {
	Expression string
	Position   int
	Message    string
}

// EvaluationError is returned by Evaluate on failure, carrying enough
// context to localize the failure to a dialect and expression
// (spec.md §4.2/§7 ExpressionEvaluationError).
type EvaluationError struct {
	Dialect    string
	Expression string
	Cause      error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("exprlang: %s evaluation failed for %q: %v", e.Dialect, e.Expression, e.Cause)
}

func (e *EvaluationError) Unwrap() error { return e.Cause }

// Evaluator is the small interface each dialect implements; the façade
// never evaluates templating itself, only dispatches through this
// interface per fragment (spec.md §4.2).
type Evaluator interface {
	// Name identifies the dialect for error reporting ("native", "jinja").
	Name() string

	// Open/Close are the delimiter markers bracketing a fragment of this
	// dialect, e.g. "<%"/"%>" or "{{"/"}}".
	Open() string
	Close() string

	// Validate parses body (the text between markers, exclusive) and
	// returns any syntax/reference problems found.
	Validate(body string) []ValidationIssue

	// Evaluate evaluates body against ctx and returns its value.
	Evaluate(body string, ctx map[string]any) (any, error)

	// ExtractVars returns the set of variable names body references.
	ExtractVars(body string) map[string]bool
}

// Registry dispatches fragments to dialect evaluators by marker. It is
// constructed once at conductor creation — no globals (Design Notes §9).
type Registry struct {
	dialects []Evaluator
}

// NewRegistry builds a registry from the given dialects. Order matters only
// for ambiguous delimiters; the two built-in dialects ("<% %>" and "{{ }}")
// never collide.
func NewRegistry(dialects ...Evaluator) *Registry {
	return &Registry{dialects: dialects}
}

// DefaultRegistry returns a registry with both reference dialects
// (NativeDialect for "<% %>", DoubleBraceDialect for "{{ }}") wired, the
// configuration the conductor uses unless the caller supplies its own
// (SPEC_FULL §2).
func DefaultRegistry() *Registry {
	return NewRegistry(NewNativeDialect(), NewDoubleBraceDialect())
}

// fragment is a single delimited expression found in a piece of text, or a
// literal run of text between expressions.
type fragment struct {
	literal string // non-empty only when dialect is nil
	dialect Evaluator
	body    string
	start   int
}

// scan splits text into literal and expression fragments in left-to-right
// order. A fragment must use one marker consistently — scan never matches
// a dialect's opener to another dialect's closer.
func (r *Registry) scan(text string) []fragment {
	var out []fragment
	i := 0
	for i < len(text) {
		bestIdx := -1
		var bestDialect Evaluator
		for _, d := range r.dialects {
			if idx := strings.Index(text[i:], d.Open()); idx >= 0 {
				if bestIdx == -1 || idx < bestIdx {
					bestIdx = idx
					bestDialect = d
				}
			}
		}
		if bestIdx == -1 {
			if i < len(text) {
				out = append(out, fragment{literal: text[i:]})
			}
			break
		}
		if bestIdx > 0 {
			out = append(out, fragment{literal: text[i : i+bestIdx]})
		}
		openAt := i + bestIdx
		bodyStart := openAt + len(bestDialect.Open())
		closeIdx := strings.Index(text[bodyStart:], bestDialect.Close())
		if closeIdx == -1 {
			// Unterminated expression: treat the remainder as literal text.
			out = append(out, fragment{literal: text[openAt:]})
			break
		}
		body := text[bodyStart : bodyStart+closeIdx]
		out = append(out, fragment{dialect: bestDialect, body: strings.TrimSpace(body), start: openAt})
		i = bodyStart + closeIdx + len(bestDialect.Close())
	}
	return out
}

// HasExpression reports whether text embeds at least one dialect fragment.
func (r *Registry) HasExpression(text string) bool {
	for _, f := range r.scan(text) {
		if f.dialect != nil {
			return true
		}
	}
	return false
}

// Validate validates every embedded expression in text and returns the
// concatenated issue list.
func (r *Registry) Validate(text string) []ValidationIssue {
	var issues []ValidationIssue
	for _, f := range r.scan(text) {
		if f.dialect == nil {
			continue
		}
		for _, iss := range f.dialect.Validate(f.body) {
			iss.Expression = f.body
			if iss.Position == 0 {
				iss.Position = f.start
			}
			issues = append(issues, iss)
		}
	}
	return issues
}

// Evaluate evaluates text against ctx. If text contains no expression, it
// is returned unchanged (spec.md §4.2). If text is a single expression
// fragment with no surrounding literal text, the fragment's native value is
// returned (not stringified). Otherwise every fragment is evaluated and
// interpolated into the surrounding literal text as a string.
func (r *Registry) Evaluate(text string, ctx map[string]any) (any, error) {
	frags := r.scan(text)

	exprCount := 0
	for _, f := range frags {
		if f.dialect != nil {
			exprCount++
		}
	}
	if exprCount == 0 {
		return text, nil
	}
	if exprCount == 1 && len(frags) == 1 {
		f := frags[0]
		v, err := f.dialect.Evaluate(f.body, ctx)
		if err != nil {
			return nil, &EvaluationError{Dialect: f.dialect.Name(), Expression: f.body, Cause: err}
		}
		return v, nil
	}

	var sb strings.Builder
	for _, f := range frags {
		if f.dialect == nil {
			sb.WriteString(f.literal)
			continue
		}
		v, err := f.dialect.Evaluate(f.body, ctx)
		if err != nil {
			return nil, &EvaluationError{Dialect: f.dialect.Name(), Expression: f.body, Cause: err}
		}
		sb.WriteString(fmt.Sprint(v))
	}
	return sb.String(), nil
}

// ExtractVars returns the union of variable names referenced across every
// expression fragment in text.
func (r *Registry) ExtractVars(text string) map[string]bool {
	out := map[string]bool{}
	for _, f := range r.scan(text) {
		if f.dialect == nil {
			continue
		}
		for v := range f.dialect.ExtractVars(f.body) {
			out[v] = true
		}
	}
	return out
}
