// Package specnative implements the native workflow-spec dialect: YAML
// documents using the "<% … %>" expression marker, with a workflow-defined
// condition vocabulary (as opposed to the foreign dialect's fixed
// on-success/on-error/on-complete set). It satisfies workflow.WorkflowSpec
// and workflow.TaskSpecs so the composer and conductor never depend on this
// package directly.
package specnative

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/wfcore/conductor/workflow"
)

// doc is the literal YAML shape a native spec file is parsed into.
type doc struct {
	Vars       map[string]any      `yaml:"vars"`
	Tasks      map[string]taskDoc  `yaml:"tasks"`
	Output     map[string]string   `yaml:"output"`
	Conditions map[string][]string `yaml:"conditions"`
}

type taskDoc struct {
	Action string            `yaml:"action"`
	Input  map[string]string `yaml:"input"`
	Join   string            `yaml:"join"`
	With   *withDoc          `yaml:"with"`
	Retry  *retryDoc         `yaml:"retry"`
	Next   []nextDoc         `yaml:"next"`
}

type withDoc struct {
	Items       string `yaml:"items"`
	Concurrency int    `yaml:"concurrency"`
}

type retryDoc struct {
	Count int    `yaml:"count"`
	When  string `yaml:"when"`
	Delay int64  `yaml:"delay"`
}

type nextDoc struct {
	Do        string            `yaml:"do"`
	When      string            `yaml:"when"`
	Condition string            `yaml:"condition"`
	Publish   map[string]string `yaml:"publish"`
}

// defaultConditionNames mirrors the foreign dialect's fixed vocabulary; a
// native spec's own `conditions:` block may override or extend it.
var defaultConditionNames = map[string][]string{
	"on-success":  {string(workflow.StatusSucceeded)},
	"on-error":    statusStrings(workflow.AbendedStatuses),
	"on-complete": statusStrings(workflow.CompletedStatuses),
}

func statusStrings(s []workflow.Status) []string {
	out := make([]string, len(s))
	for i, x := range s {
		out[i] = string(x)
	}
	return out
}

// parseDoc unmarshals raw YAML bytes into a doc, filling in
// defaultConditionNames for any built-in name the spec author didn't
// override.
func parseDoc(data []byte) (*doc, error) {
	var d doc
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("specnative: parse yaml: %w", err)
	}
	if d.Conditions == nil {
		d.Conditions = make(map[string][]string)
	}
	for name, statuses := range defaultConditionNames {
		if _, overridden := d.Conditions[name]; !overridden {
			d.Conditions[name] = statuses
		}
	}
	return &d, nil
}
