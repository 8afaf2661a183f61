package workflow

import (
	"encoding/json"
	"sort"
)

// BarrierKind classifies a join task's firing policy.
type BarrierKind int

const (
	// BarrierUnset means any single truthy inbound edge fires the task.
	BarrierUnset BarrierKind = iota
	// BarrierAll means every inbound predecessor from the walk must have
	// fired a truthy-criteria transition before the task fires (spec
	// "join: all"); a predecessor that is merely terminal does not count.
	BarrierAll
	// BarrierCount means at least Count inbound edges must have fired a
	// truthy-criteria transition before the task fires (spec "join: N").
	BarrierCount
)

// Barrier is a per-node join policy. The zero value is BarrierUnset.
type Barrier struct {
	Kind  BarrierKind
	Count int
}

// MarshalJSON encodes Barrier the way the graph serialization form expects:
// null when unset, the string "*" for "all", or the integer count.
func (b Barrier) MarshalJSON() ([]byte, error) {
	switch b.Kind {
	case BarrierAll:
		return json.Marshal("*")
	case BarrierCount:
		return json.Marshal(b.Count)
	default:
		return json.Marshal(nil)
	}
}

// UnmarshalJSON decodes the three barrier encodings described above.
func (b *Barrier) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*b = Barrier{Kind: BarrierUnset}
	case string:
		*b = Barrier{Kind: BarrierAll}
		_ = v
	case float64:
		*b = Barrier{Kind: BarrierCount, Count: int(v)}
	}
	return nil
}

// NodeAttrs is the attribute bag carried by each task node in the graph.
type NodeAttrs struct {
	// Barrier is the join policy for this node (unset/"*"/N).
	Barrier Barrier `json:"barrier"`

	// Splits is the ordered sequence of ancestor split-task names at which
	// the path to this node branched. Empty for nodes on the root route.
	Splits []string `json:"splits,omitempty"`

	// InCycle reports whether this node participates in a strongly
	// connected component of size >1, or has a self-loop.
	InCycle bool `json:"in_cycle"`
}

// Edge is a labeled transition between two task nodes. Multiple edges may
// connect the same (From, To) pair as long as their Criteria lists differ;
// identical criteria lists are merged into a single edge with an
// incremented Refs count (spec.md §3 duplicate-edge policy).
type Edge struct {
	From     string            `json:"-"`
	To       string            `json:"to"`
	Criteria []string          `json:"criteria"`
	Refs     int               `json:"refs"`
	Publish  map[string]string `json:"publish,omitempty"`
}

// sameCriteria reports exact, order-sensitive, whitespace-sensitive
// equality — per spec.md §9 Open Questions, two criteria lists that differ
// only in whitespace are treated as distinct transitions.
func sameCriteria(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// WorkflowGraph is a directed, labeled multigraph of tasks and transitions.
// It is produced by Compose and consumed by Conductor; it never mutates
// after composition except through the Composer's own Add*/Set* calls.
type WorkflowGraph struct {
	attrs     map[string]*NodeAttrs
	adjacency map[string][]*Edge // From -> ordered list of outbound edges (insertion order)
}

// NewWorkflowGraph returns an empty graph.
func NewWorkflowGraph() *WorkflowGraph {
	return &WorkflowGraph{
		attrs:     make(map[string]*NodeAttrs),
		adjacency: make(map[string][]*Edge),
	}
}

// HasTask reports whether name has been added to the graph.
func (g *WorkflowGraph) HasTask(name string) bool {
	_, ok := g.attrs[name]
	return ok
}

// AddTask adds name as a node if absent. It is a no-op if the node already
// exists.
func (g *WorkflowGraph) AddTask(name string) {
	if g.HasTask(name) {
		return
	}
	g.attrs[name] = &NodeAttrs{}
}

// SetBarrier sets the join barrier for name. name must already be a node.
func (g *WorkflowGraph) SetBarrier(name string, b Barrier) {
	if a, ok := g.attrs[name]; ok {
		a.Barrier = b
	}
}

// UpdateSplits sets the split-history vector for name.
func (g *WorkflowGraph) UpdateSplits(name string, splits []string) {
	if a, ok := g.attrs[name]; ok {
		cp := make([]string, len(splits))
		copy(cp, splits)
		a.Splits = cp
	}
}

// SetInCycle marks whether name participates in a cycle.
func (g *WorkflowGraph) SetInCycle(name string, v bool) {
	if a, ok := g.attrs[name]; ok {
		a.InCycle = v
	}
}

// Attrs returns the node attributes for name, or nil if absent.
func (g *WorkflowGraph) Attrs(name string) *NodeAttrs {
	return g.attrs[name]
}

// HasTransition returns the index (within EdgesFrom(from)) of an
// existing edge between from and to whose Criteria exactly matches, or -1
// if none exists.
func (g *WorkflowGraph) HasTransition(from, to string, criteria []string) int {
	for i, e := range g.adjacency[from] {
		if e.To == to && sameCriteria(e.Criteria, criteria) {
			return i
		}
	}
	return -1
}

// AddOrMergeTransition adds a new edge from -> to with the given criteria
// and publish map, or, if an edge with identical criteria already exists
// between the same endpoints, increments its ref count in place
// (spec.md §3/§4.3).
func (g *WorkflowGraph) AddOrMergeTransition(from, to string, criteria []string, publish map[string]string) {
	if i := g.HasTransition(from, to, criteria); i >= 0 {
		g.adjacency[from][i].Refs++
		return
	}
	cp := make([]string, len(criteria))
	copy(cp, criteria)
	g.adjacency[from] = append(g.adjacency[from], &Edge{From: from, To: to, Criteria: cp, Refs: 1, Publish: publish})
}

// EdgesFrom returns the outbound edges of name, in the order they were
// added (spec order, per the composer's deterministic walk).
func (g *WorkflowGraph) EdgesFrom(name string) []*Edge {
	return g.adjacency[name]
}

// Predecessors returns the distinct source nodes of every inbound edge to
// name, sorted for determinism.
func (g *WorkflowGraph) Predecessors(name string) []string {
	seen := map[string]bool{}
	for from, edges := range g.adjacency {
		for _, e := range edges {
			if e.To == name {
				seen[from] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// EdgesBetween returns every edge between from and to.
func (g *WorkflowGraph) EdgesBetween(from, to string) []*Edge {
	var out []*Edge
	for _, e := range g.adjacency[from] {
		if e.To == to {
			out = append(out, e)
		}
	}
	return out
}

// Nodes returns every task name in the graph, sorted. Used for stable
// serialization (spec.md §6).
func (g *WorkflowGraph) Nodes() []string {
	out := make([]string, 0, len(g.attrs))
	for n := range g.attrs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// --- Serialization -----------------------------------------------------

type graphNodeDoc struct {
	ID string `json:"id"`
	NodeAttrs
}

type graphAdjEntry struct {
	ID       string            `json:"id"`
	Key      int               `json:"key"`
	Criteria []string          `json:"criteria"`
	Refs     int               `json:"refs"`
	Publish  map[string]string `json:"publish,omitempty"`
}

// graphDoc is the JSON-compatible wire form from spec.md §6:
// {nodes:[…], adjacency:[[…]…], graph:[[k,v]…]}. Nodes and each node's
// adjacency list are sorted by id for stable equality across identical
// compositions (testable property 3).
type graphDoc struct {
	Nodes     []graphNodeDoc    `json:"nodes"`
	Adjacency [][]graphAdjEntry `json:"adjacency"`
	Graph     [][2]string       `json:"graph"`
}

// MarshalJSON renders the graph in the canonical serialization form.
func (g *WorkflowGraph) MarshalJSON() ([]byte, error) {
	nodes := g.Nodes()
	doc := graphDoc{
		Nodes:     make([]graphNodeDoc, len(nodes)),
		Adjacency: make([][]graphAdjEntry, len(nodes)),
		Graph:     [][2]string{},
	}
	for i, n := range nodes {
		doc.Nodes[i] = graphNodeDoc{ID: n, NodeAttrs: *g.attrs[n]}

		entries := make([]graphAdjEntry, 0, len(g.adjacency[n]))
		for key, e := range g.adjacency[n] {
			entries = append(entries, graphAdjEntry{ID: e.To, Key: key, Criteria: e.Criteria, Refs: e.Refs, Publish: e.Publish})
		}
		sort.Slice(entries, func(a, b int) bool {
			if entries[a].ID != entries[b].ID {
				return entries[a].ID < entries[b].ID
			}
			return entries[a].Key < entries[b].Key
		})
		doc.Adjacency[i] = entries
	}
	return json.Marshal(doc)
}

// UnmarshalJSON restores a graph from its canonical serialization form.
func (g *WorkflowGraph) UnmarshalJSON(data []byte) error {
	var doc graphDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*g = *NewWorkflowGraph()
	for _, n := range doc.Nodes {
		g.AddTask(n.ID)
		attrs := n.NodeAttrs
		g.attrs[n.ID] = &attrs
	}
	for i, n := range doc.Nodes {
		for _, e := range doc.Adjacency[i] {
			g.adjacency[n.ID] = append(g.adjacency[n.ID], &Edge{
				From: n.ID, To: e.ID, Criteria: e.Criteria, Refs: e.Refs, Publish: e.Publish,
			})
		}
	}
	return nil
}
