package specnative

// taskGraphInfo precomputes the structural facts TaskSpecs must answer
// cheaply and repeatedly during Compose's BFS walk: which tasks sit in a
// cycle, how many distinct predecessors each task has, and how many distinct
// successors each task fans out to (a split task, per the Glossary, forks a
// new route per outbound successor — the inverse of a join's predecessor
// count).
type taskGraphInfo struct {
	predecessors map[string]map[string]bool // task -> set of distinct predecessor tasks
	successors   map[string]map[string]bool // task -> set of distinct successor tasks, cyclic edges excluded
	inCycle      map[string]bool
}

func buildTaskGraphInfo(d *doc) *taskGraphInfo {
	adj := make(map[string][]string, len(d.Tasks))
	preds := make(map[string]map[string]bool, len(d.Tasks))
	for name := range d.Tasks {
		preds[name] = make(map[string]bool)
	}
	for name, t := range d.Tasks {
		for _, n := range t.Next {
			adj[name] = append(adj[name], n.Do)
			if preds[n.Do] == nil {
				preds[n.Do] = make(map[string]bool)
			}
			preds[n.Do][name] = true
		}
	}

	info := &taskGraphInfo{
		predecessors: preds,
		successors:   make(map[string]map[string]bool, len(d.Tasks)),
		inCycle:      make(map[string]bool),
	}
	for name := range d.Tasks {
		info.successors[name] = make(map[string]bool)
	}

	sccs := tarjanSCC(d, adj)
	sccIndex := make(map[string]int, len(d.Tasks))
	for i, scc := range sccs {
		for _, name := range scc {
			sccIndex[name] = i
		}
	}

	for _, scc := range sccs {
		if len(scc) > 1 {
			for _, name := range scc {
				info.inCycle[name] = true
			}
			continue
		}
		// Singleton SCC: a self-loop still counts as a cycle.
		name := scc[0]
		for _, next := range adj[name] {
			if next == name {
				info.inCycle[name] = true
				break
			}
		}
	}

	for name, nexts := range adj {
		for _, next := range nexts {
			if _, ok := d.Tasks[next]; !ok {
				continue // dangling reference; Inspect reports this separately
			}
			if sccIndex[name] == sccIndex[next] {
				continue // back-edge (or self-loop) within the same cycle, not genuine fan-out
			}
			info.successors[name][next] = true
		}
	}

	return info
}

// tarjanSCC returns the strongly connected components of the task graph
// described by adj, in no particular order.
func tarjanSCC(d *doc, adj map[string][]string) [][]string {
	index := 0
	indices := make(map[string]int)
	lowlink := make(map[string]int)
	onStack := make(map[string]bool)
	var stack []string
	var sccs [][]string

	var names []string
	for name := range d.Tasks {
		names = append(names, name)
	}

	var strongconnect func(v string)
	strongconnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range adj[v] {
			if _, ok := d.Tasks[w]; !ok {
				continue // dangling reference; Inspect reports this separately
			}
			if _, visited := indices[w]; !visited {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if indices[w] < lowlink[v] {
					lowlink[v] = indices[w]
				}
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, name := range names {
		if _, visited := indices[name]; !visited {
			strongconnect(name)
		}
	}

	return sccs
}
