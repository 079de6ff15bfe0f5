package trailgraph

import "fmt"

// WarningKind tags a validation finding. Valid/invalid is decided by tag, never
// by inspecting warning text.
type WarningKind string

const (
	WarnStartNodeMissing WarningKind = "start_node_missing"
	WarnOrphanNodes      WarningKind = "orphan_nodes"
	WarnDanglingEdges    WarningKind = "dangling_edges"
	WarnDeadEnds         WarningKind = "dead_ends"
	WarnCycle            WarningKind = "cycle"
)

// Warning is one aggregated validation finding.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Count   int         `json:"count,omitempty"`
	Message string      `json:"message"`
}

// Stats summarizes the shape of a validated DAG.
type Stats struct {
	NodeCount             int `json:"nodeCount"`
	EdgeCount             int `json:"edgeCount"`
	ConvergencePointCount int `json:"convergencePointCount"`
	OrphanNodeCount       int `json:"orphanNodeCount"`
	DeadEndNodeCount      int `json:"deadEndNodeCount"`
}

// Report is the result of validating a DAG.
// Dead ends are legitimate story endings: a report whose only warnings are
// WarnDeadEnds stays valid. Any other kind marks the report invalid.
type Report struct {
	Valid    bool      `json:"valid"`
	Warnings []Warning `json:"warnings"`
	Stats    Stats     `json:"stats"`
}

// Validate analyzes an already-reconstructed DAG. It is read-only and never
// fails; every finding is reported as data.
func Validate(d *DAG) Report {
	r := Report{Warnings: []Warning{}}
	r.Stats.NodeCount = len(d.Nodes)
	r.Stats.EdgeCount = len(d.Edges)
	r.Stats.ConvergencePointCount = len(d.ConvergencePoints)

	hasIncoming := make(map[string]bool, len(d.Nodes))
	hasOutgoing := make(map[string]bool, len(d.Nodes))
	dangling := 0
	for _, e := range d.Edges {
		hasIncoming[e.ToNodeID] = true
		hasOutgoing[e.FromNodeID] = true
		if _, ok := d.Nodes[e.FromNodeID]; !ok {
			dangling++
		} else if _, ok := d.Nodes[e.ToNodeID]; !ok {
			dangling++
		}
	}

	if _, ok := d.Nodes[d.StartNodeID]; !ok {
		r.Warnings = append(r.Warnings, Warning{
			Kind:    WarnStartNodeMissing,
			Message: fmt.Sprintf("start node %s does not exist in the graph", d.StartNodeID),
		})
	}

	orphans := 0
	deadEnds := 0
	for id := range d.Nodes {
		if id != d.StartNodeID && !hasIncoming[id] {
			orphans++
		}
		if !hasOutgoing[id] {
			deadEnds++
		}
	}
	r.Stats.OrphanNodeCount = orphans
	r.Stats.DeadEndNodeCount = deadEnds

	if orphans > 0 {
		r.Warnings = append(r.Warnings, Warning{
			Kind:    WarnOrphanNodes,
			Count:   orphans,
			Message: fmt.Sprintf("%d node(s) are unreachable (no incoming edges)", orphans),
		})
	}
	if dangling > 0 {
		r.Warnings = append(r.Warnings, Warning{
			Kind:    WarnDanglingEdges,
			Count:   dangling,
			Message: fmt.Sprintf("%d edge(s) reference nodes that do not exist", dangling),
		})
	}
	if deadEnds > 0 {
		r.Warnings = append(r.Warnings, Warning{
			Kind:    WarnDeadEnds,
			Count:   deadEnds,
			Message: fmt.Sprintf("%d node(s) have no outgoing edges (story endings)", deadEnds),
		})
	}
	if hasCycle(d) {
		r.Warnings = append(r.Warnings, Warning{
			Kind:    WarnCycle,
			Message: "the edge list contains a cycle, the graph is not acyclic",
		})
	}

	r.Valid = true
	for _, w := range r.Warnings {
		if w.Kind != WarnDeadEnds {
			r.Valid = false
			break
		}
	}
	return r
}

// hasCycle checks whether the edge list forms a cycle using DFS.
func hasCycle(d *DAG) bool {
	adj := make(map[string][]string)
	for _, e := range d.Edges {
		adj[e.FromNodeID] = append(adj[e.FromNodeID], e.ToNodeID)
	}

	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)

	state := make(map[string]int, len(d.Nodes))
	for id := range d.Nodes {
		state[id] = unvisited
	}
	// Also include nodes referenced only in edges.
	for _, e := range d.Edges {
		if _, ok := state[e.FromNodeID]; !ok {
			state[e.FromNodeID] = unvisited
		}
		if _, ok := state[e.ToNodeID]; !ok {
			state[e.ToNodeID] = unvisited
		}
	}

	var dfs func(id string) bool
	dfs = func(id string) bool {
		state[id] = visiting
		for _, next := range adj[id] {
			switch state[next] {
			case visiting:
				return true
			case unvisited:
				if dfs(next) {
					return true
				}
			}
		}
		state[id] = visited
		return false
	}

	for id, s := range state {
		if s == unvisited {
			if dfs(id) {
				return true
			}
		}
	}

	return false
}
