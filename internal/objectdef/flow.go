package objectdef

import "fmt"

// FlowIssue is one soundness problem found in a flow graph.
type FlowIssue struct {
	Code    string
	Message string
}

// CheckFlowGraph validates the structural soundness rules inferred for
// FLOW objects (see DESIGN.md "Open Question decisions" — these rules are
// not named verbatim in spec.md, which says only that they must be
// inferred from test behavior, not invented from nothing): no dangling
// edges, no cycles, every MODEL node reachable from an INPUT and able to
// reach an OUTPUT, and every edge's socket name recognized by its MODEL
// endpoint.
func CheckFlowGraph(f *FlowDefinition) []FlowIssue {
	var issues []FlowIssue

	for _, e := range f.Edges {
		if _, ok := f.Nodes[e.Source.Node]; !ok {
			issues = append(issues, FlowIssue{"DANGLING_EDGE", fmt.Sprintf("edge source node %q does not exist", e.Source.Node)})
		}
		if _, ok := f.Nodes[e.Target.Node]; !ok {
			issues = append(issues, FlowIssue{"DANGLING_EDGE", fmt.Sprintf("edge target node %q does not exist", e.Target.Node)})
		}
	}
	if len(issues) > 0 {
		// Cycle/reachability analysis assumes every edge endpoint exists;
		// bail out early rather than compounding confusing errors.
		return issues
	}

	issues = append(issues, checkSockets(f)...)
	issues = append(issues, checkAcyclic(f)...)
	issues = append(issues, checkReachability(f)...)
	return issues
}

func checkSockets(f *FlowDefinition) []FlowIssue {
	var issues []FlowIssue
	socketSet := func(node FlowNode, ofInputs bool) map[string]bool {
		names := node.Inputs
		if !ofInputs {
			names = node.Outputs
		}
		set := make(map[string]bool, len(names))
		for _, n := range names {
			set[n] = true
		}
		return set
	}
	for _, e := range f.Edges {
		src := f.Nodes[e.Source.Node]
		if src.NodeType == FlowNodeModel && e.Source.Socket != "" {
			if !socketSet(src, false)[e.Source.Socket] {
				issues = append(issues, FlowIssue{"UNKNOWN_SOCKET", fmt.Sprintf("model node %q has no output socket %q", e.Source.Node, e.Source.Socket)})
			}
		}
		tgt := f.Nodes[e.Target.Node]
		if tgt.NodeType == FlowNodeModel && e.Target.Socket != "" {
			if !socketSet(tgt, true)[e.Target.Socket] {
				issues = append(issues, FlowIssue{"UNKNOWN_SOCKET", fmt.Sprintf("model node %q has no input socket %q", e.Target.Node, e.Target.Socket)})
			}
		}
	}
	return issues
}

func checkAcyclic(f *FlowDefinition) []FlowIssue {
	adj := buildAdjacency(f)
	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int, len(f.Nodes))
	for n := range f.Nodes {
		color[n] = white
	}

	var cyclic bool
	var visit func(n string)
	visit = func(n string) {
		if cyclic {
			return
		}
		color[n] = grey
		for _, next := range adj[n] {
			switch color[next] {
			case grey:
				cyclic = true
				return
			case white:
				visit(next)
			}
		}
		color[n] = black
	}
	for n := range f.Nodes {
		if color[n] == white {
			visit(n)
		}
		if cyclic {
			break
		}
	}
	if cyclic {
		return []FlowIssue{{"CYCLE", "flow graph contains a cycle"}}
	}
	return nil
}

func checkReachability(f *FlowDefinition) []FlowIssue {
	adj := buildAdjacency(f)
	rev := make(map[string][]string, len(f.Nodes))
	for src, targets := range adj {
		for _, t := range targets {
			rev[t] = append(rev[t], src)
		}
	}

	reachableFromInput := bfs(f, adj, FlowNodeInput)
	reachesOutput := bfs(f, rev, FlowNodeOutput)

	var issues []FlowIssue
	for name, node := range f.Nodes {
		if node.NodeType != FlowNodeModel {
			continue
		}
		if !reachableFromInput[name] {
			issues = append(issues, FlowIssue{"UNUSED_MODEL", fmt.Sprintf("model node %q is not reachable from any input", name)})
		} else if !reachesOutput[name] {
			issues = append(issues, FlowIssue{"UNUSED_MODEL", fmt.Sprintf("model node %q does not reach any output", name)})
		}
	}
	return issues
}

func buildAdjacency(f *FlowDefinition) map[string][]string {
	adj := make(map[string][]string, len(f.Nodes))
	for _, e := range f.Edges {
		adj[e.Source.Node] = append(adj[e.Source.Node], e.Target.Node)
	}
	return adj
}

func bfs(f *FlowDefinition, adj map[string][]string, from FlowNodeType) map[string]bool {
	visited := make(map[string]bool, len(f.Nodes))
	var queue []string
	for name, n := range f.Nodes {
		if n.NodeType == from {
			visited[name] = true
			queue = append(queue, name)
		}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adj[cur] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return visited
}
