package objectdef

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func simpleFlow() *FlowDefinition {
	return &FlowDefinition{
		Nodes: map[string]FlowNode{
			"input_1":  {NodeType: FlowNodeInput},
			"input_2":  {NodeType: FlowNodeInput},
			"model_1":  {NodeType: FlowNodeModel, Inputs: []string{"a", "b"}, Outputs: []string{"out"}},
			"output_1": {NodeType: FlowNodeOutput},
		},
		Edges: []FlowEdge{
			{Source: FlowSocket{Node: "input_1"}, Target: FlowSocket{Node: "model_1", Socket: "a"}},
			{Source: FlowSocket{Node: "input_2"}, Target: FlowSocket{Node: "model_1", Socket: "b"}},
			{Source: FlowSocket{Node: "model_1", Socket: "out"}, Target: FlowSocket{Node: "output_1"}},
		},
	}
}

func TestCheckFlowGraphAcceptsWellFormedFlow(t *testing.T) {
	issues := CheckFlowGraph(simpleFlow())
	assert.Empty(t, issues)
}

func TestCheckFlowGraphDetectsDanglingEdge(t *testing.T) {
	f := simpleFlow()
	f.Edges = append(f.Edges, FlowEdge{Source: FlowSocket{Node: "ghost"}, Target: FlowSocket{Node: "output_1"}})
	issues := CheckFlowGraph(f)
	assertHasCode(t, issues, "DANGLING_EDGE")
}

func TestCheckFlowGraphDetectsCycle(t *testing.T) {
	f := simpleFlow()
	f.Nodes["model_2"] = FlowNode{NodeType: FlowNodeModel, Inputs: []string{"in"}, Outputs: []string{"out"}}
	f.Edges = append(f.Edges,
		FlowEdge{Source: FlowSocket{Node: "model_1", Socket: "out"}, Target: FlowSocket{Node: "model_2", Socket: "in"}},
		FlowEdge{Source: FlowSocket{Node: "model_2", Socket: "out"}, Target: FlowSocket{Node: "model_1", Socket: "a"}},
	)
	issues := CheckFlowGraph(f)
	assertHasCode(t, issues, "CYCLE")
}

func TestCheckFlowGraphDetectsUnusedModel(t *testing.T) {
	f := simpleFlow()
	f.Nodes["model_orphan"] = FlowNode{NodeType: FlowNodeModel}
	issues := CheckFlowGraph(f)
	assertHasCode(t, issues, "UNUSED_MODEL")
}

func TestCheckFlowGraphDetectsUnknownSocket(t *testing.T) {
	f := simpleFlow()
	f.Edges = append(f.Edges, FlowEdge{Source: FlowSocket{Node: "input_1"}, Target: FlowSocket{Node: "model_1", Socket: "nonexistent"}})
	issues := CheckFlowGraph(f)
	assertHasCode(t, issues, "UNKNOWN_SOCKET")
}

func assertHasCode(t *testing.T, issues []FlowIssue, code string) {
	t.Helper()
	for _, iss := range issues {
		if iss.Code == code {
			return
		}
	}
	t.Fatalf("expected an issue with code %s, got %+v", code, issues)
}
