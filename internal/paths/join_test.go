package paths

import (
	"testing"

	"github.com/procwise/flowschema/internal/graph"
	"github.com/procwise/flowschema/pkg/schema"
)

func buildGraph(nodes []schema.FlowNode, edges []schema.FlowEdge) *graph.Graph {
	return graph.Build(&schema.Record{StepNodes: nodes, SequenceFlow: edges})
}

func n(id string, kind schema.NodeKind, text string) schema.FlowNode {
	return schema.FlowNode{ResourceID: id, Kind: kind, Text: text}
}

func ed(src, tgt string) schema.FlowEdge {
	return schema.FlowEdge{Source: src, Target: tgt}
}

func TestMatchJoin_SimpleDiamond(t *testing.T) {
	g := buildGraph(
		[]schema.FlowNode{
			n("split", schema.NodeKindParallel, ""),
			n("a", schema.NodeKindActivity, "a"),
			n("b", schema.NodeKindActivity, "b"),
			n("join", schema.NodeKindParallel, ""),
		},
		[]schema.FlowEdge{
			ed("split", "a"), ed("split", "b"),
			ed("a", "join"), ed("b", "join"),
		},
	)

	join, ok := MatchJoin(g, "split")
	if !ok || join != "join" {
		t.Fatalf("expected join, got %q (ok=%v)", join, ok)
	}
}

func TestMatchJoin_NestedSplitsFindClosest(t *testing.T) {
	// outer splits into a and an inner diamond; the inner join must not be
	// returned for the outer split, and vice versa.
	g := buildGraph(
		[]schema.FlowNode{
			n("outer", schema.NodeKindParallel, ""),
			n("a", schema.NodeKindActivity, "a"),
			n("inner", schema.NodeKindParallel, ""),
			n("b", schema.NodeKindActivity, "b"),
			n("c", schema.NodeKindActivity, "c"),
			n("innerJoin", schema.NodeKindParallel, ""),
			n("outerJoin", schema.NodeKindParallel, ""),
		},
		[]schema.FlowEdge{
			ed("outer", "a"), ed("outer", "inner"),
			ed("inner", "b"), ed("inner", "c"),
			ed("b", "innerJoin"), ed("c", "innerJoin"),
			ed("innerJoin", "outerJoin"), ed("a", "outerJoin"),
		},
	)

	if join, ok := MatchJoin(g, "inner"); !ok || join != "innerJoin" {
		t.Errorf("inner split: expected innerJoin, got %q (ok=%v)", join, ok)
	}
	if join, ok := MatchJoin(g, "outer"); !ok || join != "outerJoin" {
		t.Errorf("outer split: expected outerJoin, got %q (ok=%v)", join, ok)
	}
}

func TestMatchJoin_MixedGatewayKindsAccepted(t *testing.T) {
	// A parallel split converging on an exclusive join is accepted.
	g := buildGraph(
		[]schema.FlowNode{
			n("split", schema.NodeKindParallel, ""),
			n("a", schema.NodeKindActivity, "a"),
			n("b", schema.NodeKindActivity, "b"),
			n("merge", schema.NodeKindExclusive, ""),
		},
		[]schema.FlowEdge{
			ed("split", "a"), ed("split", "b"),
			ed("a", "merge"), ed("b", "merge"),
		},
	)

	join, ok := MatchJoin(g, "split")
	if !ok || join != "merge" {
		t.Errorf("expected merge, got %q (ok=%v)", join, ok)
	}
}

func TestMatchJoin_NoReconvergence(t *testing.T) {
	g := buildGraph(
		[]schema.FlowNode{
			n("split", schema.NodeKindParallel, ""),
			n("a", schema.NodeKindActivity, "a"),
			n("b", schema.NodeKindActivity, "b"),
		},
		[]schema.FlowEdge{
			ed("split", "a"), ed("split", "b"),
		},
	)

	if join, ok := MatchJoin(g, "split"); ok {
		t.Errorf("expected no join, got %q", join)
	}
}

func TestMatchJoin_ConvergenceOnActivityIsNotAJoin(t *testing.T) {
	// Both branches reach d, but d is an activity, not a gateway.
	g := buildGraph(
		[]schema.FlowNode{
			n("split", schema.NodeKindParallel, ""),
			n("a", schema.NodeKindActivity, "a"),
			n("b", schema.NodeKindActivity, "b"),
			n("d", schema.NodeKindActivity, "d"),
		},
		[]schema.FlowEdge{
			ed("split", "a"), ed("split", "b"),
			ed("a", "d"), ed("b", "d"),
		},
	)

	if join, ok := MatchJoin(g, "split"); ok {
		t.Errorf("expected no gateway join, got %q", join)
	}
}

func TestMatchJoin_CycleBackToSplit(t *testing.T) {
	// A branch loops back to the split; reachability must still terminate
	// and find the true join.
	g := buildGraph(
		[]schema.FlowNode{
			n("split", schema.NodeKindParallel, ""),
			n("a", schema.NodeKindActivity, "a"),
			n("b", schema.NodeKindActivity, "b"),
			n("join", schema.NodeKindParallel, ""),
		},
		[]schema.FlowEdge{
			ed("split", "a"), ed("split", "b"),
			ed("a", "split"),
			ed("a", "join"), ed("b", "join"),
		},
	)

	join, ok := MatchJoin(g, "split")
	if !ok || join != "join" {
		t.Errorf("expected join despite cycle, got %q (ok=%v)", join, ok)
	}
}

func TestMatchJoin_SingleBranchIsNotASplit(t *testing.T) {
	g := buildGraph(
		[]schema.FlowNode{
			n("gw", schema.NodeKindParallel, ""),
			n("a", schema.NodeKindActivity, "a"),
		},
		[]schema.FlowEdge{ed("gw", "a")},
	)

	if _, ok := MatchJoin(g, "gw"); ok {
		t.Error("single outgoing edge must not produce a join")
	}
}
