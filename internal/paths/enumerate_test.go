package paths

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/procwise/flowschema/internal/graph"
	"github.com/procwise/flowschema/internal/ident"
	"github.com/procwise/flowschema/pkg/schema"
)

func enumerate(g *graph.Graph) [][]string {
	return Enumerate(g, ident.ActionIDs(g))
}

func containsPath(paths [][]string, want []string) bool {
	for _, p := range paths {
		if reflect.DeepEqual(p, want) {
			return true
		}
	}
	return false
}

func TestEnumerate_LinearChain(t *testing.T) {
	g := buildGraph(
		[]schema.FlowNode{
			n("s", schema.NodeKindStart, ""),
			n("a", schema.NodeKindActivity, "check inventory"),
			n("b", schema.NodeKindActivity, "ship order"),
			n("e", schema.NodeKindEnd, ""),
		},
		[]schema.FlowEdge{ed("s", "a"), ed("a", "b"), ed("b", "e")},
	)

	paths := enumerate(g)

	if len(paths) != 1 {
		t.Fatalf("expected 1 path, got %d: %v", len(paths), paths)
	}
	if !reflect.DeepEqual(paths[0], []string{"check_inventory", "ship_order"}) {
		t.Errorf("unexpected path: %v", paths[0])
	}
}

func TestEnumerate_LabeledStartAndEndBecomeActions(t *testing.T) {
	g := buildGraph(
		[]schema.FlowNode{
			n("s", schema.NodeKindStart, "Receive Order"),
			n("a", schema.NodeKindActivity, "Pack"),
			n("e", schema.NodeKindEnd, "Order Shipped"),
		},
		[]schema.FlowEdge{ed("s", "a"), ed("a", "e")},
	)

	paths := enumerate(g)

	want := []string{"receive_order", "pack", "order_shipped"}
	if len(paths) != 1 || !reflect.DeepEqual(paths[0], want) {
		t.Errorf("expected %v, got %v", want, paths)
	}
}

func TestEnumerate_ExclusiveSplit(t *testing.T) {
	g := buildGraph(
		[]schema.FlowNode{
			n("s", schema.NodeKindStart, ""),
			n("x", schema.NodeKindExclusive, ""),
			n("a", schema.NodeKindActivity, "pay cash"),
			n("b", schema.NodeKindActivity, "pay card"),
			n("e", schema.NodeKindEnd, ""),
		},
		[]schema.FlowEdge{
			ed("s", "x"),
			{Source: "x", Target: "a", Condition: "cash"},
			{Source: "x", Target: "b", Condition: "card"},
			ed("a", "e"), ed("b", "e"),
		},
	)

	paths := enumerate(g)

	if len(paths) != 2 {
		t.Fatalf("expected 2 paths, got %d: %v", len(paths), paths)
	}
	if !containsPath(paths, []string{"pay_cash"}) || !containsPath(paths, []string{"pay_card"}) {
		t.Errorf("expected one path per branch, got %v", paths)
	}
}

func TestEnumerate_ParallelSplitProducesPermutations(t *testing.T) {
	g := buildGraph(
		[]schema.FlowNode{
			n("s", schema.NodeKindStart, ""),
			n("split", schema.NodeKindParallel, ""),
			n("a", schema.NodeKindActivity, "brew coffee"),
			n("b", schema.NodeKindActivity, "toast bread"),
			n("join", schema.NodeKindParallel, ""),
			n("c", schema.NodeKindActivity, "serve"),
			n("e", schema.NodeKindEnd, ""),
		},
		[]schema.FlowEdge{
			ed("s", "split"),
			ed("split", "a"), ed("split", "b"),
			ed("a", "join"), ed("b", "join"),
			ed("join", "c"), ed("c", "e"),
		},
	)

	paths := enumerate(g)

	if len(paths) != 2 {
		t.Fatalf("expected exactly 2 interleavings, got %d: %v", len(paths), paths)
	}
	if !containsPath(paths, []string{"brew_coffee", "toast_bread", "serve"}) {
		t.Errorf("missing a-before-b interleaving: %v", paths)
	}
	if !containsPath(paths, []string{"toast_bread", "brew_coffee", "serve"}) {
		t.Errorf("missing b-before-a interleaving: %v", paths)
	}
}

func TestEnumerate_InclusiveSplitProducesSubsets(t *testing.T) {
	g := buildGraph(
		[]schema.FlowNode{
			n("s", schema.NodeKindStart, ""),
			n("split", schema.NodeKindInclusive, ""),
			n("a", schema.NodeKindActivity, "add milk"),
			n("b", schema.NodeKindActivity, "add sugar"),
			n("join", schema.NodeKindInclusive, ""),
			n("e", schema.NodeKindEnd, ""),
		},
		[]schema.FlowEdge{
			ed("s", "split"),
			ed("split", "a"), ed("split", "b"),
			ed("a", "join"), ed("b", "join"),
			ed("join", "e"),
		},
	)

	paths := enumerate(g)

	if len(paths) != 3 {
		t.Fatalf("expected 3 subset paths, got %d: %v", len(paths), paths)
	}
	if !containsPath(paths, []string{"add_milk"}) ||
		!containsPath(paths, []string{"add_sugar"}) ||
		!containsPath(paths, []string{"add_milk", "add_sugar"}) {
		t.Errorf("expected {A}, {B}, {A,B} paths, got %v", paths)
	}
	// Subset {A,B} is order-preserved, never permuted.
	if containsPath(paths, []string{"add_sugar", "add_milk"}) {
		t.Errorf("inclusive subsets must not be permuted: %v", paths)
	}
}

func TestEnumerate_ParallelWithoutJoinTerminatesBranches(t *testing.T) {
	g := buildGraph(
		[]schema.FlowNode{
			n("s", schema.NodeKindStart, ""),
			n("split", schema.NodeKindParallel, ""),
			n("a", schema.NodeKindActivity, "a"),
			n("b", schema.NodeKindActivity, "b"),
		},
		[]schema.FlowEdge{
			ed("s", "split"),
			ed("split", "a"), ed("split", "b"),
		},
	)

	paths := enumerate(g)

	if len(paths) != 2 {
		t.Fatalf("expected 2 interleavings, got %d: %v", len(paths), paths)
	}
	if !containsPath(paths, []string{"a", "b"}) || !containsPath(paths, []string{"b", "a"}) {
		t.Errorf("expected both orderings, got %v", paths)
	}
}

func TestEnumerate_CycleBoundedByVisitCount(t *testing.T) {
	// a -> b -> a: each node may appear at most MaxLoopIterations times.
	g := buildGraph(
		[]schema.FlowNode{
			n("s", schema.NodeKindStart, ""),
			n("a", schema.NodeKindActivity, "a"),
			n("b", schema.NodeKindActivity, "b"),
		},
		[]schema.FlowEdge{ed("s", "a"), ed("a", "b"), ed("b", "a")},
	)

	paths := enumerate(g)

	if len(paths) != 1 {
		t.Fatalf("expected 1 bounded path, got %d: %v", len(paths), paths)
	}
	counts := map[string]int{}
	for _, aid := range paths[0] {
		counts[aid]++
		if counts[aid] > MaxLoopIterations {
			t.Fatalf("action %s visited more than %d times: %v", aid, MaxLoopIterations, paths[0])
		}
	}
}

func TestEnumerate_PathCountCapped(t *testing.T) {
	// Three chained exclusive splits with 5 branches each would yield 125
	// distinct paths uncapped.
	nodes := []schema.FlowNode{n("s", schema.NodeKindStart, "")}
	var edges []schema.FlowEdge
	prev := "s"
	for level := 0; level < 3; level++ {
		split := fmt.Sprintf("x%d", level)
		merge := fmt.Sprintf("m%d", level)
		nodes = append(nodes,
			n(split, schema.NodeKindExclusive, ""),
			n(merge, schema.NodeKindExclusive, ""),
		)
		edges = append(edges, ed(prev, split))
		for i := 0; i < 5; i++ {
			act := fmt.Sprintf("a%d_%d", level, i)
			nodes = append(nodes, n(act, schema.NodeKindActivity, act))
			edges = append(edges, ed(split, act), ed(act, merge))
		}
		prev = merge
	}

	paths := enumerate(buildGraph(nodes, edges))

	if len(paths) > MaxPaths {
		t.Fatalf("expected at most %d paths, got %d", MaxPaths, len(paths))
	}
	if len(paths) != MaxPaths {
		t.Errorf("expected truncation at exactly %d paths, got %d", MaxPaths, len(paths))
	}
}

func TestEnumerate_DeduplicatesIdenticalPaths(t *testing.T) {
	// Two parallel edges between the same pair of nodes produce the same
	// sequence twice; dedup keeps one.
	g := buildGraph(
		[]schema.FlowNode{
			n("s", schema.NodeKindStart, ""),
			n("a", schema.NodeKindActivity, "a"),
			n("b", schema.NodeKindActivity, "b"),
		},
		[]schema.FlowEdge{ed("s", "a"), ed("a", "b"), ed("a", "b")},
	)

	paths := enumerate(g)

	if len(paths) != 1 {
		t.Fatalf("expected duplicate paths removed, got %d: %v", len(paths), paths)
	}
}

func TestEnumerate_EdgeToUnknownNodeClosesPath(t *testing.T) {
	g := buildGraph(
		[]schema.FlowNode{
			n("s", schema.NodeKindStart, ""),
			n("a", schema.NodeKindActivity, "a"),
		},
		[]schema.FlowEdge{ed("s", "a"), ed("a", "ghost")},
	)

	paths := enumerate(g)

	if len(paths) != 1 || !reflect.DeepEqual(paths[0], []string{"a"}) {
		t.Errorf("expected path to close at unknown node, got %v", paths)
	}
}

func TestEnumerate_NoStartNodes(t *testing.T) {
	g := buildGraph(
		[]schema.FlowNode{n("a", schema.NodeKindActivity, "a")},
		nil,
	)

	if paths := enumerate(g); len(paths) != 0 {
		t.Errorf("expected no paths without start nodes, got %v", paths)
	}
}

func TestEnumerate_UnlabeledActivityPassesThrough(t *testing.T) {
	g := buildGraph(
		[]schema.FlowNode{
			n("s", schema.NodeKindStart, ""),
			n("blank", schema.NodeKindActivity, "   "),
			n("a", schema.NodeKindActivity, "real step"),
			n("e", schema.NodeKindEnd, ""),
		},
		[]schema.FlowEdge{ed("s", "blank"), ed("blank", "a"), ed("a", "e")},
	)

	paths := enumerate(g)

	if len(paths) != 1 || !reflect.DeepEqual(paths[0], []string{"real_step"}) {
		t.Fatalf("expected [[real_step]], got %v", paths)
	}
	for _, p := range paths {
		for _, id := range p {
			if id == "" {
				t.Errorf("empty action id leaked into path %v", p)
			}
		}
	}
}

func TestEnumerate_UnlabeledActivityDeadEnd(t *testing.T) {
	g := buildGraph(
		[]schema.FlowNode{
			n("s", schema.NodeKindStart, ""),
			n("a", schema.NodeKindActivity, "do work"),
			n("blank", schema.NodeKindActivity, ""),
		},
		[]schema.FlowEdge{ed("s", "a"), ed("a", "blank")},
	)

	paths := enumerate(g)

	if len(paths) != 1 || !reflect.DeepEqual(paths[0], []string{"do_work"}) {
		t.Errorf("expected the path to survive the unlabeled dead end, got %v", paths)
	}
}

func TestEnumerate_Deterministic(t *testing.T) {
	g := buildGraph(
		[]schema.FlowNode{
			n("s", schema.NodeKindStart, ""),
			n("split", schema.NodeKindInclusive, ""),
			n("a", schema.NodeKindActivity, "a"),
			n("b", schema.NodeKindActivity, "b"),
			n("c", schema.NodeKindActivity, "c"),
			n("join", schema.NodeKindInclusive, ""),
			n("e", schema.NodeKindEnd, ""),
		},
		[]schema.FlowEdge{
			ed("s", "split"),
			ed("split", "a"), ed("split", "b"), ed("split", "c"),
			ed("a", "join"), ed("b", "join"), ed("c", "join"),
			ed("join", "e"),
		},
	)

	first := enumerate(g)
	second := enumerate(g)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("enumeration is not deterministic:\n%v\nvs\n%v", first, second)
	}
	if len(first) != 7 {
		t.Errorf("expected 7 non-empty subsets of 3 branches, got %d", len(first))
	}
}
