package graph

import "github.com/procwise/flowschema/pkg/schema"

// Neighbor is one adjacency entry: the node on the other end of an edge plus
// the edge's branch condition label (possibly empty).
type Neighbor struct {
	ID        string
	Condition string
}

// Graph is the indexed, read-only view of one record's nodes and edges.
// Node ordering follows the input array, which makes every derived identifier
// deterministic for a fixed input. Edges referencing unknown nodes are kept in
// the adjacency views (they count toward degrees); consumers that look the
// neighbor up and find no node skip the edge.
type Graph struct {
	nodes    map[string]schema.FlowNode
	order    []string
	index    map[string]int
	outgoing map[string][]Neighbor
	incoming map[string][]Neighbor
}

// Build indexes a record's nodes and edges in O(V+E).
func Build(rec *schema.Record) *Graph {
	g := &Graph{
		nodes:    make(map[string]schema.FlowNode, len(rec.StepNodes)),
		index:    make(map[string]int, len(rec.StepNodes)),
		outgoing: make(map[string][]Neighbor, len(rec.StepNodes)),
		incoming: make(map[string][]Neighbor, len(rec.StepNodes)),
	}

	for _, n := range rec.StepNodes {
		if _, exists := g.index[n.ResourceID]; exists {
			// Duplicate resource id: last node wins, first position kept.
			g.nodes[n.ResourceID] = n
			continue
		}
		g.index[n.ResourceID] = len(g.order)
		g.order = append(g.order, n.ResourceID)
		g.nodes[n.ResourceID] = n
	}

	for _, e := range rec.SequenceFlow {
		g.outgoing[e.Source] = append(g.outgoing[e.Source], Neighbor{ID: e.Target, Condition: e.Condition})
		g.incoming[e.Target] = append(g.incoming[e.Target], Neighbor{ID: e.Source, Condition: e.Condition})
	}

	return g
}

// Node returns the node with the given resource id.
func (g *Graph) Node(id string) (schema.FlowNode, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Order returns resource ids in input order.
func (g *Graph) Order() []string { return g.order }

// IndexOf returns the node's position in the input ordering.
func (g *Graph) IndexOf(id string) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// Len returns the number of distinct nodes.
func (g *Graph) Len() int { return len(g.order) }

// Outgoing returns the ordered outgoing adjacency of a node.
func (g *Graph) Outgoing(id string) []Neighbor { return g.outgoing[id] }

// Incoming returns the ordered incoming adjacency of a node.
func (g *Graph) Incoming(id string) []Neighbor { return g.incoming[id] }

// OutDegree counts outgoing edges, including edges to unknown nodes.
func (g *Graph) OutDegree(id string) int { return len(g.outgoing[id]) }

// InDegree counts incoming edges, including edges from unknown nodes.
func (g *Graph) InDegree(id string) int { return len(g.incoming[id]) }

// IsSplit reports whether the node has more than one outgoing edge.
func (g *Graph) IsSplit(id string) bool { return g.OutDegree(id) > 1 }

// IsJoin reports whether the node has more than one incoming edge.
func (g *Graph) IsJoin(id string) bool { return g.InDegree(id) > 1 }

// StartNodes returns the resource ids of all start nodes in input order.
func (g *Graph) StartNodes() []string {
	var starts []string
	for _, id := range g.order {
		if g.nodes[id].Kind == schema.NodeKindStart {
			starts = append(starts, id)
		}
	}
	return starts
}
