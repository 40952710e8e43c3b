package diagram

import (
	"fmt"

	"github.com/procwise/flowschema/pkg/schema"
)

// endNodeID is the synthetic sink for terminating branches and actions
// without successors.
const endNodeID = "__end__"

// FromDocument builds a diagram model from an extracted workflow document.
// Actions and gateways become nodes in document order; edges are derived
// from action successors and gateway branches so that every rendered edge
// corresponds to a flow the schema permits.
func FromDocument(doc *schema.Document) *Model {
	m := &Model{
		Title: fmt.Sprintf("record %d", doc.FileIndex),
	}

	wf := doc.Workflow
	needsStart := false
	needsEnd := false

	gatewayIDs := make(map[string]bool, len(wf.Gateways))
	for _, gw := range wf.Gateways {
		gatewayIDs[gw.ID] = true
	}

	var nodes []*Node
	var edges []Edge

	for _, a := range wf.Actions {
		nodes = append(nodes, &Node{ID: a.ID, Label: a.Name, Kind: NodeKindAction})
		for _, p := range a.Predecessors {
			if p == schema.StartSentinel {
				needsStart = true
				edges = append(edges, Edge{From: schema.StartSentinel, To: a.ID})
			}
		}
		if len(a.Successors) == 0 {
			needsEnd = true
			edges = append(edges, Edge{From: a.ID, To: endNodeID})
			continue
		}
		for _, s := range a.Successors {
			edges = append(edges, Edge{From: a.ID, To: s})
		}
	}

	for _, gw := range wf.Gateways {
		nodes = append(nodes, &Node{
			ID:    gw.ID,
			Label: string(gw.Type) + " " + string(gw.Role),
			Kind:  gatewayNodeKind(gw.Type),
		})
		for _, br := range gw.Branches {
			if br.Next == nil {
				needsEnd = true
				edges = append(edges, Edge{From: gw.ID, To: endNodeID, Label: br.Condition})
				continue
			}
			if *br.Next == schema.StartSentinel {
				// A branch back to the process entry point.
				needsStart = true
			}
			edges = append(edges, Edge{From: gw.ID, To: *br.Next, Label: br.Condition})
		}
	}

	if needsStart {
		nodes = append([]*Node{{ID: schema.StartSentinel, Label: "start", Kind: NodeKindStart}}, nodes...)
	}
	if needsEnd {
		nodes = append(nodes, &Node{ID: endNodeID, Label: "end", Kind: NodeKindEnd})
	}

	// Drop edges whose target was never declared. Successors only reference
	// actions and gateways, so this should not trigger on valid documents.
	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
	}
	for _, e := range edges {
		if known[e.From] && known[e.To] {
			m.Edges = append(m.Edges, e)
		}
	}
	m.Nodes = nodes

	return m
}

func gatewayNodeKind(t schema.GatewayType) NodeKind {
	switch t {
	case schema.GatewayParallel:
		return NodeKindParallel
	case schema.GatewayInclusive:
		return NodeKindInclusive
	default:
		return NodeKindExclusive
	}
}
