package extract

import (
	"strings"

	"github.com/procwise/flowschema/internal/graph"
	"github.com/procwise/flowschema/pkg/schema"
)

// Actions builds the Action entities for every actionable node, in input
// order. Predecessor and successor references are resolved against the
// identifier mappings and de-duplicated preserving first-seen order.
func Actions(g *graph.Graph, actionIDs, gatewayIDs map[string]string) []schema.Action {
	actions := make([]schema.Action, 0, len(actionIDs))

	for _, rid := range g.Order() {
		aid, actionable := actionIDs[rid]
		if !actionable {
			continue
		}
		node, _ := g.Node(rid)

		predecessors := make([]string, 0)
		for _, nb := range g.Incoming(rid) {
			src, known := g.Node(nb.ID)
			if !known {
				continue
			}
			switch {
			case actionIDs[nb.ID] != "":
				predecessors = append(predecessors, actionIDs[nb.ID])
			case src.Kind.IsGateway():
				predecessors = append(predecessors, gatewayIDs[nb.ID])
			case src.Kind == schema.NodeKindStart:
				predecessors = append(predecessors, schema.StartSentinel)
			}
		}

		successors := make([]string, 0)
		for _, nb := range g.Outgoing(rid) {
			tgt, known := g.Node(nb.ID)
			if !known {
				continue
			}
			switch {
			case actionIDs[nb.ID] != "":
				successors = append(successors, actionIDs[nb.ID])
			case tgt.Kind.IsGateway():
				successors = append(successors, gatewayIDs[nb.ID])
			}
			// Unlabeled end nodes are invisible at the action level; the
			// termination surfaces in paths and execution states instead.
		}

		actions = append(actions, schema.Action{
			ID:             aid,
			Name:           strings.TrimSpace(node.Text),
			Actor:          strings.TrimSpace(node.Agent),
			Predecessors:   dedup(predecessors),
			Successors:     dedup(successors),
			Postconditions: []string{aid + "_done"},
		})
	}

	return actions
}

// dedup removes duplicates preserving first-seen order. Two edges into the
// same neighbor must not duplicate the reference.
func dedup(refs []string) []string {
	seen := make(map[string]struct{}, len(refs))
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
