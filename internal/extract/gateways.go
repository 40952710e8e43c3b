package extract

import (
	"strings"

	"github.com/procwise/flowschema/internal/graph"
	"github.com/procwise/flowschema/pkg/schema"
)

// Gateways builds the Gateway entities for every gateway node, in input
// order. Each outgoing edge becomes a branch; a branch targeting an unlabeled
// end node keeps a nil next so the termination (and its condition label)
// stays visible. Roles derive purely from raw in/out degree.
func Gateways(g *graph.Graph, actionIDs, gatewayIDs map[string]string) []schema.Gateway {
	gateways := make([]schema.Gateway, 0, len(gatewayIDs))

	for _, rid := range g.Order() {
		gid, isGateway := gatewayIDs[rid]
		if !isGateway {
			continue
		}
		node, _ := g.Node(rid)

		branches := make([]schema.Branch, 0, g.OutDegree(rid))
		for _, nb := range g.Outgoing(rid) {
			tgt, known := g.Node(nb.ID)
			if !known {
				continue
			}

			var next *string
			switch {
			case actionIDs[nb.ID] != "":
				next = ref(actionIDs[nb.ID])
			case tgt.Kind.IsGateway():
				next = ref(gatewayIDs[nb.ID])
			case tgt.Kind == schema.NodeKindEnd:
				// Implicit termination: next stays nil, condition preserved.
			case tgt.Kind == schema.NodeKindStart:
				next = ref(schema.StartSentinel)
			default:
				// Unlabeled activity: nothing referencable on this branch.
				continue
			}

			branches = append(branches, schema.Branch{
				Next:      next,
				Condition: strings.TrimSpace(nb.Condition),
			})
		}

		incomingFrom := make([]string, 0)
		for _, nb := range g.Incoming(rid) {
			src, known := g.Node(nb.ID)
			if !known {
				continue
			}
			switch {
			case actionIDs[nb.ID] != "":
				incomingFrom = append(incomingFrom, actionIDs[nb.ID])
			case src.Kind.IsGateway():
				incomingFrom = append(incomingFrom, gatewayIDs[nb.ID])
			}
		}

		gateways = append(gateways, schema.Gateway{
			ID:           gid,
			Type:         schema.GatewayTypeOf(node.Kind),
			Role:         schema.RoleFor(g.InDegree(rid), g.OutDegree(rid)),
			IncomingFrom: dedup(incomingFrom),
			Branches:     branches,
			Actor:        strings.TrimSpace(node.Agent),
		})
	}

	return gateways
}

func ref(id string) *string {
	return &id
}
