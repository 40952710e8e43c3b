// Package extract turns a raw flow-graph record into the normalized workflow
// document: actions, gateways, and the derived execution-state map.
package extract

import (
	"strings"

	"github.com/procwise/flowschema/internal/graph"
	"github.com/procwise/flowschema/internal/ident"
	"github.com/procwise/flowschema/internal/paths"
	"github.com/procwise/flowschema/pkg/schema"
)

// Extract runs the full extraction pipeline for one record. It is a pure,
// synchronous computation; all bookkeeping (identifier registry, visit
// counts, path accumulator) is scoped to this call, so records can be
// processed in parallel by an outer driver with no coordination.
//
// The only hard failure is a malformed record (missing required fields).
// Noisy input inside a well-formed record degrades gracefully: edges
// referencing unknown nodes, unlabeled nodes, splits that never reconverge.
func Extract(rec *schema.Record) (*schema.Document, error) {
	if rec == nil {
		return nil, schema.NewError(schema.ErrCodeMalformedRecord, "record is nil")
	}
	if rec.StepNodes == nil {
		return nil, schema.NewError(schema.ErrCodeMalformedRecord, "record has no step_nodes").
			WithRecord(rec.FileIndex)
	}
	if rec.SequenceFlow == nil {
		return nil, schema.NewError(schema.ErrCodeMalformedRecord, "record has no SequenceFlow").
			WithRecord(rec.FileIndex)
	}

	g := graph.Build(rec)
	actionIDs := ident.ActionIDs(g)
	gatewayIDs := ident.GatewayIDs(g)

	unique := paths.Enumerate(g, actionIDs)

	return &schema.Document{
		FileIndex:     rec.FileIndex,
		ProcedureText: rec.ProcedureText,
		Workflow: schema.Workflow{
			Actors:          Actors(rec),
			Actions:         Actions(g, actionIDs, gatewayIDs),
			Gateways:        Gateways(g, actionIDs, gatewayIDs),
			ExecutionStates: paths.States(unique),
		},
	}, nil
}

// Actors collects the distinct non-empty agent names across all nodes,
// trimmed, in first-seen order.
func Actors(rec *schema.Record) []string {
	actors := make([]string, 0)
	seen := make(map[string]struct{})
	for _, n := range rec.StepNodes {
		agent := strings.TrimSpace(n.Agent)
		if agent == "" {
			continue
		}
		if _, dup := seen[agent]; dup {
			continue
		}
		seen[agent] = struct{}{}
		actors = append(actors, agent)
	}
	return actors
}
