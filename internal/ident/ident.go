// Package ident derives the stable identifiers used to reference nodes in the
// extracted workflow schema. The rules are pure and deterministic for a fixed
// input ordering, so a downstream consumer can recompute the same mappings
// from a raw record and diff them against extracted output.
package ident

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/procwise/flowschema/internal/graph"
	"github.com/procwise/flowschema/pkg/schema"
)

// FallbackActionID is used when a node's text slugs down to nothing.
const FallbackActionID = "unnamed_action"

// Slug normalizes node text into an identifier: lowercase, trimmed, single
// spaces replaced with underscores, apostrophes dropped, and any remaining
// character that is not a letter, digit or underscore dropped. Note that the
// space replacement is literal, so doubled spaces produce doubled underscores.
func Slug(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "'", "")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Registry tracks identifiers already handed out within one record. It must
// be freshly created per record; reusing it across records leaks collisions
// between unrelated graphs.
type Registry struct {
	seen map[string]struct{}
}

// NewRegistry creates an empty per-record identifier registry.
func NewRegistry() *Registry {
	return &Registry{seen: make(map[string]struct{})}
}

// ActionID slugs the text and resolves collisions by appending _2, _3, ...
// in first-seen order. The returned id is recorded as taken.
func (r *Registry) ActionID(text string) string {
	base := Slug(text)
	if base == "" {
		base = FallbackActionID
	}

	id := base
	for counter := 2; ; counter++ {
		if _, taken := r.seen[id]; !taken {
			break
		}
		id = fmt.Sprintf("%s_%d", base, counter)
	}
	r.seen[id] = struct{}{}
	return id
}

// GatewayID synthesizes a gateway identifier from the node kind and the
// node's position in the record's input ordering. Ids are a property of
// input ordering, not content: the same record re-ordered yields different ids.
func GatewayID(kind schema.NodeKind, index int) string {
	return "gateway_" + strings.ToLower(string(kind)) + "_" + strconv.Itoa(index)
}

// ActionIDs computes the resource id → action id mapping for every actionable
// node (Activity, or Start/End with non-empty text) in input order. This is
// the single source of truth for referencing actionable nodes elsewhere.
func ActionIDs(g *graph.Graph) map[string]string {
	reg := NewRegistry()
	ids := make(map[string]string)
	for _, rid := range g.Order() {
		n, _ := g.Node(rid)
		if n.Kind.IsActionable() && strings.TrimSpace(n.Text) != "" {
			ids[rid] = reg.ActionID(n.Text)
		}
	}
	return ids
}

// GatewayIDs computes the resource id → gateway id mapping for every gateway
// node, keyed off the same input ordering as ActionIDs.
func GatewayIDs(g *graph.Graph) map[string]string {
	ids := make(map[string]string)
	for _, rid := range g.Order() {
		n, _ := g.Node(rid)
		if n.Kind.IsGateway() {
			idx, _ := g.IndexOf(rid)
			ids[rid] = GatewayID(n.Kind, idx)
		}
	}
	return ids
}
