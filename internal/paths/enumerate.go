package paths

import (
	"strings"

	"github.com/procwise/flowschema/internal/graph"
	"github.com/procwise/flowschema/pkg/schema"
)

const (
	// MaxPaths bounds the total number of enumerated paths. Parallel and
	// inclusive splits are combinatorial; truncation keeps output bounded.
	MaxPaths = 60

	// MaxLoopIterations bounds visits to any single node along one path.
	// Cycles terminate the path at that point instead of recursing forever.
	MaxLoopIterations = 2
)

// Enumerate walks the graph from every start node and returns all complete,
// deduplicated execution paths as ordered action id sequences. Edge order is
// preserved throughout so that truncation under MaxPaths is deterministic.
func Enumerate(g *graph.Graph, actionIDs map[string]string) [][]string {
	e := &enumerator{g: g, ids: actionIDs}

	var all [][]string
	for _, start := range g.StartNodes() {
		all = append(all, e.walk(start, nil, nil, nil)...)
	}

	seen := make(map[string]struct{}, len(all))
	unique := make([][]string, 0, len(all))
	for _, p := range all {
		key := strings.Join(p, "\x1f")
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, p)
	}
	if len(unique) > MaxPaths {
		unique = unique[:MaxPaths]
	}
	return unique
}

type enumerator struct {
	g   *graph.Graph
	ids map[string]string
}

// walk is the recursive DFS. The visit-count map is value-copied per call so
// sibling branches of a split do not interfere; stop holds the join node at
// which recursion halts while exploring inside a parallel/inclusive branch.
func (e *enumerator) walk(current string, path []string, visits map[string]int, stop map[string]struct{}) [][]string {
	if _, halt := stop[current]; halt {
		return [][]string{path}
	}
	if visits[current] >= MaxLoopIterations {
		return [][]string{path}
	}
	visits = cloneVisits(visits)
	visits[current]++

	node, ok := e.g.Node(current)
	if !ok {
		return [][]string{path}
	}

	switch node.Kind {
	case schema.NodeKindEnd:
		// Labeled end nodes close the path with their action appended;
		// unlabeled ones are implicit termination.
		if aid, labeled := e.ids[current]; labeled {
			return [][]string{appendAction(path, aid)}
		}
		return [][]string{path}

	case schema.NodeKindActivity:
		if _, labeled := e.ids[current]; labeled {
			return e.walkAction(current, path, visits, stop)
		}
		// Unlabeled activity: no action id exists for it, so it contributes
		// nothing to the path. A dead end closes the path as-is.
		edges := e.g.Outgoing(current)
		if len(edges) == 0 {
			return [][]string{path}
		}
		var all [][]string
		for _, nb := range edges {
			all = append(all, e.walk(nb.ID, path, visits, stop)...)
		}
		return all

	case schema.NodeKindStart:
		if _, labeled := e.ids[current]; labeled {
			return e.walkAction(current, path, visits, stop)
		}
		// Unlabeled start: structural only, follow outgoing edges.
		var all [][]string
		for _, nb := range e.g.Outgoing(current) {
			all = append(all, e.walk(nb.ID, path, visits, stop)...)
		}
		return all

	case schema.NodeKindExclusive:
		// Each branch becomes a separate path; exclusivity is modeled by the
		// set of resulting paths, each committed to one branch.
		var all [][]string
		for _, nb := range e.g.Outgoing(current) {
			all = append(all, e.walk(nb.ID, path, visits, stop)...)
		}
		return all

	case schema.NodeKindParallel:
		return e.walkParallel(current, path, visits, stop)

	case schema.NodeKindInclusive:
		return e.walkInclusive(current, path, visits, stop)
	}

	// Unknown kind: close the path as-is.
	return [][]string{path}
}

// walkAction appends the node's action id and recurses on outgoing edges.
func (e *enumerator) walkAction(current string, path []string, visits map[string]int, stop map[string]struct{}) [][]string {
	next := appendAction(path, e.ids[current])
	edges := e.g.Outgoing(current)
	if len(edges) == 0 {
		return [][]string{next}
	}
	var all [][]string
	for _, nb := range edges {
		all = append(all, e.walk(nb.ID, next, visits, stop)...)
	}
	return all
}

// walkParallel handles AND gateways. A join role passes through; a split
// enumerates each branch up to the matched join, then emits every permutation
// of every per-branch sub-path combination, continuing from the join.
func (e *enumerator) walkParallel(current string, path []string, visits map[string]int, stop map[string]struct{}) [][]string {
	branches := e.g.Outgoing(current)
	if len(branches) == 0 {
		return [][]string{path}
	}

	if e.g.IsJoin(current) && !e.g.IsSplit(current) {
		// Synchronization is implicit: each parallel branch's own recursion
		// already stopped here via the stop set.
		var all [][]string
		for _, nb := range branches {
			all = append(all, e.walk(nb.ID, path, visits, stop)...)
		}
		return all
	}

	joinID, joined := MatchJoin(e.g, current)
	var branchStop map[string]struct{}
	if joined {
		branchStop = map[string]struct{}{joinID: {}}
	}

	branchPaths := make([][][]string, 0, len(branches))
	for _, nb := range branches {
		branchPaths = append(branchPaths, e.walk(nb.ID, nil, visits, branchStop))
	}

	combos := product(branchPaths)
	if len(combos) > MaxPaths {
		combos = combos[:MaxPaths]
	}

	var all [][]string
	for _, combo := range combos {
		seqs := make([][]string, 0, len(combo))
		for _, seq := range combo {
			if len(seq) > 0 {
				seqs = append(seqs, seq)
			}
		}
		if len(seqs) == 0 {
			// Every branch contributed nothing; continue straight from the join.
			if joined {
				all = append(all, e.walk(joinID, path, visits, stop)...)
			} else {
				all = append(all, path)
			}
			continue
		}
		for _, perm := range permutations(len(seqs)) {
			interleaved := append([]string(nil), path...)
			for _, idx := range perm {
				interleaved = append(interleaved, seqs[idx]...)
			}
			if joined {
				all = append(all, e.walk(joinID, interleaved, visits, stop)...)
			} else {
				all = append(all, interleaved)
			}
			if len(all) >= MaxPaths {
				break
			}
		}
		if len(all) >= MaxPaths {
			break
		}
	}
	if len(all) > MaxPaths {
		all = all[:MaxPaths]
	}
	return all
}

// walkInclusive handles OR gateways. A join role passes through; a split
// enumerates every non-empty subset of branches, concatenating each subset's
// sub-path combination in subset order without permutation.
func (e *enumerator) walkInclusive(current string, path []string, visits map[string]int, stop map[string]struct{}) [][]string {
	branches := e.g.Outgoing(current)
	if len(branches) == 0 {
		return [][]string{path}
	}

	if e.g.IsJoin(current) && !e.g.IsSplit(current) {
		var all [][]string
		for _, nb := range branches {
			all = append(all, e.walk(nb.ID, path, visits, stop)...)
		}
		return all
	}

	joinID, joined := MatchJoin(e.g, current)
	var branchStop map[string]struct{}
	if joined {
		branchStop = map[string]struct{}{joinID: {}}
	}

	branchPaths := make([][][]string, 0, len(branches))
	for _, nb := range branches {
		branchPaths = append(branchPaths, e.walk(nb.ID, nil, visits, branchStop))
	}

	var all [][]string
	for r := 1; r <= len(branchPaths); r++ {
		for _, subset := range combinations(len(branchPaths), r) {
			chosen := make([][][]string, 0, r)
			for _, i := range subset {
				chosen = append(chosen, branchPaths[i])
			}
			for _, combo := range product(chosen) {
				merged := append([]string(nil), path...)
				for _, seq := range combo {
					merged = append(merged, seq...)
				}
				if joined {
					all = append(all, e.walk(joinID, merged, visits, stop)...)
				} else {
					all = append(all, merged)
				}
				if len(all) >= MaxPaths {
					break
				}
			}
			if len(all) >= MaxPaths {
				break
			}
		}
		if len(all) >= MaxPaths {
			break
		}
	}
	if len(all) > MaxPaths {
		all = all[:MaxPaths]
	}
	return all
}

// appendAction copies the path before appending so callers can hand the same
// prefix to multiple recursive branches without aliasing.
func appendAction(path []string, id string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = id
	return out
}

func cloneVisits(visits map[string]int) map[string]int {
	out := make(map[string]int, len(visits)+1)
	for k, v := range visits {
		out[k] = v
	}
	return out
}
