// Package paths enumerates the bounded set of complete execution paths
// through a record's flow graph and folds them into execution states.
package paths

import "github.com/procwise/flowschema/internal/graph"

// MatchJoin finds the convergence (join) gateway corresponding to a split
// node. The first pass BFSes each branch to compute its forward-reachable set
// (excluding the split itself, so cycles back to the split do not loop); the
// intersection of those sets yields the candidates reachable from every
// branch. The second pass BFSes from the branches again in edge order and
// returns the first visited candidate that is a gateway with in-degree > 1,
// which is the closest join and avoids skipping past a nested one. A join of
// any gateway kind is accepted; real-world graphs pair splits with
// differently-typed joins.
func MatchJoin(g *graph.Graph, splitID string) (string, bool) {
	branches := g.Outgoing(splitID)
	if len(branches) <= 1 {
		return "", false
	}

	branchReach := make([]map[string]struct{}, 0, len(branches))
	for _, br := range branches {
		reach := make(map[string]struct{})
		queue := []string{br.ID}
		for len(queue) > 0 {
			nid := queue[0]
			queue = queue[1:]
			if nid == splitID {
				continue
			}
			if _, seen := reach[nid]; seen {
				continue
			}
			reach[nid] = struct{}{}
			for _, nb := range g.Outgoing(nid) {
				queue = append(queue, nb.ID)
			}
		}
		branchReach = append(branchReach, reach)
	}

	common := branchReach[0]
	for _, reach := range branchReach[1:] {
		next := make(map[string]struct{})
		for nid := range common {
			if _, ok := reach[nid]; ok {
				next[nid] = struct{}{}
			}
		}
		common = next
	}
	if len(common) == 0 {
		return "", false
	}

	queue := make([]string, 0, len(branches))
	for _, br := range branches {
		queue = append(queue, br.ID)
	}
	visited := make(map[string]struct{})
	for len(queue) > 0 {
		nid := queue[0]
		queue = queue[1:]
		if _, seen := visited[nid]; seen {
			continue
		}
		visited[nid] = struct{}{}
		if _, ok := common[nid]; ok && g.IsJoin(nid) {
			if n, exists := g.Node(nid); exists && n.Kind.IsGateway() {
				return nid, true
			}
		}
		for _, nb := range g.Outgoing(nid) {
			queue = append(queue, nb.ID)
		}
	}

	return "", false
}
