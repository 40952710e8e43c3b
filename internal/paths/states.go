package paths

import (
	"sort"
	"strings"

	"github.com/procwise/flowschema/pkg/schema"
)

// States folds enumerated paths into the prefix-keyed execution-state map.
// Every prefix of every path becomes a state; its available_next is the union
// of next actions across all paths sharing that exact prefix, which is what
// surfaces both options of a shared divergence point. A prefix where some
// path ends is marked terminal. States appear in first-insertion order and
// available_next is sorted.
func States(paths [][]string) []schema.ExecutionState {
	if len(paths) > MaxPaths {
		paths = paths[:MaxPaths]
	}

	type entry struct {
		prefix   []string
		next     map[string]struct{}
		terminal bool
	}

	var order []string
	index := make(map[string]*entry)

	for _, p := range paths {
		for i := 0; i <= len(p); i++ {
			key := strings.Join(p[:i], "\x1f")
			en, ok := index[key]
			if !ok {
				prefix := make([]string, i)
				copy(prefix, p[:i])
				en = &entry{prefix: prefix, next: make(map[string]struct{})}
				index[key] = en
				order = append(order, key)
			}
			if i < len(p) {
				en.next[p[i]] = struct{}{}
			} else {
				en.terminal = true
			}
		}
	}

	states := make([]schema.ExecutionState, 0, len(order))
	for _, key := range order {
		en := index[key]
		available := make([]string, 0, len(en.next))
		for aid := range en.next {
			available = append(available, aid)
		}
		sort.Strings(available)
		states = append(states, schema.ExecutionState{
			CompletedActions: en.prefix,
			AvailableNext:    available,
			CanTerminate:     en.terminal,
		})
	}
	return states
}
