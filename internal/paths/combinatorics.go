package paths

// permutations returns all orderings of [0, n) in lexicographic order.
func permutations(n int) [][]int {
	var out [][]int
	used := make([]bool, n)
	cur := make([]int, 0, n)

	var rec func()
	rec = func() {
		if len(cur) == n {
			out = append(out, append([]int(nil), cur...))
			return
		}
		for i := 0; i < n; i++ {
			if used[i] {
				continue
			}
			used[i] = true
			cur = append(cur, i)
			rec()
			cur = cur[:len(cur)-1]
			used[i] = false
		}
	}
	rec()
	return out
}

// combinations returns all r-element subsets of [0, n) in lexicographic order.
func combinations(n, r int) [][]int {
	var out [][]int
	cur := make([]int, 0, r)

	var rec func(start int)
	rec = func(start int) {
		if len(cur) == r {
			out = append(out, append([]int(nil), cur...))
			return
		}
		for i := start; i < n; i++ {
			cur = append(cur, i)
			rec(i + 1)
			cur = cur[:len(cur)-1]
		}
	}
	rec(0)
	return out
}

// product returns the Cartesian product of the given choice lists, one pick
// per list, in order (first list varies slowest). An empty choice list yields
// an empty product.
func product(choices [][][]string) [][][]string {
	var out [][][]string
	cur := make([][]string, 0, len(choices))

	var rec func(depth int)
	rec = func(depth int) {
		if depth == len(choices) {
			out = append(out, append([][]string(nil), cur...))
			return
		}
		for _, choice := range choices[depth] {
			cur = append(cur, choice)
			rec(depth + 1)
			cur = cur[:len(cur)-1]
		}
	}
	rec(0)
	return out
}
