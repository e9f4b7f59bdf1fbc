package connectivity

// unionFind is a disjoint-set forest over dense integer ids using union by
// rank and path compression.
type unionFind struct {
	parent []int
	rank   []int
}

// newUnionFind creates n singleton sets.
func newUnionFind(n int) *unionFind {
	u := &unionFind{
		parent: make([]int, n),
		rank:   make([]int, n),
	}
	for i := range u.parent {
		u.parent[i] = i
	}
	return u
}

// find returns the representative of x's set.
func (u *unionFind) find(x int) int {
	root := x
	for u.parent[root] != root {
		root = u.parent[root]
	}

	// Path compression
	for x != root {
		next := u.parent[x]
		u.parent[x] = root
		x = next
	}
	return root
}

// union merges the sets containing a and b.
func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}

	switch {
	case u.rank[ra] < u.rank[rb]:
		u.parent[ra] = rb
	case u.rank[ra] > u.rank[rb]:
		u.parent[rb] = ra
	default:
		u.parent[rb] = ra
		u.rank[ra]++
	}
}

func (u *unionFind) connected(a, b int) bool {
	return u.find(a) == u.find(b)
}

// groups returns every set with members ascending, ordered by smallest
// member. The order only depends on the partition, not on union order.
func (u *unionFind) groups() [][]int {
	byRoot := make(map[int]int)
	var out [][]int
	for i := range u.parent {
		r := u.find(i)
		idx, ok := byRoot[r]
		if !ok {
			idx = len(out)
			byRoot[r] = idx
			out = append(out, nil)
		}
		out[idx] = append(out[idx], i)
	}
	return out
}
