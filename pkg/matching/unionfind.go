package matching

// UnionFind is a disjoint-set over listing indexes with path compression.
// It resolves the transitive closure of pairwise match edges: if A matches B
// and B matches C, all three land in one cluster.
type UnionFind struct {
	parent []int
	rank   []int
}

// NewUnionFind creates a disjoint-set of n singleton elements.
func NewUnionFind(n int) *UnionFind {
	parent := make([]int, n)
	rank := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &UnionFind{parent: parent, rank: rank}
}

// Find returns the representative of x's set, compressing the path.
func (u *UnionFind) Find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

// Union merges the sets containing a and b.
func (u *UnionFind) Union(a, b int) {
	ra, rb := u.Find(a), u.Find(b)
	if ra == rb {
		return
	}
	if u.rank[ra] < u.rank[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	if u.rank[ra] == u.rank[rb] {
		u.rank[ra]++
	}
}

// Clusters returns the sets as slices of element indexes. Ordering is
// deterministic: clusters appear in order of their lowest member, and members
// stay in input order.
func (u *UnionFind) Clusters() [][]int {
	byRoot := make(map[int][]int)
	order := make([]int, 0)

	for i := range u.parent {
		root := u.Find(i)
		if _, ok := byRoot[root]; !ok {
			order = append(order, root)
		}
		byRoot[root] = append(byRoot[root], i)
	}

	clusters := make([][]int, 0, len(order))
	for _, root := range order {
		clusters = append(clusters, byRoot[root])
	}
	return clusters
}
