package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnionFind(t *testing.T) {
	uf := NewUnionFind(5)

	uf.Union(0, 1)
	uf.Union(3, 4)

	assert.Equal(t, uf.Find(0), uf.Find(1))
	assert.NotEqual(t, uf.Find(0), uf.Find(2))
	assert.Equal(t, uf.Find(3), uf.Find(4))

	// Joining the chains is transitive
	uf.Union(1, 3)
	assert.Equal(t, uf.Find(0), uf.Find(4))

	clusters := uf.Clusters()
	assert.Equal(t, [][]int{{0, 1, 3, 4}, {2}}, clusters)
}

func TestUnionFind_SelfUnionIsNoop(t *testing.T) {
	uf := NewUnionFind(2)
	uf.Union(0, 0)
	assert.Equal(t, [][]int{{0}, {1}}, uf.Clusters())
}
