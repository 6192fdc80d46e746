package topomux

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// weightedGraph builds a topology from node names and (a, b, delay) triples
func weightedGraph(t *testing.T, names []string, edges []struct {
	a, b  string
	delay float64
}) *Topology {
	t.Helper()
	topo := CreateTopology()
	for _, name := range names {
		mustNode(t, topo, name, nil)
	}
	for _, e := range edges {
		a, _ := topo.FindNode(e.a)
		b, _ := topo.FindNode(e.b)
		mustEdge(t, topo, a, b, e.delay, "normal")
	}
	return topo
}

// spans reports whether edges form a spanning tree of topo: len(nodes)-1 edges and no cycle
func spans(topo *Topology, edges []*Edge) bool {
	parent := make(map[*Node]*Node)
	var find func(n *Node) *Node
	find = func(n *Node) *Node {
		p, present := parent[n]
		if !present || p == n {
			return n
		}
		root := find(p)
		parent[n] = root
		return root
	}
	for _, e := range edges {
		a, b := e.Ends()
		ra, rb := find(a), find(b)
		if ra == rb {
			return false
		}
		parent[ra] = rb
	}
	return len(edges) == topo.NumNodes()-1
}

func totalDelay(edges []*Edge) float64 {
	total := 0.0
	for _, e := range edges {
		total += e.Delay
	}
	return total
}

var spanningFixture = []struct {
	a, b  string
	delay float64
}{
	{"a", "b", 1}, {"b", "c", 2}, {"c", "d", 1}, {"d", "a", 5},
	{"a", "c", 3}, {"b", "e", 4}, {"d", "e", 2.5},
}

func TestMinimumSpanningTree(t *testing.T) {
	topo := weightedGraph(t, []string{"a", "b", "c", "d", "e"}, spanningFixture)

	tree, err := topo.MinimumSpanningTree()
	require.NoError(t, err)
	require.True(t, spans(topo, tree))
	assert.Equal(t, 6.5, totalDelay(tree))

	// distinct delays make the tree unique: a-b, b-c, c-d, d-e
	edges := topo.Edges()
	assert.Equal(t, []*Edge{edges[0], edges[1], edges[2], edges[6]}, tree)
}

func TestMinimumSpanningTreeIsMinimal(t *testing.T) {
	topo := weightedGraph(t, []string{"a", "b", "c", "d", "e"}, spanningFixture)
	tree, err := topo.MinimumSpanningTree()
	require.NoError(t, err)
	best := totalDelay(tree)

	// every other spanning tree costs at least as much
	edges := topo.Edges()
	k := topo.NumNodes() - 1
	for mask := 0; mask < 1<<len(edges); mask++ {
		subset := make([]*Edge, 0, k)
		for idx, e := range edges {
			if mask&(1<<idx) != 0 {
				subset = append(subset, e)
			}
		}
		if len(subset) != k || !spans(topo, subset) {
			continue
		}
		assert.GreaterOrEqual(t, totalDelay(subset), best)
	}
}

func TestMinimumSpanningTreeDisconnected(t *testing.T) {
	topo := CreateTopology()
	a := mustNode(t, topo, "a", nil)
	b := mustNode(t, topo, "b", nil)
	mustNode(t, topo, "c", nil)
	mustEdge(t, topo, a, b, 1, "")

	assert.False(t, topo.Connected())
	_, err := topo.MinimumSpanningTree()
	assert.ErrorIs(t, err, ErrDisconnectedGraph)
}

func TestMinimumSpanningTreeSmall(t *testing.T) {
	empty := CreateTopology()
	tree, err := empty.MinimumSpanningTree()
	require.NoError(t, err)
	assert.Empty(t, tree)
	assert.True(t, empty.Connected())

	single := CreateTopology()
	mustNode(t, single, "a", nil)
	tree, err = single.MinimumSpanningTree()
	require.NoError(t, err)
	assert.Empty(t, tree)
}

func TestMinimumSpanningTreeParallelEdges(t *testing.T) {
	topo := CreateTopology()
	a := mustNode(t, topo, "a", nil)
	b := mustNode(t, topo, "b", nil)
	mustEdge(t, topo, a, b, 5, "slow")
	fast := mustEdge(t, topo, a, b, 1, "fast")

	tree, err := topo.MinimumSpanningTree()
	require.NoError(t, err)
	assert.Equal(t, []*Edge{fast}, tree)
}

func TestShortestPath(t *testing.T) {
	topo := weightedGraph(t, []string{"a", "b", "c", "d", "e", "f"}, spanningFixture)
	a, _ := topo.FindNode("a")
	e, _ := topo.FindNode("e")
	f, _ := topo.FindNode("f")

	route, weight, ok := topo.ShortestPath(a, e)
	require.True(t, ok)
	assert.Equal(t, 5.0, weight)
	edges := topo.Edges()
	assert.Equal(t, []*Edge{edges[0], edges[5]}, route)

	_, _, ok = topo.ShortestPath(a, f)
	assert.False(t, ok)

	// a node of another topology is never reachable, even one that shares a name
	other := CreateTopology()
	z := mustNode(t, other, "z", nil)
	otherA := mustNode(t, other, "a", nil)
	for _, pair := range [][2]*Node{{z, e}, {a, z}, {otherA, e}} {
		route, weight, ok := topo.ShortestPath(pair[0], pair[1])
		assert.False(t, ok)
		assert.Empty(t, route)
		assert.True(t, math.IsInf(weight, 1))
	}
}
