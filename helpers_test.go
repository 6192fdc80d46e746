package topomux

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// constUniform always draws the same value
type constUniform float64

func (cu constUniform) RandU01() float64 {
	return float64(cu)
}

// seqUniform draws its values in order, then repeats the last one
type seqUniform struct {
	vals []float64
	idx  int
}

func (su *seqUniform) RandU01() float64 {
	v := su.vals[min(su.idx, len(su.vals)-1)]
	su.idx += 1
	return v
}

// mustNode adds a node or fails the test
func mustNode(t *testing.T, topo *Topology, name string, labels []string, prefixes ...string) *Node {
	t.Helper()
	names := make([]IcnName, 0, len(prefixes))
	for _, prefix := range prefixes {
		names = append(names, ParseName(prefix))
	}
	n, err := topo.AddNode(name, labels, names)
	require.NoError(t, err)
	return n
}

// mustEdge adds an edge or fails the test
func mustEdge(t *testing.T, topo *Topology, a, b *Node, delay float64, label string) *Edge {
	t.Helper()
	e, err := topo.AddEdge(a, b, EdgeAttrs{Capacity: DefaultCapacity, Delay: delay, Label: label})
	require.NoError(t, err)
	return e
}

// triangle builds the three node fixture: a-b and b-c labeled "any", a-c labeled "foo",
// all at the default delay, with a serving /foo/bar and /bar/baz
func triangle(t *testing.T) (*Topology, *Node, *Node, *Node) {
	t.Helper()
	topo := CreateTopology()
	a := mustNode(t, topo, "a", nil, "/foo/bar", "/bar/baz")
	b := mustNode(t, topo, "b", nil)
	c := mustNode(t, topo, "c", nil)
	mustEdge(t, topo, a, b, DefaultDelay, "any")
	mustEdge(t, topo, b, c, DefaultDelay, "any")
	mustEdge(t, topo, a, c, DefaultDelay, "foo")
	return topo, a, b, c
}

// nodeNames lists the names of nodes, in order
func nodeNames(nodes []*Node) []string {
	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		names = append(names, n.Name())
	}
	return names
}
