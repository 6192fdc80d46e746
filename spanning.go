package topomux

// spanning.go converts a Topology into the weighted undirected graph representation
// of the gonum graph module, so that its spanning tree, connectivity and shortest path
// algorithms can be applied.  Edge weights are the edge delays.  Results found on
// the gonum side are translated back into the Topology's own nodes and edges

import (
	"math"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	gtopo "gonum.org/v1/gonum/graph/topo"
)

// edgeKey identifies an unordered pair of gonum node ids, smaller id first
type edgeKey struct {
	lo, hi int64
}

func keyOf(x, y int64) edgeKey {
	if x > y {
		x, y = y, x
	}
	return edgeKey{lo: x, hi: y}
}

// weightedView is the gonum representation of a Topology.  The gonum id of a node
// is its position in the topology's node list
type weightedView struct {
	g      *simple.WeightedUndirectedGraph
	ids    map[*Node]int64
	nodes  []*Node
	byPair map[edgeKey]*Edge
	order  map[*Edge]int
}

// buildWeightedView creates the gonum graph for the topology.  Where parallel edges join
// the same pair only the one with the lowest delay is represented
func (topo *Topology) buildWeightedView() *weightedView {
	wv := new(weightedView)
	wv.g = simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	wv.ids = make(map[*Node]int64, len(topo.nodes))
	wv.nodes = topo.Nodes()
	wv.byPair = make(map[edgeKey]*Edge)
	wv.order = make(map[*Edge]int, len(topo.edges))

	for idx, n := range wv.nodes {
		wv.ids[n] = int64(idx)
		wv.g.AddNode(simple.Node(idx))
	}

	for idx, e := range topo.edges {
		wv.order[e] = idx
		key := keyOf(wv.ids[e.a], wv.ids[e.b])
		held, present := wv.byPair[key]
		if present && held.Delay <= e.Delay {
			continue
		}
		wv.byPair[key] = e
		wv.g.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(key.lo), T: simple.Node(key.hi), W: e.Delay})
	}
	return wv
}

// edgeOf returns the topology edge represented by a gonum edge
func (wv *weightedView) edgeOf(ge graph.Edge) *Edge {
	return wv.byPair[keyOf(ge.From().ID(), ge.To().ID())]
}

// Connected reports whether every node can reach every other node.  The empty
// topology is connected
func (topo *Topology) Connected() bool {
	if len(topo.nodes) == 0 {
		return true
	}
	wv := topo.buildWeightedView()
	return len(gtopo.ConnectedComponents(wv.g)) == 1
}

// MinimumSpanningTree selects, using Prim's algorithm on edge delay, a set of edges
// that connects every node at least total delay.  When candidate edges tie the choice
// among them follows gonum's traversal order and should be treated as arbitrary.
// The topology must be connected, otherwise ErrDisconnectedGraph is returned.
// Edges are returned in the order they were added to the topology
func (topo *Topology) MinimumSpanningTree() ([]*Edge, error) {
	if len(topo.nodes) == 0 {
		return []*Edge{}, nil
	}
	wv := topo.buildWeightedView()

	components := gtopo.ConnectedComponents(wv.g)
	if len(components) > 1 {
		return nil, errors.Wrapf(ErrDisconnectedGraph, "spanning tree of %d nodes in %d components",
			len(topo.nodes), len(components))
	}

	tree := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	path.Prim(tree, wv.g)

	selected := make([]*Edge, 0, len(topo.nodes)-1)
	edges := tree.Edges()
	for edges.Next() {
		selected = append(selected, wv.edgeOf(edges.Edge()))
	}
	slices.SortFunc(selected, func(x, y *Edge) int { return wv.order[x] - wv.order[y] })
	return selected, nil
}

// ShortestPath returns the edges of a least-delay path from src to dst and the total
// delay along it.  The boolean is false when dst cannot be reached from src, or when
// either node belongs to another topology
func (topo *Topology) ShortestPath(src, dst *Node) ([]*Edge, float64, bool) {
	if src == nil || dst == nil || !topo.Contains(src) || !topo.Contains(dst) {
		return nil, math.Inf(1), false
	}
	wv := topo.buildWeightedView()
	return wv.shortestPath(path.DijkstraFrom(simple.Node(wv.ids[src]), wv.g), dst)
}

// shortestPath extracts the path to dst from a shortest path tree computed on the view
func (wv *weightedView) shortestPath(spTree path.Shortest, dst *Node) ([]*Edge, float64, bool) {
	nodeSeq, weight := spTree.To(wv.ids[dst])
	if len(nodeSeq) == 0 || math.IsInf(weight, 1) {
		return nil, math.Inf(1), false
	}

	// translate the sequence of gonum nodes into the sequence of edges joining them
	route := make([]*Edge, 0, len(nodeSeq)-1)
	for idx := 1; idx < len(nodeSeq); idx++ {
		route = append(route, wv.byPair[keyOf(nodeSeq[idx-1].ID(), nodeSeq[idx].ID())])
	}
	return route, weight, true
}
