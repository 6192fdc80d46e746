package topomux

// import.go brings a graph built by an external generator into a Topology.
// Any gonum graph will do; only the node ids and the adjacency are used

import (
	"fmt"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph"
)

// ImportGraph creates a Topology with one node per node of g, named "n<id>", and one
// edge with default attributes and no label per undirected adjacency of g.  Nodes are
// created in increasing id order, and edges in increasing order of their end ids, so
// the result does not depend on the iteration order of g
func ImportGraph(g graph.Graph) (*Topology, error) {
	topo := CreateTopology()

	gNodes := sortedNodes(g.Nodes())

	nodeByID := make(map[int64]*Node, len(gNodes))
	for _, gn := range gNodes {
		n, err := topo.AddNode(fmt.Sprintf("n%d", gn.ID()), nil, nil)
		if err != nil {
			return nil, err
		}
		nodeByID[gn.ID()] = n
	}

	// a directed generator may report a link from both ends, so remember which
	// pairs already have an edge
	linked := make(map[edgeKey]bool)
	for _, gn := range gNodes {
		for _, nbr := range sortedNodes(g.From(gn.ID())) {
			key := keyOf(gn.ID(), nbr.ID())
			if key.lo == key.hi || linked[key] {
				continue
			}
			linked[key] = true
			_, err := topo.AddEdge(nodeByID[key.lo], nodeByID[key.hi], DefaultEdgeAttrs())
			if err != nil {
				return nil, err
			}
		}
	}
	return topo, nil
}

// sortedNodes drains a gonum node iterator into a slice ordered by id
func sortedNodes(it graph.Nodes) []graph.Node {
	nodes := graph.NodesOf(it)
	slices.SortFunc(nodes, func(x, y graph.Node) int {
		switch {
		case x.ID() < y.ID():
			return -1
		case x.ID() > y.ID():
			return 1
		}
		return 0
	})
	return nodes
}
