package topomux

// layers.go holds the operations that shape a joined topology into the layered
// network studied: a physical layer hung off the edge of the aggregation layer,
// an overlay backbone taken from a minimum spanning tree, and urgent paths from
// the physical layer to the nearest compute node

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// PhysicalLayerCfg describes the physical layer added to a topology
type PhysicalLayerCfg struct {
	// number of physical nodes to create
	Count int `json:"count" yaml:"count"`

	// node i is named NamePrefix + "_" + i
	NamePrefix string `json:"nameprefix" yaml:"nameprefix"`

	// label given to every physical node
	NodeLabel string `json:"nodelabel" yaml:"nodelabel"`

	// node i serves PrefixRoot + "/" + its name
	PrefixRoot string `json:"prefixroot" yaml:"prefixroot"`

	// physical nodes attach to nodes carrying this label
	AttachLabel string `json:"attachlabel" yaml:"attachlabel"`

	// attributes of the edge from a physical node to its attachment point
	Edge EdgeAttrs `json:"edge" yaml:"edge"`
}

// DefaultPhysicalLayerCfg returns the physical layer of the original study:
// 100 nodes phy_0..phy_99 serving /overlay/phy/<name>, each attached by an
// overlay edge to an aggregation node
func DefaultPhysicalLayerCfg() PhysicalLayerCfg {
	edge := DefaultEdgeAttrs()
	edge.Label = "overlay"
	return PhysicalLayerCfg{
		Count:       100,
		NamePrefix:  "phy",
		NodeLabel:   "physical",
		PrefixRoot:  "/overlay/phy",
		AttachLabel: "aggregate",
		Edge:        edge,
	}
}

// AddPhysicalLayer creates the physical nodes described by plc and attaches each to one
// node carrying plc.AttachLabel.  Candidates are ranked by ascending degree, as it stands
// before the layer is added, and the candidate at index floor(u*u*len) is chosen for a
// uniform draw u, so low-degree (edge) nodes are favored.  Returns the new nodes
func AddPhysicalLayer(topo *Topology, plc PhysicalLayerCfg, rng Uniform) ([]*Node, error) {
	candidates := topo.NodesWithLabel(plc.AttachLabel)
	if plc.Count > 0 && len(candidates) == 0 {
		return nil, errors.Wrapf(ErrInvalidConfig, "no node labeled %q to attach the physical layer to", plc.AttachLabel)
	}

	degree := make(map[*Node]int, len(candidates))
	for _, n := range candidates {
		degree[n] = topo.Degree(n, nil)
	}
	slices.SortStableFunc(candidates, func(x, y *Node) int { return degree[x] - degree[y] })

	root := ParseName(plc.PrefixRoot)
	created := make([]*Node, 0, plc.Count)
	for idx := 0; idx < plc.Count; idx++ {
		name := fmt.Sprintf("%s_%d", plc.NamePrefix, idx)
		n, err := topo.AddNode(name, []string{plc.NodeLabel}, []IcnName{root.Append(name)})
		if err != nil {
			return nil, err
		}

		u := rng.RandU01()
		attach := candidates[min(int(math.Pow(u, 2)*float64(len(candidates))), len(candidates)-1)]
		if _, err := topo.AddEdge(n, attach, plc.Edge); err != nil {
			return nil, err
		}
		created = append(created, n)
	}
	return created, nil
}

// PromoteSpanningTree relabels the edges of a minimum spanning tree of topo with label,
// and returns them
func PromoteSpanningTree(topo *Topology, label string) ([]*Edge, error) {
	tree, err := topo.MinimumSpanningTree()
	if err != nil {
		return nil, err
	}
	for _, e := range tree {
		e.Label = label
	}
	return tree, nil
}

// MarkUrgentPaths finds, for every node labeled fromLabel, the least-delay path to the
// nearest node labeled toLabel, and relabels the edges along it with label.  Nodes with
// no reachable target are skipped.  Returns the number of distinct edges relabeled
func MarkUrgentPaths(topo *Topology, fromLabel, toLabel, label string) int {
	targets := topo.NodesWithLabel(toLabel)
	if len(targets) == 0 {
		return 0
	}

	wv := topo.buildWeightedView()
	marked := make(map[*Edge]bool)
	for _, src := range topo.NodesWithLabel(fromLabel) {
		spTree := path.DijkstraFrom(simple.Node(wv.ids[src]), wv.g)

		var best []*Edge
		bestWeight := math.Inf(1)
		for _, dst := range targets {
			route, weight, ok := wv.shortestPath(spTree, dst)
			if ok && weight < bestWeight {
				best, bestWeight = route, weight
			}
		}
		for _, e := range best {
			e.Label = label
			marked[e] = true
		}
	}
	return len(marked)
}
