package topomux

// topo.go holds the graph model: nodes that carry labels and served name prefixes,
// edges that carry a traffic-class label, capacity and delay, and the Topology
// that owns both.  Every Topology owns its own containers; nothing is shared
// between instances

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// default attributes of an edge when the caller does not supply any
const (
	DefaultCapacity = 1000.0
	DefaultDelay    = 2.0
)

// Node is a vertex of a Topology.  Its name is unique within the topology that owns it
type Node struct {
	// name of the node, unique within its topology
	name string

	// free-form tags, e.g., the layer the node belongs to
	labels []string

	// names the node originates
	prefixes []IcnName

	// incident edges, in the order they were added.  These are references, the
	// topology owns the edges
	edges []*Edge
}

// Name returns the name of the node
func (n *Node) Name() string {
	return n.name
}

// String renders the node as its name
func (n *Node) String() string {
	return n.name
}

// Labels returns a copy of the node's labels, in the order they were added
func (n *Node) Labels() []string {
	return slices.Clone(n.labels)
}

// HasLabel reports whether label is one of the node's labels
func (n *Node) HasLabel(label string) bool {
	return slices.Contains(n.labels, label)
}

// AddLabel includes label in the node's label set
func (n *Node) AddLabel(label string) {
	if !slices.Contains(n.labels, label) {
		n.labels = append(n.labels, label)
	}
}

// Prefixes returns a copy of the names served by the node
func (n *Node) Prefixes() []IcnName {
	rtn := make([]IcnName, 0, len(n.prefixes))
	for _, prefix := range n.prefixes {
		rtn = append(rtn, prefix.Clone())
	}
	return rtn
}

// Serves reports whether prefix is one of the names served by the node
func (n *Node) Serves(prefix IcnName) bool {
	return slices.ContainsFunc(n.prefixes, prefix.Equal)
}

// AddPrefix includes prefix among the names the node serves.  The node keeps its
// own copy, so later changes to prefix do not reach it
func (n *Node) AddPrefix(prefix IcnName) {
	if !n.Serves(prefix) {
		n.prefixes = append(n.prefixes, prefix.Clone())
	}
}

// Edges returns a copy of the list of edges incident on the node
func (n *Node) Edges() []*Edge {
	return slices.Clone(n.edges)
}

// Edge is an undirected link between two distinct nodes
type Edge struct {
	a, b *Node

	// Capacity is advisory, routing ignores it
	Capacity float64

	// Delay is the routing cost of crossing the edge
	Delay float64

	// Label names the traffic class the edge carries.  Empty means unlabeled
	Label string
}

// EdgeAttrs gathers the attributes given to a new edge
type EdgeAttrs struct {
	Capacity float64 `json:"capacity" yaml:"capacity"`
	Delay    float64 `json:"delay" yaml:"delay"`
	Label    string  `json:"label" yaml:"label"`
}

// DefaultEdgeAttrs returns the attributes of an edge nobody described:
// capacity 1000, delay 2, no label
func DefaultEdgeAttrs() EdgeAttrs {
	return EdgeAttrs{Capacity: DefaultCapacity, Delay: DefaultDelay}
}

// Ends returns the two endpoints of the edge, in the order given when it was created
func (e *Edge) Ends() (*Node, *Node) {
	return e.a, e.b
}

// Other returns the endpoint of the edge that is not n
func (e *Edge) Other(n *Node) *Node {
	if e.a == n {
		return e.b
	}
	return e.a
}

// Joins reports whether the edge connects x and y, in either order
func (e *Edge) Joins(x, y *Node) bool {
	return (e.a == x && e.b == y) || (e.a == y && e.b == x)
}

// Attrs returns the scalar attributes of the edge
func (e *Edge) Attrs() EdgeAttrs {
	return EdgeAttrs{Capacity: e.Capacity, Delay: e.Delay, Label: e.Label}
}

func (e *Edge) String() string {
	return fmt.Sprintf("%s-%s[%s]", e.a.name, e.b.name, e.Label)
}

// passes reports whether the edge label is admitted by filter.  A nil
// filter admits every edge
func (e *Edge) passes(filter []string) bool {
	return filter == nil || slices.Contains(filter, e.Label)
}

// Topology owns a set of nodes and the edges between them
type Topology struct {
	nodes  []*Node
	byName map[string]*Node
	edges  []*Edge
}

// CreateTopology is a constructor for an empty topology
func CreateTopology() *Topology {
	topo := new(Topology)
	topo.nodes = make([]*Node, 0)
	topo.byName = make(map[string]*Node)
	topo.edges = make([]*Edge, 0)
	return topo
}

// AddNode creates a node and includes it in the topology.  An empty name is replaced
// by "n" followed by the number of nodes already present.  Names must be unique
func (topo *Topology) AddNode(name string, labels []string, prefixes []IcnName) (*Node, error) {
	if len(name) == 0 {
		name = fmt.Sprintf("n%d", len(topo.nodes))
	}
	if _, present := topo.byName[name]; present {
		return nil, errors.Wrapf(ErrDuplicateNode, "node %s", name)
	}

	n := new(Node)
	n.name = name
	n.labels = make([]string, 0, len(labels))
	n.prefixes = make([]IcnName, 0, len(prefixes))
	n.edges = make([]*Edge, 0)
	for _, label := range labels {
		n.AddLabel(label)
	}
	for _, prefix := range prefixes {
		n.AddPrefix(prefix)
	}

	topo.include(n)
	return n, nil
}

// include puts an already built node into the topology's containers
func (topo *Topology) include(n *Node) {
	topo.nodes = append(topo.nodes, n)
	topo.byName[n.name] = n
}

// AddEdge connects a and b with an edge carrying attrs, and registers the edge on
// both endpoints.  Self-loops, negative delays and endpoints from elsewhere are rejected
func (topo *Topology) AddEdge(a, b *Node, attrs EdgeAttrs) (*Edge, error) {
	if a == nil || b == nil {
		return nil, errors.Wrap(ErrInvalidEdge, "nil endpoint")
	}
	if a == b {
		return nil, errors.Wrapf(ErrInvalidEdge, "self-loop on %s", a.name)
	}
	if !topo.Contains(a) || !topo.Contains(b) {
		return nil, errors.Wrapf(ErrInvalidEdge, "edge %s-%s has an endpoint outside the topology", a.name, b.name)
	}
	if attrs.Delay < 0 {
		return nil, errors.Wrapf(ErrInvalidEdge, "edge %s-%s has negative delay %g", a.name, b.name, attrs.Delay)
	}

	e := &Edge{a: a, b: b, Capacity: attrs.Capacity, Delay: attrs.Delay, Label: attrs.Label}
	a.edges = append(a.edges, e)
	b.edges = append(b.edges, e)
	topo.edges = append(topo.edges, e)
	return e, nil
}

// Contains reports whether n is one of the topology's nodes
func (topo *Topology) Contains(n *Node) bool {
	held, present := topo.byName[n.name]
	return present && held == n
}

// FindNode returns the node with the given name, if there is one
func (topo *Topology) FindNode(name string) (*Node, bool) {
	n, present := topo.byName[name]
	return n, present
}

// FindEdge returns the first edge created between x and y, if there is one
func (topo *Topology) FindEdge(x, y *Node) (*Edge, bool) {
	for _, e := range x.edges {
		if e.Joins(x, y) {
			return e, true
		}
	}
	return nil, false
}

// Nodes returns the topology's nodes in the order they were added
func (topo *Topology) Nodes() []*Node {
	return slices.Clone(topo.nodes)
}

// Edges returns the topology's edges in the order they were added
func (topo *Topology) Edges() []*Edge {
	return slices.Clone(topo.edges)
}

func (topo *Topology) NumNodes() int {
	return len(topo.nodes)
}

func (topo *Topology) NumEdges() int {
	return len(topo.edges)
}

// NodesWithLabel returns the nodes carrying label, in the order they were added
func (topo *Topology) NodesWithLabel(label string) []*Node {
	rtn := make([]*Node, 0)
	for _, n := range topo.nodes {
		if n.HasLabel(label) {
			rtn = append(rtn, n)
		}
	}
	return rtn
}

// Prefixes returns every distinct name served by some node, sorted by rendering.
// Names rendering alike are ordered by length
func (topo *Topology) Prefixes() []IcnName {
	seen := make(map[string]bool)
	rtn := make([]IcnName, 0)
	for _, n := range topo.nodes {
		for _, prefix := range n.prefixes {
			key := prefix.key()
			if seen[key] {
				continue
			}
			seen[key] = true
			rtn = append(rtn, prefix.Clone())
		}
	}
	slices.SortFunc(rtn, func(x, y IcnName) int {
		if cmp := strings.Compare(x.String(), y.String()); cmp != 0 {
			return cmp
		}
		return x.Len() - y.Len()
	})
	return rtn
}

// Neighbors returns the nodes reached from n through an edge whose label is in filter.
// A nil filter admits every edge.  Neighbors appear once, in edge order
func (topo *Topology) Neighbors(n *Node, filter []string) []*Node {
	rtn := make([]*Node, 0, len(n.edges))
	for _, e := range n.edges {
		if !e.passes(filter) {
			continue
		}
		other := e.Other(n)
		if !slices.Contains(rtn, other) {
			rtn = append(rtn, other)
		}
	}
	return rtn
}

// NeighborCost pairs a neighbor with the cost of reaching it over one edge
type NeighborCost struct {
	Node *Node
	Cost float64
}

// NeighborDelays returns every neighbor of n, whatever the edge label, with the cost of
// reaching it.  The cost is the edge delay when the label is in filter, and the delay
// plus penalty otherwise.  When parallel edges lead to the same neighbor the cheaper
// cost is kept.  Neighbors appear in edge order.  With an infinite penalty, neighbors
// reached only through excluded edges are left out, which is the filtered view
func (topo *Topology) NeighborDelays(n *Node, filter []string, penalty float64) []NeighborCost {
	rtn := make([]NeighborCost, 0, len(n.edges))
	for _, e := range n.edges {
		cost := e.Delay
		if !e.passes(filter) {
			if math.IsInf(penalty, 1) {
				continue
			}
			cost += penalty
		}
		other := e.Other(n)
		idx := slices.IndexFunc(rtn, func(nc NeighborCost) bool { return nc.Node == other })
		if idx < 0 {
			rtn = append(rtn, NeighborCost{Node: other, Cost: cost})
		} else if cost < rtn[idx].Cost {
			rtn[idx].Cost = cost
		}
	}
	return rtn
}

// Degree is the number of distinct neighbors of n through edges admitted by filter
func (topo *Topology) Degree(n *Node, filter []string) int {
	return len(topo.Neighbors(n, filter))
}

// Copy builds a structurally identical topology that shares no nodes or edges with topo
func (topo *Topology) Copy() *Topology {
	cpy, _ := topo.copyRenamed(func(name string) string { return name })
	return cpy
}

// copyRenamed is Copy with every node name passed through rename.  It fails only
// when rename maps two nodes to the same name
func (topo *Topology) copyRenamed(rename func(string) string) (*Topology, error) {
	cpy := CreateTopology()
	twin := make(map[*Node]*Node, len(topo.nodes))
	for _, n := range topo.nodes {
		nn, err := cpy.AddNode(rename(n.name), n.labels, n.prefixes)
		if err != nil {
			return nil, err
		}
		twin[n] = nn
	}
	for _, e := range topo.edges {
		// endpoints were validated when the original edge was added
		_, err := cpy.AddEdge(twin[e.a], twin[e.b], e.Attrs())
		if err != nil {
			return nil, err
		}
	}
	return cpy, nil
}

// LabelAllNodes gives every node the label
func (topo *Topology) LabelAllNodes(label string) {
	for _, n := range topo.nodes {
		n.AddLabel(label)
	}
}

// PrefixAllNodes has every node serve prefix
func (topo *Topology) PrefixAllNodes(prefix IcnName) {
	for _, n := range topo.nodes {
		n.AddPrefix(prefix)
	}
}

// LabelAllEdges sets the label of every edge
func (topo *Topology) LabelAllEdges(label string) {
	for _, e := range topo.edges {
		e.Label = label
	}
}
