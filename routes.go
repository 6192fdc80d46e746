package topomux

// routes.go computes name-prefix forwarding tables over a Topology.
//
// Every node that serves a prefix reaches it at distance zero.  The computation then
// repeatedly sweeps the whole table: for every node a, every prefix p that a can reach,
// and every neighbor b of a, b learns a route to p through a when that is strictly
// shorter than what b already knows.  Updates made during a sweep are visible to the
// rest of that sweep.  Sweeps stop once one of them changes nothing.
//
// Restrictions limit the edge labels that traffic for a prefix should use.  Under the
// soft policy an edge outside the allowed labels is still usable, at its delay plus a
// large penalty, so it is chosen only when nothing else reaches the prefix.  Under the
// hard policy such edges are ignored.

import (
	"log/slog"
	"math"

	"github.com/pkg/errors"
)

// DefaultPenalty is added to the delay of an edge whose label a restriction excludes
const DefaultPenalty = 1000.0

// RestrictionPolicy selects how edges excluded by a restriction are treated
type RestrictionPolicy int

const (
	// SoftRestriction keeps excluded edges at their delay plus the penalty
	SoftRestriction RestrictionPolicy = iota

	// HardRestriction removes excluded edges from consideration
	HardRestriction
)

func (rp RestrictionPolicy) String() string {
	if rp == HardRestriction {
		return "hard"
	}
	return "soft"
}

// Hop is a forwarding table entry
type Hop struct {
	// Face is the neighbor to forward to.  nil when the node serves the prefix itself,
	// or when the prefix is unreachable
	Face *Node

	// Dist is the cumulative delay to the nearest server of the prefix
	Dist float64

	// Reachable is false when no route to the prefix exists
	Reachable bool
}

// Local reports whether the entry is for a prefix the node serves itself
func (hop Hop) Local() bool {
	return hop.Reachable && hop.Face == nil
}

// RouteKey identifies a forwarding table entry
type RouteKey struct {
	Node   *Node
	Prefix IcnName
}

// IcnRoutes computes forwarding tables for the nodes of a Topology
type IcnRoutes struct {
	topo         *Topology
	restrictions *RestrictionTable

	// Penalty is added to the delay of an edge excluded by a restriction, under the soft policy
	Penalty float64

	Policy RestrictionPolicy

	// MaxPasses bounds the number of sweeps.  Zero selects |V| * max(1,|prefixes|) + 1
	MaxPasses int

	Log *slog.Logger

	// state of the last computation
	prefixes []IcnName
	hops     map[*Node]map[string]Hop
	passes   int
}

// CreateIcnRoutes is a constructor.  The restriction table starts empty, the penalty is
// DefaultPenalty and the policy is SoftRestriction
func CreateIcnRoutes(topo *Topology) *IcnRoutes {
	ir := new(IcnRoutes)
	ir.topo = topo
	ir.restrictions = CreateRestrictionTable()
	ir.Penalty = DefaultPenalty
	ir.Policy = SoftRestriction
	ir.Log = Logger()
	ir.prefixes = make([]IcnName, 0)
	ir.hops = make(map[*Node]map[string]Hop)
	return ir
}

// RestrictPrefix limits traffic for names under prefix to edges labeled with one of labels.
// Takes effect at the next CalculateRoutes
func (ir *IcnRoutes) RestrictPrefix(prefix IcnName, labels []string) {
	ir.restrictions.Restrict(prefix, labels)
}

// Restriction returns the labels allowed for name, and false if name is unrestricted
func (ir *IcnRoutes) Restriction(name IcnName) ([]string, bool) {
	labels, restricted := ir.restrictions.Lookup(name)
	if restricted && labels == nil {
		labels = []string{}
	}
	return labels, restricted
}

// neighborCosts is the view of a's neighborhood used to relax routes for a prefix
// whose restriction is filter.  An infinite penalty drops excluded edges altogether
func (ir *IcnRoutes) neighborCosts(a *Node, filter []string) []NeighborCost {
	if ir.Policy == HardRestriction {
		return ir.topo.NeighborDelays(a, filter, math.Inf(1))
	}
	return ir.topo.NeighborDelays(a, filter, ir.Penalty)
}

// CalculateRoutes rebuilds the forwarding table of every node for every prefix served in
// the topology.  Pairs with no route are left unreachable, which is not an error.
// ErrNonConvergence is returned if the table is still changing after MaxPasses sweeps,
// which happens only when some edge delay is negative
func (ir *IcnRoutes) CalculateRoutes() error {
	nodes := ir.topo.Nodes()
	ir.prefixes = ir.topo.Prefixes()
	ir.hops = make(map[*Node]map[string]Hop, len(nodes))
	ir.passes = 0

	keys := make([]string, len(ir.prefixes))
	filters := make([][]string, len(ir.prefixes))
	for idx, prefix := range ir.prefixes {
		keys[idx] = prefix.key()
		filters[idx], _ = ir.Restriction(prefix)
	}

	// every entry starts unreachable, except the prefixes a node serves itself
	for _, n := range nodes {
		ir.hops[n] = make(map[string]Hop, len(ir.prefixes))
		for _, key := range keys {
			ir.hops[n][key] = Hop{}
		}
		for _, prefix := range n.prefixes {
			ir.hops[n][prefix.key()] = Hop{Dist: 0.0, Reachable: true}
		}
	}

	maxPasses := ir.MaxPasses
	if maxPasses <= 0 {
		maxPasses = len(nodes)*max(1, len(ir.prefixes)) + 1
	}

	logger := ir.logger()
	for change := true; change; {
		if ir.passes >= maxPasses {
			return errors.Wrapf(ErrNonConvergence, "still changing after %d passes over %d nodes and %d prefixes",
				ir.passes, len(nodes), len(ir.prefixes))
		}
		ir.passes += 1
		change = false
		updates := 0

		for _, a := range nodes {
			for idx, key := range keys {
				hopA := ir.hops[a][key]
				if !hopA.Reachable {
					continue
				}
				for _, nc := range ir.neighborCosts(a, filters[idx]) {
					dist := hopA.Dist + nc.Cost
					hopB := ir.hops[nc.Node][key]
					if !hopB.Reachable || hopB.Dist > dist {
						ir.hops[nc.Node][key] = Hop{Face: a, Dist: dist, Reachable: true}
						change = true
						updates += 1
					}
				}
			}
		}
		logger.Debug("route pass", "pass", ir.passes, "updates", updates)
	}

	logger.Info("routes converged", "passes", ir.passes, "nodes", len(nodes),
		"prefixes", len(ir.prefixes), "unreachable", len(ir.Unreachable()))
	return nil
}

// Hop returns the forwarding entry of node for prefix.  The boolean is false when the
// pair was not part of the last computation
func (ir *IcnRoutes) Hop(node *Node, prefix IcnName) (Hop, bool) {
	table, present := ir.hops[node]
	if !present {
		return Hop{}, false
	}
	hop, present := table[prefix.key()]
	return hop, present
}

// Prefixes returns the prefixes covered by the last computation, sorted by rendering
func (ir *IcnRoutes) Prefixes() []IcnName {
	return append([]IcnName(nil), ir.prefixes...)
}

// Passes is the number of sweeps the last computation made, including the final one
// that changed nothing
func (ir *IcnRoutes) Passes() int {
	return ir.passes
}

// Topology returns the topology the routes are computed over
func (ir *IcnRoutes) Topology() *Topology {
	return ir.topo
}

// Unreachable lists the (node, prefix) pairs without a route, in node order then prefix order
func (ir *IcnRoutes) Unreachable() []RouteKey {
	rtn := make([]RouteKey, 0)
	for _, n := range ir.topo.nodes {
		table, present := ir.hops[n]
		if !present {
			continue
		}
		for _, prefix := range ir.prefixes {
			if !table[prefix.key()].Reachable {
				rtn = append(rtn, RouteKey{Node: n, Prefix: prefix})
			}
		}
	}
	return rtn
}

func (ir *IcnRoutes) logger() *slog.Logger {
	if ir.Log == nil {
		return Logger()
	}
	return ir.Log
}
