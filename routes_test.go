package topomux

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hopView is a Hop with the face reduced to its name, for comparisons
type hopView struct {
	Face      string
	Dist      float64
	Reachable bool
}

// table renders every entry of the last computation as node -> prefix -> hopView
func table(ir *IcnRoutes) map[string]map[string]hopView {
	rtn := make(map[string]map[string]hopView)
	for _, n := range ir.Topology().Nodes() {
		rtn[n.Name()] = make(map[string]hopView)
		for _, prefix := range ir.Prefixes() {
			hop, _ := ir.Hop(n, prefix)
			hv := hopView{Dist: hop.Dist, Reachable: hop.Reachable}
			if hop.Face != nil {
				hv.Face = hop.Face.Name()
			}
			rtn[n.Name()][prefix.String()] = hv
		}
	}
	return rtn
}

func triangleRoutes(t *testing.T) *IcnRoutes {
	topo, _, _, _ := triangle(t)
	ir := CreateIcnRoutes(topo)
	ir.RestrictPrefix(ParseName("/bar"), []string{"any"})
	ir.RestrictPrefix(ParseName("/foo"), []string{"any", "foo"})
	return ir
}

func TestTriangleRoutes(t *testing.T) {
	ir := triangleRoutes(t)
	require.NoError(t, ir.CalculateRoutes())

	want := map[string]map[string]hopView{
		"a": {
			"/bar/baz": {Dist: 0, Reachable: true},
			"/foo/bar": {Dist: 0, Reachable: true},
		},
		"b": {
			"/bar/baz": {Face: "a", Dist: 2, Reachable: true},
			"/foo/bar": {Face: "a", Dist: 2, Reachable: true},
		},
		"c": {
			// the direct a-c edge is labeled foo, which /bar does not allow
			"/bar/baz": {Face: "b", Dist: 4, Reachable: true},
			"/foo/bar": {Face: "a", Dist: 2, Reachable: true},
		},
	}
	if diff := cmp.Diff(want, table(ir)); diff != "" {
		t.Errorf("forwarding table mismatch (-want +got):\n%s", diff)
	}

	a, _ := ir.Topology().FindNode("a")
	hop, ok := ir.Hop(a, ParseName("/bar/baz"))
	require.True(t, ok)
	assert.True(t, hop.Local())
	assert.Empty(t, ir.Unreachable())
	assert.Equal(t, 2, ir.Passes())
}

func TestCalculateRoutesIdempotent(t *testing.T) {
	ir := triangleRoutes(t)
	require.NoError(t, ir.CalculateRoutes())
	first := table(ir)
	require.NoError(t, ir.CalculateRoutes())
	if diff := cmp.Diff(first, table(ir)); diff != "" {
		t.Errorf("second computation differs (-first +second):\n%s", diff)
	}
}

func TestRestrictionOnlyLengthensRoutes(t *testing.T) {
	loose := triangleRoutes(t)
	require.NoError(t, loose.CalculateRoutes())

	// take "foo" away from /foo
	tight := triangleRoutes(t)
	tight.RestrictPrefix(ParseName("/foo"), []string{"any"})
	require.NoError(t, tight.CalculateRoutes())

	before, after := table(loose), table(tight)
	for node, entries := range before {
		for prefix, hv := range entries {
			got := after[node][prefix]
			if !got.Reachable {
				continue
			}
			assert.True(t, hv.Reachable)
			assert.GreaterOrEqual(t, got.Dist, hv.Dist, "%s %s", node, prefix)
		}
	}
	assert.Equal(t, hopView{Face: "b", Dist: 4, Reachable: true}, after["c"]["/foo/bar"])
}

func TestSoftAndHardRestriction(t *testing.T) {
	// the only link to the server is labeled "slow", which /data excludes
	build := func() *IcnRoutes {
		topo := CreateTopology()
		srv := mustNode(t, topo, "srv", nil, "/data/x")
		cli := mustNode(t, topo, "cli", nil)
		mustEdge(t, topo, srv, cli, 3, "slow")
		ir := CreateIcnRoutes(topo)
		ir.RestrictPrefix(ParseName("/data"), []string{"fast"})
		return ir
	}

	soft := build()
	soft.Penalty = 500
	require.NoError(t, soft.CalculateRoutes())
	assert.Equal(t, hopView{Face: "srv", Dist: 503, Reachable: true}, table(soft)["cli"]["/data/x"])

	hard := build()
	hard.Policy = HardRestriction
	require.NoError(t, hard.CalculateRoutes())
	assert.Equal(t, hopView{}, table(hard)["cli"]["/data/x"])
	unreachable := hard.Unreachable()
	require.Len(t, unreachable, 1)
	assert.Equal(t, "cli", unreachable[0].Node.Name())
	assert.Equal(t, "/data/x", unreachable[0].Prefix.String())
}

func TestSoftRestrictionPrefersAllowedPath(t *testing.T) {
	// a long allowed path beats a short excluded edge
	topo := CreateTopology()
	s := mustNode(t, topo, "s", nil, "/overlay/s")
	m := mustNode(t, topo, "m", nil)
	d := mustNode(t, topo, "d", nil)
	mustEdge(t, topo, s, m, 40, "overlay")
	mustEdge(t, topo, m, d, 40, "overlay")
	mustEdge(t, topo, s, d, 1, "normal")

	ir := CreateIcnRoutes(topo)
	ir.RestrictPrefix(ParseName("/overlay"), []string{"overlay"})
	require.NoError(t, ir.CalculateRoutes())
	assert.Equal(t, hopView{Face: "m", Dist: 80, Reachable: true}, table(ir)["d"]["/overlay/s"])
}

func TestUnreachableIsNotAnError(t *testing.T) {
	topo := CreateTopology()
	a := mustNode(t, topo, "a", nil, "/a")
	b := mustNode(t, topo, "b", nil)
	mustNode(t, topo, "island", nil)
	mustEdge(t, topo, a, b, 1, "")

	ir := CreateIcnRoutes(topo)
	require.NoError(t, ir.CalculateRoutes())
	assert.Equal(t, hopView{Face: "a", Dist: 1, Reachable: true}, table(ir)["b"]["/a"])
	assert.Equal(t, hopView{}, table(ir)["island"]["/a"])
	assert.Len(t, ir.Unreachable(), 1)
}

func TestEmptyNamesRouteSeparately(t *testing.T) {
	// "" has no components and "/" one empty component; both render as "/"
	topo := CreateTopology()
	x := mustNode(t, topo, "x", nil, "")
	y := mustNode(t, topo, "y", nil, "/")
	mustEdge(t, topo, x, y, 1, "")

	ir := CreateIcnRoutes(topo)
	require.NoError(t, ir.CalculateRoutes())
	require.Len(t, ir.Prefixes(), 2)

	empty, slash := ParseName(""), ParseName("/")
	hop, _ := ir.Hop(x, empty)
	assert.True(t, hop.Local())
	hop, _ = ir.Hop(y, slash)
	assert.True(t, hop.Local())

	hop, _ = ir.Hop(x, slash)
	assert.Equal(t, Hop{Face: y, Dist: 1, Reachable: true}, hop)
	hop, _ = ir.Hop(y, empty)
	assert.Equal(t, Hop{Face: x, Dist: 1, Reachable: true}, hop)
}

func TestNearestServerWins(t *testing.T) {
	// two servers of the same name, the client picks the closer one
	topo := CreateTopology()
	near := mustNode(t, topo, "near", nil, "/svc")
	far := mustNode(t, topo, "far", nil, "/svc")
	cli := mustNode(t, topo, "cli", nil)
	mustEdge(t, topo, far, cli, 9, "")
	mustEdge(t, topo, near, cli, 1, "")

	ir := CreateIcnRoutes(topo)
	require.NoError(t, ir.CalculateRoutes())
	assert.Equal(t, hopView{Face: "near", Dist: 1, Reachable: true}, table(ir)["cli"]["/svc"])
	assert.Equal(t, hopView{Dist: 0, Reachable: true}, table(ir)["far"]["/svc"])
}

func TestNonConvergence(t *testing.T) {
	topo := CreateTopology()
	a := mustNode(t, topo, "a", nil, "/a")
	b := mustNode(t, topo, "b", nil)
	e := mustEdge(t, topo, a, b, 1, "")
	e.Delay = -1

	ir := CreateIcnRoutes(topo)
	err := ir.CalculateRoutes()
	assert.ErrorIs(t, err, ErrNonConvergence)

	ir.MaxPasses = 5
	err = ir.CalculateRoutes()
	assert.ErrorIs(t, err, ErrNonConvergence)
	assert.Equal(t, 5, ir.Passes())
}

func TestRestrictionTable(t *testing.T) {
	rt := CreateRestrictionTable()
	rt.Restrict(ParseName("/a"), []string{"x"})
	rt.Restrict(ParseName("/a/b"), []string{"y"})
	rt.Restrict(ParseName("/c"), nil)

	labels, ok := rt.Lookup(ParseName("/a/b/c"))
	assert.True(t, ok)
	assert.Equal(t, []string{"y"}, labels)

	labels, ok = rt.Lookup(ParseName("/a/c"))
	assert.True(t, ok)
	assert.Equal(t, []string{"x"}, labels)

	_, ok = rt.Lookup(ParseName("/b"))
	assert.False(t, ok)

	// re-registering replaces the labels
	rt.Restrict(ParseName("/a"), []string{"z"})
	labels, _ = rt.Lookup(ParseName("/a/q"))
	assert.Equal(t, []string{"z"}, labels)
	assert.Equal(t, 3, rt.Len())

	// the empty prefix matches everything, but only when nothing more specific does
	rt.Restrict(ParseName(""), []string{"any"})
	labels, _ = rt.Lookup(ParseName("/b"))
	assert.Equal(t, []string{"any"}, labels)
	labels, _ = rt.Lookup(ParseName("/a/b"))
	assert.Equal(t, []string{"y"}, labels)

	// a restriction allowing nothing is still a restriction
	ir := CreateIcnRoutes(CreateTopology())
	ir.RestrictPrefix(ParseName("/c"), nil)
	labels, ok = ir.Restriction(ParseName("/c/d"))
	assert.True(t, ok)
	assert.NotNil(t, labels)
	assert.Empty(t, labels)
}
