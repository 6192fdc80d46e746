package topomux

// export.go holds the serializable descriptions of a topology and of its forwarding
// tables.  As in the rest of the package, the pointer-holding structures used to build
// and route over a network are transformed into pointer-free 'Desc' structures before
// they are written out; nodes are referred to by their position in the node list

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// layer names derived from node names
const (
	AggregationLayer = "aggregation"
	ComputeLayer     = "compute"
	PhysicalLayer    = "physical"
	UnknownLayer     = "unknown"
)

// next hop tokens of a RouteDesc that are not node ids
const (
	LocalHop       = "local"
	UnreachableHop = "unreachable"
)

// LayerTag derives the layer of a node from the leading characters of its name:
// "agg" is aggregation, "com" compute, "phy" physical
func LayerTag(name string) string {
	switch {
	case strings.HasPrefix(name, "agg"):
		return AggregationLayer
	case strings.HasPrefix(name, "com"):
		return ComputeLayer
	case strings.HasPrefix(name, "phy"):
		return PhysicalLayer
	}
	return UnknownLayer
}

// NodeDesc is the serializable description of a node
type NodeDesc struct {
	ID       int      `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Layer    string   `json:"layer" yaml:"layer"`
	Labels   []string `json:"labels" yaml:"labels"`
	Prefixes []string `json:"prefixes" yaml:"prefixes"`
}

// EdgeDesc is the serializable description of an edge, endpoints given by node id
type EdgeDesc struct {
	Source   int     `json:"source" yaml:"source"`
	Target   int     `json:"target" yaml:"target"`
	Capacity float64 `json:"capacity" yaml:"capacity"`
	Delay    float64 `json:"delay" yaml:"delay"`
	Label    string  `json:"label" yaml:"label"`
}

// TopoDesc is the serializable description of a topology.  A node's id is its
// position in Nodes
type TopoDesc struct {
	Name  string     `json:"name" yaml:"name"`
	Nodes []NodeDesc `json:"nodes" yaml:"nodes"`
	Edges []EdgeDesc `json:"edges" yaml:"edges"`
}

// ExportTopology transforms the topology into its serializable description.  Nodes
// are numbered in the order they were added to the topology
func (topo *Topology) ExportTopology(name string) *TopoDesc {
	td := new(TopoDesc)
	td.Name = name
	td.Nodes = make([]NodeDesc, 0, len(topo.nodes))
	td.Edges = make([]EdgeDesc, 0, len(topo.edges))

	ids := make(map[*Node]int, len(topo.nodes))
	for idx, n := range topo.nodes {
		ids[n] = idx
		prefixes := make([]string, 0, len(n.prefixes))
		for _, prefix := range n.prefixes {
			prefixes = append(prefixes, prefix.String())
		}
		td.Nodes = append(td.Nodes, NodeDesc{ID: idx, Name: n.name, Layer: LayerTag(n.name),
			Labels: n.Labels(), Prefixes: prefixes})
	}
	for _, e := range topo.edges {
		td.Edges = append(td.Edges, EdgeDesc{Source: ids[e.a], Target: ids[e.b],
			Capacity: e.Capacity, Delay: e.Delay, Label: e.Label})
	}
	return td
}

// NodeIndex returns the id of the node with the given name, or -1
func (td *TopoDesc) NodeIndex(name string) int {
	for _, nd := range td.Nodes {
		if nd.Name == name {
			return nd.ID
		}
	}
	return -1
}

// Build creates the topology the description describes.  Node ids must be 0..len(Nodes)-1
// in order, and edges must satisfy the rules of AddEdge
func (td *TopoDesc) Build() (*Topology, error) {
	topo := CreateTopology()
	for idx, nd := range td.Nodes {
		if nd.ID != idx {
			return nil, errors.Wrapf(ErrInvalidConfig, "node %s has id %d at position %d", nd.Name, nd.ID, idx)
		}
		prefixes := make([]IcnName, 0, len(nd.Prefixes))
		for _, prefix := range nd.Prefixes {
			prefixes = append(prefixes, ParseName(prefix))
		}
		if _, err := topo.AddNode(nd.Name, nd.Labels, prefixes); err != nil {
			return nil, err
		}
	}
	for _, ed := range td.Edges {
		if ed.Source < 0 || ed.Source >= len(topo.nodes) || ed.Target < 0 || ed.Target >= len(topo.nodes) {
			return nil, errors.Wrapf(ErrInvalidEdge, "edge %d-%d names a node id out of range", ed.Source, ed.Target)
		}
		attrs := EdgeAttrs{Capacity: ed.Capacity, Delay: ed.Delay, Label: ed.Label}
		if _, err := topo.AddEdge(topo.nodes[ed.Source], topo.nodes[ed.Target], attrs); err != nil {
			return nil, err
		}
	}
	return topo, nil
}

// WriteToFile stores the TopoDesc in the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name
func (td *TopoDesc) WriteToFile(filename string) error {
	return writeSerialized(filename, td)
}

// ReadTopoDesc deserializes a byte slice holding a representation of a TopoDesc.
// If the input argument dict is empty, the file whose name is given is read to acquire
// them
func ReadTopoDesc(filename string, useYAML bool, dict []byte) (*TopoDesc, error) {
	dict, err := readDict(filename, dict)
	if err != nil {
		return nil, err
	}

	example := TopoDesc{}
	if useYAML {
		err = yaml.Unmarshal(dict, &example)
	} else {
		err = json.Unmarshal(dict, &example)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "topology description %s", filename)
	}
	return &example, nil
}

// RouteDesc is the serializable description of one forwarding table entry.  NextHop
// is a node id, LocalHop when the node serves the prefix itself, or UnreachableHop.
// Delay is absent for unreachable entries
type RouteDesc struct {
	Node    int      `json:"node" yaml:"node"`
	Prefix  string   `json:"prefix" yaml:"prefix"`
	NextHop string   `json:"nexthop" yaml:"nexthop"`
	Delay   *float64 `json:"delay" yaml:"delay"`
}

// RouteTableDesc holds the forwarding tables of every node
type RouteTableDesc struct {
	Name   string      `json:"name" yaml:"name"`
	Routes []RouteDesc `json:"routes" yaml:"routes"`
}

// ExportRoutes transforms the result of the last route computation into its serializable
// description, identifying nodes by their id in td.  Entries are ordered by node id,
// then by prefix
func (ir *IcnRoutes) ExportRoutes(td *TopoDesc) (*RouteTableDesc, error) {
	ids := make(map[string]int, len(td.Nodes))
	for _, nd := range td.Nodes {
		ids[nd.Name] = nd.ID
	}
	idOf := func(n *Node) (int, error) {
		id, present := ids[n.name]
		if !present {
			return -1, errors.Errorf("node %s missing from topology description %s", n.name, td.Name)
		}
		return id, nil
	}

	rtd := new(RouteTableDesc)
	rtd.Name = td.Name
	rtd.Routes = make([]RouteDesc, 0, len(ir.hops)*len(ir.prefixes))
	for _, n := range ir.topo.nodes {
		nodeID, err := idOf(n)
		if err != nil {
			return nil, err
		}
		for _, prefix := range ir.prefixes {
			hop, _ := ir.Hop(n, prefix)
			rd := RouteDesc{Node: nodeID, Prefix: prefix.String(), NextHop: UnreachableHop}
			if hop.Reachable {
				dist := hop.Dist
				rd.Delay = &dist
				rd.NextHop = LocalHop
				if hop.Face != nil {
					faceID, err := idOf(hop.Face)
					if err != nil {
						return nil, err
					}
					rd.NextHop = strconv.Itoa(faceID)
				}
			}
			rtd.Routes = append(rtd.Routes, rd)
		}
	}
	return rtd, nil
}

// WriteToFile stores the RouteTableDesc in the file whose name is given.  The extension
// selects json, yaml, or (for .txt) one line per entry: node prefix nexthop delay, with
// delay None for unreachable entries
func (rtd *RouteTableDesc) WriteToFile(filename string) error {
	ext := strings.ToLower(path.Ext(filename))
	if ext != ".txt" {
		return writeSerialized(filename, rtd)
	}

	var sb strings.Builder
	for _, rd := range rtd.Routes {
		delay := "None"
		if rd.Delay != nil {
			delay = strconv.FormatFloat(*rd.Delay, 'f', -1, 64)
		}
		fmt.Fprintf(&sb, "%d %s %s %s\n", rd.Node, rd.Prefix, rd.NextHop, delay)
	}
	return writeBytes(filename, []byte(sb.String()))
}

// ReadRouteTableDesc deserializes a json or yaml representation of a RouteTableDesc,
// read from the named file when dict is empty
func ReadRouteTableDesc(filename string, useYAML bool, dict []byte) (*RouteTableDesc, error) {
	dict, err := readDict(filename, dict)
	if err != nil {
		return nil, err
	}

	example := RouteTableDesc{}
	if useYAML {
		err = yaml.Unmarshal(dict, &example)
	} else {
		err = json.Unmarshal(dict, &example)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "route table %s", filename)
	}
	return &example, nil
}

// UseYAML reports whether the extension of filename calls for yaml rather than json
func UseYAML(filename string) bool {
	ext := strings.ToLower(path.Ext(filename))
	return ext == ".yaml" || ext == ".yml"
}

// writeSerialized serializes obj to json or yaml, selected by the extension of filename,
// and writes it to that file
func writeSerialized(filename string, obj any) error {
	var bytes []byte
	var merr error

	switch strings.ToLower(path.Ext(filename)) {
	case ".yaml", ".yml":
		bytes, merr = yaml.Marshal(obj)
	case ".json":
		bytes, merr = json.MarshalIndent(obj, "", "\t")
	default:
		return errors.Errorf("cannot select a serialization for %s, use .yaml, .yml or .json", filename)
	}
	if merr != nil {
		return errors.Wrapf(merr, "serializing %s", filename)
	}
	return writeBytes(filename, bytes)
}

func writeBytes(filename string, bytes []byte) error {
	f, cerr := os.Create(filename)
	if cerr != nil {
		return errors.WithStack(cerr)
	}
	_, werr := f.Write(bytes)
	if err := f.Close(); werr == nil {
		werr = err
	}
	return errors.Wrapf(werr, "writing %s", filename)
}

// readDict returns dict, or the contents of the named file when dict is empty
func readDict(filename string, dict []byte) ([]byte, error) {
	if len(dict) > 0 {
		return dict, nil
	}
	dict, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return dict, nil
}
