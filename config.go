package topomux

// config.go describes an experiment: the layers to generate, how to join them, the
// physical layer to add, the urgent paths to mark, the route restrictions, and where
// to write the results.  Descriptions are read from and written to json or yaml files

import (
	"encoding/json"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// generator names recognized in a LayerCfg
const (
	MeshGenerator = "mesh"
	BAGenerator   = "ba"
	FileGenerator = "file"
)

// LayerCfg describes one independently generated layer
type LayerCfg struct {
	// Name becomes the prefix of every node name of the layer when layers are joined
	Name string `json:"name" yaml:"name"`

	// Generator is one of "mesh" (full mesh), "ba" (preferential attachment) or
	// "file" (a TopoDesc read from File)
	Generator string `json:"generator" yaml:"generator"`

	Nodes int `json:"nodes" yaml:"nodes"`

	// Attach is the number of edges each new node brings under the "ba" generator
	Attach int `json:"attach" yaml:"attach"`

	File string `json:"file,omitempty" yaml:"file,omitempty"`

	NodeLabel string `json:"nodelabel" yaml:"nodelabel"`
	EdgeLabel string `json:"edgelabel" yaml:"edgelabel"`

	// every node of the layer serves each of these names
	Prefixes []string `json:"prefixes" yaml:"prefixes"`

	// when not empty the edges of a minimum spanning tree of the layer get this label
	SpanningLabel string `json:"spanninglabel,omitempty" yaml:"spanninglabel,omitempty"`
}

// JoinCfg describes how layers are joined
type JoinCfg struct {
	Scalar float64   `json:"scalar" yaml:"scalar"`
	Edge   EdgeAttrs `json:"edge" yaml:"edge"`
}

// UrgentCfg asks for the shortest path from every From-labeled node to the nearest
// To-labeled node to be relabeled Label
type UrgentCfg struct {
	From  string `json:"from" yaml:"from"`
	To    string `json:"to" yaml:"to"`
	Label string `json:"label" yaml:"label"`
}

// RestrictionCfg limits traffic for names under Prefix to edges labeled with one of Labels
type RestrictionCfg struct {
	Prefix string   `json:"prefix" yaml:"prefix"`
	Labels []string `json:"labels" yaml:"labels"`
}

// RouteCfg parameterizes the route computation
type RouteCfg struct {
	Penalty      float64          `json:"penalty" yaml:"penalty"`
	Policy       string           `json:"policy" yaml:"policy"`
	MaxPasses    int              `json:"maxpasses,omitempty" yaml:"maxpasses,omitempty"`
	Restrictions []RestrictionCfg `json:"restrictions" yaml:"restrictions"`
}

// OutputCfg names the files results are written to.  Empty names suppress the output
type OutputCfg struct {
	Topology string `json:"topology" yaml:"topology"`
	Routes   string `json:"routes" yaml:"routes"`
}

// ExpCfg is the description of an experiment
type ExpCfg struct {
	Name     string            `json:"name" yaml:"name"`
	Layers   []LayerCfg        `json:"layers" yaml:"layers"`
	Join     JoinCfg           `json:"join" yaml:"join"`
	Physical *PhysicalLayerCfg `json:"physical,omitempty" yaml:"physical,omitempty"`
	Urgent   *UrgentCfg        `json:"urgent,omitempty" yaml:"urgent,omitempty"`
	Routes   RouteCfg          `json:"routes" yaml:"routes"`
	Output   OutputCfg         `json:"output" yaml:"output"`
}

// DefaultExpCfg returns the experiment of the original study: a 10 node compute mesh and
// a 64 node preferential attachment aggregation layer whose spanning tree forms the
// overlay, joined with scalar 0.5, plus 100 physical nodes
func DefaultExpCfg() *ExpCfg {
	joinEdge := DefaultEdgeAttrs()
	joinEdge.Label = "overlay"
	physical := DefaultPhysicalLayerCfg()

	return &ExpCfg{
		Name: "icens",
		Layers: []LayerCfg{
			{
				Name: "com", Generator: MeshGenerator, Nodes: 10,
				NodeLabel: "compute", EdgeLabel: "compute",
				Prefixes: []string{"/direct/com", "/overlay/com"},
			},
			{
				Name: "agg", Generator: BAGenerator, Nodes: 64, Attach: 2,
				NodeLabel: "aggregate", EdgeLabel: "normal",
				Prefixes:      []string{"/direct/agg", "/overlay/agg"},
				SpanningLabel: "overlay",
			},
		},
		Join:     JoinCfg{Scalar: 0.5, Edge: joinEdge},
		Physical: &physical,
		Routes: RouteCfg{
			Penalty: DefaultPenalty,
			Policy:  SoftRestriction.String(),
			Restrictions: []RestrictionCfg{
				{Prefix: "/direct", Labels: []string{"normal", "overlay"}},
				{Prefix: "/overlay", Labels: []string{"overlay"}},
			},
		},
		Output: OutputCfg{Topology: "icens-topology.yaml", Routes: "icens-routing-tables.txt"},
	}
}

// Validate checks the description for values no experiment can be built from
func (ec *ExpCfg) Validate() error {
	if len(ec.Layers) == 0 {
		return errors.Wrap(ErrInvalidConfig, "no layers")
	}
	names := make([]string, 0, len(ec.Layers))
	for _, lc := range ec.Layers {
		if len(lc.Name) == 0 {
			return errors.Wrap(ErrInvalidConfig, "layer without a name")
		}
		if slices.Contains(names, lc.Name) {
			return errors.Wrapf(ErrInvalidConfig, "duplicate layer name %s", lc.Name)
		}
		names = append(names, lc.Name)

		switch lc.Generator {
		case MeshGenerator:
			if lc.Nodes < 1 {
				return errors.Wrapf(ErrInvalidConfig, "layer %s needs at least one node", lc.Name)
			}
		case BAGenerator:
			if lc.Attach < 1 || lc.Nodes <= lc.Attach {
				return errors.Wrapf(ErrInvalidConfig, "layer %s needs 0 < attach < nodes, has attach %d and %d nodes",
					lc.Name, lc.Attach, lc.Nodes)
			}
		case FileGenerator:
			if len(lc.File) == 0 {
				return errors.Wrapf(ErrInvalidConfig, "layer %s names no file", lc.Name)
			}
		default:
			return errors.Wrapf(ErrInvalidConfig, "layer %s has unknown generator %q", lc.Name, lc.Generator)
		}
	}
	if ec.Join.Scalar < 0 {
		return errors.Wrapf(ErrInvalidConfig, "negative join scalar %g", ec.Join.Scalar)
	}
	if ec.Join.Edge.Delay < 0 {
		return errors.Wrapf(ErrInvalidConfig, "negative join edge delay %g", ec.Join.Edge.Delay)
	}
	if ec.Physical != nil && ec.Physical.Count < 0 {
		return errors.Wrapf(ErrInvalidConfig, "negative physical node count %d", ec.Physical.Count)
	}
	if ec.Urgent != nil && (len(ec.Urgent.From) == 0 || len(ec.Urgent.To) == 0) {
		return errors.Wrap(ErrInvalidConfig, "urgent paths need both a from and a to label")
	}
	if _, err := ParsePolicy(ec.Routes.Policy); err != nil {
		return err
	}
	if ec.Routes.Penalty < 0 {
		return errors.Wrapf(ErrInvalidConfig, "negative penalty %g", ec.Routes.Penalty)
	}
	return nil
}

// ParsePolicy converts "soft" or "hard" to a RestrictionPolicy.  The empty string is soft
func ParsePolicy(policy string) (RestrictionPolicy, error) {
	switch policy {
	case "", SoftRestriction.String():
		return SoftRestriction, nil
	case HardRestriction.String():
		return HardRestriction, nil
	}
	return SoftRestriction, errors.Wrapf(ErrInvalidConfig, "unknown restriction policy %q", policy)
}

// ConfigureRoutes creates the route engine for topo described by rc
func (rc *RouteCfg) ConfigureRoutes(topo *Topology) (*IcnRoutes, error) {
	policy, err := ParsePolicy(rc.Policy)
	if err != nil {
		return nil, err
	}
	ir := CreateIcnRoutes(topo)
	ir.Policy = policy
	ir.MaxPasses = rc.MaxPasses
	if rc.Penalty > 0 {
		ir.Penalty = rc.Penalty
	}
	for _, rst := range rc.Restrictions {
		ir.RestrictPrefix(ParseName(rst.Prefix), rst.Labels)
	}
	return ir, nil
}

// WriteToFile stores the ExpCfg in the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name
func (ec *ExpCfg) WriteToFile(filename string) error {
	return writeSerialized(filename, ec)
}

// ReadExpCfg deserializes a byte slice holding a representation of an ExpCfg.
// If the input argument dict is empty, the file whose name is given is read to acquire
// them.  The result is validated
func ReadExpCfg(filename string, useYAML bool, dict []byte) (*ExpCfg, error) {
	dict, err := readDict(filename, dict)
	if err != nil {
		return nil, err
	}

	example := ExpCfg{}
	if useYAML {
		err = yaml.Unmarshal(dict, &example)
	} else {
		err = json.Unmarshal(dict, &example)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "experiment description %s", filename)
	}
	if err := example.Validate(); err != nil {
		return nil, errors.WithMessagef(err, "experiment description %s", filename)
	}
	return &example, nil
}
