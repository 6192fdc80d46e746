package topomux

// experiment.go carries out an experiment described by an ExpCfg: generate each layer,
// join them, add the physical layer and urgent paths, and compute the forwarding tables

import (
	"log/slog"
	"math/rand/v2"

	"github.com/iti/rngstream"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/graphs/gen"
	"gonum.org/v1/gonum/graph/simple"
)

// Experiment holds the products of running an ExpCfg
type Experiment struct {
	Cfg *ExpCfg

	// Topology is the joined network, with its physical layer
	Topology *Topology

	// Desc is the exported form of Topology, fixing the node ids used by RouteTable
	Desc *TopoDesc

	Routes     *IcnRoutes
	RouteTable *RouteTableDesc
}

// seedFrom turns a uniform draw into a 53 bit seed
func seedFrom(rng Uniform) uint64 {
	return uint64(rng.RandU01() * (1 << 53))
}

// generateGraph runs the graph generator a layer names.  Random generators are
// seeded from two draws of rng, so a layer is reproduced by reproducing the stream
func generateGraph(lc LayerCfg, rng Uniform) (graph.Graph, error) {
	g := simple.NewUndirectedGraph()
	switch lc.Generator {
	case MeshGenerator:
		gen.Complete(g, gen.IDRange{First: 0, Last: int64(lc.Nodes - 1)})
	case BAGenerator:
		src := rand.NewPCG(seedFrom(rng), seedFrom(rng))
		if err := gen.PreferentialAttachment(g, lc.Nodes, lc.Attach, src); err != nil {
			return nil, errors.Wrapf(err, "layer %s", lc.Name)
		}
	default:
		return nil, errors.Wrapf(ErrInvalidConfig, "layer %s: generator %q builds no graph", lc.Name, lc.Generator)
	}
	return g, nil
}

// BuildLayer creates the topology of one layer, then labels its nodes and edges,
// has every node serve the layer's prefixes, and promotes a spanning tree when asked to.
// rng seeds random generators; when nil a stream named after the layer is used
func BuildLayer(lc LayerCfg, rng Uniform) (*Topology, error) {
	var topo *Topology
	var err error

	if rng == nil {
		rng = rngstream.New(lc.Name)
	}

	if lc.Generator == FileGenerator {
		var td *TopoDesc
		td, err = ReadTopoDesc(lc.File, UseYAML(lc.File), nil)
		if err == nil {
			topo, err = td.Build()
		}
	} else {
		var g graph.Graph
		g, err = generateGraph(lc, rng)
		if err == nil {
			topo, err = ImportGraph(g)
		}
	}
	if err != nil {
		return nil, err
	}

	if len(lc.NodeLabel) > 0 {
		topo.LabelAllNodes(lc.NodeLabel)
	}
	if len(lc.EdgeLabel) > 0 {
		topo.LabelAllEdges(lc.EdgeLabel)
	}
	for _, prefix := range lc.Prefixes {
		topo.PrefixAllNodes(ParseName(prefix))
	}
	if len(lc.SpanningLabel) > 0 {
		if _, err := PromoteSpanningTree(topo, lc.SpanningLabel); err != nil {
			return nil, errors.WithMessagef(err, "layer %s", lc.Name)
		}
	}
	return topo, nil
}

// RunExperiment builds the network ec describes and computes its forwarding tables.
// rng supplies every random draw: generator seeds, the join and the physical layer.
// When nil a stream named after the experiment is used
func RunExperiment(ec *ExpCfg, rng Uniform, logger *slog.Logger) (*Experiment, error) {
	if err := ec.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = Logger()
	}
	if rng == nil {
		rng = rngstream.New(ec.Name)
	}

	sources := make([]JoinSource, 0, len(ec.Layers))
	for _, lc := range ec.Layers {
		topo, err := BuildLayer(lc, rng)
		if err != nil {
			return nil, err
		}
		logger.Info("built layer", "layer", lc.Name, "generator", lc.Generator,
			"nodes", topo.NumNodes(), "edges", topo.NumEdges())
		sources = append(sources, JoinSource{Prefix: lc.Name, Topo: topo})
	}

	jn := CreateJoiner(ec.Join.Scalar, ec.Join.Edge)
	jn.Rng = rng
	jn.Log = logger
	joined, err := jn.Join(sources)
	if err != nil {
		return nil, err
	}

	if ec.Physical != nil && ec.Physical.Count > 0 {
		if _, err := AddPhysicalLayer(joined, *ec.Physical, rng); err != nil {
			return nil, err
		}
		logger.Info("added physical layer", "nodes", ec.Physical.Count)
	}

	if ec.Urgent != nil {
		marked := MarkUrgentPaths(joined, ec.Urgent.From, ec.Urgent.To, ec.Urgent.Label)
		logger.Info("marked urgent paths", "from", ec.Urgent.From, "to", ec.Urgent.To, "edges", marked)
	}

	if !joined.Connected() {
		logger.Warn("joined topology is not connected, some prefixes will be unreachable")
	}

	routes, err := ec.Routes.ConfigureRoutes(joined)
	if err != nil {
		return nil, err
	}
	routes.Log = logger
	if err := routes.CalculateRoutes(); err != nil {
		return nil, err
	}

	exp := &Experiment{Cfg: ec, Topology: joined, Routes: routes}
	exp.Desc = joined.ExportTopology(ec.Name)
	exp.RouteTable, err = routes.ExportRoutes(exp.Desc)
	if err != nil {
		return nil, err
	}
	return exp, nil
}

// WriteOutputs writes the topology and route table to the files named in the
// configuration, skipping those left empty
func (exp *Experiment) WriteOutputs() error {
	if len(exp.Cfg.Output.Topology) > 0 {
		if err := exp.Desc.WriteToFile(exp.Cfg.Output.Topology); err != nil {
			return err
		}
	}
	if len(exp.Cfg.Output.Routes) > 0 {
		if err := exp.RouteTable.WriteToFile(exp.Cfg.Output.Routes); err != nil {
			return err
		}
	}
	return nil
}
