package topomux

// joiner.go merges independently generated topologies into one graph, adding
// links between them with a probability that grows with the degree of the
// nodes involved (preferential attachment)

import (
	"log/slog"

	"github.com/iti/rngstream"
	"github.com/pkg/errors"
)

// Uniform is a source of draws uniform on [0,1).  *rngstream.RngStream satisfies it
type Uniform interface {
	RandU01() float64
}

// JoinSource names a topology to be joined.  Prefix is prepended, with an
// underscore, to the name of every node of Topo
type JoinSource struct {
	Prefix string
	Topo   *Topology
}

// Joiner holds the parameters of a preferential attachment join
type Joiner struct {
	// Scalar multiplies the attachment probability of every node pair
	Scalar float64

	// EdgeAttrs are given to every inter-topology edge
	EdgeAttrs EdgeAttrs

	// Rng supplies the draws deciding which inter-topology edges are created
	Rng Uniform

	Log *slog.Logger
}

// CreateJoiner is a constructor.  The random stream is a fresh rngstream named "joiner"
func CreateJoiner(scalar float64, attrs EdgeAttrs) *Joiner {
	jn := new(Joiner)
	jn.Scalar = scalar
	jn.EdgeAttrs = attrs
	jn.Rng = rngstream.New("joiner")
	jn.Log = Logger()
	return jn
}

// Join builds a new topology holding copies of every source, with nodes renamed
// "<prefix>_<name>", and then, for each pair of distinct sources T1 and T2 and each
// a in T1, b in T2, adds an edge (a,b) with probability
//
//	(Scalar/2) * (deg(a) + deg(b)) / (|E(T1)| + |E(T2)|)
//
// clamped to [0,1].  Degrees and edge counts are those of the sources, before any
// inter-topology edge exists.  When T1 and T2 have no edges at all the probability
// is 1 for a positive Scalar and 0 otherwise.  The sources are not modified
func (jn *Joiner) Join(sources []JoinSource) (*Topology, error) {
	joined := CreateTopology()
	if jn.Rng == nil {
		jn.Rng = rngstream.New("joiner")
	}

	// copies[i] holds the nodes that came from sources[i], and the within-source
	// degree of each, in the source's node order
	type member struct {
		node   *Node
		degree int
	}
	copies := make([][]member, len(sources))
	numEdges := make([]int, len(sources))

	for idx, src := range sources {
		prefix := src.Prefix
		cpy, err := src.Topo.copyRenamed(func(name string) string { return prefix + "_" + name })
		if err != nil {
			return nil, err
		}
		if err := joined.absorb(cpy); err != nil {
			return nil, err
		}

		numEdges[idx] = cpy.NumEdges()
		copies[idx] = make([]member, 0, cpy.NumNodes())
		for _, n := range cpy.nodes {
			copies[idx] = append(copies[idx], member{node: n, degree: cpy.Degree(n, nil)})
		}
	}

	added := 0
	for i := 0; i < len(sources); i++ {
		for j := i + 1; j < len(sources); j++ {
			totalEdges := numEdges[i] + numEdges[j]
			for _, a := range copies[i] {
				for _, b := range copies[j] {
					p := jn.attachProbability(a.degree, b.degree, totalEdges)
					if jn.Rng.RandU01() >= p {
						continue
					}
					if _, err := joined.AddEdge(a.node, b.node, jn.EdgeAttrs); err != nil {
						return nil, err
					}
					added += 1
				}
			}
		}
	}

	jn.logger().Info("joined topologies", "sources", len(sources),
		"nodes", joined.NumNodes(), "edges", joined.NumEdges(), "inter-edges", added)
	return joined, nil
}

// attachProbability evaluates the attachment probability for a node pair
func (jn *Joiner) attachProbability(degA, degB, totalEdges int) float64 {
	if jn.Scalar <= 0 {
		return 0.0
	}
	if totalEdges == 0 {
		return 1.0
	}
	p := jn.Scalar / 2.0 * float64(degA+degB) / float64(totalEdges)
	return min(p, 1.0)
}

func (jn *Joiner) logger() *slog.Logger {
	if jn.Log == nil {
		return Logger()
	}
	return jn.Log
}

// absorb moves the nodes and edges of src into topo.  src must not be used afterwards.
// Fails when a node name of src is already present in topo
func (topo *Topology) absorb(src *Topology) error {
	for _, n := range src.nodes {
		if _, present := topo.byName[n.name]; present {
			return errors.Wrapf(ErrDuplicateNode, "node %s present in more than one joined topology", n.name)
		}
	}
	for _, n := range src.nodes {
		topo.include(n)
	}
	topo.edges = append(topo.edges, src.edges...)
	return nil
}
