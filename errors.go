package topomux

// errors.go holds the failures the topology and routing code can report.
// Failures of validation wrap one of these, so callers test for
// a kind of failure with errors.Is

import (
	"github.com/pkg/errors"
)

var (
	// ErrInvalidName is reserved for malformed names.  ParseName accepts any string,
	// so nothing in the package currently returns it
	ErrInvalidName = errors.New("invalid name")

	// ErrDuplicateNode is returned when a node name is already in use within a topology
	ErrDuplicateNode = errors.New("duplicate node")

	// ErrInvalidEdge is returned for self-loops and negative delays, or when an
	// endpoint is not a member of the topology
	ErrInvalidEdge = errors.New("invalid edge")

	// ErrDisconnectedGraph is returned when an operation needs a connected topology
	ErrDisconnectedGraph = errors.New("disconnected graph")

	// ErrNonConvergence is returned when route relaxation exceeds its pass limit
	ErrNonConvergence = errors.New("route computation did not converge")

	// ErrInvalidConfig is returned when an experiment description fails validation
	ErrInvalidConfig = errors.New("invalid configuration")
)
