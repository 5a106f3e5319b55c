package dag

import "errors"

var (
	// ErrInvalidNode is returned by [NewNode] and [DAG.AddNode] when a node
	// fails field validation: an empty or whitespace-only name, a type outside
	// the closed set, or a missing identifier.
	ErrInvalidNode = errors.New("invalid node")

	// ErrInvalidEdge is returned by [NewEdge] and [DAG.AddEdge] when an edge
	// fails field validation: empty endpoints, a type outside the closed set,
	// or a contract path that does not resolve to an existing artifact.
	ErrInvalidEdge = errors.New("invalid edge")

	// ErrDuplicateNode is returned by [DAG.AddNode] when a node with the same
	// ID already exists in the graph. Node IDs are unique by construction;
	// two distinct names that sanitize to the same ID surface here.
	ErrDuplicateNode = errors.New("node already exists")

	// ErrDuplicateEdge is returned by [DAG.AddEdge] when an edge with the same
	// (source, target) pair already exists. Repeated pairs are rejected rather
	// than silently replaced so that mutation semantics stay predictable.
	ErrDuplicateEdge = errors.New("edge already exists")

	// ErrNodeNotFound is returned when an operation references a node ID that
	// is not present in the graph.
	ErrNodeNotFound = errors.New("node not found")

	// ErrEdgeNotFound is returned by [DAG.RemoveEdge] when no edge exists for
	// the given (source, target) pair.
	ErrEdgeNotFound = errors.New("edge not found")

	// ErrCycle is returned by [DAG.AddEdge] when the new edge would close a
	// directed cycle. The graph is left exactly as it was before the call.
	ErrCycle = errors.New("edge would create a cycle")
)
