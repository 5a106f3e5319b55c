package dag

import (
	"fmt"
	"os"
	"strings"
)

// Metadata stores arbitrary key-value pairs attached to nodes, edges, or the
// graph itself. The engine never interprets or reorders metadata - it is
// carried verbatim through mutations and codec round-trips. Metadata maps are
// never nil after AddNode/AddEdge - they are initialized to empty maps when
// needed.
type Metadata map[string]any

// clone returns a shallow copy of the metadata map. Nested values are shared;
// the engine treats them as opaque.
func (m Metadata) clone() Metadata {
	if m == nil {
		return Metadata{}
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// NodeType classifies an architectural component. The set is closed: values
// outside it fail validation at construction and add time.
type NodeType string

// The component kinds a node can take.
const (
	NodeTypeService   NodeType = "Service"
	NodeTypeLibrary   NodeType = "Library"
	NodeTypeSchema    NodeType = "Schema"
	NodeTypeEndpoint  NodeType = "Endpoint"
	NodeTypeComponent NodeType = "Component"
)

// NodeTypes lists every valid node type in declaration order.
func NodeTypes() []NodeType {
	return []NodeType{NodeTypeService, NodeTypeLibrary, NodeTypeSchema, NodeTypeEndpoint, NodeTypeComponent}
}

// Valid reports whether t is one of the closed set of node types.
func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeService, NodeTypeLibrary, NodeTypeSchema, NodeTypeEndpoint, NodeTypeComponent:
		return true
	}
	return false
}

// ParseNodeType converts a string to a NodeType.
// Returns ErrInvalidNode if the value is outside the closed set.
func ParseNodeType(s string) (NodeType, error) {
	t := NodeType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown node type %q", ErrInvalidNode, s)
	}
	return t, nil
}

// EdgeType classifies the relationship an edge expresses. The set is closed:
// values outside it fail validation at construction and add time.
type EdgeType string

// The relationship kinds an edge can take.
const (
	EdgeTypeDependsOn  EdgeType = "DEPENDS_ON"
	EdgeTypeConsumes   EdgeType = "CONSUMES"
	EdgeTypeOwns       EdgeType = "OWNS"
	EdgeTypeImplements EdgeType = "IMPLEMENTS"
)

// EdgeTypes lists every valid edge type in declaration order.
func EdgeTypes() []EdgeType {
	return []EdgeType{EdgeTypeDependsOn, EdgeTypeConsumes, EdgeTypeOwns, EdgeTypeImplements}
}

// Valid reports whether t is one of the closed set of edge types.
func (t EdgeType) Valid() bool {
	switch t {
	case EdgeTypeDependsOn, EdgeTypeConsumes, EdgeTypeOwns, EdgeTypeImplements:
		return true
	}
	return false
}

// ParseEdgeType converts a string to an EdgeType.
// Returns ErrInvalidEdge if the value is outside the closed set.
func ParseEdgeType(s string) (EdgeType, error) {
	t := EdgeType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown edge type %q", ErrInvalidEdge, s)
	}
	return t, nil
}

// Node represents an architectural component: a vertex in the dependency
// graph. The ID is derived deterministically from the name (see [NodeID]) and
// is immutable once the node is in a graph.
//
// The zero value is not usable - build nodes with [NewNode], which validates
// fields and assigns the derived ID.
type Node struct {
	ID       string   // Unique identifier, derived from Name
	Type     NodeType // Component kind (closed set)
	Name     string   // Human-readable label, non-empty
	Metadata Metadata // Arbitrary key-value metadata (never nil after AddNode)
}

// NewNode builds a validated node with its ID derived from name.
// Returns ErrInvalidNode if the name is empty or whitespace-only, sanitizes
// to nothing, or the type is outside the closed set. The metadata map may be
// nil.
func NewNode(t NodeType, name string, meta Metadata) (Node, error) {
	n := Node{ID: NodeID(name), Type: t, Name: name, Metadata: meta}
	if err := n.validate(); err != nil {
		return Node{}, err
	}
	return n, nil
}

// clone returns a copy of the node with its own metadata map.
func (n *Node) clone() *Node {
	c := *n
	c.Metadata = n.Metadata.clone()
	return &c
}

func (n Node) validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidNode)
	}
	if !n.Type.Valid() {
		return fmt.Errorf("%w: unknown node type %q", ErrInvalidNode, string(n.Type))
	}
	if n.ID == "" {
		return fmt.Errorf("%w: name %q yields an empty identifier", ErrInvalidNode, n.Name)
	}
	return nil
}

// Edge represents a directed, typed relationship between two nodes.
// Source and Target reference nodes by ID; both must exist in the graph at
// the time the edge is added. Contract optionally points at an external
// interface artifact (a file path); when set, the path must exist at add
// time, but its contents are never parsed.
type Edge struct {
	Source   string   // Source node ID
	Target   string   // Target node ID
	Type     EdgeType // Relationship kind (closed set)
	Metadata Metadata // Arbitrary key-value metadata (never nil after AddEdge)
	Contract string   // Optional path to an interface-contract artifact
}

// NewEdge builds a validated edge. Returns ErrInvalidEdge if either endpoint
// is empty, the type is outside the closed set, or a supplied contract path
// does not exist. Endpoint existence inside a graph is checked by
// [DAG.AddEdge], not here.
func NewEdge(source, target string, t EdgeType, meta Metadata) (Edge, error) {
	e := Edge{Source: source, Target: target, Type: t, Metadata: meta}
	if err := e.validate(); err != nil {
		return Edge{}, err
	}
	return e, nil
}

// validateFields checks the edge's own fields without touching the
// filesystem. Contract existence is an add-time check only.
func (e Edge) validateFields() error {
	if e.Source == "" {
		return fmt.Errorf("%w: source must not be empty", ErrInvalidEdge)
	}
	if e.Target == "" {
		return fmt.Errorf("%w: target must not be empty", ErrInvalidEdge)
	}
	if !e.Type.Valid() {
		return fmt.Errorf("%w: unknown edge type %q", ErrInvalidEdge, string(e.Type))
	}
	return nil
}

func (e Edge) validate() error {
	if err := e.validateFields(); err != nil {
		return err
	}
	if e.Contract != "" {
		if _, err := os.Stat(e.Contract); err != nil {
			return fmt.Errorf("%w: contract artifact %s not found", ErrInvalidEdge, e.Contract)
		}
	}
	return nil
}
