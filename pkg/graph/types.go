package graph

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/fedgraph/fedgraph/pkg/dag"
)

// ErrCorruptDocument is returned by [ToDAG], [Decode], and the file readers
// when a document fails invariant re-validation: an unknown type, a missing
// or mismatched node record, a dangling edge endpoint, a duplicate
// (source, target) pair, or a cycle. Decoded documents are never trusted
// blindly. The underlying engine error is wrapped and can be matched with
// errors.Is.
var ErrCorruptDocument = errors.New("corrupt graph document")

// =============================================================================
// Document - Canonical Graph Serialization
// =============================================================================

// Document is the persisted form of a dependency graph: document-level
// metadata, node records keyed by ID, and an edge list. The same shape is
// written to JSON files, returned by the HTTP API, and stored in MongoDB.
//
// Ordering is part of the format's compatibility contract: map keys are
// serialized lexicographically and the edge list sorted by (source, target),
// so that structurally identical graphs always produce identical bytes and
// therefore identical fingerprints.
type Document struct {
	Metadata map[string]any        `json:"metadata" bson:"metadata"`
	Nodes    map[string]NodeRecord `json:"nodes" bson:"nodes"`
	Edges    []EdgeRecord          `json:"edges" bson:"edges"`
}

// NodeRecord is the serialized form of a node.
type NodeRecord struct {
	ID       string         `json:"id" bson:"id"`
	Type     string         `json:"type" bson:"type"`
	Name     string         `json:"name" bson:"name"`
	Metadata map[string]any `json:"metadata" bson:"metadata"`
}

// EdgeRecord is the serialized form of an edge.
type EdgeRecord struct {
	Source   string         `json:"source" bson:"source"`
	Target   string         `json:"target" bson:"target"`
	Type     string         `json:"edge_type" bson:"edge_type"`
	Metadata map[string]any `json:"metadata" bson:"metadata"`
	Contract string         `json:"contract,omitempty" bson:"contract,omitempty"`
}

// =============================================================================
// DAG ↔ Document Conversion
// =============================================================================

// FromDAG projects a graph into its canonical document form.
// Node records are keyed by ID and edges sorted by (source, target);
// metadata maps are copied, never shared with the source graph.
func FromDAG(g *dag.DAG) Document {
	doc := Document{
		Metadata: cloneMeta(g.Meta()),
		Nodes:    make(map[string]NodeRecord, g.NodeCount()),
		Edges:    make([]EdgeRecord, 0, g.EdgeCount()),
	}
	for _, n := range g.Nodes() {
		doc.Nodes[n.ID] = NodeRecord{
			ID:       n.ID,
			Type:     string(n.Type),
			Name:     n.Name,
			Metadata: cloneMeta(n.Metadata),
		}
	}
	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, EdgeRecord{
			Source:   e.Source,
			Target:   e.Target,
			Type:     string(e.Type),
			Metadata: cloneMeta(e.Metadata),
			Contract: e.Contract,
		})
	}
	return doc
}

// ToDAG rebuilds a graph from a document, replaying every record through the
// engine's AddNode/AddEdge so that all invariants are re-checked: node ID
// uniqueness, endpoint existence, acyclicity, and (source, target) pair
// uniqueness, plus entity field validation. Any violation is reported as
// ErrCorruptDocument wrapping the engine error.
//
// Records are replayed in sorted order, so rebuild behavior is deterministic
// regardless of map iteration.
func ToDAG(doc Document) (*dag.DAG, error) {
	g := dag.New(cloneMeta(doc.Metadata))

	for _, id := range slices.Sorted(maps.Keys(doc.Nodes)) {
		rec := doc.Nodes[id]
		if rec.ID != id {
			return nil, fmt.Errorf("%w: node key %q does not match record id %q", ErrCorruptDocument, id, rec.ID)
		}
		n := dag.Node{
			ID:       rec.ID,
			Type:     dag.NodeType(rec.Type),
			Name:     rec.Name,
			Metadata: cloneMeta(rec.Metadata),
		}
		if err := g.AddNode(n); err != nil {
			return nil, fmt.Errorf("%w: add node %s: %w", ErrCorruptDocument, id, err)
		}
	}

	for _, rec := range sortedEdges(doc.Edges) {
		e := dag.Edge{
			Source:   rec.Source,
			Target:   rec.Target,
			Type:     dag.EdgeType(rec.Type),
			Metadata: cloneMeta(rec.Metadata),
			Contract: rec.Contract,
		}
		if err := g.AddEdge(e); err != nil {
			return nil, fmt.Errorf("%w: add edge %s -> %s: %w", ErrCorruptDocument, rec.Source, rec.Target, err)
		}
	}

	return g, nil
}

// cloneMeta copies a metadata map, normalizing nil to an empty map so that
// canonical output never distinguishes "absent" from "empty".
func cloneMeta(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// sortedEdges returns a copy of the edge records ordered by (source, target).
func sortedEdges(edges []EdgeRecord) []EdgeRecord {
	out := slices.Clone(edges)
	slices.SortFunc(out, func(a, b EdgeRecord) int {
		if c := strings.Compare(a.Source, b.Source); c != 0 {
			return c
		}
		return strings.Compare(a.Target, b.Target)
	})
	return out
}
