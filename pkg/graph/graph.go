package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fedgraph/fedgraph/pkg/dag"
)

// =============================================================================
// Canonical Encoding
// =============================================================================

// Encode serializes a document into its canonical byte form: compact JSON
// with lexicographically sorted map keys, edges sorted by (source, target),
// and nil metadata normalized to empty objects. Two structurally identical
// documents always encode to identical bytes.
func Encode(doc Document) ([]byte, error) {
	data, err := json.Marshal(doc.normalized())
	if err != nil {
		return nil, fmt.Errorf("encode graph: %w", err)
	}
	return data, nil
}

// Decode parses canonical (or pretty-printed) document bytes and rebuilds
// the graph through the engine, re-validating every invariant. Malformed
// JSON and invariant violations both surface as ErrCorruptDocument.
func Decode(data []byte) (*dag.DAG, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptDocument, err)
	}
	return ToDAG(doc)
}

// Marshal converts a graph to its canonical byte form.
func Marshal(g *dag.DAG) ([]byte, error) {
	return Encode(FromDAG(g))
}

// normalized returns a copy of the document with nil collections replaced by
// empty ones and edges sorted, so encoding is deterministic for documents
// that were built by hand rather than through FromDAG.
func (d Document) normalized() Document {
	out := Document{
		Metadata: cloneMeta(d.Metadata),
		Nodes:    make(map[string]NodeRecord, len(d.Nodes)),
		Edges:    sortedEdges(d.Edges),
	}
	for id, rec := range d.Nodes {
		rec.Metadata = cloneMeta(rec.Metadata)
		out.Nodes[id] = rec
	}
	for i := range out.Edges {
		out.Edges[i].Metadata = cloneMeta(out.Edges[i].Metadata)
	}
	if out.Edges == nil {
		out.Edges = []EdgeRecord{}
	}
	return out
}

// =============================================================================
// Stream and File I/O
// =============================================================================

// Write serializes a graph to the writer as indented JSON. The content is
// canonical in ordering but pretty-printed for human inspection; Decode
// accepts both forms.
func Write(g *dag.DAG, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromDAG(g).normalized()); err != nil {
		return fmt.Errorf("write graph: %w", err)
	}
	return nil
}

// Read parses a graph document from the reader, re-validating all invariants.
func Read(r io.Reader) (*dag.DAG, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read graph: %w", err)
	}
	return Decode(data)
}

// WriteFile saves a graph to the given path as indented JSON. The document
// is written to a temporary file in the same directory and renamed into
// place, so an existing file is never left half-written.
func WriteFile(g *dag.DAG, path string) error {
	var buf bytes.Buffer
	if err := Write(g, &buf); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".graph-*.json")
	if err != nil {
		return fmt.Errorf("write graph file: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write graph file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write graph file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write graph file: %w", err)
	}
	return nil
}

// ReadFile loads a graph document from the given path.
func ReadFile(path string) (*dag.DAG, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read graph file: %w", err)
	}
	return Decode(data)
}
