// Package manifest reads and writes declarative architecture manifests.
//
// A manifest is a TOML file declaring the components of a system and the
// relationships between them. Components are declared by name; node IDs are
// derived from names the same way the engine derives them, so a manifest
// always builds the same graph.
//
//	[graph]
//	name = "platform"
//
//	[[components]]
//	name = "payment-service"
//	type = "Service"
//
//	[[components]]
//	name = "money"
//	type = "Library"
//
//	[[relations]]
//	source = "payment-service"
//	target = "money"
//	type = "DEPENDS_ON"
//
// Building replays every declaration through the graph engine, so a
// manifest that names a missing component, duplicates an edge, or closes a
// dependency cycle fails the same way the equivalent API calls would.
package manifest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/fedgraph/fedgraph/pkg/dag"
)

// ErrInvalidManifest is returned when a manifest cannot produce a graph.
var ErrInvalidManifest = errors.New("invalid manifest")

// Manifest is the top-level TOML document.
type Manifest struct {
	Graph      GraphSection `toml:"graph"`
	Components []Component  `toml:"components"`
	Relations  []Relation   `toml:"relations"`
}

// GraphSection names the graph and carries graph-level metadata.
type GraphSection struct {
	Name     string         `toml:"name"`
	Metadata map[string]any `toml:"metadata,omitempty"`
}

// Component declares one node. The node ID is derived from the name.
type Component struct {
	Name     string         `toml:"name"`
	Type     string         `toml:"type"`
	Metadata map[string]any `toml:"metadata,omitempty"`
}

// Relation declares one edge between two declared components.
type Relation struct {
	Source   string         `toml:"source"`
	Target   string         `toml:"target"`
	Type     string         `toml:"type"`
	Contract string         `toml:"contract,omitempty"`
	Metadata map[string]any `toml:"metadata,omitempty"`
}

// Parse decodes a TOML manifest.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	return &m, nil
}

// ParseFile decodes the TOML manifest at path.
func ParseFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(data)
}

// Build constructs a graph from the manifest by replaying every declaration
// through the engine. Relative contract paths are resolved against baseDir.
func (m *Manifest) Build(baseDir string) (*dag.DAG, error) {
	g := dag.New(dag.Metadata(m.Graph.Metadata))

	// Component names map to derived node IDs for relation resolution.
	ids := make(map[string]string, len(m.Components))
	for _, c := range m.Components {
		nodeType, err := dag.ParseNodeType(c.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: component %q: %w", ErrInvalidManifest, c.Name, err)
		}
		n, err := dag.NewNode(nodeType, c.Name, dag.Metadata(c.Metadata))
		if err != nil {
			return nil, fmt.Errorf("%w: component %q: %w", ErrInvalidManifest, c.Name, err)
		}
		if err := g.AddNode(n); err != nil {
			return nil, fmt.Errorf("%w: component %q: %w", ErrInvalidManifest, c.Name, err)
		}
		ids[c.Name] = n.ID
	}

	for _, r := range m.Relations {
		edgeType, err := dag.ParseEdgeType(r.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: relation %s -> %s: %w", ErrInvalidManifest, r.Source, r.Target, err)
		}
		source, ok := ids[r.Source]
		if !ok {
			return nil, fmt.Errorf("%w: relation references undeclared component %q", ErrInvalidManifest, r.Source)
		}
		target, ok := ids[r.Target]
		if !ok {
			return nil, fmt.Errorf("%w: relation references undeclared component %q", ErrInvalidManifest, r.Target)
		}

		contract := r.Contract
		if contract != "" && !filepath.IsAbs(contract) {
			contract = filepath.Join(baseDir, contract)
		}

		e := dag.Edge{
			Source:   source,
			Target:   target,
			Type:     edgeType,
			Metadata: dag.Metadata(r.Metadata),
			Contract: contract,
		}
		if err := g.AddEdge(e); err != nil {
			return nil, fmt.Errorf("%w: relation %s -> %s: %w", ErrInvalidManifest, r.Source, r.Target, err)
		}
	}

	return g, nil
}

// LoadFile parses the manifest at path and builds its graph. Relative
// contract paths resolve against the manifest's directory. Returns the
// graph name declared in the manifest, which may be empty.
func LoadFile(path string) (string, *dag.DAG, error) {
	m, err := ParseFile(path)
	if err != nil {
		return "", nil, err
	}
	g, err := m.Build(filepath.Dir(path))
	if err != nil {
		return "", nil, err
	}
	return m.Graph.Name, g, nil
}

// FromDAG converts a graph back into manifest form, for exporting a stored
// graph as an editable TOML file. Components and relations come out in the
// engine's sorted order.
func FromDAG(name string, g *dag.DAG) *Manifest {
	m := &Manifest{
		Graph: GraphSection{Name: name, Metadata: g.Meta()},
	}

	names := make(map[string]string, g.NodeCount())
	for _, n := range g.Nodes() {
		names[n.ID] = n.Name
		m.Components = append(m.Components, Component{
			Name:     n.Name,
			Type:     string(n.Type),
			Metadata: n.Metadata,
		})
	}
	for _, e := range g.Edges() {
		m.Relations = append(m.Relations, Relation{
			Source:   names[e.Source],
			Target:   names[e.Target],
			Type:     string(e.Type),
			Contract: e.Contract,
			Metadata: e.Metadata,
		})
	}
	return m
}

// Encode writes the manifest as TOML.
func (m *Manifest) Encode(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(m); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return nil
}
