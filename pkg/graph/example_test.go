package graph_test

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fedgraph/fedgraph/pkg/dag"
	"github.com/fedgraph/fedgraph/pkg/graph"
)

func ExampleWrite() {
	// Build a small dependency graph
	g := dag.New(nil)
	app, _ := dag.NewNode(dag.NodeTypeService, "app", nil)
	lib, _ := dag.NewNode(dag.NodeTypeLibrary, "lib", dag.Metadata{"version": "1.0.0"})
	_ = g.AddNode(app)
	_ = g.AddNode(lib)
	_ = g.AddEdge(dag.Edge{Source: app.ID, Target: lib.ID, Type: dag.EdgeTypeDependsOn})

	// Write to a buffer (or any io.Writer)
	var buf bytes.Buffer
	if err := graph.Write(g, &buf); err != nil {
		fmt.Println("Error:", err)
		return
	}

	fmt.Println(buf.String())
	// Output:
	// {
	//   "metadata": {},
	//   "nodes": {
	//     "pkg:fedgraph/app@local": {
	//       "id": "pkg:fedgraph/app@local",
	//       "type": "Service",
	//       "name": "app",
	//       "metadata": {}
	//     },
	//     "pkg:fedgraph/lib@local": {
	//       "id": "pkg:fedgraph/lib@local",
	//       "type": "Library",
	//       "name": "lib",
	//       "metadata": {
	//         "version": "1.0.0"
	//       }
	//     }
	//   },
	//   "edges": [
	//     {
	//       "source": "pkg:fedgraph/app@local",
	//       "target": "pkg:fedgraph/lib@local",
	//       "edge_type": "DEPENDS_ON",
	//       "metadata": {}
	//     }
	//   ]
	// }
}

func ExampleRead() {
	jsonData := `{
		"metadata": {},
		"nodes": {
			"pkg:fedgraph/api@local": {"id": "pkg:fedgraph/api@local", "type": "Service", "name": "api", "metadata": {}},
			"pkg:fedgraph/billing@local": {"id": "pkg:fedgraph/billing@local", "type": "Library", "name": "billing", "metadata": {}}
		},
		"edges": [
			{"source": "pkg:fedgraph/api@local", "target": "pkg:fedgraph/billing@local", "edge_type": "DEPENDS_ON", "metadata": {}}
		]
	}`

	g, err := graph.Read(strings.NewReader(jsonData))
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	fmt.Println("Nodes:", g.NodeCount())
	fmt.Println("Edges:", g.EdgeCount())
	fmt.Println("Children of api:", g.Children("pkg:fedgraph/api@local"))
	// Output:
	// Nodes: 2
	// Edges: 1
	// Children of api: [pkg:fedgraph/billing@local]
}

func ExampleFingerprint() {
	build := func(names ...string) *dag.DAG {
		g := dag.New(nil)
		for _, name := range names {
			n, _ := dag.NewNode(dag.NodeTypeService, name, nil)
			_ = g.AddNode(n)
		}
		return g
	}

	// The fingerprint depends on content, not insertion order.
	first := build("auth", "tokens")
	second := build("tokens", "auth")

	fp1, _ := graph.Fingerprint(first)
	fp2, _ := graph.Fingerprint(second)

	fmt.Println("Stable across insertion order:", fp1 == fp2)
	fmt.Println("Digest length:", len(fp1))
	// Output:
	// Stable across insertion order: true
	// Digest length: 64
}

func ExampleDecode_corrupt() {
	// A document whose edges close a cycle fails re-validation on load.
	data := []byte(`{
		"metadata": {},
		"nodes": {
			"a": {"id": "a", "type": "Service", "name": "a", "metadata": {}},
			"b": {"id": "b", "type": "Service", "name": "b", "metadata": {}}
		},
		"edges": [
			{"source": "a", "target": "b", "edge_type": "DEPENDS_ON", "metadata": {}},
			{"source": "b", "target": "a", "edge_type": "DEPENDS_ON", "metadata": {}}
		]
	}`)

	_, err := graph.Decode(data)
	fmt.Println("Corrupt:", errors.Is(err, graph.ErrCorruptDocument))
	fmt.Println("Cause is cycle:", errors.Is(err, dag.ErrCycle))
	// Output:
	// Corrupt: true
	// Cause is cycle: true
}

func ExampleWriteFile() {
	g := dag.New(nil)
	server, _ := dag.NewNode(dag.NodeTypeService, "server", nil)
	schema, _ := dag.NewNode(dag.NodeTypeSchema, "events", nil)
	_ = g.AddNode(server)
	_ = g.AddNode(schema)
	_ = g.AddEdge(dag.Edge{Source: server.ID, Target: schema.ID, Type: dag.EdgeTypeConsumes})

	path := filepath.Join(os.TempDir(), "exported-graph.json")
	defer os.Remove(path)

	if err := graph.WriteFile(g, path); err != nil {
		fmt.Println("Error:", err)
		return
	}

	loaded, err := graph.ReadFile(path)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println("Round trip nodes:", loaded.NodeCount())
	// Output:
	// Round trip nodes: 2
}
