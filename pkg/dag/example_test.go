package dag_test

import (
	"errors"
	"fmt"

	"github.com/fedgraph/fedgraph/pkg/dag"
)

func ExampleDAG_basic() {
	// Model a small service architecture: the API gateway depends on the
	// billing library and consumes the billing schema.
	g := dag.New(nil)

	api, _ := dag.NewNode(dag.NodeTypeService, "api gateway", nil)
	lib, _ := dag.NewNode(dag.NodeTypeLibrary, "billing lib", nil)
	schema, _ := dag.NewNode(dag.NodeTypeSchema, "billing schema", nil)
	_ = g.AddNode(api)
	_ = g.AddNode(lib)
	_ = g.AddNode(schema)

	_ = g.AddEdge(dag.Edge{Source: api.ID, Target: lib.ID, Type: dag.EdgeTypeDependsOn})
	_ = g.AddEdge(dag.Edge{Source: api.ID, Target: schema.ID, Type: dag.EdgeTypeConsumes})

	fmt.Println("Nodes:", g.NodeCount())
	fmt.Println("Edges:", g.EdgeCount())
	fmt.Println("ID:", api.ID)
	// Output:
	// Nodes: 3
	// Edges: 2
	// ID: pkg:fedgraph/api-gateway@local
}

func ExampleDAG_TopologicalOrder() {
	g := dag.New(nil)
	for _, name := range []string{"app", "cache", "auth"} {
		n, _ := dag.NewNode(dag.NodeTypeService, name, nil)
		_ = g.AddNode(n)
	}
	_ = g.AddEdge(dag.Edge{Source: dag.NodeID("app"), Target: dag.NodeID("auth"), Type: dag.EdgeTypeDependsOn})
	_ = g.AddEdge(dag.Edge{Source: dag.NodeID("app"), Target: dag.NodeID("cache"), Type: dag.EdgeTypeDependsOn})

	// Ties break in ascending lexicographic ID order, so the result is
	// stable no matter how the graph was built.
	for _, id := range g.TopologicalOrder() {
		fmt.Println(id)
	}
	// Output:
	// pkg:fedgraph/app@local
	// pkg:fedgraph/auth@local
	// pkg:fedgraph/cache@local
}

func ExampleDAG_AddEdge_cycleRejected() {
	g := dag.New(nil)
	a, _ := dag.NewNode(dag.NodeTypeService, "a", nil)
	b, _ := dag.NewNode(dag.NodeTypeService, "b", nil)
	_ = g.AddNode(a)
	_ = g.AddNode(b)
	_ = g.AddEdge(dag.Edge{Source: a.ID, Target: b.ID, Type: dag.EdgeTypeDependsOn})

	err := g.AddEdge(dag.Edge{Source: b.ID, Target: a.ID, Type: dag.EdgeTypeDependsOn})
	fmt.Println("rejected:", errors.Is(err, dag.ErrCycle))
	fmt.Println("edges:", g.EdgeCount())
	// Output:
	// rejected: true
	// edges: 1
}
