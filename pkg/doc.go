// Package pkg provides the core libraries for fedgraph.
//
// # Overview
//
// Fedgraph models a system's architecture as a typed, validated dependency
// graph: components (services, libraries, schemas, endpoints) are nodes, and
// their relationships are directed edges. The graph is always acyclic, its
// serialization is canonical, and its content fingerprint detects drift
// between environments. The pkg directory is organized into:
//
//  1. [dag] - The graph engine (typed nodes and edges, invariants, queries)
//  2. [graph] - Canonical serialization and SHA-256 fingerprinting
//  3. [store] - Graph persistence (file and MongoDB backends)
//  4. [manifest] - TOML manifests describing graphs declaratively
//  5. [render] - DOT, SVG, and PNG diagram rendering
//  6. [api] / [client] - The HTTP API and its Go client
//  7. [cache], [errors], [observability], [buildinfo] - Supporting concerns
//
// # Architecture
//
// The typical data flow through fedgraph:
//
//	TOML manifest / HTTP request / CLI command
//	         ↓
//	    [dag] package (validate-then-commit mutations)
//	         ↓
//	    [graph] package (canonical document + fingerprint)
//	         ↓
//	    [store] package (revisioned persistence)
//	         ↓
//	    [render] package (DOT/SVG/PNG diagrams)
//
// # Quick Start
//
// Build a graph, fingerprint it, and persist it:
//
//	import (
//	    "context"
//	    "github.com/fedgraph/fedgraph/pkg/dag"
//	    "github.com/fedgraph/fedgraph/pkg/graph"
//	    "github.com/fedgraph/fedgraph/pkg/store"
//	)
//
//	// 1. Build the graph
//	g := dag.New(nil)
//	api, _ := dag.NewNode(dag.NodeTypeService, "api gateway", nil)
//	lib, _ := dag.NewNode(dag.NodeTypeLibrary, "billing lib", nil)
//	_ = g.AddNode(api)
//	_ = g.AddNode(lib)
//	_ = g.AddEdge(dag.Edge{Source: api.ID, Target: lib.ID, Type: dag.EdgeTypeDependsOn})
//
//	// 2. Fingerprint it
//	fp, _ := graph.Fingerprint(g)
//
//	// 3. Persist it
//	st, _ := store.NewFileStore("")
//	defer st.Close()
//	rev, _ := st.Save(context.Background(), "platform", g)
//
// # Main Packages
//
// [dag] - The engine. Mutations validate before committing: a rejected node,
// edge, or cycle leaves the graph exactly as it was. Queries cover traversal
// (children, parents, ancestors, descendants), deterministic topological
// ordering, subgraph extraction, and statistics.
//
// [graph] - Canonical codec. Encoding is deterministic (sorted keys, sorted
// edges), so byte-equal output means semantically equal graphs and the
// SHA-256 fingerprint is stable. Decoding replays every element through the
// engine, so a tampered document cannot produce an invalid graph.
//
// [store] - Revisioned persistence behind a single interface. FileStore keeps
// documents under a base directory with an archive of prior revisions;
// MongoStore backs shared deployments.
//
// [manifest] - Declarative TOML graph descriptions for version-controlled
// architecture definitions. Manifests build through the engine, so a manifest
// that declares a cycle fails to load.
//
// [render] - Graphviz-based diagram rendering with per-type node styling.
//
// [api] - The HTTP API served by "fedgraph serve". Routes under
// /api/v1/graphs expose every engine operation; mutations are serialized per
// graph, and fingerprint responses support ETag-based drift checks.
//
// [client] - Go client for the API with retry and typed error decoding.
//
// [cache] - Content-addressed caching of rendered artifacts and query
// results, with file, Redis, and null backends.
//
// [errors] - Coded errors surfaced at CLI and API boundaries, mapped from
// the engine's sentinel errors.
//
// [observability] - Hook interfaces for instrumenting graph mutations,
// store operations, cache traffic, and HTTP requests.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...            # All tests
//	go test ./pkg/dag/...        # Specific package
//	go test -run Example         # Examples only
//
// [dag]: https://pkg.go.dev/github.com/fedgraph/fedgraph/pkg/dag
// [graph]: https://pkg.go.dev/github.com/fedgraph/fedgraph/pkg/graph
// [store]: https://pkg.go.dev/github.com/fedgraph/fedgraph/pkg/store
// [manifest]: https://pkg.go.dev/github.com/fedgraph/fedgraph/pkg/manifest
// [render]: https://pkg.go.dev/github.com/fedgraph/fedgraph/pkg/render
// [api]: https://pkg.go.dev/github.com/fedgraph/fedgraph/pkg/api
// [client]: https://pkg.go.dev/github.com/fedgraph/fedgraph/pkg/client
// [cache]: https://pkg.go.dev/github.com/fedgraph/fedgraph/pkg/cache
// [errors]: https://pkg.go.dev/github.com/fedgraph/fedgraph/pkg/errors
// [observability]: https://pkg.go.dev/github.com/fedgraph/fedgraph/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/fedgraph/fedgraph/pkg/buildinfo
package pkg
