// Package dag provides a typed, validated directed acyclic graph of
// architectural components and their relationships.
//
// # Overview
//
// Fedgraph models an architecture as components (services, libraries,
// schemas, endpoints) connected by typed relationships (DEPENDS_ON,
// CONSUMES, OWNS, IMPLEMENTS). This package is the engine underneath: it
// owns the entities, the mutation API, and the structural invariants.
//
// Four invariants hold at all times, not just eventually:
//
//   - node IDs are unique
//   - every edge endpoint references an existing node
//   - the graph is acyclic
//   - at most one edge exists per ordered (source, target) pair
//
// Every mutation validates before it commits. A rejected call returns a
// sentinel error ([ErrDuplicateNode], [ErrCycle], ...) and leaves the graph
// exactly as it was - partial application is never observable.
//
// # Basic Usage
//
// Create a graph with [New], build nodes with [NewNode] (which derives the
// deterministic identifier from the name), and connect them with
// [DAG.AddEdge]:
//
//	g := dag.New(nil)
//	api, _ := dag.NewNode(dag.NodeTypeService, "api gateway", nil)
//	store, _ := dag.NewNode(dag.NodeTypeLibrary, "session store", nil)
//	_ = g.AddNode(api)
//	_ = g.AddNode(store)
//	_ = g.AddEdge(dag.Edge{Source: api.ID, Target: store.ID, Type: dag.EdgeTypeDependsOn})
//
// Query structure with [DAG.Children], [DAG.Parents], [DAG.Ancestors],
// [DAG.Descendants], [DAG.TopologicalOrder], and [DAG.Subgraph]. Use
// [DAG.Validate] to re-check every invariant from scratch, for example after
// decoding an untrusted document.
//
// # Identifiers
//
// Node identifiers are derived from names by [NodeID]: pure, deterministic,
// and stable across processes, so independently built graphs agree on the
// identifier for the same component name. See the serialization layer for
// the content fingerprint built on top of this determinism.
//
// # Metadata
//
// Nodes, edges, and the graph itself carry [Metadata] maps the engine never
// interprets. External collaborators use this to attach their own references
// - [DAG.LinkTask] stores a planning-task link under [TaskIDKey].
//
// # Concurrency
//
// DAG instances perform no internal locking and assume a single writer.
// Callers that mutate a graph from multiple goroutines must serialize those
// mutations themselves; read-only operations on a graph that is not being
// mutated are safe to run concurrently.
package dag
