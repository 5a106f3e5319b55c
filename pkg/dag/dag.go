package dag

import (
	"container/heap"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// DAG is an in-memory directed acyclic graph of architectural components.
// Nodes live in a flat map keyed by ID and edges reference them by ID only,
// so cross-references never require shared pointers between entities.
//
// Every mutation validates before it commits: a call either succeeds and
// leaves all invariants intact, or fails and leaves the graph exactly as it
// was. The invariants are node ID uniqueness, referential integrity of edge
// endpoints, acyclicity at all times, and at most one edge per ordered
// (source, target) pair.
//
// The zero value is not usable - use New to create a valid DAG instance.
// DAG is not safe for concurrent mutation without external synchronization;
// concurrent reads of an unchanging graph are safe.
type DAG struct {
	nodes    map[string]*Node
	edges    []Edge
	outgoing map[string][]string // node ID -> target IDs
	incoming map[string][]string // node ID -> source IDs
	meta     Metadata
}

// New creates an empty DAG with optional graph-level metadata.
// The metadata parameter can be nil, in which case an empty map is created.
func New(meta Metadata) *DAG {
	if meta == nil {
		meta = Metadata{}
	}
	return &DAG{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
		meta:     meta,
	}
}

// Meta returns the graph-level metadata map.
// The returned map is never nil and can be safely modified.
func (d *DAG) Meta() Metadata { return d.meta }

// ===== Mutation =====

// AddNode adds a node to the graph. Returns ErrInvalidNode if the node fails
// field validation, or ErrDuplicateNode if a node with the same ID already
// exists. The node's Metadata field is initialized to an empty map if nil;
// otherwise the caller's map is retained.
func (d *DAG) AddNode(n Node) error {
	if err := n.validate(); err != nil {
		return err
	}
	if _, exists := d.nodes[n.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
	}
	if n.Metadata == nil {
		n.Metadata = Metadata{}
	}
	d.nodes[n.ID] = &n
	return nil
}

// AddEdge adds a directed edge between two existing nodes.
//
// Returns ErrInvalidEdge if the edge fails field validation (including a
// contract path that does not exist), ErrNodeNotFound if either endpoint is
// absent, ErrDuplicateEdge if an edge with the same (source, target) pair
// already exists, or ErrCycle if the edge would close a directed cycle. The
// cycle check runs before anything is committed, so a rejected edge leaves
// the graph byte-identical to its pre-call state.
func (d *DAG) AddEdge(e Edge) error {
	if err := e.validate(); err != nil {
		return err
	}
	if _, ok := d.nodes[e.Source]; !ok {
		return fmt.Errorf("%w: source %s", ErrNodeNotFound, e.Source)
	}
	if _, ok := d.nodes[e.Target]; !ok {
		return fmt.Errorf("%w: target %s", ErrNodeNotFound, e.Target)
	}
	if slices.Contains(d.outgoing[e.Source], e.Target) {
		return fmt.Errorf("%w: %s -> %s", ErrDuplicateEdge, e.Source, e.Target)
	}
	if e.Source == e.Target || d.reaches(e.Target, e.Source) {
		return fmt.Errorf("%w: %s -> %s", ErrCycle, e.Source, e.Target)
	}
	if e.Metadata == nil {
		e.Metadata = Metadata{}
	}
	d.edges = append(d.edges, e)
	d.outgoing[e.Source] = append(d.outgoing[e.Source], e.Target)
	d.incoming[e.Target] = append(d.incoming[e.Target], e.Source)
	return nil
}

// RemoveNode removes a node and cascades deletion of every edge that has it
// as source or target. The cascade is unconditional. Returns ErrNodeNotFound
// if no node with the given ID exists.
func (d *DAG) RemoveNode(id string) error {
	if _, ok := d.nodes[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	d.edges = slices.DeleteFunc(d.edges, func(e Edge) bool { return e.Source == id || e.Target == id })
	for _, target := range d.outgoing[id] {
		d.incoming[target] = slices.DeleteFunc(d.incoming[target], func(s string) bool { return s == id })
	}
	for _, source := range d.incoming[id] {
		d.outgoing[source] = slices.DeleteFunc(d.outgoing[source], func(s string) bool { return s == id })
	}
	delete(d.outgoing, id)
	delete(d.incoming, id)
	delete(d.nodes, id)
	return nil
}

// RemoveEdge removes the edge source→target. Returns ErrEdgeNotFound if no
// such edge exists. Removal cannot violate any graph invariant, so no
// re-validation is performed.
func (d *DAG) RemoveEdge(source, target string) error {
	if !slices.Contains(d.outgoing[source], target) {
		return fmt.Errorf("%w: %s -> %s", ErrEdgeNotFound, source, target)
	}
	d.edges = slices.DeleteFunc(d.edges, func(e Edge) bool { return e.Source == source && e.Target == target })
	d.outgoing[source] = slices.DeleteFunc(d.outgoing[source], func(s string) bool { return s == target })
	d.incoming[target] = slices.DeleteFunc(d.incoming[target], func(s string) bool { return s == source })
	return nil
}

// ===== Accessors =====

// Node returns the node with the given ID and true, or nil and false if not
// found. The returned pointer refers to the node stored in the graph, so
// metadata modifications are visible to later reads; the ID must be treated
// as immutable.
func (d *DAG) Node(id string) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// HasNode reports whether a node with the given ID exists.
func (d *DAG) HasNode(id string) bool {
	_, ok := d.nodes[id]
	return ok
}

// Edge returns the edge source→target and true, or a zero Edge and false if
// no such edge exists.
func (d *DAG) Edge(source, target string) (Edge, bool) {
	for _, e := range d.edges {
		if e.Source == source && e.Target == target {
			return e, true
		}
	}
	return Edge{}, false
}

// Nodes returns all nodes sorted by ID. The slice is newly allocated but the
// node pointers refer to the graph's own nodes.
func (d *DAG) Nodes() []*Node {
	nodes := make([]*Node, 0, len(d.nodes))
	for _, n := range d.nodes {
		nodes = append(nodes, n)
	}
	slices.SortFunc(nodes, func(a, b *Node) int { return strings.Compare(a.ID, b.ID) })
	return nodes
}

// Edges returns a copy of all edges sorted by (source, target).
// Modifications to the returned slice do not affect the graph.
func (d *DAG) Edges() []Edge {
	edges := slices.Clone(d.edges)
	slices.SortFunc(edges, compareEdges)
	return edges
}

func compareEdges(a, b Edge) int {
	if c := strings.Compare(a.Source, b.Source); c != 0 {
		return c
	}
	return strings.Compare(a.Target, b.Target)
}

// NodeCount returns the number of nodes in the graph.
func (d *DAG) NodeCount() int { return len(d.nodes) }

// EdgeCount returns the number of edges in the graph.
func (d *DAG) EdgeCount() int { return len(d.edges) }

// Children returns the IDs of direct targets of the node, sorted.
// Returns nil if the node has no outgoing edges or doesn't exist.
func (d *DAG) Children(id string) []string { return sortedIDs(d.outgoing[id]) }

// Parents returns the IDs of direct sources of the node, sorted.
// Returns nil if the node has no incoming edges or doesn't exist.
func (d *DAG) Parents(id string) []string { return sortedIDs(d.incoming[id]) }

// OutDegree returns the number of outgoing edges from the node.
// Returns 0 if the node doesn't exist.
func (d *DAG) OutDegree(id string) int { return len(d.outgoing[id]) }

// InDegree returns the number of incoming edges to the node.
// Returns 0 if the node doesn't exist.
func (d *DAG) InDegree(id string) int { return len(d.incoming[id]) }

// Sources returns nodes with no incoming edges, sorted by ID.
// These are the roots of the architecture: nothing depends on them.
func (d *DAG) Sources() []*Node {
	var sources []*Node
	for _, n := range d.Nodes() {
		if len(d.incoming[n.ID]) == 0 {
			sources = append(sources, n)
		}
	}
	return sources
}

// Sinks returns nodes with no outgoing edges, sorted by ID.
// These are the leaves: they depend on nothing.
func (d *DAG) Sinks() []*Node {
	var sinks []*Node
	for _, n := range d.Nodes() {
		if len(d.outgoing[n.ID]) == 0 {
			sinks = append(sinks, n)
		}
	}
	return sinks
}

func sortedIDs(ids []string) []string {
	out := slices.Clone(ids)
	slices.Sort(out)
	return out
}

// ===== Traversal =====

// TopologicalOrder returns all node IDs in an order where every edge's
// source precedes its target. Nodes whose predecessors are all processed are
// drained in ascending lexicographic ID order, so the same graph always
// yields the same order regardless of insertion sequence. Runs in
// O((N+E) log N) using Kahn's algorithm with a heap-backed frontier.
func (d *DAG) TopologicalOrder() []string {
	indegree := make(map[string]int, len(d.nodes))
	for id := range d.nodes {
		indegree[id] = len(d.incoming[id])
	}

	frontier := &idHeap{}
	for id, deg := range indegree {
		if deg == 0 {
			heap.Push(frontier, id)
		}
	}

	order := make([]string, 0, len(d.nodes))
	for frontier.Len() > 0 {
		id := heap.Pop(frontier).(string)
		order = append(order, id)
		for _, target := range d.outgoing[id] {
			indegree[target]--
			if indegree[target] == 0 {
				heap.Push(frontier, target)
			}
		}
	}
	return order
}

// Ancestors returns the transitive closure of nodes that can reach id,
// excluding id itself, in topological order. An empty result is valid for
// source nodes. Returns ErrNodeNotFound if id is absent.
func (d *DAG) Ancestors(id string) ([]string, error) {
	if _, ok := d.nodes[id]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	seen := d.closure(id, d.incoming)
	var out []string
	for _, nid := range d.TopologicalOrder() {
		if seen[nid] {
			out = append(out, nid)
		}
	}
	return out, nil
}

// Descendants returns the transitive closure of nodes reachable from id,
// excluding id itself, sorted by ID. An empty result is valid for sink
// nodes. Returns ErrNodeNotFound if id is absent.
func (d *DAG) Descendants(id string) ([]string, error) {
	if _, ok := d.nodes[id]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	seen := d.closure(id, d.outgoing)
	if len(seen) == 0 {
		return nil, nil
	}
	return slices.Sorted(maps.Keys(seen)), nil
}

// closure walks adj transitively from start and returns every ID visited.
// start itself is excluded unless it is reachable from itself, which cannot
// happen in an acyclic graph.
func (d *DAG) closure(start string, adj map[string][]string) map[string]bool {
	seen := make(map[string]bool)
	stack := slices.Clone(adj[start])
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		stack = append(stack, adj[id]...)
	}
	return seen
}

// reaches reports whether to is reachable from from along outgoing edges.
func (d *DAG) reaches(from, to string) bool {
	if from == to {
		return true
	}
	seen := make(map[string]bool)
	stack := []string{from}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == to {
			return true
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		stack = append(stack, d.outgoing[id]...)
	}
	return false
}

// Subgraph returns a new, independent graph containing exactly the nodes in
// ids that exist in this graph, plus every edge whose source and target are
// both included. IDs not present are ignored. The receiver is never mutated,
// and the result satisfies every graph invariant by construction.
func (d *DAG) Subgraph(ids []string) *DAG {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := d.nodes[id]; ok {
			keep[id] = true
		}
	}

	sub := New(d.meta.clone())
	for id := range keep {
		sub.nodes[id] = d.nodes[id].clone()
	}
	for _, e := range d.edges {
		if !keep[e.Source] || !keep[e.Target] {
			continue
		}
		c := e
		c.Metadata = e.Metadata.clone()
		sub.edges = append(sub.edges, c)
		sub.outgoing[c.Source] = append(sub.outgoing[c.Source], c.Target)
		sub.incoming[c.Target] = append(sub.incoming[c.Target], c.Source)
	}
	return sub
}

// Clone returns an independent copy of the graph: same nodes, edges, and
// metadata, no shared maps.
func (d *DAG) Clone() *DAG {
	ids := make([]string, 0, len(d.nodes))
	for id := range d.nodes {
		ids = append(ids, id)
	}
	return d.Subgraph(ids)
}

// Depth returns the number of edges on the longest path through the graph.
// An empty graph and a graph with no edges both have depth 0.
func (d *DAG) Depth() int {
	dist := make(map[string]int, len(d.nodes))
	depth := 0
	for _, id := range d.TopologicalOrder() {
		for _, target := range d.outgoing[id] {
			if dist[id]+1 > dist[target] {
				dist[target] = dist[id] + 1
				if dist[target] > depth {
					depth = dist[target]
				}
			}
		}
	}
	return depth
}

// ===== Integrity =====

// Validate re-checks every structural invariant from scratch and returns all
// violations found, joined into a single error, or nil if the graph is
// healthy. Checked: node and edge field validity, referential integrity of
// edge endpoints, (source, target) pair uniqueness, and acyclicity.
//
// Contract artifact existence is an add-time check against the surrounding
// environment and is deliberately not re-checked here.
func (d *DAG) Validate() error {
	var errs []error

	for _, n := range d.Nodes() {
		if err := n.validate(); err != nil {
			errs = append(errs, fmt.Errorf("node %s: %w", n.ID, err))
		}
	}

	seen := make(map[string]bool, len(d.edges))
	for _, e := range d.Edges() {
		if err := e.validateFields(); err != nil {
			errs = append(errs, fmt.Errorf("edge %s -> %s: %w", e.Source, e.Target, err))
			continue
		}
		if _, ok := d.nodes[e.Source]; !ok {
			errs = append(errs, fmt.Errorf("edge %s -> %s: source: %w", e.Source, e.Target, ErrNodeNotFound))
		}
		if _, ok := d.nodes[e.Target]; !ok {
			errs = append(errs, fmt.Errorf("edge %s -> %s: target: %w", e.Source, e.Target, ErrNodeNotFound))
		}
		key := e.Source + "\x00" + e.Target
		if seen[key] {
			errs = append(errs, fmt.Errorf("%w: %s -> %s", ErrDuplicateEdge, e.Source, e.Target))
		}
		seen[key] = true
	}

	if err := d.detectCycles(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// detectCycles runs depth-first search with white/gray/black coloring over
// adjacency rebuilt from the edge list, so it does not trust the indexes.
func (d *DAG) detectCycles() error {
	const (
		white = iota
		gray
		black
	)

	adj := make(map[string][]string, len(d.nodes))
	for _, e := range d.edges {
		adj[e.Source] = append(adj[e.Source], e.Target)
	}

	color := make(map[string]int, len(d.nodes))
	var hasCycle bool

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, target := range adj[id] {
			switch color[target] {
			case white:
				dfs(target)
			case gray:
				hasCycle = true
				return
			}
		}
		color[id] = black
	}

	for id := range d.nodes {
		if color[id] == white {
			dfs(id)
			if hasCycle {
				return ErrCycle
			}
		}
	}
	return nil
}

// ===== Statistics =====

// Stats summarizes the shape of a graph.
type Stats struct {
	Nodes   int              // total node count
	Edges   int              // total edge count
	Depth   int              // longest path, in edges
	Sources int              // nodes with no incoming edges
	Sinks   int              // nodes with no outgoing edges
	ByType  map[NodeType]int // node count per component kind
}

// Stats computes summary statistics for the graph.
func (d *DAG) Stats() Stats {
	s := Stats{
		Nodes:  len(d.nodes),
		Edges:  len(d.edges),
		Depth:  d.Depth(),
		ByType: make(map[NodeType]int),
	}
	for _, n := range d.nodes {
		s.ByType[n.Type]++
		if len(d.incoming[n.ID]) == 0 {
			s.Sources++
		}
		if len(d.outgoing[n.ID]) == 0 {
			s.Sinks++
		}
	}
	return s
}

// ===== Frontier heap =====

// idHeap is a min-heap of node IDs, used to drain the Kahn frontier in
// lexicographic order.
type idHeap []string

func (h idHeap) Len() int           { return len(h) }
func (h idHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h idHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *idHeap) Push(x any) { *h = append(*h, x.(string)) }

func (h *idHeap) Pop() any {
	old := *h
	n := len(old)
	id := old[n-1]
	*h = old[:n-1]
	return id
}
