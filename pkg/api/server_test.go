package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fedgraph/fedgraph/pkg/cache"
	"github.com/fedgraph/fedgraph/pkg/dag"
	"github.com/fedgraph/fedgraph/pkg/graph"
	"github.com/fedgraph/fedgraph/pkg/store"
)

// memCache is an in-memory cache that counts hits and writes, for asserting
// what the server caches.
type memCache struct {
	entries map[string][]byte
	hits    int
	sets    int
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (c *memCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok := c.entries[key]
	if ok {
		c.hits++
	}
	return data, ok, nil
}

func (c *memCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	c.entries[key] = data
	c.sets++
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	delete(c.entries, key)
	return nil
}

func (c *memCache) Close() error { return nil }

// newTestServer returns a router backed by a file store in a temp dir.
func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	return newTestServerWithCache(t, nil)
}

func newTestServerWithCache(t *testing.T, c cache.Cache) http.Handler {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return NewServer(st, c, nil, Options{}).Router()
}

// seedGraph uploads a three-node graph named "test" and returns the router.
func seedGraph(t *testing.T) http.Handler {
	t.Helper()
	h := newTestServer(t)
	seedGraphOn(t, h)
	return h
}

// seedGraphOn uploads the three-node graph to an existing router.
func seedGraphOn(t *testing.T, h http.Handler) {
	t.Helper()

	g := dag.New(nil)
	for _, spec := range []struct {
		name string
		typ  dag.NodeType
	}{
		{"alpha", dag.NodeTypeService},
		{"beta", dag.NodeTypeLibrary},
		{"gamma", dag.NodeTypeSchema},
	} {
		n, err := dag.NewNode(spec.typ, spec.name, nil)
		if err != nil {
			t.Fatal(err)
		}
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	mustAddEdge(t, g, "alpha", "beta", dag.EdgeTypeDependsOn)
	mustAddEdge(t, g, "alpha", "gamma", dag.EdgeTypeConsumes)

	doc := graph.FromDAG(g)
	body, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	rec := doRequest(h, http.MethodPut, "/api/v1/graphs/test", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("seed PUT status = %d, body %s", rec.Code, rec.Body)
	}
}

func mustAddEdge(t *testing.T, g *dag.DAG, source, target string, typ dag.EdgeType) {
	t.Helper()
	e := dag.Edge{Source: dag.NodeID(source), Target: dag.NodeID(target), Type: typ}
	if err := g.AddEdge(e); err != nil {
		t.Fatal(err)
	}
}

func doRequest(h http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestHealth(t *testing.T) {
	rec := doRequest(newTestServer(t), http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /healthz status = %d, want 200", rec.Code)
	}
}

func TestPutAndGetGraph(t *testing.T) {
	h := seedGraph(t)

	rec := doRequest(h, http.MethodGet, "/api/v1/graphs/test", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET graph status = %d", rec.Code)
	}
	var doc graph.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Nodes) != 3 || len(doc.Edges) != 2 {
		t.Errorf("got %d nodes, %d edges, want 3 and 2", len(doc.Nodes), len(doc.Edges))
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestPutGraphRejectsCorrupt(t *testing.T) {
	h := newTestServer(t)

	// An edge pointing at a node that does not exist.
	body := []byte(`{
		"metadata": {},
		"nodes": {"pkg:fedgraph/a@local": {"id": "pkg:fedgraph/a@local", "type": "Service", "name": "a", "metadata": {}}},
		"edges": [{"source": "pkg:fedgraph/a@local", "target": "pkg:fedgraph/ghost@local", "edge_type": "DEPENDS_ON", "metadata": {}}]
	}`)
	rec := doRequest(h, http.MethodPut, "/api/v1/graphs/bad", body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("PUT corrupt graph status = %d, want 422", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "CORRUPT_GRAPH") {
		t.Errorf("body = %s, want CORRUPT_GRAPH code", rec.Body)
	}
}

func TestGetGraphNotFound(t *testing.T) {
	rec := doRequest(newTestServer(t), http.MethodGet, "/api/v1/graphs/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "GRAPH_NOT_FOUND") {
		t.Errorf("body = %s, want GRAPH_NOT_FOUND code", rec.Body)
	}
}

func TestAddNode(t *testing.T) {
	h := seedGraph(t)

	body := []byte(`{"type": "Endpoint", "name": "delta api", "metadata": {"team": "core"}}`)
	rec := doRequest(h, http.MethodPost, "/api/v1/graphs/test/nodes", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST node status = %d, body %s", rec.Code, rec.Body)
	}
	var created graph.NodeRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.ID != dag.NodeID("delta api") {
		t.Errorf("created id = %q, want derived id %q", created.ID, dag.NodeID("delta api"))
	}

	// Node is persisted: a fresh GET sees it.
	rec = doRequest(h, http.MethodGet, "/api/v1/graphs/test/nodes?id="+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET node status = %d", rec.Code)
	}
}

func TestAddNodeErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		status   int
		wantCode string
	}{
		{"unknown type", `{"type": "Widget", "name": "x"}`, http.StatusBadRequest, "INVALID_NODE"},
		{"empty name", `{"type": "Service", "name": "  "}`, http.StatusBadRequest, "INVALID_NODE"},
		{"duplicate", `{"type": "Service", "name": "alpha"}`, http.StatusConflict, "DUPLICATE_NODE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := seedGraph(t)
			rec := doRequest(h, http.MethodPost, "/api/v1/graphs/test/nodes", []byte(tt.body))
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body)
			}
			if !strings.Contains(rec.Body.String(), tt.wantCode) {
				t.Errorf("body = %s, want code %s", rec.Body, tt.wantCode)
			}
		})
	}
}

func TestAddEdgeCycleRejected(t *testing.T) {
	h := seedGraph(t)

	body := fmt.Appendf(nil, `{"source": %q, "target": %q, "edge_type": "DEPENDS_ON"}`,
		dag.NodeID("beta"), dag.NodeID("alpha"))
	rec := doRequest(h, http.MethodPost, "/api/v1/graphs/test/edges", body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409 (body %s)", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), "CYCLE_DETECTED") {
		t.Errorf("body = %s, want CYCLE_DETECTED", rec.Body)
	}

	// The stored graph is unchanged.
	rec = doRequest(h, http.MethodGet, "/api/v1/graphs/test", nil)
	var doc graph.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Edges) != 2 {
		t.Errorf("edge count after rejected add = %d, want 2", len(doc.Edges))
	}
}

func TestRemoveNodeCascades(t *testing.T) {
	h := seedGraph(t)

	rec := doRequest(h, http.MethodDelete, "/api/v1/graphs/test/nodes?id="+dag.NodeID("beta"), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE node status = %d", rec.Code)
	}

	rec = doRequest(h, http.MethodGet, "/api/v1/graphs/test", nil)
	var doc graph.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Nodes) != 2 || len(doc.Edges) != 1 {
		t.Errorf("after cascade: %d nodes, %d edges, want 2 and 1", len(doc.Nodes), len(doc.Edges))
	}
}

func TestTopologicalOrder(t *testing.T) {
	h := seedGraph(t)

	rec := doRequest(h, http.MethodGet, "/api/v1/graphs/test/order", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET order status = %d", rec.Code)
	}
	var resp map[string][]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	want := []string{dag.NodeID("alpha"), dag.NodeID("beta"), dag.NodeID("gamma")}
	got := resp["order"]
	if len(got) != len(want) {
		t.Fatalf("order length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestAncestorsAndDescendants(t *testing.T) {
	h := seedGraph(t)

	rec := doRequest(h, http.MethodGet, "/api/v1/graphs/test/ancestors?id="+dag.NodeID("beta"), nil)
	var anc map[string][]string
	if err := json.Unmarshal(rec.Body.Bytes(), &anc); err != nil {
		t.Fatal(err)
	}
	if len(anc["ancestors"]) != 1 || anc["ancestors"][0] != dag.NodeID("alpha") {
		t.Errorf("ancestors = %v, want [alpha]", anc["ancestors"])
	}

	rec = doRequest(h, http.MethodGet, "/api/v1/graphs/test/descendants?id="+dag.NodeID("gamma"), nil)
	var desc map[string][]string
	if err := json.Unmarshal(rec.Body.Bytes(), &desc); err != nil {
		t.Fatal(err)
	}
	if len(desc["descendants"]) != 0 {
		t.Errorf("descendants of a sink = %v, want empty", desc["descendants"])
	}

	rec = doRequest(h, http.MethodGet, "/api/v1/graphs/test/ancestors?id=nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("ancestors of missing node status = %d, want 404", rec.Code)
	}
}

func TestSubgraph(t *testing.T) {
	h := seedGraph(t)

	path := fmt.Sprintf("/api/v1/graphs/test/subgraph?id=%s&id=%s", dag.NodeID("alpha"), dag.NodeID("beta"))
	rec := doRequest(h, http.MethodGet, path, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET subgraph status = %d", rec.Code)
	}
	var doc graph.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Nodes) != 2 || len(doc.Edges) != 1 {
		t.Errorf("subgraph: %d nodes, %d edges, want 2 and 1", len(doc.Nodes), len(doc.Edges))
	}
	for _, e := range doc.Edges {
		if _, ok := doc.Nodes[e.Source]; !ok {
			t.Errorf("edge source %s not in subgraph", e.Source)
		}
		if _, ok := doc.Nodes[e.Target]; !ok {
			t.Errorf("edge target %s not in subgraph", e.Target)
		}
	}
}

func TestFingerprintETag(t *testing.T) {
	h := seedGraph(t)

	rec := doRequest(h, http.MethodGet, "/api/v1/graphs/test/fingerprint", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET fingerprint status = %d", rec.Code)
	}
	etag := rec.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag header")
	}

	r := httptest.NewRequest(http.MethodGet, "/api/v1/graphs/test/fingerprint", nil)
	r.Header.Set("If-None-Match", etag)
	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, r)
	if rec2.Code != http.StatusNotModified {
		t.Errorf("conditional GET status = %d, want 304", rec2.Code)
	}
}

func TestLinkTask(t *testing.T) {
	h := seedGraph(t)

	body := fmt.Appendf(nil, `{"task_id": "TASK-42", "node_id": %q}`, dag.NodeID("alpha"))
	rec := doRequest(h, http.MethodPost, "/api/v1/graphs/test/tasks", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST task status = %d, body %s", rec.Code, rec.Body)
	}

	rec = doRequest(h, http.MethodGet, "/api/v1/graphs/test/nodes?id="+dag.NodeID("alpha"), nil)
	var n graph.NodeRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &n); err != nil {
		t.Fatal(err)
	}
	if n.Metadata[dag.TaskIDKey] != "TASK-42" {
		t.Errorf("task link metadata = %v, want TASK-42", n.Metadata[dag.TaskIDKey])
	}
}

func TestRenderDOT(t *testing.T) {
	h := seedGraph(t)

	rec := doRequest(h, http.MethodGet, "/api/v1/graphs/test/render?format=dot", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET render status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/vnd.graphviz" {
		t.Errorf("Content-Type = %q, want text/vnd.graphviz", ct)
	}
	if !strings.Contains(rec.Body.String(), "digraph") {
		t.Errorf("render body does not look like DOT: %s", rec.Body)
	}

	rec = doRequest(h, http.MethodGet, "/api/v1/graphs/test/render?format=tiff", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown format status = %d, want 400", rec.Code)
	}
}

func TestQueryResponsesCached(t *testing.T) {
	c := newMemCache()
	h := newTestServerWithCache(t, c)
	seedGraphOn(t, h)

	rec := doRequest(h, http.MethodGet, "/api/v1/graphs/test/order", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET order status = %d", rec.Code)
	}
	first := rec.Body.String()
	if c.sets == 0 {
		t.Fatal("first query stored nothing in the cache")
	}

	rec = doRequest(h, http.MethodGet, "/api/v1/graphs/test/order", nil)
	if c.hits == 0 {
		t.Error("repeat query did not hit the cache")
	}
	if rec.Body.String() != first {
		t.Errorf("cached body = %s, want %s", rec.Body, first)
	}

	// Mutating the graph changes its fingerprint, so the stale entry is
	// unreachable and the next query reflects the new state.
	body := []byte(`{"type": "Service", "name": "delta"}`)
	rec = doRequest(h, http.MethodPost, "/api/v1/graphs/test/nodes", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST node status = %d", rec.Code)
	}
	rec = doRequest(h, http.MethodGet, "/api/v1/graphs/test/order", nil)
	var resp map[string][]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp["order"]) != 4 {
		t.Errorf("order after mutation has %d nodes, want 4", len(resp["order"]))
	}
}

func TestQueryErrorsNotCached(t *testing.T) {
	c := newMemCache()
	h := newTestServerWithCache(t, c)
	seedGraphOn(t, h)

	rec := doRequest(h, http.MethodGet, "/api/v1/graphs/test/ancestors?id=nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if c.sets != 0 {
		t.Errorf("error response was cached: %d sets", c.sets)
	}
}

func TestGraphDocumentCached(t *testing.T) {
	c := newMemCache()
	h := newTestServerWithCache(t, c)
	seedGraphOn(t, h)

	rec := doRequest(h, http.MethodGet, "/api/v1/graphs/test", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET graph status = %d", rec.Code)
	}
	first := rec.Body.String()

	rec = doRequest(h, http.MethodGet, "/api/v1/graphs/test", nil)
	if c.hits == 0 {
		t.Error("repeat document fetch did not hit the cache")
	}
	if rec.Body.String() != first {
		t.Errorf("cached document = %s, want %s", rec.Body, first)
	}
}

func TestDeleteGraph(t *testing.T) {
	h := seedGraph(t)

	rec := doRequest(h, http.MethodDelete, "/api/v1/graphs/test", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE graph status = %d", rec.Code)
	}
	rec = doRequest(h, http.MethodGet, "/api/v1/graphs/test", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET after delete status = %d, want 404", rec.Code)
	}
}
