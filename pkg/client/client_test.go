package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fedgraph/fedgraph/pkg/api"
	"github.com/fedgraph/fedgraph/pkg/dag"
	fgerrors "github.com/fedgraph/fedgraph/pkg/errors"
	"github.com/fedgraph/fedgraph/pkg/graph"
	"github.com/fedgraph/fedgraph/pkg/store"
)

// newTestPair spins up a real API server over a file store and returns a
// client pointed at it.
func newTestPair(t *testing.T) *Client {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })

	srv := httptest.NewServer(api.NewServer(st, nil, nil, api.Options{}).Router())
	t.Cleanup(srv.Close)

	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func seed(t *testing.T, c *Client) {
	t.Helper()
	ctx := context.Background()

	g := dag.New(nil)
	for _, spec := range []struct {
		name string
		typ  dag.NodeType
	}{
		{"auth service", dag.NodeTypeService},
		{"token lib", dag.NodeTypeLibrary},
	} {
		n, err := dag.NewNode(spec.typ, spec.name, nil)
		if err != nil {
			t.Fatal(err)
		}
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	e := dag.Edge{Source: dag.NodeID("auth service"), Target: dag.NodeID("token lib"), Type: dag.EdgeTypeDependsOn}
	if err := g.AddEdge(e); err != nil {
		t.Fatal(err)
	}

	if _, err := c.PutGraph(ctx, "platform", graph.FromDAG(g)); err != nil {
		t.Fatalf("PutGraph() error = %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	c := newTestPair(t)
	seed(t, c)
	ctx := context.Background()

	doc, err := c.GetGraph(ctx, "platform")
	if err != nil {
		t.Fatalf("GetGraph() error = %v", err)
	}
	if len(doc.Nodes) != 2 || len(doc.Edges) != 1 {
		t.Errorf("got %d nodes, %d edges, want 2 and 1", len(doc.Nodes), len(doc.Edges))
	}

	infos, err := c.ListGraphs(ctx)
	if err != nil {
		t.Fatalf("ListGraphs() error = %v", err)
	}
	if len(infos) != 1 || infos[0].Name != "platform" {
		t.Errorf("ListGraphs() = %v, want one entry named platform", infos)
	}
}

func TestMutationsAndQueries(t *testing.T) {
	c := newTestPair(t)
	seed(t, c)
	ctx := context.Background()

	rec, err := c.AddNode(ctx, "platform", dag.NodeTypeSchema, "user schema", map[string]any{"owner": "identity"})
	if err != nil {
		t.Fatalf("AddNode() error = %v", err)
	}
	if rec.ID != dag.NodeID("user schema") {
		t.Errorf("AddNode() id = %q, want %q", rec.ID, dag.NodeID("user schema"))
	}

	if _, err := c.AddEdge(ctx, "platform", dag.Edge{
		Source: dag.NodeID("auth service"),
		Target: rec.ID,
		Type:   dag.EdgeTypeConsumes,
	}); err != nil {
		t.Fatalf("AddEdge() error = %v", err)
	}

	order, err := c.TopologicalOrder(ctx, "platform")
	if err != nil {
		t.Fatalf("TopologicalOrder() error = %v", err)
	}
	if len(order) != 3 || order[0] != dag.NodeID("auth service") {
		t.Errorf("order = %v, want auth service first", order)
	}

	anc, err := c.Ancestors(ctx, "platform", rec.ID)
	if err != nil {
		t.Fatalf("Ancestors() error = %v", err)
	}
	if len(anc) != 1 || anc[0] != dag.NodeID("auth service") {
		t.Errorf("Ancestors() = %v, want [auth service]", anc)
	}

	if err := c.RemoveNode(ctx, "platform", rec.ID); err != nil {
		t.Fatalf("RemoveNode() error = %v", err)
	}
	if _, err := c.GetNode(ctx, "platform", rec.ID); !fgerrors.Is(err, fgerrors.ErrCodeNodeNotFound) {
		t.Errorf("GetNode() after remove error = %v, want NODE_NOT_FOUND", err)
	}
}

func TestErrorCodesSurvive(t *testing.T) {
	c := newTestPair(t)
	seed(t, c)
	ctx := context.Background()

	// Closing the cycle must come back as the cycle code.
	_, err := c.AddEdge(ctx, "platform", dag.Edge{
		Source: dag.NodeID("token lib"),
		Target: dag.NodeID("auth service"),
		Type:   dag.EdgeTypeDependsOn,
	})
	if !fgerrors.Is(err, fgerrors.ErrCodeCycleDetected) {
		t.Errorf("AddEdge() cycle error = %v, want CYCLE_DETECTED", err)
	}

	if _, err := c.GetGraph(ctx, "no-such-graph"); !fgerrors.Is(err, fgerrors.ErrCodeGraphNotFound) {
		t.Errorf("GetGraph() missing error = %v, want GRAPH_NOT_FOUND", err)
	}

	_, err = c.AddNode(ctx, "platform", dag.NodeTypeService, "auth service", nil)
	if !fgerrors.Is(err, fgerrors.ErrCodeDuplicateNode) {
		t.Errorf("AddNode() duplicate error = %v, want DUPLICATE_NODE", err)
	}
}

func TestFingerprintAndChanged(t *testing.T) {
	c := newTestPair(t)
	seed(t, c)
	ctx := context.Background()

	fp, err := c.Fingerprint(ctx, "platform")
	if err != nil {
		t.Fatalf("Fingerprint() error = %v", err)
	}
	if len(fp) != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", len(fp))
	}

	changed, err := c.Changed(ctx, "platform", fp)
	if err != nil {
		t.Fatalf("Changed() error = %v", err)
	}
	if changed {
		t.Error("Changed() = true for the current fingerprint")
	}

	if _, err := c.AddNode(ctx, "platform", dag.NodeTypeEndpoint, "new endpoint", nil); err != nil {
		t.Fatal(err)
	}
	changed, err = c.Changed(ctx, "platform", fp)
	if err != nil {
		t.Fatalf("Changed() error = %v", err)
	}
	if !changed {
		t.Error("Changed() = false after a mutation")
	}
}

func TestRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	c, err := New(srv.URL, WithRetry(3, time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.ListGraphs(context.Background()); err != nil {
		t.Fatalf("ListGraphs() error = %v, want success after retries", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server saw %d calls, want 3", got)
	}
}

func TestDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error": {"code": "DUPLICATE_NODE", "message": "already there"}}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, WithRetry(5, time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.AddNode(context.Background(), "g", dag.NodeTypeService, "x", nil)
	if !fgerrors.Is(err, fgerrors.ErrCodeDuplicateNode) {
		t.Fatalf("error = %v, want DUPLICATE_NODE", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server saw %d calls, want 1 (no retry on coded errors)", got)
	}
}

func TestNewRejectsBadURL(t *testing.T) {
	if _, err := New("ftp://example.com"); !fgerrors.Is(err, fgerrors.ErrCodeInvalidInput) {
		t.Errorf("New(ftp://) error = %v, want INVALID_INPUT", err)
	}
}
