package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fedgraph/fedgraph/pkg/cache"
	"github.com/fedgraph/fedgraph/pkg/dag"
	fgerrors "github.com/fedgraph/fedgraph/pkg/errors"
	"github.com/fedgraph/fedgraph/pkg/graph"
	"github.com/fedgraph/fedgraph/pkg/observability"
	"github.com/fedgraph/fedgraph/pkg/render"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ===== Graph documents =====

func (s *Server) handleListGraphs(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handlePutGraph(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := fgerrors.ValidateGraphName(name); err != nil {
		writeError(w, err)
		return
	}

	var doc graph.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, fmt.Errorf("%w: %w", graph.ErrCorruptDocument, err))
		return
	}
	g, err := graph.ToDAG(doc)
	if err != nil {
		writeError(w, err)
		return
	}

	lock := s.graphLock(name)
	lock.Lock()
	defer lock.Unlock()

	rev, err := s.store.Save(r.Context(), name, g)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	lock := s.graphLock(name)
	lock.RLock()
	defer lock.RUnlock()

	g, err := s.store.Load(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	fp, err := graph.Fingerprint(g)
	if err != nil {
		writeError(w, err)
		return
	}

	// The document response is cached by fingerprint: a new revision gets a
	// new key, so stale bodies are unreachable.
	key := s.keyer.HTTPKey("document", fp)
	if data, hit, _ := s.cache.Get(r.Context(), key); hit {
		writeRawJSON(w, data)
		return
	}
	data, err := json.Marshal(graph.FromDAG(g))
	if err != nil {
		writeError(w, err)
		return
	}
	_ = s.cache.Set(r.Context(), key, data, 0)
	writeRawJSON(w, data)
}

func (s *Server) handleDeleteGraph(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	lock := s.graphLock(name)
	lock.Lock()
	defer lock.Unlock()

	if err := s.store.Delete(r.Context(), name); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ===== Node mutation =====

// nodeRequest is the body of POST /graphs/{name}/nodes.
type nodeRequest struct {
	Type     string         `json:"type"`
	Name     string         `json:"name"`
	Metadata map[string]any `json:"metadata"`
}

func (s *Server) handleAddNode(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req nodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fgerrors.New(fgerrors.ErrCodeInvalidInput, "malformed request body: %v", err))
		return
	}
	if err := fgerrors.ValidateComponentName(req.Name); err != nil {
		writeError(w, err)
		return
	}

	s.mutate(w, r, name, "add_node", func(g *dag.DAG) (any, int, error) {
		nodeType, err := dag.ParseNodeType(req.Type)
		if err != nil {
			return nil, 0, err
		}
		n, err := dag.NewNode(nodeType, req.Name, dag.Metadata(req.Metadata))
		if err != nil {
			return nil, 0, err
		}
		if err := g.AddNode(n); err != nil {
			return nil, 0, err
		}
		return graph.NodeRecord{
			ID:       n.ID,
			Type:     string(n.Type),
			Name:     n.Name,
			Metadata: n.Metadata,
		}, http.StatusCreated, nil
	})
}

func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	s.query(w, r, chi.URLParam(r, "name"), "get_node", cache.QueryKeyOpts{Node: id}, func(g *dag.DAG) (any, error) {
		n, ok := g.Node(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", dag.ErrNodeNotFound, id)
		}
		return graph.NodeRecord{
			ID:       n.ID,
			Type:     string(n.Type),
			Name:     n.Name,
			Metadata: n.Metadata,
		}, nil
	})
}

func (s *Server) handleRemoveNode(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	s.mutate(w, r, chi.URLParam(r, "name"), "remove_node", func(g *dag.DAG) (any, int, error) {
		if err := g.RemoveNode(id); err != nil {
			return nil, 0, err
		}
		return nil, http.StatusNoContent, nil
	})
}

// ===== Edge mutation =====

// edgeRequest is the body of POST /graphs/{name}/edges.
type edgeRequest struct {
	Source   string         `json:"source"`
	Target   string         `json:"target"`
	Type     string         `json:"edge_type"`
	Metadata map[string]any `json:"metadata"`
	Contract string         `json:"contract"`
}

func (s *Server) handleAddEdge(w http.ResponseWriter, r *http.Request) {
	var req edgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fgerrors.New(fgerrors.ErrCodeInvalidInput, "malformed request body: %v", err))
		return
	}
	if req.Contract != "" {
		if err := fgerrors.ValidateContractPath(req.Contract); err != nil {
			writeError(w, err)
			return
		}
	}

	s.mutate(w, r, chi.URLParam(r, "name"), "add_edge", func(g *dag.DAG) (any, int, error) {
		edgeType, err := dag.ParseEdgeType(req.Type)
		if err != nil {
			return nil, 0, err
		}
		e := dag.Edge{
			Source:   req.Source,
			Target:   req.Target,
			Type:     edgeType,
			Metadata: dag.Metadata(req.Metadata),
			Contract: req.Contract,
		}
		if err := g.AddEdge(e); err != nil {
			return nil, 0, err
		}
		return graph.EdgeRecord{
			Source:   e.Source,
			Target:   e.Target,
			Type:     string(e.Type),
			Metadata: e.Metadata,
			Contract: e.Contract,
		}, http.StatusCreated, nil
	})
}

func (s *Server) handleRemoveEdge(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	target := r.URL.Query().Get("target")
	s.mutate(w, r, chi.URLParam(r, "name"), "remove_edge", func(g *dag.DAG) (any, int, error) {
		if err := g.RemoveEdge(source, target); err != nil {
			return nil, 0, err
		}
		return nil, http.StatusNoContent, nil
	})
}

// ===== Structural queries =====

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	s.query(w, r, chi.URLParam(r, "name"), "order", cache.QueryKeyOpts{}, func(g *dag.DAG) (any, error) {
		return map[string][]string{"order": g.TopologicalOrder()}, nil
	})
}

func (s *Server) handleAncestors(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	s.query(w, r, chi.URLParam(r, "name"), "ancestors", cache.QueryKeyOpts{Node: id}, func(g *dag.DAG) (any, error) {
		ids, err := g.Ancestors(id)
		if err != nil {
			return nil, err
		}
		if ids == nil {
			ids = []string{}
		}
		return map[string][]string{"ancestors": ids}, nil
	})
}

func (s *Server) handleDescendants(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	s.query(w, r, chi.URLParam(r, "name"), "descendants", cache.QueryKeyOpts{Node: id}, func(g *dag.DAG) (any, error) {
		ids, err := g.Descendants(id)
		if err != nil {
			return nil, err
		}
		if ids == nil {
			ids = []string{}
		}
		return map[string][]string{"descendants": ids}, nil
	})
}

func (s *Server) handleSubgraph(w http.ResponseWriter, r *http.Request) {
	ids := r.URL.Query()["id"]
	s.query(w, r, chi.URLParam(r, "name"), "subgraph", cache.QueryKeyOpts{Nodes: ids}, func(g *dag.DAG) (any, error) {
		return graph.FromDAG(g.Subgraph(ids)), nil
	})
}

func (s *Server) handleFingerprint(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	lock := s.graphLock(name)
	lock.RLock()
	defer lock.RUnlock()

	g, err := s.store.Load(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	fp, err := graph.Fingerprint(g)
	if err != nil {
		writeError(w, err)
		return
	}

	// Drift checks: a client holding the previous fingerprint asks with
	// If-None-Match and gets 304 when nothing changed.
	etag := `"` + fp + `"`
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"fingerprint": fp})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.query(w, r, chi.URLParam(r, "name"), "stats", cache.QueryKeyOpts{}, func(g *dag.DAG) (any, error) {
		st := g.Stats()
		byType := make(map[string]int, len(st.ByType))
		for t, n := range st.ByType {
			byType[string(t)] = n
		}
		return map[string]any{
			"nodes":   st.Nodes,
			"edges":   st.Edges,
			"depth":   st.Depth,
			"sources": st.Sources,
			"sinks":   st.Sinks,
			"by_type": byType,
		}, nil
	})
}

// ===== Rendering =====

var renderContentTypes = map[string]string{
	"dot": "text/vnd.graphviz",
	"svg": "image/svg+xml",
	"png": "image/png",
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	q := r.URL.Query()

	format := q.Get("format")
	if format == "" {
		format = "svg"
	}
	contentType, ok := renderContentTypes[format]
	if !ok {
		writeError(w, fgerrors.New(fgerrors.ErrCodeInvalidInput, "unknown render format %q", format))
		return
	}
	opts := render.Options{
		Direction: q.Get("dir"),
		Detailed:  q.Get("detailed") == "true",
	}

	lock := s.graphLock(name)
	lock.RLock()
	defer lock.RUnlock()

	g, err := s.store.Load(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	fp, err := graph.Fingerprint(g)
	if err != nil {
		writeError(w, err)
		return
	}

	key := s.keyer.RenderKey(fp, cache.RenderKeyOpts{Format: format, Direction: opts.Direction})
	if data, hit, _ := s.cache.Get(r.Context(), key); hit {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(data)
		return
	}

	dot := render.ToDOT(g, opts)
	var data []byte
	switch format {
	case "dot":
		data = []byte(dot)
	case "svg":
		data, err = render.RenderSVG(r.Context(), dot)
	case "png":
		data, err = render.RenderPNG(r.Context(), dot)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	_ = s.cache.Set(r.Context(), key, data, 0)
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(data)
}

// ===== Collaborator task links =====

// taskRequest is the body of POST /graphs/{name}/tasks.
type taskRequest struct {
	TaskID string `json:"task_id"`
	NodeID string `json:"node_id"`
}

func (s *Server) handleLinkTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fgerrors.New(fgerrors.ErrCodeInvalidInput, "malformed request body: %v", err))
		return
	}
	if req.TaskID == "" {
		writeError(w, fgerrors.New(fgerrors.ErrCodeInvalidInput, "task_id must not be empty"))
		return
	}

	s.mutate(w, r, chi.URLParam(r, "name"), "link_task", func(g *dag.DAG) (any, int, error) {
		if err := g.LinkTask(req.TaskID, req.NodeID); err != nil {
			return nil, 0, err
		}
		return map[string]string{"task_id": req.TaskID, "node_id": req.NodeID}, http.StatusOK, nil
	})
}

// ===== Load/mutate/persist plumbing =====

// mutate loads the named graph under its write lock, applies fn, and
// persists the result when fn succeeds. A failed fn leaves the stored
// document untouched; the in-memory copy is discarded either way.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, name, op string, fn func(*dag.DAG) (any, int, error)) {
	ctx := r.Context()
	lock := s.graphLock(name)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	observability.Graph().OnMutationStart(ctx, name, op)

	g, err := s.store.Load(ctx, name)
	if err != nil {
		observability.Graph().OnMutationComplete(ctx, name, op, 0, 0, time.Since(start), err)
		writeError(w, err)
		return
	}

	body, status, err := fn(g)
	if err == nil {
		_, err = s.store.Save(ctx, name, g)
	}
	observability.Graph().OnMutationComplete(ctx, name, op, g.NodeCount(), g.EdgeCount(), time.Since(start), err)
	if err != nil {
		writeError(w, err)
		return
	}

	if body == nil {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, body)
}

// query loads the named graph under its read lock and applies fn. Successful
// responses are cached under the graph's fingerprint, so a mutated graph
// never serves a stale result and unchanged graphs answer repeat queries
// without recomputing.
func (s *Server) query(w http.ResponseWriter, r *http.Request, name, op string, opts cache.QueryKeyOpts, fn func(*dag.DAG) (any, error)) {
	ctx := r.Context()
	lock := s.graphLock(name)
	lock.RLock()
	defer lock.RUnlock()

	start := time.Now()
	g, err := s.store.Load(ctx, name)
	if err != nil {
		observability.Graph().OnQuery(ctx, name, op, time.Since(start), err)
		writeError(w, err)
		return
	}

	fp, err := graph.Fingerprint(g)
	if err != nil {
		writeError(w, err)
		return
	}
	key := s.keyer.QueryKey(fp, op, opts)
	if data, hit, _ := s.cache.Get(ctx, key); hit {
		observability.Graph().OnQuery(ctx, name, op, time.Since(start), nil)
		writeRawJSON(w, data)
		return
	}

	body, err := fn(g)
	observability.Graph().OnQuery(ctx, name, op, time.Since(start), err)
	if err != nil {
		writeError(w, err)
		return
	}

	data, err := json.Marshal(body)
	if err != nil {
		writeError(w, err)
		return
	}
	_ = s.cache.Set(ctx, key, data, 0)
	writeRawJSON(w, data)
}
