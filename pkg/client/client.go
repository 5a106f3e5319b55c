// Package client provides a typed Go client for the fedgraph HTTP API.
//
// Every API route has a corresponding method. Structured error payloads are
// decoded back into coded errors from the errors package, so a caller can
// check fgerrors.Is(err, fgerrors.ErrCodeCycleDetected) against a remote
// server exactly as it would against a local engine surface. Transient failures
// (connection errors, 5xx responses) are retried with exponential backoff
// and jitter, honoring context cancellation.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fedgraph/fedgraph/pkg/dag"
	fgerrors "github.com/fedgraph/fedgraph/pkg/errors"
	"github.com/fedgraph/fedgraph/pkg/graph"
	"github.com/fedgraph/fedgraph/pkg/observability"
	"github.com/fedgraph/fedgraph/pkg/store"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultAttempts = 3
	defaultDelay    = 500 * time.Millisecond
)

// Client talks to a fedgraph API server.
type Client struct {
	baseURL  string
	http     *http.Client
	attempts int
	delay    time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRetry sets the retry budget: total attempts and initial backoff delay.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = max(attempts, 1)
		c.delay = delay
	}
}

// New creates a client for the API server at baseURL, e.g.
// "http://localhost:8080".
func New(baseURL string, opts ...Option) (*Client, error) {
	if err := fgerrors.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		http:     &http.Client{Timeout: defaultTimeout},
		attempts: defaultAttempts,
		delay:    defaultDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ===== Graph documents =====

// ListGraphs returns summaries of all stored graphs.
func (c *Client) ListGraphs(ctx context.Context) ([]store.Info, error) {
	var infos []store.Info
	err := c.do(ctx, http.MethodGet, "/api/v1/graphs", nil, &infos)
	return infos, err
}

// PutGraph uploads a full document under name and returns the new revision.
func (c *Client) PutGraph(ctx context.Context, name string, doc graph.Document) (*store.Revision, error) {
	var rev store.Revision
	if err := c.do(ctx, http.MethodPut, c.graphPath(name, ""), doc, &rev); err != nil {
		return nil, err
	}
	return &rev, nil
}

// GetGraph retrieves the current document for name.
func (c *Client) GetGraph(ctx context.Context, name string) (graph.Document, error) {
	var doc graph.Document
	err := c.do(ctx, http.MethodGet, c.graphPath(name, ""), nil, &doc)
	return doc, err
}

// DeleteGraph removes the named graph.
func (c *Client) DeleteGraph(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, c.graphPath(name, ""), nil, nil)
}

// ===== Mutation =====

// AddNode creates a node; the server derives the ID from the name.
func (c *Client) AddNode(ctx context.Context, name string, typ dag.NodeType, nodeName string, meta map[string]any) (graph.NodeRecord, error) {
	body := map[string]any{"type": string(typ), "name": nodeName, "metadata": meta}
	var rec graph.NodeRecord
	err := c.do(ctx, http.MethodPost, c.graphPath(name, "/nodes"), body, &rec)
	return rec, err
}

// GetNode retrieves a node by ID.
func (c *Client) GetNode(ctx context.Context, name, id string) (graph.NodeRecord, error) {
	var rec graph.NodeRecord
	err := c.do(ctx, http.MethodGet, c.graphPath(name, "/nodes?id="+url.QueryEscape(id)), nil, &rec)
	return rec, err
}

// RemoveNode removes a node and every edge touching it.
func (c *Client) RemoveNode(ctx context.Context, name, id string) error {
	return c.do(ctx, http.MethodDelete, c.graphPath(name, "/nodes?id="+url.QueryEscape(id)), nil, nil)
}

// AddEdge creates an edge between two existing nodes.
func (c *Client) AddEdge(ctx context.Context, name string, e dag.Edge) (graph.EdgeRecord, error) {
	body := map[string]any{
		"source":    e.Source,
		"target":    e.Target,
		"edge_type": string(e.Type),
		"metadata":  map[string]any(e.Metadata),
		"contract":  e.Contract,
	}
	var rec graph.EdgeRecord
	err := c.do(ctx, http.MethodPost, c.graphPath(name, "/edges"), body, &rec)
	return rec, err
}

// RemoveEdge removes the edge source→target.
func (c *Client) RemoveEdge(ctx context.Context, name, source, target string) error {
	q := fmt.Sprintf("/edges?source=%s&target=%s", url.QueryEscape(source), url.QueryEscape(target))
	return c.do(ctx, http.MethodDelete, c.graphPath(name, q), nil, nil)
}

// LinkTask stores an external task reference on a node.
func (c *Client) LinkTask(ctx context.Context, name, taskID, nodeID string) error {
	body := map[string]string{"task_id": taskID, "node_id": nodeID}
	return c.do(ctx, http.MethodPost, c.graphPath(name, "/tasks"), body, nil)
}

// ===== Queries =====

// TopologicalOrder returns all node IDs in dependency order.
func (c *Client) TopologicalOrder(ctx context.Context, name string) ([]string, error) {
	var resp map[string][]string
	if err := c.do(ctx, http.MethodGet, c.graphPath(name, "/order"), nil, &resp); err != nil {
		return nil, err
	}
	return resp["order"], nil
}

// Ancestors returns the transitive closure of nodes that reach id.
func (c *Client) Ancestors(ctx context.Context, name, id string) ([]string, error) {
	var resp map[string][]string
	if err := c.do(ctx, http.MethodGet, c.graphPath(name, "/ancestors?id="+url.QueryEscape(id)), nil, &resp); err != nil {
		return nil, err
	}
	return resp["ancestors"], nil
}

// Descendants returns the transitive closure of nodes reachable from id.
func (c *Client) Descendants(ctx context.Context, name, id string) ([]string, error) {
	var resp map[string][]string
	if err := c.do(ctx, http.MethodGet, c.graphPath(name, "/descendants?id="+url.QueryEscape(id)), nil, &resp); err != nil {
		return nil, err
	}
	return resp["descendants"], nil
}

// Subgraph returns the induced subgraph document for the given node IDs.
func (c *Client) Subgraph(ctx context.Context, name string, ids []string) (graph.Document, error) {
	q := make(url.Values, 1)
	for _, id := range ids {
		q.Add("id", id)
	}
	var doc graph.Document
	err := c.do(ctx, http.MethodGet, c.graphPath(name, "/subgraph?"+q.Encode()), nil, &doc)
	return doc, err
}

// Fingerprint returns the graph's content fingerprint.
func (c *Client) Fingerprint(ctx context.Context, name string) (string, error) {
	var resp map[string]string
	if err := c.do(ctx, http.MethodGet, c.graphPath(name, "/fingerprint"), nil, &resp); err != nil {
		return "", err
	}
	return resp["fingerprint"], nil
}

// Changed reports whether the graph's fingerprint differs from known. It
// uses a conditional request, so an unchanged graph transfers no body.
func (c *Client) Changed(ctx context.Context, name, known string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+c.graphPath(name, "/fingerprint"), nil)
	if err != nil {
		return false, fgerrors.Wrap(fgerrors.ErrCodeInternal, err, "build request")
	}
	req.Header.Set("If-None-Match", `"`+known+`"`)

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fgerrors.Wrap(fgerrors.ErrCodeNetwork, err, "fingerprint check failed")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		return false, nil
	case http.StatusOK:
		return true, nil
	default:
		return false, decodeError(resp)
	}
}

// Render fetches a rendered artifact: format "dot", "svg", or "png".
func (c *Client) Render(ctx context.Context, name, format, direction string) ([]byte, error) {
	q := make(url.Values, 2)
	q.Set("format", format)
	if direction != "" {
		q.Set("dir", direction)
	}

	var data []byte
	err := c.doRaw(ctx, http.MethodGet, c.graphPath(name, "/render?"+q.Encode()), nil, func(r io.Reader) error {
		var err error
		data, err = io.ReadAll(r)
		return err
	})
	return data, err
}

func (c *Client) graphPath(name, suffix string) string {
	return "/api/v1/graphs/" + url.PathEscape(name) + suffix
}

// ===== Transport =====

// do performs a JSON request/response round trip with retries.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	return c.doRaw(ctx, method, path, body, func(r io.Reader) error {
		if out == nil {
			return nil
		}
		return json.NewDecoder(r).Decode(out)
	})
}

// doRaw performs a request with retries, handing the response body to
// consume on success. Connection failures and 5xx responses retry; coded
// API errors do not.
func (c *Client) doRaw(ctx context.Context, method, path string, body any, consume func(io.Reader) error) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fgerrors.Wrap(fgerrors.ErrCodeInternal, err, "encode request body")
		}
	}

	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fgerrors.Wrap(fgerrors.ErrCodeInternal, err, "build request url")
	}

	delay := c.delay
	var lastErr error
	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			if delay <= 0 {
				delay = time.Millisecond
			}
			// Full jitter keeps concurrent clients from retrying in lockstep.
			sleep := time.Duration(rand.Int63n(int64(delay)))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(sleep):
			}
			delay *= 2
		}

		err := c.attempt(ctx, method, u.String(), payload, consume)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable(err) {
			return err
		}
		observability.HTTP().OnError(ctx, method, u.Host, u.Path, err)
	}
	return lastErr
}

func (c *Client) attempt(ctx context.Context, method, url string, payload []byte, consume func(io.Reader) error) error {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fgerrors.Wrap(fgerrors.ErrCodeInternal, err, "build request")
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fgerrors.Wrap(fgerrors.ErrCodeNetwork, err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return consume(resp.Body)
}

// decodeError turns a structured API error payload back into a coded error.
// A body that is not the expected payload degrades to a generic code based
// on the HTTP status.
func decodeError(resp *http.Response) error {
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error.Code != "" {
		return fgerrors.New(fgerrors.Code(payload.Error.Code), "%s", payload.Error.Message)
	}
	if resp.StatusCode >= 500 {
		return fgerrors.New(fgerrors.ErrCodeNetwork, "server error: status %d", resp.StatusCode)
	}
	return fgerrors.New(fgerrors.ErrCodeInternal, "unexpected status %d", resp.StatusCode)
}

// retryable reports whether an error is worth another attempt: network
// failures and 5xx-mapped codes, but never coded client errors.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return fgerrors.Is(err, fgerrors.ErrCodeNetwork) || fgerrors.Is(err, fgerrors.ErrCodeTimeout)
}
