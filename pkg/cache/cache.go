// Package cache provides byte-oriented caching with pluggable backends.
//
// Backends share a single interface: FileCache for CLI usage (entries on
// disk under a cache directory), RedisCache for server deployments, and
// NullCache to disable caching entirely. Keys are produced by a Keyer so
// the layout stays consistent across backends: HTTP responses, graph query
// results, and rendered artifacts each get their own namespace, with query
// and render keys derived from the graph fingerprint so entries invalidate
// naturally when the graph changes.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Cache stores opaque byte values under string keys with optional TTL.
type Cache interface {
	// Get retrieves a value. The boolean reports whether the key was found;
	// an expired or corrupt entry is treated as a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero or less means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// QueryKeyOpts captures the parameters of a graph query for key generation.
type QueryKeyOpts struct {
	Node  string   // target node for ancestor/descendant closures
	Nodes []string // selection for subgraph extraction
}

// RenderKeyOpts captures rendering parameters for key generation.
type RenderKeyOpts struct {
	Format    string // output format: "dot", "svg", "png"
	Direction string // graphviz rankdir: "TB" or "LR"
}

// Keyer generates cache keys for the different kinds of cached data.
type Keyer interface {
	// HTTPKey generates a key for HTTP response caching.
	HTTPKey(namespace, key string) string

	// QueryKey generates a key for a graph query result. The fingerprint
	// ties the entry to an exact graph state.
	QueryKey(fingerprint, op string, opts QueryKeyOpts) string

	// RenderKey generates a key for a rendered artifact.
	RenderKey(fingerprint string, opts RenderKeyOpts) string
}

// DefaultKeyer is the standard key generator.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard key generator.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// HTTPKey generates a key for HTTP response caching.
func (k *DefaultKeyer) HTTPKey(namespace, key string) string {
	return fmt.Sprintf("http:%s:%s", namespace, key)
}

// QueryKey generates a key for a graph query result.
func (k *DefaultKeyer) QueryKey(fingerprint, op string, opts QueryKeyOpts) string {
	return hashKey("query", fingerprint, op, opts)
}

// RenderKey generates a key for a rendered artifact.
func (k *DefaultKeyer) RenderKey(fingerprint string, opts RenderKeyOpts) string {
	return hashKey("render", fingerprint, opts)
}

// KeyType returns the namespace portion of a key (the segment before the
// first colon). Used to label cache metrics by kind of data.
func KeyType(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return key
}
