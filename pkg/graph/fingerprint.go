package graph

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/fedgraph/fedgraph/pkg/dag"
)

// =============================================================================
// Content Fingerprints
// =============================================================================

// Fingerprint returns the SHA-256 digest of the graph's canonical encoding
// as a lowercase hex string. Structurally identical graphs produce the same
// fingerprint regardless of insertion order; any change to nodes, edges, or
// metadata changes it.
func Fingerprint(g *dag.DAG) (string, error) {
	data, err := Marshal(g)
	if err != nil {
		return "", err
	}
	return hashBytes(data), nil
}

// Fingerprint returns the SHA-256 digest of the document's canonical
// encoding as a lowercase hex string.
func (d Document) Fingerprint() (string, error) {
	data, err := Encode(d)
	if err != nil {
		return "", err
	}
	return hashBytes(data), nil
}

func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
