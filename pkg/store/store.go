package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/fedgraph/fedgraph/pkg/dag"
)

// Sentinel errors for store operations.
var (
	// ErrGraphNotFound is returned by [Store.Load], [Store.Delete], and
	// [Store.History] when no graph with the given name has been saved.
	ErrGraphNotFound = errors.New("graph not found")

	// ErrInvalidName is returned when a graph name cannot be used as a
	// storage key. Names become filenames and document IDs, so the allowed
	// character set is narrow.
	ErrInvalidName = errors.New("invalid graph name")
)

// validNameRE matches acceptable storage names: alphanumeric start, then
// alphanumerics, dots, underscores, or hyphens.
var validNameRE = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// validateName rejects names that are empty, overlong, or could traverse
// paths when mapped to files.
func validateName(name string) error {
	if name == "" || len(name) > 128 {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if !validNameRE.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Revision identifies one saved state of a graph. A new revision is minted
// only when the content fingerprint changes; re-saving an unchanged graph
// returns the current revision untouched.
type Revision struct {
	ID          string    `json:"id" bson:"id"`
	Fingerprint string    `json:"fingerprint" bson:"fingerprint"`
	SavedAt     time.Time `json:"saved_at" bson:"saved_at"`
}

// Info summarizes a stored graph for listings.
type Info struct {
	Name        string    `json:"name" bson:"name"`
	Fingerprint string    `json:"fingerprint" bson:"fingerprint"`
	Nodes       int       `json:"nodes" bson:"nodes"`
	Edges       int       `json:"edges" bson:"edges"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// Store is the interface for graph persistence backends.
//
// Implementations must treat the stored document as untrusted on the way
// back in: Load rebuilds the graph through the engine so every invariant is
// re-validated, and corrupted documents surface as graph.ErrCorruptDocument.
type Store interface {
	// Save persists the graph under name and returns the revision that now
	// represents it. If the content fingerprint is unchanged from the
	// current revision, nothing is written and the current revision is
	// returned.
	Save(ctx context.Context, name string, g *dag.DAG) (*Revision, error)

	// Load retrieves the current document for name and rebuilds the engine
	// from it. Returns ErrGraphNotFound if the name has never been saved.
	Load(ctx context.Context, name string) (*dag.DAG, error)

	// List returns summaries of all stored graphs, sorted by name.
	List(ctx context.Context) ([]Info, error)

	// Delete removes the graph. The final state is archived first.
	// Returns ErrGraphNotFound if the name does not exist.
	Delete(ctx context.Context, name string) error

	// History returns all revisions of the graph, oldest first, ending with
	// the current one. Returns ErrGraphNotFound if the name does not exist.
	History(ctx context.Context, name string) ([]Revision, error)

	// Close releases backend resources.
	Close() error
}

// newRevision stamps a revision for the given fingerprint.
func newRevision(id, fingerprint string) Revision {
	return Revision{
		ID:          id,
		Fingerprint: fingerprint,
		SavedAt:     time.Now().UTC(),
	}
}
