package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fedgraph/fedgraph/pkg/dag"
	"github.com/fedgraph/fedgraph/pkg/graph"
	"github.com/fedgraph/fedgraph/pkg/observability"
)

// FileStore persists graphs as JSON documents in a directory tree:
//
//	<dir>/graphs/<name>.json      current document per graph
//	<dir>/archive/<name>_<id>.json  superseded revisions (id = revision UUID)
//	<dir>/index.json              name → summary, current and prior revisions
//
// Every write goes through a temp file and rename, so an interrupted save
// never corrupts the previous document. The store serializes its own file
// access with a mutex; it does not synchronize the graphs themselves.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file-based graph store rooted at baseDir.
// If baseDir is empty, defaults to ~/.fedgraph/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".fedgraph")
	}
	for _, dir := range []string{baseDir, filepath.Join(baseDir, "graphs"), filepath.Join(baseDir, "archive")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) graphPath(name string) string {
	return filepath.Join(s.baseDir, "graphs", name+".json")
}

func (s *FileStore) archivePath(name, revisionID string) string {
	return filepath.Join(s.baseDir, "archive", name+"_"+revisionID+".json")
}

func (s *FileStore) indexPath() string {
	return filepath.Join(s.baseDir, "index.json")
}

// Path returns the base directory for store files.
func (s *FileStore) Path() string {
	return s.baseDir
}

func (s *FileStore) Save(ctx context.Context, name string, g *dag.DAG) (rev *Revision, err error) {
	start := time.Now()
	skipped := false
	defer func() {
		saved := ""
		if rev != nil {
			saved = rev.Fingerprint
		}
		observability.Store().OnSave(ctx, "file", name, saved, skipped, time.Since(start), err)
	}()

	if err := validateName(name); err != nil {
		return nil, err
	}
	fp, err := graph.Fingerprint(g)
	if err != nil {
		return nil, fmt.Errorf("save %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.readIndex()
	if err != nil {
		return nil, err
	}

	entry, exists := idx.Graphs[name]
	if exists && entry.Current.Fingerprint == fp {
		skipped = true
		cur := entry.Current
		return &cur, nil
	}

	if exists {
		if err := s.archiveCurrent(name, entry.Current.ID); err != nil {
			return nil, err
		}
		entry.Previous = append(entry.Previous, entry.Current)
	}

	if err := graph.WriteFile(g, s.graphPath(name)); err != nil {
		return nil, fmt.Errorf("save %s: %w", name, err)
	}

	r := newRevision(uuid.NewString(), fp)
	entry.Current = r
	entry.Info = Info{
		Name:        name,
		Fingerprint: fp,
		Nodes:       g.NodeCount(),
		Edges:       g.EdgeCount(),
		UpdatedAt:   r.SavedAt,
	}
	idx.Graphs[name] = entry
	if err := s.writeIndex(idx); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *FileStore) Load(ctx context.Context, name string) (g *dag.DAG, err error) {
	start := time.Now()
	defer func() {
		observability.Store().OnLoad(ctx, "file", name, time.Since(start), err)
	}()

	if err := validateName(name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	g, err = graph.ReadFile(s.graphPath(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrGraphNotFound, name)
		}
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return g, nil
}

func (s *FileStore) List(ctx context.Context) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, err := s.readIndex()
	if err != nil {
		return nil, err
	}

	infos := make([]Info, 0, len(idx.Graphs))
	for _, entry := range idx.Graphs {
		infos = append(infos, entry.Info)
	}
	slices.SortFunc(infos, func(a, b Info) int { return strings.Compare(a.Name, b.Name) })
	return infos, nil
}

func (s *FileStore) Delete(ctx context.Context, name string) (err error) {
	defer func() {
		observability.Store().OnDelete(ctx, "file", name, err)
	}()

	if err := validateName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.readIndex()
	if err != nil {
		return err
	}
	entry, exists := idx.Graphs[name]
	if !exists {
		return fmt.Errorf("%w: %s", ErrGraphNotFound, name)
	}

	// Preserve the final state before removing the live document.
	if err := s.archiveCurrent(name, entry.Current.ID); err != nil {
		return err
	}
	if err := os.Remove(s.graphPath(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", name, err)
	}

	delete(idx.Graphs, name)
	return s.writeIndex(idx)
}

func (s *FileStore) History(ctx context.Context, name string) ([]Revision, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, err := s.readIndex()
	if err != nil {
		return nil, err
	}
	entry, exists := idx.Graphs[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrGraphNotFound, name)
	}

	history := make([]Revision, 0, len(entry.Previous)+1)
	history = append(history, entry.Previous...)
	history = append(history, entry.Current)
	return history, nil
}

func (s *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)

// =============================================================================
// Index and archive internals
// =============================================================================

type indexEntry struct {
	Info     Info       `json:"info"`
	Current  Revision   `json:"current"`
	Previous []Revision `json:"previous,omitempty"`
}

type indexFile struct {
	Graphs map[string]indexEntry `json:"graphs"`
}

func (s *FileStore) readIndex() (indexFile, error) {
	idx := indexFile{Graphs: map[string]indexEntry{}}
	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return idx, fmt.Errorf("read store index: %w", err)
	}
	if err := json.Unmarshal(data, &idx); err != nil {
		return idx, fmt.Errorf("parse store index: %w", err)
	}
	if idx.Graphs == nil {
		idx.Graphs = map[string]indexEntry{}
	}
	return idx, nil
}

func (s *FileStore) writeIndex(idx indexFile) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store index: %w", err)
	}
	if err := writeFileAtomic(s.indexPath(), data); err != nil {
		return fmt.Errorf("write store index: %w", err)
	}
	return nil
}

// archiveCurrent copies the live document for name into the archive under
// the superseding revision's ID. A missing live document is tolerated so a
// partially completed earlier save cannot wedge the store.
func (s *FileStore) archiveCurrent(name, revisionID string) error {
	data, err := os.ReadFile(s.graphPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("archive %s: %w", name, err)
	}
	if err := writeFileAtomic(s.archivePath(name, revisionID), data); err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".store-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
