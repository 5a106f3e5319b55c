package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fedgraph/fedgraph/pkg/dag"
	"github.com/fedgraph/fedgraph/pkg/graph"
	"github.com/fedgraph/fedgraph/pkg/observability"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	return s
}

// chainGraph builds a linear DEPENDS_ON chain over the given node IDs.
func chainGraph(ids ...string) *dag.DAG {
	g := dag.New(dag.Metadata{"team": "platform"})
	for _, id := range ids {
		_ = g.AddNode(dag.Node{ID: id, Type: dag.NodeTypeService, Name: id})
	}
	for i := 1; i < len(ids); i++ {
		_ = g.AddEdge(dag.Edge{Source: ids[i-1], Target: ids[i], Type: dag.EdgeTypeDependsOn})
	}
	return g
}

func TestFileStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	g := chainGraph("api", "auth", "db")
	rev, err := s.Save(ctx, "platform", g)
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if rev.ID == "" {
		t.Error("Save() returned revision with empty ID")
	}
	if len(rev.Fingerprint) != 64 {
		t.Errorf("fingerprint length = %d, want 64", len(rev.Fingerprint))
	}
	if rev.SavedAt.IsZero() {
		t.Error("Save() returned revision with zero SavedAt")
	}

	loaded, err := s.Load(ctx, "platform")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.NodeCount() != 3 || loaded.EdgeCount() != 2 {
		t.Errorf("loaded graph = %d nodes / %d edges, want 3 / 2", loaded.NodeCount(), loaded.EdgeCount())
	}
	if loaded.Meta()["team"] != "platform" {
		t.Errorf("Meta()[team] = %v, want platform", loaded.Meta()["team"])
	}

	fp, err := graph.Fingerprint(loaded)
	if err != nil {
		t.Fatalf("Fingerprint() error: %v", err)
	}
	if fp != rev.Fingerprint {
		t.Errorf("loaded fingerprint = %s, want %s", fp, rev.Fingerprint)
	}
}

func TestFileStore_SaveUnchangedSkips(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	g := chainGraph("api", "db")
	rev1, err := s.Save(ctx, "platform", g)
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	rev2, err := s.Save(ctx, "platform", g)
	if err != nil {
		t.Fatalf("second Save() error: %v", err)
	}
	if rev2.ID != rev1.ID {
		t.Errorf("unchanged Save() revision = %s, want %s", rev2.ID, rev1.ID)
	}

	history, err := s.History(ctx, "platform")
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("history length = %d, want 1", len(history))
	}

	entries, err := os.ReadDir(filepath.Join(s.Path(), "archive"))
	if err != nil {
		t.Fatalf("ReadDir(archive) error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("archive has %d entries after unchanged save, want 0", len(entries))
	}
}

func TestFileStore_SaveChangedArchives(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rev1, err := s.Save(ctx, "platform", chainGraph("api", "db"))
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	rev2, err := s.Save(ctx, "platform", chainGraph("api", "auth", "db"))
	if err != nil {
		t.Fatalf("second Save() error: %v", err)
	}
	if rev2.ID == rev1.ID {
		t.Error("changed Save() reused revision ID")
	}
	if rev2.Fingerprint == rev1.Fingerprint {
		t.Error("changed Save() reused fingerprint")
	}

	history, err := s.History(ctx, "platform")
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].ID != rev1.ID || history[1].ID != rev2.ID {
		t.Errorf("history order = [%s %s], want oldest first [%s %s]",
			history[0].ID, history[1].ID, rev1.ID, rev2.ID)
	}

	// The superseded document is archived under its own revision ID.
	archived, err := graph.ReadFile(s.archivePath("platform", rev1.ID))
	if err != nil {
		t.Fatalf("ReadFile(archive) error: %v", err)
	}
	if archived.NodeCount() != 2 {
		t.Errorf("archived graph has %d nodes, want 2", archived.NodeCount())
	}

	live, err := s.Load(ctx, "platform")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if live.NodeCount() != 3 {
		t.Errorf("live graph has %d nodes, want 3", live.NodeCount())
	}
}

func TestFileStore_List(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	infos, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("List() on empty store = %d entries, want 0", len(infos))
	}

	for _, name := range []string{"zeta", "alpha", "midway"} {
		if _, err := s.Save(ctx, name, chainGraph(name+"-a", name+"-b")); err != nil {
			t.Fatalf("Save(%s) error: %v", name, err)
		}
	}

	infos, err = s.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	got := make([]string, len(infos))
	for i, info := range infos {
		got[i] = info.Name
	}
	want := []string{"alpha", "midway", "zeta"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("List() names = %v, want %v", got, want)
		}
	}
	if infos[0].Nodes != 2 || infos[0].Edges != 1 {
		t.Errorf("List()[0] = %d nodes / %d edges, want 2 / 1", infos[0].Nodes, infos[0].Edges)
	}
}

func TestFileStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rev, err := s.Save(ctx, "platform", chainGraph("api", "db"))
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := s.Delete(ctx, "platform"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	if _, err := s.Load(ctx, "platform"); !errors.Is(err, ErrGraphNotFound) {
		t.Errorf("Load() after delete error = %v, want ErrGraphNotFound", err)
	}
	infos, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("List() after delete = %d entries, want 0", len(infos))
	}

	// The final state is archived before removal.
	if _, err := os.Stat(s.archivePath("platform", rev.ID)); err != nil {
		t.Errorf("archived final revision missing: %v", err)
	}

	if err := s.Delete(ctx, "platform"); !errors.Is(err, ErrGraphNotFound) {
		t.Errorf("second Delete() error = %v, want ErrGraphNotFound", err)
	}
}

func TestFileStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.Load(ctx, "ghost"); !errors.Is(err, ErrGraphNotFound) {
		t.Errorf("Load() error = %v, want ErrGraphNotFound", err)
	}
	if _, err := s.History(ctx, "ghost"); !errors.Is(err, ErrGraphNotFound) {
		t.Errorf("History() error = %v, want ErrGraphNotFound", err)
	}
	if err := s.Delete(ctx, "ghost"); !errors.Is(err, ErrGraphNotFound) {
		t.Errorf("Delete() error = %v, want ErrGraphNotFound", err)
	}
}

func TestFileStore_InvalidName(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	tests := []struct {
		name      string
		graphName string
	}{
		{name: "Empty", graphName: ""},
		{name: "Traversal", graphName: "../etc"},
		{name: "Slash", graphName: "a/b"},
		{name: "LeadingDot", graphName: ".hidden"},
		{name: "TooLong", graphName: strings.Repeat("x", 200)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Save(ctx, tt.graphName, chainGraph("a")); !errors.Is(err, ErrInvalidName) {
				t.Errorf("Save(%q) error = %v, want ErrInvalidName", tt.graphName, err)
			}
			if _, err := s.Load(ctx, tt.graphName); !errors.Is(err, ErrInvalidName) {
				t.Errorf("Load(%q) error = %v, want ErrInvalidName", tt.graphName, err)
			}
		})
	}
}

func TestFileStore_LoadCorrupt(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.Save(ctx, "platform", chainGraph("api", "db")); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	tests := []struct {
		name string
		data string
	}{
		{name: "MalformedJSON", data: `{"metadata":`},
		{
			name: "DanglingEdge",
			data: `{"metadata":{},"nodes":{"api":{"id":"api","type":"Service","name":"api"}},` +
				`"edges":[{"source":"api","target":"ghost","edge_type":"DEPENDS_ON"}]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := os.WriteFile(s.graphPath("platform"), []byte(tt.data), 0o644); err != nil {
				t.Fatalf("WriteFile() error: %v", err)
			}
			if _, err := s.Load(ctx, "platform"); !errors.Is(err, graph.ErrCorruptDocument) {
				t.Errorf("Load() error = %v, want ErrCorruptDocument", err)
			}
		})
	}
}

func TestFileStore_NoTempFilesLeftBehind(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, name := range []string{"one", "two", "three"} {
		if _, err := s.Save(ctx, name, chainGraph("a", "b")); err != nil {
			t.Fatalf("Save(%s) error: %v", name, err)
		}
		if _, err := s.Save(ctx, name, chainGraph("a", "b", "c")); err != nil {
			t.Fatalf("re-Save(%s) error: %v", name, err)
		}
	}
	if err := s.Delete(ctx, "two"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	err := filepath.WalkDir(s.Path(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".store-") || strings.HasPrefix(d.Name(), ".graph-") {
			t.Errorf("temp file left behind: %s", path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WalkDir() error: %v", err)
	}
}

type captureStoreHooks struct {
	observability.NoopStoreHooks
	saves   []string
	skipped []bool
	deletes []string
}

func (c *captureStoreHooks) OnSave(_ context.Context, backend, name, _ string, skipped bool, _ time.Duration, _ error) {
	c.saves = append(c.saves, backend+"/"+name)
	c.skipped = append(c.skipped, skipped)
}

func (c *captureStoreHooks) OnDelete(_ context.Context, backend, name string, _ error) {
	c.deletes = append(c.deletes, backend+"/"+name)
}

func TestFileStore_EmitsStoreHooks(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	hooks := &captureStoreHooks{}
	observability.SetStoreHooks(hooks)
	t.Cleanup(observability.Reset)

	g := chainGraph("api", "db")
	if _, err := s.Save(ctx, "platform", g); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if _, err := s.Save(ctx, "platform", g); err != nil {
		t.Fatalf("second Save() error: %v", err)
	}
	if err := s.Delete(ctx, "platform"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	if len(hooks.saves) != 2 || hooks.saves[0] != "file/platform" {
		t.Errorf("saves = %v, want two file/platform entries", hooks.saves)
	}
	if len(hooks.skipped) != 2 || hooks.skipped[0] || !hooks.skipped[1] {
		t.Errorf("skipped = %v, want [false true]", hooks.skipped)
	}
	if len(hooks.deletes) != 1 || hooks.deletes[0] != "file/platform" {
		t.Errorf("deletes = %v, want [file/platform]", hooks.deletes)
	}
}
