package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fedgraph/fedgraph/pkg/dag"
	"github.com/fedgraph/fedgraph/pkg/graph"
	"github.com/fedgraph/fedgraph/pkg/observability"
)

// MongoStore persists graphs in MongoDB: one document per graph in the
// "graphs" collection keyed by name, plus a "graph_archive" collection
// holding every superseded revision. Documents embed the same canonical
// graph.Document shape the file store writes to disk.
type MongoStore struct {
	client  *mongo.Client
	graphs  *mongo.Collection
	archive *mongo.Collection
}

// mongoGraph is the collection document for the current state of a graph.
type mongoGraph struct {
	Name      string         `bson:"_id"`
	Revision  Revision       `bson:"revision"`
	Previous  []Revision     `bson:"previous,omitempty"`
	Nodes     int            `bson:"nodes"`
	Edges     int            `bson:"edges"`
	UpdatedAt time.Time      `bson:"updated_at"`
	Document  graph.Document `bson:"document"`
}

// mongoArchive holds one superseded revision of a graph.
type mongoArchive struct {
	Name     string         `bson:"name"`
	Revision Revision       `bson:"revision"`
	Document graph.Document `bson:"document"`
}

// NewMongoStore connects to MongoDB and returns a store backed by the given
// database. The connection is verified with a ping before the store is
// returned.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	db := client.Database(database)
	return &MongoStore{
		client:  client,
		graphs:  db.Collection("graphs"),
		archive: db.Collection("graph_archive"),
	}, nil
}

func (m *MongoStore) Save(ctx context.Context, name string, g *dag.DAG) (rev *Revision, err error) {
	start := time.Now()
	skipped := false
	defer func() {
		saved := ""
		if rev != nil {
			saved = rev.Fingerprint
		}
		observability.Store().OnSave(ctx, "mongo", name, saved, skipped, time.Since(start), err)
	}()

	if err := validateName(name); err != nil {
		return nil, err
	}
	fp, err := graph.Fingerprint(g)
	if err != nil {
		return nil, fmt.Errorf("save %s: %w", name, err)
	}

	var cur mongoGraph
	err = m.graphs.FindOne(ctx, bson.M{"_id": name}).Decode(&cur)
	exists := err == nil
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("save %s: %w", name, err)
	}

	if exists && cur.Revision.Fingerprint == fp {
		skipped = true
		r := cur.Revision
		return &r, nil
	}

	if exists {
		arch := mongoArchive{Name: name, Revision: cur.Revision, Document: cur.Document}
		if _, err := m.archive.InsertOne(ctx, arch); err != nil {
			return nil, fmt.Errorf("archive %s: %w", name, err)
		}
	}

	r := newRevision(uuid.NewString(), fp)
	next := mongoGraph{
		Name:      name,
		Revision:  r,
		Nodes:     g.NodeCount(),
		Edges:     g.EdgeCount(),
		UpdatedAt: r.SavedAt,
		Document:  graph.FromDAG(g),
	}
	if exists {
		next.Previous = append(cur.Previous, cur.Revision)
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := m.graphs.ReplaceOne(ctx, bson.M{"_id": name}, next, opts); err != nil {
		return nil, fmt.Errorf("save %s: %w", name, err)
	}
	return &r, nil
}

func (m *MongoStore) Load(ctx context.Context, name string) (g *dag.DAG, err error) {
	start := time.Now()
	defer func() {
		observability.Store().OnLoad(ctx, "mongo", name, time.Since(start), err)
	}()

	if err := validateName(name); err != nil {
		return nil, err
	}

	var cur mongoGraph
	if err := m.graphs.FindOne(ctx, bson.M{"_id": name}).Decode(&cur); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", ErrGraphNotFound, name)
		}
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return graph.ToDAG(cur.Document)
}

func (m *MongoStore) List(ctx context.Context) ([]Info, error) {
	cursor, err := m.graphs.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list graphs: %w", err)
	}
	defer cursor.Close(ctx)

	var infos []Info
	for cursor.Next(ctx) {
		var doc mongoGraph
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("list graphs: %w", err)
		}
		infos = append(infos, Info{
			Name:        doc.Name,
			Fingerprint: doc.Revision.Fingerprint,
			Nodes:       doc.Nodes,
			Edges:       doc.Edges,
			UpdatedAt:   doc.UpdatedAt,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("list graphs: %w", err)
	}
	slices.SortFunc(infos, func(a, b Info) int { return strings.Compare(a.Name, b.Name) })
	return infos, nil
}

func (m *MongoStore) Delete(ctx context.Context, name string) (err error) {
	defer func() {
		observability.Store().OnDelete(ctx, "mongo", name, err)
	}()

	if err := validateName(name); err != nil {
		return err
	}

	var cur mongoGraph
	if err := m.graphs.FindOne(ctx, bson.M{"_id": name}).Decode(&cur); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("%w: %s", ErrGraphNotFound, name)
		}
		return fmt.Errorf("delete %s: %w", name, err)
	}

	// Preserve the final state before removing the live document.
	arch := mongoArchive{Name: name, Revision: cur.Revision, Document: cur.Document}
	if _, err := m.archive.InsertOne(ctx, arch); err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}

	if _, err := m.graphs.DeleteOne(ctx, bson.M{"_id": name}); err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

func (m *MongoStore) History(ctx context.Context, name string) ([]Revision, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	var cur mongoGraph
	if err := m.graphs.FindOne(ctx, bson.M{"_id": name}).Decode(&cur); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", ErrGraphNotFound, name)
		}
		return nil, fmt.Errorf("history %s: %w", name, err)
	}

	history := make([]Revision, 0, len(cur.Previous)+1)
	history = append(history, cur.Previous...)
	history = append(history, cur.Revision)
	return history, nil
}

// Close disconnects the MongoDB client.
func (m *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
