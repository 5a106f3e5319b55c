// Package store persists dependency graphs across process restarts.
//
// A Store keeps named graphs, where each save produces a new Revision
// identified by a UUID and the fingerprint of the canonical encoding.
// Saving a graph whose fingerprint matches the current revision is a
// no-op that returns the existing revision, so callers can save
// unconditionally without churning history.
//
// Two backends are provided:
//
//   - FileStore writes one JSON document per graph under a base
//     directory (default ~/.fedgraph), with superseded revisions kept
//     in an archive subdirectory and an index file tracking revisions.
//   - MongoStore keeps one document per graph in a MongoDB collection,
//     with superseded revisions copied to an archive collection.
//
// Both backends store the canonical document form, so a graph saved by
// one backend and imported into the other produces the same
// fingerprint. Loading always re-validates the document: a corrupted
// graph surfaces as graph.ErrCorruptDocument rather than as a
// structurally invalid DAG.
package store
