// Package graph defines the canonical document format for dependency graphs
// and the content fingerprint derived from it.
//
// This is the wire format used everywhere a graph leaves process memory:
// JSON files on disk, API request and response bodies, MongoDB documents,
// and cache keys.
//
// # Document Format
//
// A graph serializes to a three-field document:
//
//	{
//	  "metadata": {"team": "platform"},
//	  "nodes": {
//	    "pkg:fedgraph/api@local": {
//	      "id": "pkg:fedgraph/api@local",
//	      "type": "Service",
//	      "name": "api",
//	      "metadata": {}
//	    }
//	  },
//	  "edges": [
//	    {"source": "...", "target": "...", "edge_type": "DEPENDS_ON", "metadata": {}}
//	  ]
//	}
//
// Common operations:
//
//	g, _ := graph.ReadFile("arch.json")      // File → DAG
//	graph.WriteFile(g, "arch.json")          // DAG → File (pretty, atomic)
//	data, _ := graph.Marshal(g)              // DAG → canonical bytes
//	fp, _ := graph.Fingerprint(g)            // DAG → SHA-256 hex digest
//
// # Canonical Form
//
// [Encode] and [Marshal] emit compact JSON with object keys sorted
// lexicographically and edges ordered by (source, target). The encoding is a
// pure function of graph content, which makes the [Fingerprint] digest stable
// across processes and suitable for change detection and cache keys.
// [Write] and [WriteFile] produce an indented rendering of the same ordering
// for files meant to be read and diffed by humans.
//
// # Decode Validation
//
// Decoding never trusts its input. [ToDAG] replays every record through the
// engine, so ID uniqueness, endpoint existence, acyclicity, and edge pair
// uniqueness are re-checked on every load. Violations surface as
// [ErrCorruptDocument] wrapping the underlying engine error.
//
// # Concurrency
//
// All functions are safe for concurrent use on distinct graphs; a single DAG
// must not be encoded while another goroutine mutates it.
package graph
