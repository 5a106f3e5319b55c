// Package api serves the graph engine over HTTP.
//
// Every engine operation is exposed as a REST route under /api/v1, with JSON
// bodies and structured error payloads of the form
//
//	{"error": {"code": "CYCLE_DETECTED", "message": "..."}}
//
// where codes come from the errors package. Graphs are loaded from and
// persisted through a store.Store; the server owns the external
// mutual-exclusion discipline the engine requires, holding one RW mutex per
// graph name so writes are exclusive and reads shared. Rendered artifacts
// are cached by graph fingerprint, so a cache hit never re-renders.
package api
