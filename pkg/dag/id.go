package dag

import (
	"regexp"
	"strings"
)

// Node identifiers are package-URL shaped: pkg:fedgraph/<sanitized-name>@local.
// The namespace and qualifier are fixed so that the same name always maps to
// the same identifier across processes and machines.
const (
	idNamespace = "pkg:fedgraph/"
	idQualifier = "@local"
)

var idSanitizer = regexp.MustCompile(`[^a-z0-9]+`)

// NodeID derives the deterministic identifier for a component name.
// The name is lower-cased, every run of characters outside [a-z0-9] collapses
// to a single "-", and leading/trailing separators are trimmed before the
// result is wrapped in the fixed namespace and qualifier:
//
//	NodeID("API Gateway") == "pkg:fedgraph/api-gateway@local"
//	NodeID("my_service")  == "pkg:fedgraph/my-service@local"
//
// NodeID is pure - it never errors. A name that sanitizes to nothing yields
// an empty string, which [NewNode] and [DAG.AddNode] reject. Distinct names
// can collide on the same identifier; that surfaces as ErrDuplicateNode at
// add time, not here.
func NodeID(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = idSanitizer.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return ""
	}
	return idNamespace + s + idQualifier
}
