package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// graphNameRegex matches valid stored-graph names. Names become filenames in
// the file store and document IDs in MongoDB, so the character set is
// deliberately narrow.
var graphNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// ValidateGraphName validates a stored-graph name for safety and correctness.
// It rejects names that could be used for path traversal when mapped to
// files on disk.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - Must start with an alphanumeric character
//   - Only alphanumerics, dots, underscores, and hyphens
//   - No path traversal sequences (..)
//   - Maximum length of 128 characters
func ValidateGraphName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "graph name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "graph name too long (max 128 characters)")
	}

	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidInput, "graph name cannot contain path traversal sequences (..)")
	}

	if !graphNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid graph name: %q", name)
	}

	return nil
}

// ValidateComponentName validates a component (node) name.
// Structural validation - emptiness, ID derivation - is the engine's job;
// this guards the outer surfaces against hostile input.
//
// Validation rules:
//   - No empty or whitespace-only names
//   - No control characters or null bytes
//   - Maximum length of 256 characters
func ValidateComponentName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidNode, "component name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidNode, "component name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidNode, "component name contains invalid control characters")
		}
	}

	return nil
}

// ValidateContractPath validates a contract artifact path supplied on an
// edge. It prevents path traversal and ensures reasonable path length; the
// existence check happens at add time in the engine.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidateContractPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "contract path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "contract path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "contract path contains invalid characters")
		}
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "contract path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "contract path cannot contain backslashes")
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
