package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// identRegex matches kind, port and param identifiers.
var identRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// ValidateIdent validates a schema identifier (kind, port or parameter name).
//
// Identifiers end up in SVG attributes and DOT records, so the rules are strict:
//   - No empty names
//   - Maximum length of 64 characters
//   - Letters, digits, '_', '.', '-' only, not starting with a digit
func ValidateIdent(what, name string) error {
	if name == "" {
		return New(ErrCodeInvalidSchema, "%s name cannot be empty", what)
	}
	if len(name) > 64 {
		return New(ErrCodeInvalidSchema, "%s name too long (max 64 characters): %q", what, name)
	}
	if !identRegex.MatchString(name) {
		return New(ErrCodeInvalidSchema, "invalid %s name: %q", what, name)
	}
	return nil
}

// ValidateParamValue validates a parameter value coming from an external widget.
// Values are free text, but control characters other than tab are rejected.
func ValidateParamValue(value string) error {
	if len(value) > 4096 {
		return New(ErrCodeInvalidInput, "parameter value too long (max 4096 characters)")
	}
	for _, r := range value {
		if r != '\t' && unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "parameter value contains control characters")
		}
	}
	return nil
}

// ValidatePath validates a local file path supplied on the command line or over HTTP.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..) when relative is true
func ValidatePath(path string, relative bool) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if relative {
		if strings.HasPrefix(path, "/") {
			return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
		}
		if strings.Contains(path, "..") {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	return nil
}
