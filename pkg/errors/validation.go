package errors

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// ValidateName validates an identifier handed to the native engine
// (graph, node or edge names). The engine stores names as C strings, so an
// embedded NUL would silently truncate them.
func ValidateName(kind, name string) error {
	if strings.IndexByte(name, 0) >= 0 {
		return New(ErrCodeInvalidInput, "%s name contains a NUL byte", kind)
	}
	return nil
}

// ValidateAttr validates an attribute key/value pair.
//
// Rules:
//   - Key cannot be empty
//   - Neither key nor value may contain NUL bytes
//   - Key may not contain control characters
func ValidateAttr(key, value string) error {
	if key == "" {
		return New(ErrCodeInvalidInput, "attribute key cannot be empty")
	}
	for _, r := range key {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "attribute key %q contains control characters", key)
		}
	}
	if strings.IndexByte(value, 0) >= 0 {
		return New(ErrCodeInvalidInput, "value of attribute %q contains a NUL byte", key)
	}
	return nil
}

// ValidateOutputPath validates a destination file path for rendered output.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
//   - Must not name a directory (trailing separator)
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "output path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasSuffix(path, string(filepath.Separator)) || strings.HasSuffix(path, "/") {
		return New(ErrCodeInvalidPath, "path %q names a directory", path)
	}

	return nil
}

// ValidateArtifactID validates a stored artifact identifier. Only the
// canonical 36-character UUID form is accepted.
func ValidateArtifactID(id string) error {
	if len(id) != 36 || uuid.Validate(id) != nil {
		return New(ErrCodeInvalidInput, "invalid artifact id %q", id)
	}
	return nil
}
