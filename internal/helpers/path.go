package helpers

import (
	"path/filepath"
	"strings"
)

// Returns the path relative to "cwd" using forward slashes on all platforms.
// This is the name shown in diagnostics and embedded into generated code, so
// it must not contain machine-specific details such as the home directory.
func PrettyPath(cwd string, path string) string {
	if cwd != "" {
		if rel, err := filepath.Rel(cwd, path); err == nil && !strings.HasPrefix(rel, "..") {
			path = rel
		}
	}
	return filepath.ToSlash(path)
}

// Import specifiers are relative if they start with "./" or "../" (or are
// exactly "." or ".."). Everything else that isn't absolute is a package path.
func IsRelativeSpecifier(specifier string) bool {
	return specifier == "." || specifier == ".." ||
		strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") ||
		strings.HasPrefix(specifier, ".\\") || strings.HasPrefix(specifier, "..\\")
}
