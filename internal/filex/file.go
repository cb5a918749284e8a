// Package filex holds small filesystem helpers for the client.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IsFilePath reports whether dsn names a file on disk rather than an
// in-memory or URI-style SQLite database.
func IsFilePath(dsn string) bool {
	return dsn != "" && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:")
}

// EnsureParentDir makes path absolute (relative to the working directory)
// and creates its parent directory.
func EnsureParentDir(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", path, err)
	}

	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return abs, nil
}
