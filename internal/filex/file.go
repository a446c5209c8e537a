// Package filex contains small filesystem helpers shared by the server
// storage layer and the client keystore.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir creates dir (and any parents) if it does not exist and returns
// its absolute path.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dir, err)
	}

	if err := os.MkdirAll(abs, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}

	return abs, nil
}

// EnsureParentDir creates the parent directory of path if needed, so a file
// can be written there. Returns path unchanged.
func EnsureParentDir(path string) (string, error) {
	if _, err := EnsureDir(filepath.Dir(path)); err != nil {
		return "", err
	}
	return path, nil
}
