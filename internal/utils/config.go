package utils

import (
	"os"
	"path/filepath"
)

// GetProjectRoot returns the closest directory at or above the working
// directory that holds a go.mod, or "." when there is none.
func GetProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "."
}

// DefaultConfigPath is where the server looks for its config when --config
// is not given: portal.yaml in the project root, or the PORTAL_CONFIG path.
func DefaultConfigPath() string {
	if p := os.Getenv("PORTAL_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(GetProjectRoot(), "portal.yaml")
}
