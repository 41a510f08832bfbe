package resources

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/HendryAvila/shardy/internal/config"
)

// findRoot walks up from cwd looking for .shardy/shardy.json.
// Shared utility for resource handlers.
func findRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}

	current := dir
	for {
		if config.Exists(current) {
			return current, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return dir, nil
		}
		current = parent
	}
}

// findResourceRoot is a simplified version of project root detection
// for resource handlers.
func findResourceRoot() (string, error) {
	// Resources reuse the same logic as tools.
	// In a more complex setup, this could be injected.
	return findRoot()
}
