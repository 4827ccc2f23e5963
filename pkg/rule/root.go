package rule

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultRootNames are the conventional rules directory names searched by
// [FindRoot], in priority order.
var DefaultRootNames = []string{
	filepath.Join(".cursor", "rules"),
	".mdc",
	"rules",
}

// FindRoot searches for a rules directory starting from startPath and walking
// up the directory tree until the filesystem root, checking each candidate
// name in every directory. It returns the first directory found, or an empty
// string if there is none.
func FindRoot(startPath string, names []string) (string, error) {
	absPath, err := filepath.Abs(startPath)
	if err != nil {
		return "", fmt.Errorf("get absolute path: %w", err)
	}

	// If startPath is a file, search from its directory.
	searchDir := absPath

	info, err := os.Stat(absPath)
	if err == nil && !info.IsDir() {
		searchDir = filepath.Dir(absPath)
	}

	for {
		for _, name := range names {
			candidate := filepath.Join(searchDir, name)

			candidateInfo, statErr := os.Stat(candidate)
			if statErr == nil && candidateInfo.IsDir() {
				return candidate, nil
			}
		}

		parent := filepath.Dir(searchDir)
		if parent == searchDir {
			// Reached the root, no rules directory found.
			break
		}

		searchDir = parent
	}

	return "", nil
}
