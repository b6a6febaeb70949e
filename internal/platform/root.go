package platform

import (
	"errors"
	"os"
	"path/filepath"
)

// DefaultFileName is the notes file used when no path is given.
const DefaultFileName = "notes.json"

// ErrNotesFileNotFound is returned by FindNotesFile when no candidate exists.
var ErrNotesFileNotFound = errors.New("notes file not found")

// FindNotesFile looks upwards from startDir for the first directory holding
// one of names and returns the absolute path to that file.
func FindNotesFile(startDir string, names ...string) (string, error) {
	if len(names) == 0 {
		names = []string{DefaultFileName, "notes.yaml", "notes.yml", "notes.db"}
	}
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		for _, name := range names {
			if hasFile(dir, name) {
				return filepath.Join(dir, name), nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", ErrNotesFileNotFound
}

func hasFile(dir, name string) bool {
	info, err := os.Stat(filepath.Join(dir, name))
	return err == nil && !info.IsDir()
}
