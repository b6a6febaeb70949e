package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// IsDevRun checks if the current process is running via `go run` or `go test`.
// It relies on the fact that these commands build binaries in temporary directories.
func IsDevRun() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}
	if strings.HasPrefix(strings.ToLower(exe), strings.ToLower(os.TempDir())) {
		return true
	}
	return strings.HasSuffix(exe, ".test") || strings.HasSuffix(exe, ".test.exe")
}

// ResolveNotesPath determines the actual notes file path. When forceTemp is
// set, a path outside the system temp directory is re-rooted under
// <tmp>/arbor-dev so development runs never touch real notes.
func ResolveNotesPath(userPath string, forceTemp bool) string {
	if userPath == "" {
		userPath = DefaultFileName
	}
	if !forceTemp {
		return userPath
	}

	clean := filepath.Clean(userPath)
	if abs, err := filepath.Abs(clean); err == nil {
		if rel, err := filepath.Rel(os.TempDir(), abs); err == nil && !strings.HasPrefix(rel, "..") {
			return clean
		}
	}

	name := filepath.Base(clean)
	if name == "." || name == string(os.PathSeparator) {
		name = DefaultFileName
	}
	return filepath.Join(os.TempDir(), "arbor-dev", name)
}
