package filesystem

import (
	"os"
	"path/filepath"
	"strings"
)

// ResolvePath converts a corpus location to a local path.
// Handles file:// URIs, a leading ~ and bare paths.
func ResolvePath(uri string) string {
	path := strings.TrimPrefix(uri, "file://")
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
