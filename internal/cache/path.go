// Package cache maps cache keys to stable on-disk paths under the configured
// cache directory.
package cache

import (
	"path/filepath"
	"strings"
)

// Path returns the compressed cache file path for a playlist cache key.
// Stable: the same key always maps to the same path.
func Path(cacheDir, key string) string {
	return filepath.Join(cacheDir, "playlist", sanitizeKey(key)+".br")
}

func sanitizeKey(key string) string {
	s := strings.ReplaceAll(key, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, "\x00", "_")
	if s == "" {
		s = "unknown"
	}
	return s
}
