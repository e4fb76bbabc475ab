package fetch

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/andybalholm/brotli"

	"github.com/snapetech/iptvcatalog/internal/cache"
)

// readCache returns the decompressed cached playlist for cacheKey.
func (f *Fetcher) readCache(cacheKey string) (string, error) {
	path := cache.Path(f.cacheDir, cacheKey)
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	data, err := io.ReadAll(brotli.NewReader(file))
	if err != nil {
		return "", fmt.Errorf("read cache %s: %w", path, err)
	}
	return string(data), nil
}

// writeCache stores the playlist compressed, via a temp file rename so a
// crash mid-write never leaves a truncated cache.
func (f *Fetcher) writeCache(cacheKey, content string) error {
	path := cache.Path(f.cacheDir, cacheKey)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	if _, err := w.Write([]byte(content)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
