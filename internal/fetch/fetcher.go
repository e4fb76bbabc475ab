// Package fetch resolves raw playlist text from a URL or local file, keeping
// a compressed on-disk copy so a throttled or unchanged source never costs a
// full download.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/snapetech/iptvcatalog/internal/httpclient"
)

// minFetchInterval is how often the remote source may actually be hit; in
// between, the cached copy is served.
const minFetchInterval = 30 * time.Second

// condState is the validator pair from the last 200 response per location.
type condState struct {
	etag         string
	lastModified string
}

// Fetcher downloads playlist text with conditional-GET revalidation and a
// brotli-compressed disk cache. It satisfies playlist.ContentFetcher.
type Fetcher struct {
	client   *http.Client
	cacheDir string
	limiter  *rate.Limiter

	mu   sync.Mutex
	cond map[string]condState
}

// NewFetcher returns a fetcher caching under cacheDir.
func NewFetcher(cacheDir string) *Fetcher {
	return &Fetcher{
		client:   httpclient.Default(),
		cacheDir: cacheDir,
		limiter:  rate.NewLimiter(rate.Every(minFetchInterval), 1),
		cond:     make(map[string]condState),
	}
}

// Contents returns the playlist text for location. A local path is read
// directly. For a URL, useCache serves the disk cache without touching the
// network; otherwise the source is revalidated, with the cache as fallback
// when the fetch is rate-limited or the content is unchanged.
func (f *Fetcher) Contents(cacheKey, location string, useCache bool) (string, error) {
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		data, err := os.ReadFile(location)
		if err != nil {
			return "", fmt.Errorf("read playlist file: %w", err)
		}
		return string(data), nil
	}

	if useCache {
		if content, err := f.readCache(cacheKey); err == nil && content != "" {
			return content, nil
		}
	}

	if !f.limiter.Allow() {
		if content, err := f.readCache(cacheKey); err == nil && content != "" {
			log.Printf("fetch: rate limited, serving cached copy of %s", location)
			return content, nil
		}
		// Nothing cached yet, the throttle yields to the first load.
	}

	content, notModified, err := f.download(location)
	if err != nil {
		return "", err
	}
	if notModified {
		if cached, err := f.readCache(cacheKey); err == nil && cached != "" {
			return cached, nil
		}
		// Cache lost under us; drop the validators and refetch.
		f.forgetValidators(location)
		content, _, err = f.download(location)
		if err != nil {
			return "", err
		}
	}

	if err := f.writeCache(cacheKey, content); err != nil {
		log.Printf("fetch: cannot cache %s: %v", location, err)
	}
	return content, nil
}

// download performs one conditional GET. notModified is true on a 304.
func (f *Fetcher) download(location string) (content string, notModified bool, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), httpclient.DefaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return "", false, err
	}

	f.mu.Lock()
	state := f.cond[location]
	f.mu.Unlock()
	if state.etag != "" {
		req.Header.Set("If-None-Match", state.etag)
	}
	if state.lastModified != "" {
		req.Header.Set("If-Modified-Since", state.lastModified)
	}

	resp, err := httpclient.DoWithRetry(ctx, f.client, req, httpclient.DefaultRetryPolicy)
	if err != nil {
		return "", false, fmt.Errorf("fetch %s: %w", location, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", true, nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("fetch %s: HTTP %d", location, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false, fmt.Errorf("fetch %s: read body: %w", location, err)
	}

	f.mu.Lock()
	f.cond[location] = condState{
		etag:         resp.Header.Get("ETag"),
		lastModified: resp.Header.Get("Last-Modified"),
	}
	f.mu.Unlock()

	return string(data), false, nil
}

func (f *Fetcher) forgetValidators(location string) {
	f.mu.Lock()
	delete(f.cond, location)
	f.mu.Unlock()
}
