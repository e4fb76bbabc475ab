// Package health verifies that the playlist source and the service's own
// endpoints respond.
package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/snapetech/iptvcatalog/internal/httpclient"
)

// CheckSource verifies the playlist location is reachable. A local path must
// exist and be non-empty; a URL must answer 200. Returns nil when OK.
func CheckSource(ctx context.Context, location string) error {
	if location == "" {
		return fmt.Errorf("no playlist location configured")
	}

	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		info, err := os.Stat(location)
		if err != nil {
			return fmt.Errorf("playlist file: %w", err)
		}
		if info.Size() == 0 {
			return fmt.Errorf("playlist file %s is empty", location)
		}
		return nil
	}

	// Some providers don't support HEAD; use GET and close body immediately.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return err
	}
	resp, err := httpclient.WithTimeout(15 * time.Second).Do(req)
	if err != nil {
		return fmt.Errorf("playlist source unreachable: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("playlist source returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// CheckService hits the running service's own endpoints at baseURL and
// returns the first error or nil.
func CheckService(ctx context.Context, baseURL string) error {
	client := httpclient.WithTimeout(5 * time.Second)
	for _, path := range []string{"/healthz", "/metrics"} {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+path, nil)
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%s: HTTP %d", path, resp.StatusCode)
		}
	}
	return nil
}
