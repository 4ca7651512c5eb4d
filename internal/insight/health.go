// ABOUTME: Reachability check for the insight proxy's health endpoint.
// ABOUTME: Used by the setup wizard before saving an endpoint.
package insight

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HealthTimeout bounds a single health check.
const HealthTimeout = 5 * time.Second

// CheckHealth reports whether the proxy at baseURL answers its health
// endpoint with a 2xx status.
func CheckHealth(ctx context.Context, baseURL string) error {
	ctx, cancel := context.WithTimeout(ctx, HealthTimeout)
	defer cancel()

	url := strings.TrimRight(baseURL, "/") + HealthPath
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("invalid endpoint URL: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("cannot reach %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("health check returned %d", resp.StatusCode)
	}
	return nil
}
