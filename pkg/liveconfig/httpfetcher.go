package liveconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultFetchTimeout = 10 * time.Second

// HTTPFetcher retrieves configuration from the platform's public config
// endpoints. It implements Fetcher.
type HTTPFetcher struct {
	baseURL    string
	httpClient *http.Client
}

var _ Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher creates a fetcher against baseURL (scheme and host, no
// trailing slash). Pass a nil client to use a default with a sane timeout.
func NewHTTPFetcher(baseURL string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultFetchTimeout}
	}
	return &HTTPFetcher{baseURL: baseURL, httpClient: client}
}

type liveEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		Values  map[string]string `json:"values"`
		Version int64             `json:"version"`
	} `json:"data"`
}

type fullEnvelope struct {
	Success bool              `json:"success"`
	Data    map[string]string `json:"data"`
}

// FetchLive returns the hot-key subset from /api/configuration.
func (f *HTTPFetcher) FetchLive(ctx context.Context) (map[string]string, error) {
	var env liveEnvelope
	if err := f.getJSON(ctx, "/api/configuration", &env); err != nil {
		return nil, err
	}
	return env.Data.Values, nil
}

// FetchFull returns the complete configuration set from /api/config/public.
func (f *HTTPFetcher) FetchFull(ctx context.Context) (map[string]string, error) {
	var env fullEnvelope
	if err := f.getJSON(ctx, "/api/config/public", &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (f *HTTPFetcher) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("liveconfig: build request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("liveconfig: fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("liveconfig: fetch %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("liveconfig: decode %s: %w", path, err)
	}
	return nil
}
