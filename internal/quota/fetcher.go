package quota

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/IvanLi-CN/codex-vibe-monitor/internal/config"
)

var (
	// ErrTransport marks DNS, TCP, TLS and timeout failures.
	ErrTransport = errors.New("quota request failed")
	// ErrDecode marks a 2xx response whose body is not the expected JSON.
	ErrDecode = errors.New("decode quota response")
)

// StatusError is returned when the upstream answers with a non-2xx status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("quota endpoint returned status %d", e.Code)
}

// NewHTTPClient builds the shared client with a total-request timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

type Fetcher struct {
	cfg    *config.Config
	client *http.Client
}

func NewFetcher(cfg *config.Config, client *http.Client) *Fetcher {
	return &Fetcher{cfg: cfg, client: client}
}

// Fetch issues one authenticated GET and returns the records in upstream
// order. There is no retry and no deduplication here; duplicates are the
// store's concern.
func (f *Fetcher) Fetch(ctx context.Context) ([]Record, error) {
	u, err := f.cfg.QuotaURL()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build quota request: %w", err)
	}
	req.Header.Set("Cookie", f.cfg.CookieName+"="+f.cfg.CookieValue)
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Code: resp.StatusCode}
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if payload.Data == nil || payload.Data.Codex == nil {
		return nil, nil
	}
	return payload.Data.Codex.RecentRecords, nil
}
