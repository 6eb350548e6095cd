package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/user/agentdeck/internal/types"
)

// HTTPSource fetches a snapshot from a remote dashboard endpoint that serves
// the same JSON shape as GET /api/metrics.
type HTTPSource struct {
	URL    string
	Client *http.Client
	Retry  *RetryPolicy
}

func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
		Retry:  DefaultRetryPolicy(),
	}
}

func (s *HTTPSource) FetchMetrics(ctx context.Context) (*types.MetricsSnapshot, error) {
	var snap types.MetricsSnapshot
	err := s.Retry.Execute(ctx, func() error {
		return s.fetch(ctx, &snap)
	})
	if err != nil {
		return nil, fmt.Errorf("fetching metrics from %s: %w", s.URL, err)
	}
	return &snap, nil
}

func (s *HTTPSource) fetch(ctx context.Context, out *types.MetricsSnapshot) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return fmt.Errorf("invalid metrics request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid metrics body: %w", err)
	}
	return nil
}
