package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"tunebot/internal/domain"
)

const watchURLPrefix = "https://www.youtube.com/watch?v="

// Client resolves free-text queries against the YouTube Data API v3
// search endpoint. It asks the provider for exactly one video-type result
// and takes it verbatim — no secondary ranking.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	logger   *slog.Logger
}

type ClientConfig struct {
	Endpoint       string
	APIKey         string
	TimeoutSeconds int
	Logger         *slog.Logger
}

func NewClient(cfg ClientConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: timeout},
		logger:   cfg.Logger,
	}
}

// searchResponse is the subset of the API response we care about.
type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
	} `json:"items"`
}

// Resolve returns the best-matching candidate for the query, or
// domain.ErrNoResults when the provider returns an empty item list.
// A single attempt is made; transport and protocol failures surface
// immediately with the underlying cause preserved.
func (c *Client) Resolve(ctx context.Context, query string) (*domain.Candidate, error) {
	if query == "" {
		return nil, fmt.Errorf("empty search query")
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("maxResults", "1")
	params.Set("type", "video")
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search returned HTTP %d: %s", resp.StatusCode, string(body))
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}

	if len(sr.Items) == 0 {
		return nil, domain.ErrNoResults
	}

	item := sr.Items[0]
	c.logger.Debug("search resolved",
		"query", query,
		"video_id", item.ID.VideoID,
		"title", item.Snippet.Title,
	)

	return &domain.Candidate{
		VideoID: item.ID.VideoID,
		Title:   item.Snippet.Title,
		URL:     watchURLPrefix + item.ID.VideoID,
	}, nil
}
