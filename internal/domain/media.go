package domain

import (
	"context"
	"errors"
)

// ErrNoResults is returned by a Resolver when the search provider finds
// nothing for the query. It is an expected outcome, not a failure.
var ErrNoResults = errors.New("no search results")

// Candidate is the single best-matching media item for a query.
type Candidate struct {
	VideoID string
	Title   string
	URL     string
}

// Resolver turns a free-text query into a playable Candidate.
type Resolver interface {
	Resolve(ctx context.Context, query string) (*Candidate, error)
}

// Fetcher downloads sourceURL and writes the extracted audio track to
// destPath. A failed fetch must not leave a partial file behind.
type Fetcher interface {
	Fetch(ctx context.Context, sourceURL, destPath string) error
}
