package osasdk

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// SearchService queries the archive's published-record indexes.
type SearchService struct {
	p *pipeline
}

// SearchOptions controls result pagination. Zero values defer to the
// server's defaults (offset 0, limit 20).
type SearchOptions struct {
	Offset int
	Limit  int
}

// Query runs a full-text query against the named index.
func (s *SearchService) Query(ctx context.Context, index, query string, opts SearchOptions) (*SearchResponse, error) {
	q := url.Values{}
	q.Set("q", query)
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}

	var out SearchResponse
	path := "/search/" + url.PathEscape(index) + "?" + q.Encode()
	if err := s.p.doJSON(ctx, http.MethodGet, path, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Indexes lists the search indexes this archive node exposes.
func (s *SearchService) Indexes(ctx context.Context) ([]string, error) {
	var out IndexListResponse
	if err := s.p.doJSON(ctx, http.MethodGet, "/search", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Indexes, nil
}
