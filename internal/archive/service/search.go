package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/open-science-archive/osa-go/internal/archive/domain"
	"github.com/open-science-archive/osa-go/internal/archive/store"
)

// Search index names. The production archive registers vector-backed
// indexes dynamically; the mock serves these two over plain LIKE queries.
const (
	IndexRecords     = "records"
	IndexConventions = "conventions"
)

type SearchService struct {
	Store store.Store
}

// Indexes lists the queryable index names.
func (s *SearchService) Indexes() []string {
	return []string{IndexRecords, IndexConventions}
}

// Query runs a substring search against one index. Total counts the hits on
// the returned page; HasMore reports whether the index holds results beyond
// offset+limit. An empty query matches everything.
func (s *SearchService) Query(
	ctx context.Context,
	index, q string,
	offset, limit int,
) (domain.SearchPage, error) {
	var (
		hits  []domain.SearchHit
		total int
		err   error
	)

	switch index {
	case IndexRecords:
		var records []domain.Record
		records, total, err = s.Store.Records().SearchRecords(ctx, q, offset, limit)
		if err == nil {
			hits = make([]domain.SearchHit, len(records))
			for i, rec := range records {
				hits[i] = domain.SearchHit{SRN: rec.SRN, Score: 1.0, Metadata: rec.Metadata}
			}
		}
	case IndexConventions:
		var conventions []domain.Convention
		conventions, total, err = s.Store.Conventions().SearchConventions(ctx, q, offset, limit)
		if err == nil {
			hits = make([]domain.SearchHit, len(conventions))
			for i, conv := range conventions {
				hits[i] = domain.SearchHit{
					SRN:   conv.SRN,
					Score: 1.0,
					Metadata: map[string]any{
						"title":       conv.Title,
						"description": conv.Description,
					},
				}
			}
		}
	default:
		return domain.SearchPage{}, domain.NotFoundError("not_found",
			fmt.Sprintf("Index '%s' not found. Available: %s", index, strings.Join(s.Indexes(), ", ")))
	}
	if err != nil {
		return domain.SearchPage{}, domain.InfrastructureError("search_unavailable",
			fmt.Sprintf("search backend unavailable: %v", err))
	}

	return domain.SearchPage{
		Query:   q,
		Index:   index,
		Total:   len(hits),
		HasMore: total > offset+len(hits),
		Results: hits,
	}, nil
}
