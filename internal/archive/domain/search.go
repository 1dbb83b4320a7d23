package domain

import "github.com/open-science-archive/osa-go/pkg/srn"

// SearchHit is one result from an index query. The mock's LIKE-backed
// indexes have no ranking, so every hit scores 1.0.
type SearchHit struct {
	SRN      srn.SRN
	Score    float64
	Metadata map[string]any
}

// SearchPage is one page of results. Total counts the hits on this page;
// HasMore signals results beyond offset+limit.
type SearchPage struct {
	Query   string
	Index   string
	Total   int
	HasMore bool
	Results []SearchHit
}
