package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/open-science-archive/osa-go/internal/archive/domain"
	"github.com/open-science-archive/osa-go/internal/archive/service"
	"github.com/open-science-archive/osa-go/pkg/httpx"
	"github.com/open-science-archive/osa-go/pkg/osasdk"
	"github.com/open-science-archive/osa-go/pkg/slogx"
)

// Search pagination bounds.
const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// SearchHandler serves the public /search routes.
type SearchHandler struct {
	SearchService *service.SearchService
}

// HandleQuery runs a query against one index.
func (h *SearchHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	if !q.Has("q") {
		httpx.WriteFieldError(w, http.StatusUnprocessableEntity, "missing_query",
			"q is a required query parameter", "q")
		return
	}

	offset, err := queryInt(q.Get("offset"), 0)
	if err != nil || offset < 0 {
		httpx.WriteFieldError(w, http.StatusUnprocessableEntity, "invalid_request",
			"offset must be a non-negative integer", "offset")
		return
	}
	limit, err := queryInt(q.Get("limit"), defaultSearchLimit)
	if err != nil || limit < 1 || limit > maxSearchLimit {
		httpx.WriteFieldError(w, http.StatusUnprocessableEntity, "invalid_request",
			"limit must be an integer between 1 and 100", "limit")
		return
	}

	page, err := h.SearchService.Query(ctx, r.PathValue("index"), q.Get("q"), offset, limit)
	if err != nil {
		writeSearchError(w, r, err)
		return
	}

	results := make([]osasdk.SearchHit, 0, len(page.Results))
	for _, hit := range page.Results {
		results = append(results, osasdk.SearchHit{
			SRN:      hit.SRN.String(),
			Score:    hit.Score,
			Metadata: hit.Metadata,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, osasdk.SearchResponse{
		Query:   page.Query,
		Index:   page.Index,
		Total:   page.Total,
		HasMore: page.HasMore,
		Results: results,
	})
}

// HandleIndexes lists the node's search indexes.
func (h *SearchHandler) HandleIndexes(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, osasdk.IndexListResponse{
		Indexes: h.SearchService.Indexes(),
	})
}

// writeSearchError reports search failures as bare string details, the way
// the search endpoints answer.
func writeSearchError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		writeBareDetail(w, statusForKind(de.Kind), de.Message)
		return
	}
	slogx.FromContext(r.Context()).Error("search failed", "err", err)
	writeBareDetail(w, http.StatusInternalServerError, "internal server error")
}

func queryInt(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
