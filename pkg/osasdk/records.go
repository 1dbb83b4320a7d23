package osasdk

import (
	"context"
	"net/http"
	"net/url"
)

// RecordService reads published records. Records are immutable snapshots
// minted from validated depositions; reading them needs no session.
type RecordService struct {
	p *pipeline
}

// Get fetches a published record by SRN. An unversioned SRN resolves to the
// latest version.
func (r *RecordService) Get(ctx context.Context, srn string) (*Record, error) {
	var out RecordResponse
	path := "/records/" + url.PathEscape(srn)
	if err := r.p.doJSON(ctx, http.MethodGet, path, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.Record, nil
}
