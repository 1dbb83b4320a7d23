package osasdk

import (
	"context"
	"net/http"
	"net/url"
)

// ConventionService reads and publishes dataset conventions. Reading is
// public; creating a convention requires the admin role.
type ConventionService struct {
	p *pipeline
}

// Create registers a new convention and returns its summary, SRN included.
func (c *ConventionService) Create(ctx context.Context, req CreateConventionRequest) (*ConventionSummary, error) {
	var out ConventionSummary
	if err := c.p.doJSON(ctx, http.MethodPost, "/conventions", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get fetches one convention with its file requirements and hooks.
func (c *ConventionService) Get(ctx context.Context, srn string) (*ConventionDetail, error) {
	var out ConventionDetail
	path := "/conventions/" + url.PathEscape(srn)
	if err := c.p.doJSON(ctx, http.MethodGet, path, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns every convention registered on the node.
func (c *ConventionService) List(ctx context.Context) ([]ConventionSummary, error) {
	var out ConventionListResponse
	if err := c.p.doJSON(ctx, http.MethodGet, "/conventions", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Items, nil
}
