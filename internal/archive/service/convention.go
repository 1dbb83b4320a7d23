package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/open-science-archive/osa-go/internal/archive/domain"
	"github.com/open-science-archive/osa-go/internal/archive/store"
	"github.com/open-science-archive/osa-go/pkg/idx"
	"github.com/open-science-archive/osa-go/pkg/srn"
)

// CreateConventionParams carries the admin's convention registration.
type CreateConventionParams struct {
	Title            string
	Version          string
	SchemaSRN        srn.SRN
	FileRequirements domain.FileRequirements
	Description      string
	Hooks            []domain.HookDefinition
}

// ConventionService registers and serves conventions. Conventions are
// immutable once created; a revision is a new SRN at a new version.
type ConventionService struct {
	Store  store.Store
	NodeID string
}

// Create registers a new convention at the requested semver version.
func (s *ConventionService) Create(
	ctx context.Context,
	params CreateConventionParams,
) (domain.Convention, error) {
	if params.Title == "" {
		return domain.Convention{}, domain.FieldValidationError("missing_title",
			"title must not be empty", "title")
	}
	if params.Version == "" {
		return domain.Convention{}, domain.FieldValidationError("invalid_version",
			"version is required", "version")
	}

	conv := domain.Convention{
		SRN:              srn.New(s.NodeID, srn.TypeConvention, idx.New().Lower()).WithVersion(params.Version),
		Title:            params.Title,
		Description:      params.Description,
		SchemaSRN:        params.SchemaSRN,
		FileRequirements: params.FileRequirements,
		Hooks:            params.Hooks,
		CreatedAt:        time.Now().UTC(),
	}
	if err := conv.SRN.Validate(); err != nil {
		return domain.Convention{}, domain.FieldValidationError("invalid_version",
			fmt.Sprintf("version must be semver, got %q", params.Version), "version")
	}

	if err := s.Store.Conventions().CreateConvention(ctx, conv); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Convention{}, domain.ConflictError("conflict",
				fmt.Sprintf("convention already exists: %s", conv.SRN))
		}
		return domain.Convention{}, err
	}
	return conv, nil
}

// Get fetches one convention by SRN.
func (s *ConventionService) Get(ctx context.Context, srnStr string) (domain.Convention, error) {
	conv, err := s.Store.Conventions().GetConvention(ctx, srnStr)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Convention{}, domain.NotFoundError("not_found",
				fmt.Sprintf("convention not found: %s", srnStr))
		}
		return domain.Convention{}, err
	}
	return conv, nil
}

// List returns every registered convention, newest first.
func (s *ConventionService) List(ctx context.Context) ([]domain.Convention, error) {
	return s.Store.Conventions().ListConventions(ctx)
}
