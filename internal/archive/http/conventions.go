package http

import (
	"encoding/json"
	"net/http"

	"github.com/open-science-archive/osa-go/internal/archive/domain"
	"github.com/open-science-archive/osa-go/internal/archive/service"
	"github.com/open-science-archive/osa-go/pkg/httpx"
	"github.com/open-science-archive/osa-go/pkg/osasdk"
	"github.com/open-science-archive/osa-go/pkg/slogx"
	"github.com/open-science-archive/osa-go/pkg/srn"
)

// ConventionsHandler serves the /conventions routes. Reading is public;
// creating requires the admin role, enforced at the router.
type ConventionsHandler struct {
	ConventionService *service.ConventionService
}

// HandleCreate registers a new convention.
func (h *ConventionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req osasdk.CreateConventionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusUnprocessableEntity, "invalid_request", "invalid request body")
		return
	}

	schemaSRN, err := srn.ParseType(req.SchemaSRN, srn.TypeSchema)
	if err != nil {
		httpx.WriteFieldError(w, http.StatusUnprocessableEntity, "invalid_srn",
			err.Error(), "schema_srn")
		return
	}

	hooks := make([]domain.HookDefinition, 0, len(req.Hooks))
	for _, hk := range req.Hooks {
		hooks = append(hooks, domain.HookDefinition{
			Image:  hk.Image,
			Digest: hk.Digest,
			Runner: hk.Runner,
			Config: hk.Config,
		})
	}

	conv, err := h.ConventionService.Create(ctx, service.CreateConventionParams{
		Title:     req.Title,
		Version:   req.Version,
		SchemaSRN: schemaSRN,
		FileRequirements: domain.FileRequirements{
			AcceptedTypes: req.FileRequirements.AcceptedTypes,
			MaxFileSize:   req.FileRequirements.MaxFileSize,
			MinCount:      req.FileRequirements.MinCount,
			MaxCount:      req.FileRequirements.MaxCount,
		},
		Description: req.Description,
		Hooks:       hooks,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	log.Info("convention created", "srn", conv.SRN.String(), "title", conv.Title)
	httpx.WriteJSON(w, http.StatusCreated, conventionSummary(conv))
}

// HandleGet returns one convention with its file requirements and hooks.
func (h *ConventionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	conv, err := h.ConventionService.Get(r.Context(), r.PathValue("srn"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	hooks := make([]osasdk.HookDefinition, 0, len(conv.Hooks))
	for _, hk := range conv.Hooks {
		hooks = append(hooks, osasdk.HookDefinition{
			Image:  hk.Image,
			Digest: hk.Digest,
			Runner: hk.Runner,
			Config: hk.Config,
		})
	}

	httpx.WriteJSON(w, http.StatusOK, osasdk.ConventionDetail{
		SRN:         conv.SRN.String(),
		Title:       conv.Title,
		Description: conv.Description,
		SchemaSRN:   conv.SchemaSRN.String(),
		FileRequirements: osasdk.FileRequirements{
			AcceptedTypes: conv.FileRequirements.AcceptedTypes,
			MaxFileSize:   conv.FileRequirements.MaxFileSize,
			MinCount:      conv.FileRequirements.MinCount,
			MaxCount:      conv.FileRequirements.MaxCount,
		},
		Hooks:     hooks,
		CreatedAt: conv.CreatedAt,
	})
}

// HandleList returns every registered convention.
func (h *ConventionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	conventions, err := h.ConventionService.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	items := make([]osasdk.ConventionSummary, 0, len(conventions))
	for _, conv := range conventions {
		items = append(items, conventionSummary(conv))
	}
	httpx.WriteJSON(w, http.StatusOK, osasdk.ConventionListResponse{Items: items})
}

func conventionSummary(c domain.Convention) osasdk.ConventionSummary {
	return osasdk.ConventionSummary{
		SRN:         c.SRN.String(),
		Title:       c.Title,
		Description: c.Description,
		SchemaSRN:   c.SchemaSRN.String(),
		CreatedAt:   c.CreatedAt,
	}
}
