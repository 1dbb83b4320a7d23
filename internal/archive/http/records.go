package http

import (
	"errors"
	"net/http"

	"github.com/open-science-archive/osa-go/internal/archive/service"
	"github.com/open-science-archive/osa-go/internal/archive/store"
	"github.com/open-science-archive/osa-go/pkg/httpx"
	"github.com/open-science-archive/osa-go/pkg/osasdk"
	"github.com/open-science-archive/osa-go/pkg/slogx"
	"github.com/open-science-archive/osa-go/pkg/srn"
)

// RecordsHandler serves GET /records/{srn}. Records are public; errors use a
// bare string detail rather than the structured envelope.
type RecordsHandler struct {
	RecordService *service.RecordService
}

func (h *RecordsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	parsed, err := srn.ParseType(r.PathValue("srn"), srn.TypeRecord)
	if err != nil {
		writeBareDetail(w, http.StatusBadRequest, "Invalid SRN: "+err.Error())
		return
	}

	rec, err := h.RecordService.GetRecord(ctx, parsed.String())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeBareDetail(w, http.StatusNotFound, "Record not found")
			return
		}
		slogx.FromContext(ctx).Error("record lookup failed", "srn", parsed.String(), "err", err)
		writeBareDetail(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, osasdk.RecordResponse{
		Record: osasdk.Record{
			SRN:           rec.SRN.String(),
			DepositionSRN: rec.DepositionSRN.String(),
			Metadata:      rec.Metadata,
			PublishedAt:   rec.PublishedAt,
		},
	})
}
