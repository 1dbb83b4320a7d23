package http

import (
	"errors"
	"net/http"

	"github.com/open-science-archive/osa-go/internal/archive/domain"
	"github.com/open-science-archive/osa-go/pkg/httpx"
	"github.com/open-science-archive/osa-go/pkg/slogx"
)

// writeDomainError translates a service error into the archive's detail
// envelope. Anything that is not a *domain.Error is an unexpected failure and
// reported as a plain 500 after logging the cause.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	status := statusForKind(de.Kind)
	if de.Field != "" {
		httpx.WriteFieldError(w, status, de.Code, de.Message, de.Field)
		return
	}
	httpx.WriteError(w, status, de.Code, de.Message)
}

func statusForKind(k domain.Kind) int {
	switch k {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindValidation:
		return http.StatusUnprocessableEntity
	case domain.KindInvalidState:
		return http.StatusConflict
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindAuthorization:
		return http.StatusForbidden
	case domain.KindInfrastructure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeBareDetail emits {"detail": "<message>"} with no code. The records and
// search endpoints answer this way; everything else uses the structured
// envelope.
func writeBareDetail(w http.ResponseWriter, status int, message string) {
	httpx.WriteJSON(w, status, map[string]string{"detail": message})
}
