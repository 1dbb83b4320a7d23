package http

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"regexp"

	"github.com/open-science-archive/osa-go/internal/archive/domain"
	"github.com/open-science-archive/osa-go/internal/archive/service"
	"github.com/open-science-archive/osa-go/pkg/httpx"
	"github.com/open-science-archive/osa-go/pkg/osasdk"
	"github.com/open-science-archive/osa-go/pkg/slogx"
	"github.com/open-science-archive/osa-go/pkg/srn"
)

// maxUploadBytes caps multipart bodies before convention limits apply.
const maxUploadBytes = 256 << 20

// DepositionsHandler serves the /depositions routes: draft lifecycle, data
// files, and the metadata spreadsheet round trip.
type DepositionsHandler struct {
	DepositionService  *service.DepositionService
	SpreadsheetService *service.SpreadsheetService
}

// HandleCreate opens a new draft under a convention and returns its SRN.
func (h *DepositionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req osasdk.CreateDepositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusUnprocessableEntity, "invalid_request", "invalid request body")
		return
	}

	conventionSRN, err := srn.ParseType(req.ConventionSRN, srn.TypeConvention)
	if err != nil {
		httpx.WriteFieldError(w, http.StatusUnprocessableEntity, "invalid_srn",
			err.Error(), "convention_srn")
		return
	}

	userID, _ := httpx.UserIDFromContext(ctx)
	dep, err := h.DepositionService.Create(ctx, conventionSRN, userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	log.Info("deposition created", "srn", dep.SRN.String(), "owner_id", userID)
	httpx.WriteJSON(w, http.StatusCreated, osasdk.DepositionCreatedResponse{SRN: dep.SRN.String()})
}

// HandleList returns the caller's depositions; curators see every one.
func (h *DepositionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller := domain.Caller{Roles: httpx.RolesFromContext(ctx)}
	caller.UserID, _ = httpx.UserIDFromContext(ctx)

	deps, total, err := h.DepositionService.List(ctx, caller)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	items := make([]osasdk.DepositionSummary, 0, len(deps))
	for _, d := range deps {
		items = append(items, osasdk.DepositionSummary{
			SRN:           d.SRN.String(),
			ConventionSRN: d.ConventionSRN.String(),
			Status:        string(d.Status),
			FileCount:     len(d.Files),
			CreatedAt:     d.CreatedAt,
			UpdatedAt:     d.UpdatedAt,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, osasdk.DepositionList{Items: items, Total: total})
}

// HandleGet returns one deposition with metadata and file listing.
func (h *DepositionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	dep, err := h.DepositionService.Get(r.Context(), r.PathValue("srn"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, depositionDetail(dep))
}

// HandleUpdateMetadata replaces the draft's metadata document wholesale.
func (h *DepositionsHandler) HandleUpdateMetadata(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var metadata map[string]any
	if err := json.NewDecoder(r.Body).Decode(&metadata); err != nil {
		httpx.WriteError(w, http.StatusUnprocessableEntity, "invalid_request", "invalid request body")
		return
	}

	if _, err := h.DepositionService.UpdateMetadata(ctx, r.PathValue("srn"), metadata); err != nil {
		writeDomainError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, struct{}{})
}

// HandleTemplate serves the convention's metadata template as a file
// download.
func (h *DepositionsHandler) HandleTemplate(w http.ResponseWriter, r *http.Request) {
	content, filename, err := h.SpreadsheetService.Template(r.Context(), r.PathValue("srn"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeFileDownload(w, content, filename, "text/csv")
}

// HandleUploadSpreadsheet parses a filled-in template. A result carrying
// errors means the metadata was not applied; the response is still 200 so
// the client can render the per-field problems.
func (h *DepositionsHandler) HandleUploadSpreadsheet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	_, content, err := readMultipartFile(r)
	if err != nil {
		httpx.WriteError(w, http.StatusUnprocessableEntity, "invalid_request", err.Error())
		return
	}

	result, err := h.SpreadsheetService.Parse(ctx, r.PathValue("srn"), content)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, osasdk.SpreadsheetUploadedResponse{
		ParseResult: parseResultWire(result),
	})
}

// HandleUploadFile stores one data file on the draft.
func (h *DepositionsHandler) HandleUploadFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	filename, content, err := readMultipartFile(r)
	if err != nil {
		httpx.WriteError(w, http.StatusUnprocessableEntity, "invalid_request", err.Error())
		return
	}

	srnStr := r.PathValue("srn")
	f, err := h.DepositionService.UploadFile(ctx, srnStr, filename, content)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	log.Info("file uploaded", "srn", srnStr, "filename", f.Name, "size", f.Size)
	httpx.WriteJSON(w, http.StatusOK, osasdk.FileUploadedResponse{File: fileWire(f)})
}

// HandleDownloadFile streams a stored data file back.
func (h *DepositionsHandler) HandleDownloadFile(w http.ResponseWriter, r *http.Request) {
	content, meta, err := h.DepositionService.DownloadFile(r.Context(),
		r.PathValue("srn"), r.PathValue("filename"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeFileDownload(w, content, meta.Name, meta.ContentType)
}

// HandleDeleteFile removes a data file from the draft.
func (h *DepositionsHandler) HandleDeleteFile(w http.ResponseWriter, r *http.Request) {
	err := h.DepositionService.DeleteFile(r.Context(), r.PathValue("srn"), r.PathValue("filename"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, struct{}{})
}

// HandleSubmit moves the draft into validation.
func (h *DepositionsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	srnStr := r.PathValue("srn")
	dep, err := h.DepositionService.Submit(ctx, srnStr)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	log.Info("deposition submitted", "srn", srnStr, "status", string(dep.Status))
	httpx.WriteJSON(w, http.StatusOK, struct{}{})
}

func depositionDetail(d domain.Deposition) osasdk.DepositionDetail {
	files := make([]osasdk.DepositionFile, 0, len(d.Files))
	for _, f := range d.Files {
		files = append(files, fileWire(f))
	}

	detail := osasdk.DepositionDetail{
		SRN:           d.SRN.String(),
		ConventionSRN: d.ConventionSRN.String(),
		Status:        string(d.Status),
		Metadata:      d.Metadata,
		Files:         files,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	if !d.RecordSRN.IsZero() {
		detail.RecordSRN = d.RecordSRN.String()
	}
	return detail
}

func fileWire(f domain.DepositionFile) osasdk.DepositionFile {
	return osasdk.DepositionFile{
		Name:        f.Name,
		Size:        f.Size,
		Checksum:    f.Checksum,
		ContentType: f.ContentType,
		UploadedAt:  f.UploadedAt,
	}
}

func parseResultWire(res domain.SpreadsheetParseResult) osasdk.SpreadsheetParseResult {
	out := osasdk.SpreadsheetParseResult{
		Metadata: res.Metadata,
		Warnings: res.Warnings,
		Errors:   make([]osasdk.SpreadsheetError, 0, len(res.Errors)),
	}
	for _, e := range res.Errors {
		out.Errors = append(out.Errors, osasdk.SpreadsheetError{Field: e.Field, Message: e.Message})
	}
	return out
}

// readMultipartFile extracts the single "file" part of a multipart upload.
func readMultipartFile(r *http.Request) (string, []byte, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return "", nil, err
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, err
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", nil, err
	}
	return header.Filename, content, nil
}

var dispositionUnsafe = regexp.MustCompile(`[\r\n"]`)

// writeFileDownload sends content as an attachment. Quotes and line breaks
// in the filename are replaced so the Content-Disposition header cannot be
// split.
func writeFileDownload(w http.ResponseWriter, content []byte, filename, contentType string) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	safe := dispositionUnsafe.ReplaceAllString(filename, "_")
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment",
		map[string]string{"filename": safe}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}
