package osasdk

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
)

// DepositionService manages draft datasets: creation, metadata, data files,
// and submission for validation. All operations require an authenticated
// session; drafts are only visible to their owner (and to curators).
type DepositionService struct {
	p *pipeline
}

// Create opens a new draft deposition under the given convention and returns
// its SRN.
func (d *DepositionService) Create(ctx context.Context, conventionSRN string) (string, error) {
	var out DepositionCreatedResponse
	err := d.p.doJSON(ctx, http.MethodPost, "/depositions",
		CreateDepositionRequest{ConventionSRN: conventionSRN}, &out, http.StatusCreated)
	if err != nil {
		return "", err
	}
	return out.SRN, nil
}

// List returns the caller's depositions. Curators see every deposition on
// the node.
func (d *DepositionService) List(ctx context.Context) (*DepositionList, error) {
	var out DepositionList
	if err := d.p.doJSON(ctx, http.MethodGet, "/depositions", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get fetches one deposition with its metadata and file listing.
func (d *DepositionService) Get(ctx context.Context, srn string) (*DepositionDetail, error) {
	var out DepositionDetail
	path := "/depositions/" + url.PathEscape(srn)
	if err := d.p.doJSON(ctx, http.MethodGet, path, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateMetadata replaces the draft's metadata document. The deposition must
// still be in draft.
func (d *DepositionService) UpdateMetadata(ctx context.Context, srn string, metadata map[string]any) error {
	path := "/depositions/" + url.PathEscape(srn) + "/metadata"
	return d.p.doJSON(ctx, http.MethodPatch, path, metadata, nil, http.StatusOK)
}

// DownloadTemplate fetches the metadata spreadsheet template for the
// deposition's convention. Returns the raw file bytes and the server's
// suggested filename.
func (d *DepositionService) DownloadTemplate(ctx context.Context, srn string) ([]byte, string, error) {
	path := "/depositions/" + url.PathEscape(srn) + "/template"
	resp, err := d.p.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, "", err
	}
	return readBinary(resp, http.StatusOK)
}

// UploadSpreadsheet submits a filled-in template. The server parses it into
// metadata and reports per-field problems; a result with a non-empty Errors
// list means the metadata was NOT applied.
func (d *DepositionService) UploadSpreadsheet(ctx context.Context, srn, filename string, content []byte) (*SpreadsheetParseResult, error) {
	body, contentType, err := encodeMultipartFile(filename, content)
	if err != nil {
		return nil, err
	}

	path := "/depositions/" + url.PathEscape(srn) + "/spreadsheet"
	resp, err := d.p.do(ctx, http.MethodPost, path, body, map[string]string{
		"Content-Type": contentType,
		"Accept":       "application/json",
	})
	if err != nil {
		return nil, err
	}

	var out SpreadsheetUploadedResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.ParseResult, nil
}

// UploadFile adds a data file to the draft. The server enforces the
// convention's file requirements (extension, size, count) and returns the
// stored file's descriptor, checksum included.
func (d *DepositionService) UploadFile(ctx context.Context, srn, filename string, content []byte) (*DepositionFile, error) {
	body, contentType, err := encodeMultipartFile(filename, content)
	if err != nil {
		return nil, err
	}

	path := "/depositions/" + url.PathEscape(srn) + "/files"
	resp, err := d.p.do(ctx, http.MethodPost, path, body, map[string]string{
		"Content-Type": contentType,
		"Accept":       "application/json",
	})
	if err != nil {
		return nil, err
	}

	var out FileUploadedResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.File, nil
}

// DownloadFile fetches a previously uploaded data file.
func (d *DepositionService) DownloadFile(ctx context.Context, srn, filename string) ([]byte, error) {
	path := "/depositions/" + url.PathEscape(srn) + "/files/" + url.PathEscape(filename)
	resp, err := d.p.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	content, _, err := readBinary(resp, http.StatusOK)
	return content, err
}

// DeleteFile removes a data file from the draft.
func (d *DepositionService) DeleteFile(ctx context.Context, srn, filename string) error {
	path := "/depositions/" + url.PathEscape(srn) + "/files/" + url.PathEscape(filename)
	return d.p.doJSON(ctx, http.MethodDelete, path, nil, nil, http.StatusOK)
}

// Submit moves the draft into validation. The deposition must satisfy its
// convention's minimum file count and stops being editable once submitted.
func (d *DepositionService) Submit(ctx context.Context, srn string) error {
	path := "/depositions/" + url.PathEscape(srn) + "/submit"
	return d.p.doJSON(ctx, http.MethodPost, path, nil, nil, http.StatusOK)
}

// encodeMultipartFile wraps content as the single "file" part of a
// multipart/form-data body.
func encodeMultipartFile(filename string, content []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode upload: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, "", fmt.Errorf("failed to encode upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to encode upload: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// dispositionFilename extracts the filename parameter from a
// Content-Disposition header, or "" when absent.
func dispositionFilename(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return params["filename"]
}
