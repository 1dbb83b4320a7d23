package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/open-science-archive/osa-go/internal/archive/domain"
)

// templateField is one column of the mock's built-in metadata schema. The
// production archive derives these from the convention's schema; the mock
// serves the same field set for every convention.
type templateField struct {
	name        string
	description string
	required    bool
}

var metadataFields = []templateField{
	{"title", "Dataset title (required)", true},
	{"description", "What was measured and how (required)", true},
	{"creators", "Creator names, semicolon separated (required)", true},
	{"keywords", "Keywords, semicolon separated", false},
	{"license", "SPDX license identifier, e.g. CC-BY-4.0", false},
	{"publication_date", "Publication date, YYYY-MM-DD", false},
}

// SpreadsheetService turns the metadata schema into a fill-in template and
// parses completed uploads back into deposition metadata.
//
// Templates are CSV: row 1 holds the column headers, row 2 the field
// descriptions, and row 3 is where values go. Only the first value row is
// read back.
type SpreadsheetService struct {
	Depositions *DepositionService
}

// Template renders the metadata template for the deposition's convention and
// suggests a download filename derived from the convention title.
func (s *SpreadsheetService) Template(ctx context.Context, srnStr string) ([]byte, string, error) {
	dep, err := s.Depositions.Get(ctx, srnStr)
	if err != nil {
		return nil, "", err
	}
	conv, err := s.Depositions.convention(ctx, dep.ConventionSRN)
	if err != nil {
		return nil, "", err
	}

	headers := make([]string, len(metadataFields))
	descriptions := make([]string, len(metadataFields))
	for i, f := range metadataFields {
		headers[i] = f.name
		descriptions[i] = f.description
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(headers)
	_ = w.Write(descriptions)
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", err
	}

	filename := strings.ToLower(strings.ReplaceAll(conv.Title, " ", "_")) + "_template.csv"
	return buf.Bytes(), filename, nil
}

// Parse reads a completed template and, when it parses cleanly, replaces the
// deposition's metadata with the extracted document. A result carrying
// errors leaves the deposition untouched and still returns success; the
// problems travel in-band so the client can show them per field.
func (s *SpreadsheetService) Parse(
	ctx context.Context,
	srnStr string,
	content []byte,
) (domain.SpreadsheetParseResult, error) {
	if _, err := s.Depositions.Get(ctx, srnStr); err != nil {
		return domain.SpreadsheetParseResult{}, err
	}

	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return domain.SpreadsheetParseResult{}, domain.ValidationError("invalid_spreadsheet",
			fmt.Sprintf("spreadsheet is not valid CSV: %v", err))
	}
	if len(rows) == 0 {
		return domain.SpreadsheetParseResult{}, domain.ValidationError("empty_spreadsheet",
			"spreadsheet has no rows")
	}

	result := domain.SpreadsheetParseResult{Metadata: map[string]any{}}

	headers := rows[0]
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	fieldByName := make(map[string]templateField, len(metadataFields))
	for _, f := range metadataFields {
		fieldByName[f.name] = f
	}

	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		if h != "" {
			present[h] = true
		}
	}
	for _, f := range metadataFields {
		if f.required && !present[f.name] {
			result.Errors = append(result.Errors, domain.SpreadsheetError{
				Field:   f.name,
				Message: fmt.Sprintf("Required column '%s' is missing", f.name),
			})
		}
	}
	for _, h := range headers {
		if h == "" {
			continue
		}
		if _, known := fieldByName[h]; !known {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Unrecognized column '%s' will be ignored", h))
		}
	}

	// Row 2 carries descriptions; values live on row 3. Anything below the
	// value row is ignored, matching the one-dataset-per-upload contract.
	var values []string
	if len(rows) >= 3 {
		values = rows[2]
	}

	for i, h := range headers {
		f, known := fieldByName[h]
		if !known {
			continue
		}
		var value string
		if i < len(values) {
			value = strings.TrimSpace(values[i])
		}
		if value == "" {
			if f.required {
				result.Errors = append(result.Errors, domain.SpreadsheetError{
					Field:   f.name,
					Message: fmt.Sprintf("Required field '%s' is empty", f.name),
				})
			}
			continue
		}
		result.Metadata[f.name] = value
	}

	if len(result.Errors) == 0 {
		if _, err := s.Depositions.UpdateMetadata(ctx, srnStr, result.Metadata); err != nil {
			return domain.SpreadsheetParseResult{}, err
		}
	}
	return result, nil
}
