package domain

// SpreadsheetError is a single field-level problem found while parsing an
// uploaded metadata spreadsheet.
type SpreadsheetError struct {
	Field   string
	Message string
}

// SpreadsheetParseResult is what the archive extracted from an uploaded
// spreadsheet. A non-empty Errors list means the metadata was not applied
// to the deposition.
type SpreadsheetParseResult struct {
	Metadata map[string]any
	Warnings []string
	Errors   []SpreadsheetError
}
