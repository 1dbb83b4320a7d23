package osasdk

import "time"

// ============================================================================
// Session Types
// ============================================================================

// User is the archive account bound to a session. ExternalID is the identity
// provider's subject identifier (an ORCID iD for the orcid provider). The
// whole value is replaced on re-authentication, never patched.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Provider    string `json:"provider,omitempty"`
	ExternalID  string `json:"external_id"`
}

// TokenPair holds the bearer credentials for one session. ExpiresAt is
// computed once at receipt time from the server's expires_in and only ever
// recomputed on refresh.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Valid reports whether the pair still authorizes requests at now. The
// comparison is strict: a token expiring exactly at now is already invalid.
func (t TokenPair) Valid(now time.Time) bool {
	return t.ExpiresAt.After(now)
}

// StoredSession is the atomic unit of persisted authentication state. User
// and tokens are always written and cleared together; a partially-present
// record read back from storage is treated as absent.
type StoredSession struct {
	User   User      `json:"user"`
	Tokens TokenPair `json:"tokens"`
}

// UserInfo is the archive's view of the authenticated user, including role
// assignments. Returned by AuthManager.CurrentUser.
type UserInfo struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Provider    string   `json:"provider"`
	ExternalID  string   `json:"external_id"`
	Roles       []string `json:"roles"`
}

// ============================================================================
// Search Types
// ============================================================================

// SearchHit is a single result from a search index query.
type SearchHit struct {
	SRN      string         `json:"srn"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

// SearchResponse is one page of search results. HasMore indicates that
// results exist beyond offset+limit.
type SearchResponse struct {
	Query   string      `json:"query"`
	Index   string      `json:"index"`
	Total   int         `json:"total"`
	HasMore bool        `json:"has_more"`
	Results []SearchHit `json:"results"`
}

// ============================================================================
// Deposition Types
// ============================================================================

// Deposition statuses. File and metadata mutations are only allowed in
// draft; submit moves a draft into validation.
const (
	StatusDraft        = "DRAFT"
	StatusInValidation = "IN_VALIDATION"
	StatusPublished    = "PUBLISHED"
)

// DepositionFile describes one uploaded file of a deposition.
type DepositionFile struct {
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	Checksum    string    `json:"checksum"`
	ContentType string    `json:"content_type,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// DepositionSummary is the list view of a deposition.
type DepositionSummary struct {
	SRN           string    `json:"srn"`
	ConventionSRN string    `json:"convention_srn"`
	Status        string    `json:"status"`
	FileCount     int       `json:"file_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DepositionList is one page of the caller's depositions.
type DepositionList struct {
	Items []DepositionSummary `json:"items"`
	Total int                 `json:"total"`
}

// DepositionDetail is the full view of a deposition, including files and
// draft metadata. RecordSRN is set once the deposition has been published.
type DepositionDetail struct {
	SRN           string           `json:"srn"`
	ConventionSRN string           `json:"convention_srn"`
	Status        string           `json:"status"`
	Metadata      map[string]any   `json:"metadata"`
	Files         []DepositionFile `json:"files"`
	RecordSRN     string           `json:"record_srn,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// SpreadsheetError is a single field-level error from spreadsheet parsing.
type SpreadsheetError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// SpreadsheetParseResult is what the archive extracted from an uploaded
// metadata spreadsheet.
type SpreadsheetParseResult struct {
	Metadata map[string]any     `json:"metadata"`
	Warnings []string           `json:"warnings"`
	Errors   []SpreadsheetError `json:"errors"`
}

// ============================================================================
// Record Types
// ============================================================================

// Record is a published archive record.
type Record struct {
	SRN           string         `json:"srn"`
	DepositionSRN string         `json:"deposition_srn"`
	Metadata      map[string]any `json:"metadata"`
	PublishedAt   time.Time      `json:"published_at"`
}

// ============================================================================
// Convention Types
// ============================================================================

// FileRequirements constrains what files a deposition under a convention may
// carry. AcceptedTypes lists file extensions including the dot (".csv"); an
// empty list accepts anything.
type FileRequirements struct {
	AcceptedTypes []string `json:"accepted_types"`
	MaxFileSize   int64    `json:"max_file_size"`
	MinCount      int      `json:"min_count"`
	MaxCount      int      `json:"max_count"`
}

// HookDefinition references a post-submission processing hook by OCI image.
type HookDefinition struct {
	Image  string         `json:"image"`
	Digest string         `json:"digest"`
	Runner string         `json:"runner,omitempty"`
	Config map[string]any `json:"config,omitempty"`
}

// ConventionSummary is the list view of a convention.
type ConventionSummary struct {
	SRN         string    `json:"srn"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	SchemaSRN   string    `json:"schema_srn"`
	CreatedAt   time.Time `json:"created_at"`
}

// ConventionDetail is the full view of a convention.
type ConventionDetail struct {
	SRN              string           `json:"srn"`
	Title            string           `json:"title"`
	Description      string           `json:"description,omitempty"`
	SchemaSRN        string           `json:"schema_srn"`
	FileRequirements FileRequirements `json:"file_requirements"`
	Hooks            []HookDefinition `json:"hooks"`
	CreatedAt        time.Time        `json:"created_at"`
}

// CreateConventionRequest registers a new convention. Requires the admin
// role server-side.
type CreateConventionRequest struct {
	Title            string           `json:"title"`
	Version          string           `json:"version"`
	SchemaSRN        string           `json:"schema_srn"`
	FileRequirements FileRequirements `json:"file_requirements"`
	Description      string           `json:"description,omitempty"`
	Hooks            []HookDefinition `json:"hooks,omitempty"`
}

// ============================================================================
// Wire Types
// ============================================================================
// Shared between this client and the mock server so both sides marshal the
// same JSON.

// TokenResponse is the refresh endpoint's success body.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// RefreshRequest is the POST /auth/refresh body.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LogoutRequest is the POST /auth/logout body.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LogoutResponse reports whether any session was revoked.
type LogoutResponse struct {
	Success bool `json:"success"`
}

// IndexListResponse lists the archive's search indexes.
type IndexListResponse struct {
	Indexes []string `json:"indexes"`
}

// CreateDepositionRequest opens a draft under a convention.
type CreateDepositionRequest struct {
	ConventionSRN string `json:"convention_srn"`
}

// DepositionCreatedResponse carries the new draft's SRN.
type DepositionCreatedResponse struct {
	SRN string `json:"srn"`
}

// FileUploadedResponse wraps the stored file's descriptor.
type FileUploadedResponse struct {
	File DepositionFile `json:"file"`
}

// SpreadsheetUploadedResponse wraps the spreadsheet parse outcome.
type SpreadsheetUploadedResponse struct {
	ParseResult SpreadsheetParseResult `json:"parse_result"`
}

// RecordResponse wraps a published record.
type RecordResponse struct {
	Record Record `json:"record"`
}

// ConventionListResponse lists registered conventions.
type ConventionListResponse struct {
	Items []ConventionSummary `json:"items"`
}
