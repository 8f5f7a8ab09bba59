package canva

import "fmt"

// TokenResponse is the provider's response to an authorization-code or
// refresh-token exchange. Whatever comes back is persisted as-is, since
// refresh tokens can rotate on every exchange.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// APIError is a non-2xx response from the Connect API. Route handlers
// propagate the provider's status code and body to their own callers.
type APIError struct {
	Status    int
	Body      []byte
	RequestID string
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("connect api error: status %d (request id %s): %s", e.Status, e.RequestID, e.Body)
	}
	return fmt.Sprintf("connect api error: status %d: %s", e.Status, e.Body)
}

// JobStatus is the lifecycle state of an asynchronous design job.
type JobStatus string

// Job states returned by the asset upload, autofill and export endpoints.
const (
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusSuccess    JobStatus = "success"
	JobStatusFailed     JobStatus = "failed"
)

// UserProfile is the authenticated user's public profile.
type UserProfile struct {
	DisplayName string `json:"display_name"`
}

// UserProfileResponse wraps the profile endpoint response.
type UserProfileResponse struct {
	Profile UserProfile `json:"profile"`
}

// BrandTemplate is a design template the user's brand has published.
type BrandTemplate struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ViewURL      string `json:"view_url"`
	CreateURL    string `json:"create_url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// BrandTemplateList is a page of brand templates.
type BrandTemplateList struct {
	Continuation string          `json:"continuation,omitempty"`
	Items        []BrandTemplate `json:"items"`
}

// DataField describes one autofillable field of a brand template dataset.
type DataField struct {
	Type string `json:"type"`
}

// BrandTemplateDataset is the set of autofillable fields of a template.
type BrandTemplateDataset struct {
	Dataset map[string]DataField `json:"dataset"`
}

// AutofillValue is one value supplied to an autofill job. Exactly the
// fields matching the declared type are set.
type AutofillValue struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	AssetID string `json:"asset_id,omitempty"`
	Number  *float64 `json:"number,omitempty"`
}

// DesignSummary identifies a created or autofilled design.
type DesignSummary struct {
	ID    string     `json:"id"`
	Title string     `json:"title,omitempty"`
	URL   string     `json:"url,omitempty"`
	URLs  DesignURLs `json:"urls"`
}

// DesignURLs are the user-facing links to a design.
type DesignURLs struct {
	EditURL string `json:"edit_url,omitempty"`
	ViewURL string `json:"view_url,omitempty"`
}

// Asset is an uploaded media asset.
type Asset struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// AssetUploadJob is the state of an asynchronous asset upload.
type AssetUploadJob struct {
	ID     string    `json:"id"`
	Status JobStatus `json:"status"`
	Asset  *Asset    `json:"asset,omitempty"`
}

// AssetUploadJobResponse wraps the asset upload endpoints' response.
type AssetUploadJobResponse struct {
	Job AssetUploadJob `json:"job"`
}

// AutofillResult carries the design produced by a successful autofill.
type AutofillResult struct {
	Type   string        `json:"type"`
	Design DesignSummary `json:"design"`
}

// AutofillJob is the state of an asynchronous autofill.
type AutofillJob struct {
	ID     string          `json:"id"`
	Status JobStatus       `json:"status"`
	Result *AutofillResult `json:"result,omitempty"`
}

// AutofillJobResponse wraps the autofill endpoints' response.
type AutofillJobResponse struct {
	Job AutofillJob `json:"job"`
}

// ExportURL is one exported artifact of a design.
type ExportURL struct {
	URL string `json:"url"`
}

// ExportJob is the state of an asynchronous design export.
type ExportJob struct {
	ID     string    `json:"id"`
	Status JobStatus `json:"status"`
	URLs   []string  `json:"urls,omitempty"`
}

// ExportJobResponse wraps the export endpoints' response.
type ExportJobResponse struct {
	Job ExportJob `json:"job"`
}

// ExportFormat selects the output type of an export job.
type ExportFormat struct {
	Type string `json:"type"`
}

// CreateExportRequest is the body of an export job creation.
type CreateExportRequest struct {
	DesignID string       `json:"design_id"`
	Format   ExportFormat `json:"format"`
}

// CreateAutofillRequest is the body of an autofill job creation.
type CreateAutofillRequest struct {
	BrandTemplateID string                   `json:"brand_template_id"`
	Title           string                   `json:"title,omitempty"`
	Data            map[string]AutofillValue `json:"data"`
}

// CreateDesignRequest creates a new blank or asset-backed design.
type CreateDesignRequest struct {
	DesignType *DesignType `json:"design_type,omitempty"`
	AssetID    string      `json:"asset_id,omitempty"`
	Title      string      `json:"title,omitempty"`
}

// DesignType selects a preset design kind.
type DesignType struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

// CreateDesignResponse wraps the design creation response.
type CreateDesignResponse struct {
	Design DesignSummary `json:"design"`
}
