// Package canva is a thin typed client for the Connect API, covering the
// endpoints the demos use: the OAuth token lifecycle plus asset upload,
// autofill, export, brand templates and user profile.
package canva

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/logger"
)

// httpTimeout bounds every call to the provider. The original demos relied
// on the HTTP library's defaults; an explicit bound is cheap to carry.
const httpTimeout = 30 * time.Second

// maxResponseSize limits how much of a provider response is read.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// Client calls the Connect API with a fixed Authorization header: either
// Basic client credentials (for the oauth endpoints) or a user's Bearer
// token (for everything else).
type Client struct {
	baseURL    string
	authHeader string
	httpClient *http.Client
}

func newClient(baseURL, authHeader string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		authHeader: authHeader,
		httpClient: &http.Client{
			Timeout: httpTimeout,
			Transport: &http.Transport{
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 10 * time.Second,
			},
		},
	}
}

// NewBasicAuthClient creates a client authenticated with the integration's
// client id and secret, as required by the token and revoke endpoints.
func NewBasicAuthClient(baseURL, clientID, clientSecret string) *Client {
	credentials := base64.StdEncoding.EncodeToString([]byte(clientID + ":" + clientSecret))
	return newClient(baseURL, "Basic "+credentials)
}

// NewBearerClient creates a client acting on behalf of a user.
func NewBearerClient(baseURL, accessToken string) *Client {
	return newClient(baseURL, "Bearer "+accessToken)
}

// Token returns the raw bearer token for a client created by
// NewBearerClient, for calls the typed client doesn't cover.
func (c *Client) Token() string {
	return strings.TrimPrefix(c.authHeader, "Bearer ")
}

// do sends the request and decodes a 2xx JSON response into out. Non-2xx
// responses become an *APIError carrying the provider's status and body.
func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", c.authHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", req.URL.Path, err)
	}

	requestID := resp.Header.Get("X-Request-Id")
	if resp.StatusCode >= 400 {
		logger.Warnw("connect api error response",
			"status", resp.StatusCode, "path", req.URL.Path, "request_id", requestID)
		return &APIError{Status: resp.StatusCode, Body: body, RequestID: requestID}
	}
	logger.Debugw("connect api response",
		"status", resp.StatusCode, "path", req.URL.Path, "request_id", requestID)

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response from %s: %w", req.URL.Path, err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// postForm sends a form-urlencoded POST, as the oauth endpoints expect.
func (c *Client) postForm(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

// GetUserProfile returns the authenticated user's profile.
func (c *Client) GetUserProfile(ctx context.Context) (*UserProfileResponse, error) {
	var out UserProfileResponse
	if err := c.getJSON(ctx, "/v1/users/me/profile", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListBrandTemplates returns the first page of the user's brand templates.
func (c *Client) ListBrandTemplates(ctx context.Context) (*BrandTemplateList, error) {
	var out BrandTemplateList
	if err := c.getJSON(ctx, "/v1/brand-templates", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetBrandTemplateDataset returns the autofillable fields of a template.
func (c *Client) GetBrandTemplateDataset(ctx context.Context, brandTemplateID string) (*BrandTemplateDataset, error) {
	var out BrandTemplateDataset
	path := "/v1/brand-templates/" + url.PathEscape(brandTemplateID) + "/dataset"
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateAssetUpload starts an asynchronous upload of the given bytes.
func (c *Client) CreateAssetUpload(ctx context.Context, name string, data []byte) (*AssetUploadJobResponse, error) {
	metadata, err := json.Marshal(map[string]string{
		"name_base64": base64.StdEncoding.EncodeToString([]byte(name)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal upload metadata: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+"/v1/asset-uploads", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Asset-Upload-Metadata", string(metadata))

	var out AssetUploadJobResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAssetUploadJob returns the state of an asset upload job.
func (c *Client) GetAssetUploadJob(ctx context.Context, jobID string) (*AssetUploadJobResponse, error) {
	var out AssetUploadJobResponse
	if err := c.getJSON(ctx, "/v1/asset-uploads/"+url.PathEscape(jobID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateAutofillJob starts autofilling a brand template with the given data.
func (c *Client) CreateAutofillJob(ctx context.Context, req *CreateAutofillRequest) (*AutofillJobResponse, error) {
	var out AutofillJobResponse
	if err := c.postJSON(ctx, "/v1/autofills", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAutofillJob returns the state of an autofill job.
func (c *Client) GetAutofillJob(ctx context.Context, jobID string) (*AutofillJobResponse, error) {
	var out AutofillJobResponse
	if err := c.getJSON(ctx, "/v1/autofills/"+url.PathEscape(jobID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateDesignExportJob starts exporting a design to the requested format.
func (c *Client) CreateDesignExportJob(ctx context.Context, req *CreateExportRequest) (*ExportJobResponse, error) {
	var out ExportJobResponse
	if err := c.postJSON(ctx, "/v1/exports", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetDesignExportJob returns the state of an export job.
func (c *Client) GetDesignExportJob(ctx context.Context, exportID string) (*ExportJobResponse, error) {
	var out ExportJobResponse
	if err := c.getJSON(ctx, "/v1/exports/"+url.PathEscape(exportID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateDesign creates a new design, optionally from an uploaded asset.
func (c *Client) CreateDesign(ctx context.Context, req *CreateDesignRequest) (*CreateDesignResponse, error) {
	var out CreateDesignResponse
	if err := c.postJSON(ctx, "/v1/designs", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
