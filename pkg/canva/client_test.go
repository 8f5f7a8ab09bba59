package canva

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicAuthHeader(t *testing.T) {
	t.Parallel()

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewBasicAuthClient(srv.URL, "my-id", "my-secret")
	require.NoError(t, client.getJSON(context.Background(), "/v1/ping", &struct{}{}))

	expected := "Basic " + base64.StdEncoding.EncodeToString([]byte("my-id:my-secret"))
	assert.Equal(t, expected, gotAuth)
}

func TestBearerClientToken(t *testing.T) {
	t.Parallel()

	client := NewBearerClient("https://api.example.com", "tok-123")
	assert.Equal(t, "tok-123", client.Token())
}

func TestAPIErrorCarriesProviderResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Request-Id", "req-42")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"code":"permission_denied"}`))
	}))
	defer srv.Close()

	client := NewBearerClient(srv.URL, "tok")
	_, err := client.GetUserProfile(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Contains(t, string(apiErr.Body), "permission_denied")
	assert.Equal(t, "req-42", apiErr.RequestID)
}

func TestExchangeAuthCodeSendsFormBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		assert.Equal(t, "the-verifier", r.PostForm.Get("code_verifier"))
		assert.Equal(t, "http://localhost:3001/oauth/redirect", r.PostForm.Get("redirect_uri"))
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","refresh_token":"rt","expires_in":14400}`))
	}))
	defer srv.Close()

	oauth := NewOAuthClient(srv.URL, "id", "secret")
	tok, err := oauth.ExchangeAuthCode(context.Background(), "the-code", "the-verifier", "http://localhost:3001/oauth/redirect")
	require.NoError(t, err)
	assert.Equal(t, "at", tok.AccessToken)
	assert.Equal(t, "rt", tok.RefreshToken)
	assert.EqualValues(t, 14400, tok.ExpiresIn)
}

func TestExchangeEmptyResponseIsAnError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	oauth := NewOAuthClient(srv.URL, "id", "secret")
	_, err := oauth.ExchangeRefreshToken(context.Background(), "rt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no token returned")
}

func TestRevokeTokenSendsClientCredentials(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "/v1/oauth/revoke", r.URL.Path)
		assert.Equal(t, "id", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret", r.PostForm.Get("client_secret"))
		assert.Equal(t, "the-refresh-token", r.PostForm.Get("token"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	oauth := NewOAuthClient(srv.URL, "id", "secret")
	assert.NoError(t, oauth.RevokeToken(context.Background(), "the-refresh-token"))
}

func TestCreateAssetUploadSetsMetadataHeader(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/asset-uploads", r.URL.Path)
		assert.Equal(t, "application/octet-stream", r.Header.Get("Content-Type"))
		assert.Contains(t, r.Header.Get("Asset-Upload-Metadata"), "name_base64")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"job":{"id":"job-1","status":"in_progress"}}`))
	}))
	defer srv.Close()

	client := NewBearerClient(srv.URL, "tok")
	resp, err := client.CreateAssetUpload(context.Background(), "photo.png", []byte{0x89, 0x50})
	require.NoError(t, err)
	assert.Equal(t, "job-1", resp.Job.ID)
	assert.Equal(t, JobStatusInProgress, resp.Job.Status)
}
