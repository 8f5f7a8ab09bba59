// Package auth implements the OAuth authorization code flow with PKCE
// against the Connect authorization server, the per-request access token
// refresh, and the middleware that injects an authenticated API client
// into request contexts.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"golang.org/x/oauth2"

	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/canva"
	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/config"
	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/logger"
	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/session"
	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/tokenstore"
)

// scopes is the full set of permissions the demos need. Requesting them in
// one authorization keeps the flow to a single consent screen.
var scopes = []string{
	"asset:read",
	"asset:write",
	"brandtemplate:content:read",
	"brandtemplate:meta:read",
	"design:content:read",
	"design:content:write",
	"design:meta:read",
	"profile:read",
}

// Flow wires the authorization endpoints together: starting an
// authorization, handling the provider redirect, reporting authorization
// status and revoking access.
type Flow struct {
	cfg      *config.Config
	sessions *session.Manager
	store    *tokenstore.Store
	oauth    *canva.OAuthClient
	service  *Service
}

// NewFlow creates the authorization flow controller.
func NewFlow(cfg *config.Config, sessions *session.Manager, store *tokenstore.Store, oauth *canva.OAuthClient, service *Service) *Flow {
	return &Flow{
		cfg:      cfg,
		sessions: sessions,
		store:    store,
		oauth:    oauth,
		service:  service,
	}
}

// Routes registers the flow's endpoints on the given router. All of them
// are public: the redirect handler in particular is called before any
// session exists.
func (f *Flow) Routes(r chi.Router) {
	r.Get("/authorize", f.Authorize)
	r.Get("/oauth/redirect", f.Redirect)
	r.Get("/success", f.SuccessPage)
	r.Get("/failure", f.FailurePage)
	r.Get("/isauthorized", f.IsAuthorized)
	r.Get("/revoke", f.Revoke)
	r.Get("/token", f.Token)
}

// oauthConfig builds the oauth2 endpoint description. Only the
// authorization URL is used here; the token exchange goes through
// canva.OAuthClient so provider error bodies are preserved.
func (f *Flow) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID: f.cfg.ClientID,
		Endpoint: oauth2.Endpoint{
			AuthURL: f.cfg.AuthBaseURL + "/oauth/authorize",
		},
		RedirectURL: f.cfg.RedirectURI(),
		Scopes:      scopes,
	}
}

// randomURLSafe returns n random bytes encoded as unpadded base64url.
func randomURLSafe(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Authorize starts a new authorization attempt. It generates the CSRF state
// and PKCE code verifier, binds both to the browser via signed short-lived
// cookies, and redirects to the provider's consent screen with the S256
// challenge of the verifier.
func (f *Flow) Authorize(w http.ResponseWriter, r *http.Request) {
	codeVerifier, err := randomURLSafe(96)
	if err != nil {
		f.internalError(w, err)
		return
	}
	state, err := randomURLSafe(96)
	if err != nil {
		f.internalError(w, err)
		return
	}

	if err := f.sessions.SetOAuthTransaction(w, state, codeVerifier); err != nil {
		f.internalError(w, err)
		return
	}

	authURL := f.oauthConfig().AuthCodeURL(state, oauth2.S256ChallengeOption(codeVerifier))
	http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
}

// Redirect handles the provider's callback. On any failure it clears the
// transaction cookies and sends the browser to the failure page; nothing is
// stored unless the whole exchange succeeds.
func (f *Flow) Redirect(w http.ResponseWriter, r *http.Request) {
	if providerErr := r.URL.Query().Get("error"); providerErr != "" {
		f.fail(w, r, fmt.Errorf("authorization denied: %s", providerErr))
		return
	}
	code := r.URL.Query().Get("code")
	returnedState := r.URL.Query().Get("state")
	if code == "" || returnedState == "" {
		f.fail(w, r, errors.New("authorization code or state is missing"))
		return
	}

	expectedState, codeVerifier, err := f.sessions.OAuthTransaction(r)
	if err != nil {
		f.fail(w, r, fmt.Errorf("invalid authorization transaction: %w", err))
		return
	}
	if returnedState != expectedState {
		f.fail(w, r, errors.New("state mismatch"))
		return
	}

	token, err := f.oauth.ExchangeAuthCode(r.Context(), code, codeVerifier, f.cfg.RedirectURI())
	if err != nil {
		var apiErr *canva.APIError
		if errors.As(err, &apiErr) {
			// Surface the provider's own error so integration problems
			// (bad client credentials, expired codes) are diagnosable.
			f.sessions.ClearOAuthTransaction(w)
			w.WriteHeader(apiErr.Status)
			_, _ = w.Write(apiErr.Body)
			return
		}
		f.fail(w, r, err)
		return
	}

	// The subject claim of the access token identifies the Canva user and
	// keys the stored credential.
	userID, err := subjectClaim(token.AccessToken)
	if err != nil {
		f.fail(w, r, err)
		return
	}

	if err := f.store.SetToken(r.Context(), token, userID); err != nil {
		f.fail(w, r, err)
		return
	}
	if err := f.sessions.SetSession(w, userID); err != nil {
		f.fail(w, r, err)
		return
	}

	f.sessions.ClearOAuthTransaction(w)
	http.Redirect(w, r, "/success", http.StatusTemporaryRedirect)
}

// IsAuthorized reports whether the browser holds a session with a working
// credential. Rather than trusting the stored record it asks the refresh
// service for a valid access token, so a revoked or expired grant shows up
// as unauthorized immediately.
func (f *Flow) IsAuthorized(w http.ResponseWriter, r *http.Request) {
	userID, err := f.sessions.UserID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusNotFound)
		return
	}
	if _, err := f.service.GetValidAccessToken(r.Context(), userID); err != nil {
		logger.Debugf("authorization check failed: %v", err)
		http.Error(w, "Unauthorized", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]bool{"status": true}); err != nil {
		logger.Errorf("failed to write response: %v", err)
	}
}

// Revoke ends the user's authorization. The session cookie is cleared no
// matter what, the grant is revoked at the provider on a best effort basis,
// and the local credential is always deleted, even when the provider call
// fails, so a half-revoked grant can't keep working locally.
func (f *Flow) Revoke(w http.ResponseWriter, r *http.Request) {
	// Log the user out locally regardless of what follows.
	f.sessions.ClearSession(w)

	userID, err := f.sessions.UserID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	token, err := f.store.GetToken(r.Context(), userID)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	defer func() {
		if err := f.store.DeleteToken(r.Context(), userID); err != nil {
			logger.Errorf("failed to delete stored token: %v", err)
		}
	}()

	if err := f.oauth.RevokeToken(r.Context(), token.RefreshToken); err != nil {
		logger.Warnf("provider token revocation failed: %v", err)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]bool{"revoked": true}); err != nil {
		logger.Errorf("failed to write response: %v", err)
	}
}

// Token returns the raw access token of the authenticated user. It exists
// so the frontend can drive the Connect API directly in the playground; the
// Origin check keeps other sites from reading the token via the browser.
func (f *Flow) Token(w http.ResponseWriter, r *http.Request) {
	if !f.originAllowed(r.Header.Get("Origin")) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	userID, err := f.sessions.UserID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	accessToken, err := f.service.GetValidAccessToken(r.Context(), userID)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprint(w, accessToken)
}

// originAllowed compares the request's Origin against the configured
// frontend origin.
func (f *Flow) originAllowed(origin string) bool {
	if origin == "" {
		return false
	}
	requested, err := url.Parse(origin)
	if err != nil {
		return false
	}
	allowed, err := url.Parse(f.cfg.FrontendURL)
	if err != nil {
		return false
	}
	return requested.Scheme == allowed.Scheme && requested.Host == allowed.Host
}

// fail clears the transaction cookies and redirects to the failure page
// with the error message in the query string.
func (f *Flow) fail(w http.ResponseWriter, r *http.Request, cause error) {
	logger.Warnf("authorization failed: %v", cause)
	f.sessions.ClearOAuthTransaction(w)
	target := "/failure?error=" + url.QueryEscape(cause.Error())
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

func (f *Flow) internalError(w http.ResponseWriter, err error) {
	logger.Errorf("authorization flow error: %v", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
