// Package session manages the signed cookies that bind a browser to its
// authorization state: the long-lived session cookie carrying the user id,
// and the short-lived state and code-verifier cookies set for the duration
// of one OAuth authorization attempt.
//
// Cookies are signed, not encrypted: tampering is detectable, and none of
// the values are sensitive on their own (the code verifier is useless
// without the matching single-use authorization code).
package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

// Cookie names, kept deliberately short and opaque.
const (
	// AuthCookieName holds the authenticated user's id (the provider's
	// subject claim).
	AuthCookieName = "aut"

	// OAuthStateCookieName holds the CSRF state of an in-flight
	// authorization attempt.
	OAuthStateCookieName = "oas"

	// OAuthCodeVerifierCookieName holds the PKCE code verifier of an
	// in-flight authorization attempt.
	OAuthCodeVerifierCookieName = "ocv"
)

// sessionMaxAge is how long the session cookie stays valid.
const sessionMaxAge = 3 * 24 * time.Hour

// transactionMaxAge is how long an authorization attempt may take before
// its state and verifier cookies expire.
const transactionMaxAge = 20 * time.Minute

// ErrNoSession is returned when the request carries no valid session cookie.
var ErrNoSession = errors.New("no valid session cookie")

// Manager signs and verifies the demo's cookies.
type Manager struct {
	session     *securecookie.SecureCookie
	transaction *securecookie.SecureCookie
	production  bool
}

// NewManager creates a Manager signing with the given secret. In production
// cookies are marked Secure and the session cookie uses SameSite=Strict;
// during development we fall back to Lax since that doesn't require HTTPS.
func NewManager(signingSecret string, production bool) (*Manager, error) {
	if signingSecret == "" {
		return nil, errors.New("cookie signing secret cannot be empty")
	}

	key := []byte(signingSecret)
	session := securecookie.New(key, nil)
	session.MaxAge(int(sessionMaxAge.Seconds()))
	transaction := securecookie.New(key, nil)
	transaction.MaxAge(int(transactionMaxAge.Seconds()))

	return &Manager{
		session:     session,
		transaction: transaction,
		production:  production,
	}, nil
}

// sessionSameSite returns the SameSite mode for the session cookie.
// For authentication cookies it should be Strict, but while in development
// Lax is more convenient. We can't use None, even in development, because
// that requires Secure, which requires HTTPS.
func (m *Manager) sessionSameSite() http.SameSite {
	if m.production {
		return http.SameSiteStrictMode
	}
	return http.SameSiteLaxMode
}

// SetSession sets the signed session cookie to the given user id.
func (m *Manager) SetSession(w http.ResponseWriter, userID string) error {
	encoded, err := m.session.Encode(AuthCookieName, userID)
	if err != nil {
		return fmt.Errorf("failed to sign session cookie: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   m.production,
		SameSite: m.sessionSameSite(),
	})
	return nil
}

// UserID extracts the user id from the request's session cookie. It returns
// ErrNoSession when the cookie is missing, expired or fails signature
// verification.
func (m *Manager) UserID(r *http.Request) (string, error) {
	cookie, err := r.Cookie(AuthCookieName)
	if err != nil {
		return "", ErrNoSession
	}
	var userID string
	if err := m.session.Decode(AuthCookieName, cookie.Value, &userID); err != nil {
		return "", ErrNoSession
	}
	if userID == "" {
		return "", ErrNoSession
	}
	return userID, nil
}

// ClearSession expires the session cookie.
func (m *Manager) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.production,
		SameSite: m.sessionSameSite(),
	})
}

// SetOAuthTransaction binds the state and code verifier of a new
// authorization attempt to the user agent. SameSite is Lax since the
// provider redirects back to us and the cookies must accompany that
// cross-site navigation.
func (m *Manager) SetOAuthTransaction(w http.ResponseWriter, state, codeVerifier string) error {
	for name, value := range map[string]string{
		OAuthStateCookieName:        state,
		OAuthCodeVerifierCookieName: codeVerifier,
	} {
		encoded, err := m.transaction.Encode(name, value)
		if err != nil {
			return fmt.Errorf("failed to sign %s cookie: %w", name, err)
		}
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    encoded,
			Path:     "/",
			MaxAge:   int(transactionMaxAge.Seconds()),
			HttpOnly: true,
			Secure:   m.production,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return nil
}

// OAuthTransaction returns the state and code verifier set by
// SetOAuthTransaction, verifying both signatures.
func (m *Manager) OAuthTransaction(r *http.Request) (state, codeVerifier string, err error) {
	for name, out := range map[string]*string{
		OAuthStateCookieName:        &state,
		OAuthCodeVerifierCookieName: &codeVerifier,
	} {
		cookie, err := r.Cookie(name)
		if err != nil {
			return "", "", fmt.Errorf("missing %s cookie", name)
		}
		if err := m.transaction.Decode(name, cookie.Value, out); err != nil {
			return "", "", fmt.Errorf("invalid %s cookie: %w", name, err)
		}
	}
	return state, codeVerifier, nil
}

// ClearOAuthTransaction expires the state and verifier cookies.
func (m *Manager) ClearOAuthTransaction(w http.ResponseWriter) {
	for _, name := range []string{OAuthStateCookieName, OAuthCodeVerifierCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   m.production,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
