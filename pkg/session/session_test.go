package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-cookie-signing-secret-value"

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(testSecret, false)
	require.NoError(t, err)
	return m
}

// requestWithCookies copies all cookies from a recorded response onto a
// fresh request, the way a browser would.
func requestWithCookies(t *testing.T, rec *httptest.ResponseRecorder) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestSessionRoundTrip(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	rec := httptest.NewRecorder()
	require.NoError(t, m.SetSession(rec, "user-abc"))

	userID, err := m.UserID(requestWithCookies(t, rec))
	require.NoError(t, err)
	assert.Equal(t, "user-abc", userID)
}

func TestSessionCookieAttributes(t *testing.T) {
	t.Parallel()

	t.Run("development", func(t *testing.T) {
		t.Parallel()
		m := newTestManager(t)
		rec := httptest.NewRecorder()
		require.NoError(t, m.SetSession(rec, "user-abc"))

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		c := cookies[0]
		assert.Equal(t, AuthCookieName, c.Name)
		assert.True(t, c.HttpOnly)
		assert.False(t, c.Secure)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	})

	t.Run("production", func(t *testing.T) {
		t.Parallel()
		m, err := NewManager(testSecret, true)
		require.NoError(t, err)
		rec := httptest.NewRecorder()
		require.NoError(t, m.SetSession(rec, "user-abc"))

		c := rec.Result().Cookies()[0]
		assert.True(t, c.Secure)
		assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	})
}

func TestTamperedSessionCookieIsRejected(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	rec := httptest.NewRecorder()
	require.NoError(t, m.SetSession(rec, "user-abc"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := rec.Result().Cookies()[0]
	c.Value = c.Value + "tampered"
	req.AddCookie(c)

	_, err := m.UserID(req)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestUnsignedCookieIsRejected(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AuthCookieName, Value: "user-abc"})

	_, err := m.UserID(req)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestMissingSessionCookie(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	_, err := m.UserID(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestOAuthTransactionRoundTrip(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	rec := httptest.NewRecorder()
	require.NoError(t, m.SetOAuthTransaction(rec, "the-state", "the-verifier"))

	state, verifier, err := m.OAuthTransaction(requestWithCookies(t, rec))
	require.NoError(t, err)
	assert.Equal(t, "the-state", state)
	assert.Equal(t, "the-verifier", verifier)
}

func TestOAuthTransactionMissingCookies(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	_, _, err := m.OAuthTransaction(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Error(t, err)
}

func TestClearSessionExpiresCookie(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	rec := httptest.NewRecorder()
	m.ClearSession(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, AuthCookieName, cookies[0].Name)
	assert.Negative(t, cookies[0].MaxAge)
}
