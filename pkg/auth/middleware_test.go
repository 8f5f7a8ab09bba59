package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/canva"
)

func TestInjectClientRejectsMissingSession(t *testing.T) {
	t.Parallel()

	f := newFlowFixture(t)
	mw := NewMiddleware(f.sessions, f.service, f.provider.server.URL)

	handler := mw.InjectClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a session")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInjectClientRejectsMissingCredential(t *testing.T) {
	t.Parallel()

	f := newFlowFixture(t)
	mw := NewMiddleware(f.sessions, f.service, f.provider.server.URL)

	sessionRec := httptest.NewRecorder()
	require.NoError(t, f.sessions.SetSession(sessionRec, "user-1"))

	handler := mw.InjectClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a credential")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, withCookies(httptest.NewRequest(http.MethodGet, "/products", nil), sessionRec))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInjectClientProvidesClientAndToken(t *testing.T) {
	t.Parallel()

	f := newFlowFixture(t)
	mw := NewMiddleware(f.sessions, f.service, f.provider.server.URL)

	access := signTestToken(t, "user-1", time.Now().Add(4*time.Hour))
	require.NoError(t, f.store.SetToken(context.Background(), &canva.TokenResponse{
		AccessToken:  access,
		RefreshToken: "refresh-1",
	}, "user-1"))

	sessionRec := httptest.NewRecorder()
	require.NoError(t, f.sessions.SetSession(sessionRec, "user-1"))

	var called bool
	handler := mw.InjectClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		client, ok := ClientFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, access, client.Token())

		token, ok := TokenFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, access, token)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, withCookies(httptest.NewRequest(http.MethodGet, "/products", nil), sessionRec))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}

func TestInjectClientRefreshesExpiredToken(t *testing.T) {
	t.Parallel()

	f := newFlowFixture(t)
	mw := NewMiddleware(f.sessions, f.service, f.provider.server.URL)

	expired := signTestToken(t, "user-1", time.Now().Add(-time.Hour))
	require.NoError(t, f.store.SetToken(context.Background(), &canva.TokenResponse{
		AccessToken:  expired,
		RefreshToken: "refresh-1",
	}, "user-1"))

	fresh := signTestToken(t, "user-1", time.Now().Add(4*time.Hour))
	f.provider.tokenResponse = &canva.TokenResponse{
		AccessToken:  fresh,
		RefreshToken: "refresh-2",
	}

	sessionRec := httptest.NewRecorder()
	require.NoError(t, f.sessions.SetSession(sessionRec, "user-1"))

	handler := mw.InjectClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := TokenFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, fresh, token)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, withCookies(httptest.NewRequest(http.MethodGet, "/products", nil), sessionRec))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, f.provider.exchangeCalls)

	stored, err := f.store.GetToken(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "refresh-2", stored.RefreshToken)
}
