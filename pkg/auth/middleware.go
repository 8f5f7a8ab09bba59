package auth

import (
	"net/http"

	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/canva"
	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/logger"
	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/session"
)

// Middleware guards protected routes. It resolves the request's session to
// a fresh access token and stashes a bearer-authenticated API client in the
// request context for handlers to use.
type Middleware struct {
	sessions   *session.Manager
	service    *Service
	apiBaseURL string
}

// NewMiddleware creates the client-injection middleware. apiBaseURL is the
// Connect API base the injected clients talk to.
func NewMiddleware(sessions *session.Manager, service *Service, apiBaseURL string) *Middleware {
	return &Middleware{
		sessions:   sessions,
		service:    service,
		apiBaseURL: apiBaseURL,
	}
}

// InjectClient rejects requests without a working credential and otherwise
// passes control on with the client and token in the context. Any failure,
// missing cookie, missing credential or failed refresh, yields the same
// opaque 401 so callers can't probe which stage broke.
func (m *Middleware) InjectClient(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := m.sessions.UserID(r)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		accessToken, err := m.service.GetValidAccessToken(r.Context(), userID)
		if err != nil {
			logger.Debugf("rejecting request: %v", err)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		client := canva.NewBearerClient(m.apiBaseURL, accessToken)
		ctx := WithToken(WithClient(r.Context(), client), accessToken)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
