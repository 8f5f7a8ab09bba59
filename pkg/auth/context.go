// Package auth implements the OAuth token lifecycle the demo backends are
// built around: the PKCE authorization flow, lazy access-token refresh, and
// the middleware that injects an authenticated Connect client into requests.
package auth

import (
	"context"

	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/canva"
)

// clientContextKey is the key used to store the user's Connect client in the
// request context. Using an empty struct as the key prevents collisions with
// other context keys, as each empty struct type is distinct.
type clientContextKey struct{}

// tokenContextKey is the key used to store the raw access token, for calls
// to the Connect API that the typed client doesn't cover.
type tokenContextKey struct{}

// WithClient stores the user's Connect client in the context.
func WithClient(ctx context.Context, client *canva.Client) context.Context {
	if client == nil {
		return ctx
	}
	return context.WithValue(ctx, clientContextKey{}, client)
}

// ClientFromContext retrieves the Connect client injected by the middleware.
func ClientFromContext(ctx context.Context) (*canva.Client, bool) {
	client, ok := ctx.Value(clientContextKey{}).(*canva.Client)
	return client, ok
}

// WithToken stores the raw access token in the context.
func WithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenContextKey{}, token)
}

// TokenFromContext retrieves the raw access token injected by the middleware.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenContextKey{}).(string)
	return token, ok
}
