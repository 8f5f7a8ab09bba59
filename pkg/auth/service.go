package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/canva"
	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/logger"
	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/tokenstore"
)

// refreshBuffer is how long before expiry an access token is treated as
// stale. Refreshing this early avoids races where a token expires while a
// request to the Connect API is in flight.
const refreshBuffer = 10 * time.Minute

// ErrNoCredential is returned when no token is stored for the user; callers
// map it to an unauthorized response.
var ErrNoCredential = errors.New("no credential for user")

// Service decides whether a stored access token is still usable and lazily
// refreshes it when it isn't. There is no background refresh scheduler: the
// check runs per request, which is the simplest correct design for a
// low-traffic demo.
type Service struct {
	store *tokenstore.Store
	oauth *canva.OAuthClient

	// now is replaceable in tests.
	now func() time.Time
}

// NewService creates a refresh service over the given store and oauth client.
func NewService(store *tokenstore.Store, oauth *canva.OAuthClient) *Service {
	return &Service{
		store: store,
		oauth: oauth,
		now:   time.Now,
	}
}

// GetValidAccessToken returns an access token for the user that is fresh for
// at least the refresh buffer. If the stored token is stale it performs a
// refresh_token grant, persists whatever the provider returns (refresh
// tokens can rotate) and returns the new access token. On refresh failure
// the store is left untouched.
func (s *Service) GetValidAccessToken(ctx context.Context, userID string) (string, error) {
	stored, err := s.store.GetToken(ctx, userID)
	if err != nil {
		if errors.Is(err, tokenstore.ErrNotFound) {
			return "", ErrNoCredential
		}
		return "", err
	}

	// If the access token is not expiring within the buffer, keep using it.
	if expiry, ok := tokenExpiry(stored.AccessToken); ok {
		if s.now().Before(expiry.Add(-refreshBuffer)) {
			return stored.AccessToken, nil
		}
	}

	refreshed, err := s.oauth.ExchangeRefreshToken(ctx, stored.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}

	if err := s.store.SetToken(ctx, refreshed, userID); err != nil {
		return "", fmt.Errorf("failed to persist refreshed token: %w", err)
	}
	logger.Debugf("refreshed access token for user")

	return refreshed.AccessToken, nil
}

// tokenExpiry extracts the expiry claim from a JWT access token without
// verifying its signature. The token was already validated by the provider
// at issuance; the refresh decision only needs the claim, so fetching the
// provider's public keys here would be unnecessary.
func tokenExpiry(accessToken string) (time.Time, bool) {
	claims, err := decodeClaims(accessToken)
	if err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// decodeClaims parses a JWT's claims without signature verification.
func decodeClaims(token string) (jwt.MapClaims, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	parsed, _, err := parser.ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse access token claims: %w", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("failed to extract claims from access token")
	}
	return claims, nil
}

// subjectClaim extracts the sub claim, the user identity, from an access
// token.
func subjectClaim(accessToken string) (string, error) {
	claims, err := decodeClaims(accessToken)
	if err != nil {
		return "", err
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("unable to extract claims sub from access token")
	}
	return sub, nil
}
