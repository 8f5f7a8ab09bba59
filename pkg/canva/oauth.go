package canva

import (
	"context"
	"errors"
	"net/url"
)

// OAuth endpoint paths, relative to the Connect API base URL.
const (
	tokenPath  = "/v1/oauth/token"
	revokePath = "/v1/oauth/revoke"
)

// OAuthClient performs the OAuth exchanges against the Connect API. All of
// its endpoints require the integration's Basic-auth client credentials.
type OAuthClient struct {
	client       *Client
	clientID     string
	clientSecret string
}

// NewOAuthClient creates a client for the token and revoke endpoints.
func NewOAuthClient(baseURL, clientID, clientSecret string) *OAuthClient {
	return &OAuthClient{
		client:       NewBasicAuthClient(baseURL, clientID, clientSecret),
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// ExchangeAuthCode exchanges an authorization code plus the PKCE code
// verifier for a token pair.
func (o *OAuthClient) ExchangeAuthCode(ctx context.Context, code, codeVerifier, redirectURI string) (*TokenResponse, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"code_verifier": {codeVerifier},
		"redirect_uri":  {redirectURI},
	}
	return o.exchange(ctx, form)
}

// ExchangeRefreshToken exchanges a refresh token for a new token pair. The
// response may carry a rotated refresh token; callers must persist whatever
// comes back.
func (o *OAuthClient) ExchangeRefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	return o.exchange(ctx, form)
}

func (o *OAuthClient) exchange(ctx context.Context, form url.Values) (*TokenResponse, error) {
	var out TokenResponse
	if err := o.client.postForm(ctx, tokenPath, form, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, errors.New("no token returned when exchanging oauth code for token, but no error was returned either")
	}
	return &out, nil
}

// RevokeToken revokes the given token at the provider. Revoking the refresh
// token revokes the consent and the access token; this is how Connect API
// integrations disconnect users.
func (o *OAuthClient) RevokeToken(ctx context.Context, token string) error {
	form := url.Values{
		"client_id":     {o.clientID},
		"client_secret": {o.clientSecret},
		"token":         {token},
	}
	return o.client.postForm(ctx, revokePath, form, nil)
}
