// Package demos holds the handler plumbing shared by the demo backends.
package demos

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/auth"
	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/canva"
	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/logger"
)

// WriteJSON writes v as a JSON response.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf("failed to write response: %v", err)
	}
}

// WriteError maps an error to a response. Provider errors pass through with
// the provider's own status and body so the frontend sees the real cause;
// everything else is an opaque 500.
func WriteError(w http.ResponseWriter, err error) {
	var apiErr *canva.APIError
	if errors.As(err, &apiErr) {
		w.WriteHeader(apiErr.Status)
		_, _ = w.Write(apiErr.Body)
		return
	}
	logger.Errorf("request failed: %v", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// DecodeJSON decodes the request body into v.
func DecodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// Client returns the authenticated API client injected by the auth
// middleware. Handlers registered on protected route groups can rely on it
// being present; a missing client is a wiring bug.
func Client(r *http.Request) (*canva.Client, error) {
	client, ok := auth.ClientFromContext(r.Context())
	if !ok {
		return nil, errors.New("no api client in request context")
	}
	return client, nil
}
