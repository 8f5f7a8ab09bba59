// Package playground is the minimal demo backend: the authorization
// surface plus a profile route, intended for driving the Connect API from
// the frontend with the /token helper.
package playground

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/database"
	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/demos"
)

// Schema is the demo's database document. The playground stores nothing
// beyond user credentials.
type Schema struct {
	database.BaseSchema
}

// NewDocument returns an empty document for reads.
func NewDocument() database.Document {
	return &Schema{}
}

// Seed is the initial database contents.
func Seed() Schema {
	return Schema{}
}

// Backend serves the playground demo's routes.
type Backend struct{}

// NewBackend creates the playground demo backend.
func NewBackend() *Backend {
	return &Backend{}
}

// PublicRoutes registers the routes reachable without authorization. The
// playground has none of its own.
func (b *Backend) PublicRoutes(r chi.Router) {}

// ProtectedRoutes registers the routes that need an authenticated client.
func (b *Backend) ProtectedRoutes(r chi.Router) {
	r.Get("/user", b.user)
}

func (b *Backend) user(w http.ResponseWriter, r *http.Request) {
	client, err := demos.Client(r)
	if err != nil {
		demos.WriteError(w, err)
		return
	}
	profile, err := client.GetUserProfile(r.Context())
	if err != nil {
		demos.WriteError(w, err)
		return
	}
	demos.WriteJSON(w, http.StatusOK, profile)
}
