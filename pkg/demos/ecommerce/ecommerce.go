// Package ecommerce is the shop demo backend: a seeded product catalog
// plus routes that exercise asset uploads, brand template autofill and
// design exports against the Connect API.
package ecommerce

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/database"
	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/demos"
)

// Product is one catalog entry.
type Product struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"imageUrl"`
}

// Schema is the demo's database document.
type Schema struct {
	database.BaseSchema
	Products []Product `json:"products"`
}

// NewDocument returns an empty document for reads.
func NewDocument() database.Document {
	return &Schema{}
}

// Seed is the initial database contents.
func Seed() Schema {
	return Schema{
		Products: []Product{
			{ID: uuid.NewString(), Name: "Classic Mug", Price: 14.95, ImageURL: "https://picsum.photos/seed/mug/600/400"},
			{ID: uuid.NewString(), Name: "Canvas Tote", Price: 24.50, ImageURL: "https://picsum.photos/seed/tote/600/400"},
			{ID: uuid.NewString(), Name: "Desk Plant", Price: 32.00, ImageURL: "https://picsum.photos/seed/plant/600/400"},
			{ID: uuid.NewString(), Name: "Notebook Set", Price: 18.75, ImageURL: "https://picsum.photos/seed/notebook/600/400"},
		},
	}
}

// Backend serves the shop demo's routes.
type Backend struct {
	db *database.Store
}

// NewBackend creates the shop demo backend over the given database.
func NewBackend(db *database.Store) *Backend {
	return &Backend{db: db}
}

// PublicRoutes registers the routes reachable without authorization.
func (b *Backend) PublicRoutes(r chi.Router) {
	r.Get("/products", b.listProducts)
	r.Get("/products/{id}", b.getProduct)
}

// ProtectedRoutes registers the routes that need an authenticated client.
func (b *Backend) ProtectedRoutes(r chi.Router) {
	r.Post("/asset/upload", b.uploadAsset)
	r.Get("/brand-templates", b.listBrandTemplates)
	r.Get("/brand-templates/{id}/dataset", b.getBrandTemplateDataset)
	r.Post("/autofill", b.autofill)
	r.Post("/export", b.export)
	r.Get("/user", b.user)
	r.Post("/return-nav", b.returnNav)
}

func (b *Backend) listProducts(w http.ResponseWriter, r *http.Request) {
	var doc Schema
	if err := b.db.Read(r.Context(), &doc); err != nil {
		demos.WriteError(w, err)
		return
	}
	demos.WriteJSON(w, http.StatusOK, map[string]any{"products": doc.Products})
}

func (b *Backend) getProduct(w http.ResponseWriter, r *http.Request) {
	var doc Schema
	if err := b.db.Read(r.Context(), &doc); err != nil {
		demos.WriteError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	for _, p := range doc.Products {
		if p.ID == id {
			demos.WriteJSON(w, http.StatusOK, map[string]any{"product": p})
			return
		}
	}
	http.Error(w, "Not Found", http.StatusNotFound)
}
