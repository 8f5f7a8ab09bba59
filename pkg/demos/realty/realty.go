// Package realty is the real-estate demo backend: seeded property and
// broker listings plus a route that autofills a property flyer from a
// brand template.
package realty

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/canva"
	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/database"
	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/demos"
	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/poll"
)

// Property is one real-estate listing.
type Property struct {
	ID        string  `json:"id"`
	Address   string  `json:"address"`
	Price     float64 `json:"price"`
	Bedrooms  int     `json:"bedrooms"`
	Bathrooms int     `json:"bathrooms"`
	ImageURL  string  `json:"imageUrl"`
}

// Broker is a listing agent.
type Broker struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Schema is the demo's database document.
type Schema struct {
	database.BaseSchema
	Properties []Property `json:"properties"`
	Brokers    []Broker   `json:"brokers"`
}

// NewDocument returns an empty document for reads.
func NewDocument() database.Document {
	return &Schema{}
}

// Seed is the initial database contents.
func Seed() Schema {
	return Schema{
		Properties: []Property{
			{ID: uuid.NewString(), Address: "12 Harbour View Rd", Price: 1250000, Bedrooms: 4, Bathrooms: 2, ImageURL: "https://picsum.photos/seed/harbour/800/600"},
			{ID: uuid.NewString(), Address: "87 Wattle St", Price: 860000, Bedrooms: 3, Bathrooms: 1, ImageURL: "https://picsum.photos/seed/wattle/800/600"},
			{ID: uuid.NewString(), Address: "4/20 Queen Pde", Price: 615000, Bedrooms: 2, Bathrooms: 1, ImageURL: "https://picsum.photos/seed/queen/800/600"},
		},
		Brokers: []Broker{
			{ID: uuid.NewString(), Name: "Ava Ngata", Email: "ava@example-realty.com"},
			{ID: uuid.NewString(), Name: "Marcus Liu", Email: "marcus@example-realty.com"},
		},
	}
}

// Backend serves the realty demo's routes.
type Backend struct {
	db *database.Store
}

// NewBackend creates the realty demo backend over the given database.
func NewBackend(db *database.Store) *Backend {
	return &Backend{db: db}
}

// PublicRoutes registers the routes reachable without authorization.
func (b *Backend) PublicRoutes(r chi.Router) {
	r.Get("/properties", b.listProperties)
	r.Get("/brokers", b.listBrokers)
}

// ProtectedRoutes registers the routes that need an authenticated client.
func (b *Backend) ProtectedRoutes(r chi.Router) {
	r.Post("/flyer", b.createFlyer)
}

func (b *Backend) listProperties(w http.ResponseWriter, r *http.Request) {
	var doc Schema
	if err := b.db.Read(r.Context(), &doc); err != nil {
		demos.WriteError(w, err)
		return
	}
	demos.WriteJSON(w, http.StatusOK, map[string]any{"properties": doc.Properties})
}

func (b *Backend) listBrokers(w http.ResponseWriter, r *http.Request) {
	var doc Schema
	if err := b.db.Read(r.Context(), &doc); err != nil {
		demos.WriteError(w, err)
		return
	}
	demos.WriteJSON(w, http.StatusOK, map[string]any{"brokers": doc.Brokers})
}

type flyerRequest struct {
	PropertyID      string `json:"propertyId"`
	BrokerID        string `json:"brokerId"`
	BrandTemplateID string `json:"brandTemplateId"`
}

// createFlyer autofills a flyer template with a property's details and the
// listing broker's contact information, blocking until the design is ready.
func (b *Backend) createFlyer(w http.ResponseWriter, r *http.Request) {
	client, err := demos.Client(r)
	if err != nil {
		demos.WriteError(w, err)
		return
	}

	var req flyerRequest
	if err := demos.DecodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.PropertyID == "" || req.BrokerID == "" || req.BrandTemplateID == "" {
		http.Error(w, "propertyId, brokerId and brandTemplateId are required", http.StatusBadRequest)
		return
	}

	var doc Schema
	if err := b.db.Read(r.Context(), &doc); err != nil {
		demos.WriteError(w, err)
		return
	}
	property, broker, err := lookup(&doc, req.PropertyID, req.BrokerID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	price := property.Price
	created, err := client.CreateAutofillJob(r.Context(), &canva.CreateAutofillRequest{
		BrandTemplateID: req.BrandTemplateID,
		Title:           "Flyer for " + property.Address,
		Data: map[string]canva.AutofillValue{
			"address":      {Type: "text", Text: property.Address},
			"price":        {Type: "number", Number: &price},
			"broker_name":  {Type: "text", Text: broker.Name},
			"broker_email": {Type: "text", Text: broker.Email},
		},
	})
	if err != nil {
		demos.WriteError(w, err)
		return
	}

	job, err := poll.Until(r.Context(), func(ctx context.Context) (*canva.AutofillJobResponse, bool, error) {
		resp, err := client.GetAutofillJob(ctx, created.Job.ID)
		if err != nil {
			return nil, false, err
		}
		switch resp.Job.Status {
		case canva.JobStatusSuccess:
			return resp, true, nil
		case canva.JobStatusFailed:
			return nil, false, errors.New("flyer autofill job failed")
		default:
			return nil, false, nil
		}
	})
	if err != nil {
		demos.WriteError(w, err)
		return
	}
	demos.WriteJSON(w, http.StatusOK, job)
}

func lookup(doc *Schema, propertyID, brokerID string) (*Property, *Broker, error) {
	var property *Property
	for i := range doc.Properties {
		if doc.Properties[i].ID == propertyID {
			property = &doc.Properties[i]
		}
	}
	if property == nil {
		return nil, nil, errors.New("property not found")
	}
	var broker *Broker
	for i := range doc.Brokers {
		if doc.Brokers[i].ID == brokerID {
			broker = &doc.Brokers[i]
		}
	}
	if broker == nil {
		return nil, nil, errors.New("broker not found")
	}
	return property, broker, nil
}
