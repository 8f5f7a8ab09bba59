package ecommerce

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/canva"
	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/demos"
	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/poll"
)

// maxUploadBytes bounds the size of an uploaded asset.
const maxUploadBytes = 25 << 20

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

func (b *Backend) listBrandTemplates(w http.ResponseWriter, r *http.Request) {
	client, err := demos.Client(r)
	if err != nil {
		demos.WriteError(w, err)
		return
	}
	templates, err := client.ListBrandTemplates(r.Context())
	if err != nil {
		demos.WriteError(w, err)
		return
	}
	demos.WriteJSON(w, http.StatusOK, templates)
}

func (b *Backend) getBrandTemplateDataset(w http.ResponseWriter, r *http.Request) {
	client, err := demos.Client(r)
	if err != nil {
		demos.WriteError(w, err)
		return
	}
	dataset, err := client.GetBrandTemplateDataset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		demos.WriteError(w, err)
		return
	}
	demos.WriteJSON(w, http.StatusOK, dataset)
}

// uploadAsset accepts a multipart file, uploads it as a Canva asset and
// waits for the upload job to finish before responding.
func (b *Backend) uploadAsset(w http.ResponseWriter, r *http.Request) {
	client, err := demos.Client(r)
	if err != nil {
		demos.WriteError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file upload", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		demos.WriteError(w, err)
		return
	}

	created, err := client.CreateAssetUpload(r.Context(), header.Filename, data)
	if err != nil {
		demos.WriteError(w, err)
		return
	}

	job, err := awaitAssetUpload(r.Context(), client, created)
	if err != nil {
		demos.WriteError(w, err)
		return
	}
	demos.WriteJSON(w, http.StatusOK, job)
}

type autofillRequest struct {
	BrandTemplateID string                         `json:"brandTemplateId"`
	Title           string                         `json:"title"`
	Data            map[string]canva.AutofillValue `json:"data"`
}

// autofill creates an autofill job from the supplied template and data and
// blocks until the job completes, returning the generated design.
func (b *Backend) autofill(w http.ResponseWriter, r *http.Request) {
	client, err := demos.Client(r)
	if err != nil {
		demos.WriteError(w, err)
		return
	}

	var req autofillRequest
	if err := demos.DecodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.BrandTemplateID == "" || len(req.Data) == 0 {
		http.Error(w, "brandTemplateId and data are required", http.StatusBadRequest)
		return
	}

	created, err := client.CreateAutofillJob(r.Context(), &canva.CreateAutofillRequest{
		BrandTemplateID: req.BrandTemplateID,
		Title:           req.Title,
		Data:            req.Data,
	})
	if err != nil {
		demos.WriteError(w, err)
		return
	}

	job, err := awaitAutofill(r.Context(), client, created)
	if err != nil {
		demos.WriteError(w, err)
		return
	}
	demos.WriteJSON(w, http.StatusOK, job)
}

type exportRequest struct {
	DesignID string `json:"designId"`
	Format   string `json:"format"`
}

// export renders a design into a downloadable artifact and blocks until
// the export job completes.
func (b *Backend) export(w http.ResponseWriter, r *http.Request) {
	client, err := demos.Client(r)
	if err != nil {
		demos.WriteError(w, err)
		return
	}

	var req exportRequest
	if err := demos.DecodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.DesignID == "" {
		http.Error(w, "designId is required", http.StatusBadRequest)
		return
	}
	if req.Format == "" {
		req.Format = "pdf"
	}

	created, err := client.CreateDesignExportJob(r.Context(), &canva.CreateExportRequest{
		DesignID: req.DesignID,
		Format:   canva.ExportFormat{Type: req.Format},
	})
	if err != nil {
		demos.WriteError(w, err)
		return
	}

	job, err := awaitExport(r.Context(), client, created)
	if err != nil {
		demos.WriteError(w, err)
		return
	}
	demos.WriteJSON(w, http.StatusOK, job)
}

type returnNavRequest struct {
	AssetID string `json:"assetId"`
	Title   string `json:"title"`
}

// returnNav creates a design for the return navigation flow: the frontend
// sends the user into the Canva editor and gets them back afterwards.
func (b *Backend) returnNav(w http.ResponseWriter, r *http.Request) {
	client, err := demos.Client(r)
	if err != nil {
		demos.WriteError(w, err)
		return
	}

	var req returnNavRequest
	if err := demos.DecodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	design, err := client.CreateDesign(r.Context(), &canva.CreateDesignRequest{
		DesignType: &canva.DesignType{Type: "preset", Name: "presentation"},
		AssetID:    req.AssetID,
		Title:      req.Title,
	})
	if err != nil {
		demos.WriteError(w, err)
		return
	}
	demos.WriteJSON(w, http.StatusOK, design)
}

// awaitAssetUpload polls an asset upload job to completion.
func awaitAssetUpload(ctx context.Context, client *canva.Client, created *canva.AssetUploadJobResponse) (*canva.AssetUploadJobResponse, error) {
	return poll.Until(ctx, func(ctx context.Context) (*canva.AssetUploadJobResponse, bool, error) {
		resp, err := client.GetAssetUploadJob(ctx, created.Job.ID)
		if err != nil {
			return nil, false, err
		}
		switch resp.Job.Status {
		case canva.JobStatusSuccess:
			return resp, true, nil
		case canva.JobStatusFailed:
			return nil, false, errors.New("asset upload job failed")
		default:
			return nil, false, nil
		}
	})
}

// awaitAutofill polls an autofill job to completion.
func awaitAutofill(ctx context.Context, client *canva.Client, created *canva.AutofillJobResponse) (*canva.AutofillJobResponse, error) {
	return poll.Until(ctx, func(ctx context.Context) (*canva.AutofillJobResponse, bool, error) {
		resp, err := client.GetAutofillJob(ctx, created.Job.ID)
		if err != nil {
			return nil, false, err
		}
		switch resp.Job.Status {
		case canva.JobStatusSuccess:
			return resp, true, nil
		case canva.JobStatusFailed:
			return nil, false, errors.New("autofill job failed")
		default:
			return nil, false, nil
		}
	})
}

// awaitExport polls an export job to completion.
func awaitExport(ctx context.Context, client *canva.Client, created *canva.ExportJobResponse) (*canva.ExportJobResponse, error) {
	return poll.Until(ctx, func(ctx context.Context) (*canva.ExportJobResponse, bool, error) {
		resp, err := client.GetDesignExportJob(ctx, created.Job.ID)
		if err != nil {
			return nil, false, err
		}
		switch resp.Job.Status {
		case canva.JobStatusSuccess:
			return resp, true, nil
		case canva.JobStatusFailed:
			return nil, false, fmt.Errorf("export job %s failed", resp.Job.ID)
		default:
			return nil, false, nil
		}
	})
}
