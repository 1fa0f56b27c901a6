package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"clipforge/internal/db"
	"clipforge/internal/media"
	"clipforge/internal/models"
	"clipforge/internal/queue"
	"clipforge/internal/storage"
)

// MediaProber answers questions about uploaded files so sources can be
// classified at upload time. Implemented by media.Probe.
type MediaProber interface {
	Duration(ctx context.Context, path string) (float64, error)
	Dimensions(ctx context.Context, path string) (width, height int, ok bool)
	HasAudio(ctx context.Context, path string) (bool, error)
}

type Handler struct {
	db      *db.DB
	queue   *queue.Queue
	storage *storage.Store
	probe   MediaProber
}

func NewHandler(database *db.DB, q *queue.Queue, stor *storage.Store, probe MediaProber) *Handler {
	return &Handler{
		db:      database,
		queue:   q,
		storage: stor,
		probe:   probe,
	}
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateBrand handles POST /v1/brands
func (h *Handler) CreateBrand(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if req.Slug == "" {
		req.Slug = slugify(req.Name)
	}

	brand := &models.Brand{
		ID:   uuid.New(),
		Name: req.Name,
		Slug: req.Slug,
	}
	if err := h.db.CreateBrand(r.Context(), brand); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create brand")
		return
	}
	respondJSON(w, http.StatusCreated, brand)
}

// ListBrands handles GET /v1/brands
func (h *Handler) ListBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.db.ListBrands(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list brands")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"brands": brands})
}

// UploadBrandAsset handles POST /v1/brands/{id}/assets.
// Multipart form: file (required), asset_type (intro|outro|logo), label.
func (h *Handler) UploadBrandAsset(w http.ResponseWriter, r *http.Request) {
	brandID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid brand ID")
		return
	}
	if _, err := h.db.GetBrand(r.Context(), brandID); err != nil {
		respondError(w, http.StatusNotFound, "Brand not found")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	assetType := models.AssetType(strings.ToUpper(r.FormValue("asset_type")))
	switch assetType {
	case models.AssetTypeLogo, models.AssetTypeFrame, models.AssetTypeIntro,
		models.AssetTypeOutro, models.AssetTypeCTA:
	default:
		respondError(w, http.StatusBadRequest, "Invalid asset_type")
		return
	}

	rel, err := h.storage.SaveUpload("brand", header.Filename, file)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to save file")
		return
	}

	asset := &models.BrandAsset{
		ID:        uuid.New(),
		BrandID:   brandID,
		AssetType: assetType,
		File:      rel,
		Label:     r.FormValue("label"),
	}
	if err := h.db.CreateBrandAsset(r.Context(), asset); err != nil {
		h.storage.Remove(rel)
		respondError(w, http.StatusInternalServerError, "Failed to create asset")
		return
	}
	respondJSON(w, http.StatusCreated, asset)
}

// ListBrandAssets handles GET /v1/brands/{id}/assets
func (h *Handler) ListBrandAssets(w http.ResponseWriter, r *http.Request) {
	brandID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid brand ID")
		return
	}
	assets, err := h.db.ListBrandAssets(r.Context(), brandID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list assets")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"assets": assets})
}

// DeleteBrandAsset handles DELETE /v1/assets/{id}
func (h *Handler) DeleteBrandAsset(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid asset ID")
		return
	}
	asset, err := h.db.GetBrandAsset(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "Asset not found")
		return
	}
	if err := h.db.DeleteBrandAsset(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete asset")
		return
	}
	h.storage.Remove(asset.File)
	w.WriteHeader(http.StatusNoContent)
}

// UploadSourceVideo handles POST /v1/sources.
// Multipart form: file (required), brand_id (required), title.
// The file is probed so duration, dimensions and audio presence are known
// before any cut references it.
func (h *Handler) UploadSourceVideo(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	brandID, err := uuid.Parse(r.FormValue("brand_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid brand ID")
		return
	}
	if _, err := h.db.GetBrand(r.Context(), brandID); err != nil {
		respondError(w, http.StatusNotFound, "Brand not found")
		return
	}

	rel, err := h.storage.SaveUpload("sources", header.Filename, file)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to save file")
		return
	}

	abs := h.storage.Abs(rel)
	duration, err := h.probe.Duration(r.Context(), abs)
	if err != nil {
		h.storage.Remove(rel)
		respondError(w, http.StatusBadRequest, "Could not analyze video: "+err.Error())
		return
	}

	src := &models.SourceVideo{
		ID:          uuid.New(),
		BrandID:     brandID,
		Title:       r.FormValue("title"),
		File:        rel,
		DurationSec: &duration,
	}
	if src.Title == "" {
		src.Title = header.Filename
	}
	if width, height, ok := h.probe.Dimensions(r.Context(), abs); ok {
		src.Width = &width
		src.Height = &height
	}
	if hasAudio, err := h.probe.HasAudio(r.Context(), abs); err == nil {
		src.HasAudio = &hasAudio
	}

	if err := h.db.CreateSourceVideo(r.Context(), src); err != nil {
		h.storage.Remove(rel)
		respondError(w, http.StatusInternalServerError, "Failed to create source video")
		return
	}
	respondJSON(w, http.StatusCreated, src)
}

// ListSourceVideos handles GET /v1/sources?brand_id=
func (h *Handler) ListSourceVideos(w http.ResponseWriter, r *http.Request) {
	var brandID *uuid.UUID
	if v := r.URL.Query().Get("brand_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid brand ID")
			return
		}
		brandID = &id
	}

	sources, err := h.db.ListSourceVideos(r.Context(), brandID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list source videos")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"sources": sources})
}

// DeleteSourceVideo handles DELETE /v1/sources/{id}
func (h *Handler) DeleteSourceVideo(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid source ID")
		return
	}
	src, err := h.db.GetSourceVideo(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "Source video not found")
		return
	}
	if err := h.db.DeleteSourceVideo(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete source video")
		return
	}
	h.storage.Remove(src.File)
	w.WriteHeader(http.StatusNoContent)
}

// CreateCuts handles POST /v1/sources/{id}/cuts. Accepts a batch of timecode
// spans; each is validated against the probed source duration.
func (h *Handler) CreateCuts(w http.ResponseWriter, r *http.Request) {
	sourceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid source ID")
		return
	}
	src, err := h.db.GetSourceVideo(r.Context(), sourceID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Source video not found")
		return
	}

	var req models.CreateCutsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Cuts) == 0 {
		respondError(w, http.StatusBadRequest, "At least one cut is required")
		return
	}

	cuts := make([]*models.Cut, 0, len(req.Cuts))
	for _, spec := range req.Cuts {
		start, err := media.ParseTimecode(spec.StartTC)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid start_tc: "+spec.StartTC)
			return
		}
		end, err := media.ParseTimecode(spec.EndTC)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid end_tc: "+spec.EndTC)
			return
		}
		if end <= start {
			respondError(w, http.StatusBadRequest, "end_tc must be after start_tc")
			return
		}
		if src.DurationSec != nil && end > *src.DurationSec+0.001 {
			respondError(w, http.StatusBadRequest, "Cut extends past the end of the source")
			return
		}
		cuts = append(cuts, &models.Cut{
			ID:          uuid.New(),
			SourceID:    sourceID,
			Name:        spec.Name,
			StartTC:     spec.StartTC,
			EndTC:       spec.EndTC,
			DurationSec: end - start,
		})
	}

	if err := h.db.CreateCuts(r.Context(), cuts); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create cuts")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{"cuts": cuts})
}

// ListCuts handles GET /v1/sources/{id}/cuts
func (h *Handler) ListCuts(w http.ResponseWriter, r *http.Request) {
	sourceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid source ID")
		return
	}
	cuts, err := h.db.ListCuts(r.Context(), sourceID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list cuts")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"cuts": cuts})
}

// DeleteCut handles DELETE /v1/cuts/{id}
func (h *Handler) DeleteCut(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid cut ID")
		return
	}
	if err := h.db.DeleteCut(r.Context(), id); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
