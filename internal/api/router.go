package api

import (
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig holds settings for the API router.
// Passed from main.go so the router can configure CORS and auth from env vars.
type RouterConfig struct {
	// BackendAPIKey is the key that must be provided in X-API-Key or Authorization: Bearer <key>.
	// If empty, auth middleware is skipped (development mode).
	BackendAPIKey string

	// CorsAllowedOrigins is a comma-separated list of allowed origins.
	// If empty, defaults to "*" (development mode).
	CorsAllowedOrigins string
}

func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (applied to all routes including /health)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// CORS: restrict origins when configured, otherwise allow all (dev mode)
	allowedOrigins := []string{"*"}
	if cfg.CorsAllowedOrigins != "" {
		origins := strings.Split(cfg.CorsAllowedOrigins, ",")
		trimmed := make([]string, 0, len(origins))
		for _, o := range origins {
			if s := strings.TrimSpace(o); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			allowedOrigins = trimmed
		}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check — public, no auth required
	r.Get("/health", h.Health)

	// API routes — protected by API key auth
	r.Route("/v1", func(r chi.Router) {
		if cfg.BackendAPIKey != "" {
			r.Use(APIKeyAuth(cfg.BackendAPIKey))
		}

		// Brands and brand assets
		r.Get("/brands", h.ListBrands)
		r.Post("/brands", h.CreateBrand)
		r.Get("/brands/{id}/assets", h.ListBrandAssets)
		r.Post("/brands/{id}/assets", h.UploadBrandAsset)
		r.Delete("/assets/{id}", h.DeleteBrandAsset)

		// Source videos and cuts
		r.Get("/sources", h.ListSourceVideos)
		r.Post("/sources", h.UploadSourceVideo)
		r.Delete("/sources/{id}", h.DeleteSourceVideo)
		r.Get("/sources/{id}/cuts", h.ListCuts)
		r.Post("/sources/{id}/cuts", h.CreateCuts)
		r.Delete("/cuts/{id}", h.DeleteCut)

		// Jobs
		r.Get("/jobs", h.ListJobs)
		r.Post("/jobs", h.CreateJob)
		r.Get("/jobs/{id}", h.GetJob)
		r.Post("/jobs/{id}/run", h.RunJob)
		r.Get("/jobs/{id}/download", h.DownloadJob)
		r.Delete("/jobs/{id}", h.DeleteJob)

		// Subtitles
		r.Post("/jobs/{id}/generate-subtitles", h.GenerateSubtitles)
		r.Patch("/jobs/{id}/subtitles", h.UpdateSubtitles)
		r.Post("/jobs/{id}/burn-subtitles", h.BurnSubtitles)
	})

	return r
}
