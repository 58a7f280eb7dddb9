package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"rewear/internal/handler"
	"rewear/internal/httputil"
	authmw "rewear/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	UserHandler  *handler.UserHandler
	ItemHandler  *handler.ItemHandler
	SwapHandler  *handler.SwapHandler
	MediaHandler *handler.MediaHandler
	JWTSecret    string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	// Public catalog endpoints - browsing needs no account
	r.Route("/items", func(r chi.Router) {
		r.Get("/", cfg.ItemHandler.List)
		r.Get("/trending", cfg.ItemHandler.Trending)
		r.Get("/{id}", cfg.ItemHandler.GetByID)
	})

	// Public profile endpoints
	r.Route("/users", func(r chi.Router) {
		r.With(authmw.OptionalAuthMiddleware(cfg.JWTSecret)).Get("/{id}", cfg.UserHandler.GetProfile)
		r.Get("/{id}/stats", cfg.UserHandler.GetStats)
		r.Get("/{id}/items", cfg.UserHandler.GetItems)
	})

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		// Identity sync and profile management
		r.Post("/users/sync", cfg.UserHandler.Sync)
		r.Put("/users/{id}", cfg.UserHandler.UpdateProfile)
		r.Post("/users/me/avatar", cfg.UserHandler.UploadAvatar)

		// Listing management
		r.Post("/items", cfg.ItemHandler.Create)
		r.Put("/items/{id}", cfg.ItemHandler.Update)
		r.Delete("/items/{id}", cfg.ItemHandler.Delete)
		r.Post("/items/{id}/like", cfg.ItemHandler.Like)
		r.Delete("/items/{id}/like", cfg.ItemHandler.Unlike)

		// Swap workflow
		r.Route("/swaps", func(r chi.Router) {
			r.Post("/", cfg.SwapHandler.Create)
			r.Get("/", cfg.SwapHandler.List)
			r.Get("/{id}", cfg.SwapHandler.GetByID)
			r.Post("/{id}/accept", cfg.SwapHandler.Accept)
			r.Post("/{id}/decline", cfg.SwapHandler.Decline)
			r.Post("/{id}/cancel", cfg.SwapHandler.Cancel)
			r.Post("/{id}/complete", cfg.SwapHandler.Complete)
		})

		// Media endpoints (direct-to-R2 uploads)
		r.Post("/media/items/presign", cfg.MediaHandler.PresignItemUpload)
	})

	return r
}
