package api

import (
	"time"

	"burnote.share/config"
	"burnote.share/internal/admin"
	"burnote.share/internal/share"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func SetupRouter(shares *share.Service, guard *admin.Guard, cfg *config.Config) *chi.Mux {
	h := NewHandler(shares, guard, cfg)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// CORS
	r.Use(CORS(CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		MaxAge:         86400,
	}))

	// Health
	r.Get("/health", h.Health)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(JSONOnly)

		if cfg.RateLimit.Enabled {
			apiLimiter := NewRateLimiter(cfg.RateLimit.RequestsPerMin, time.Minute)
			viewLimiter := NewRateLimiter(cfg.RateLimit.ViewsPerMin, time.Minute)

			r.Use(apiLimiter.Middleware)

			r.Route("/shares", func(r chi.Router) {
				r.Post("/", h.CreateShare)
				r.With(viewLimiter.Middleware).Post("/{id}/view", h.ViewShare)
				r.With(h.RequireAdmin).Get("/", h.ListShares)
				r.With(h.RequireAdmin).Delete("/{id}", h.DeleteShare)
				r.With(h.RequireAdmin).Post("/clean-expired", h.SweepExpired)
			})
		} else {
			r.Route("/shares", func(r chi.Router) {
				r.Post("/", h.CreateShare)
				r.Post("/{id}/view", h.ViewShare)
				r.With(h.RequireAdmin).Get("/", h.ListShares)
				r.With(h.RequireAdmin).Delete("/{id}", h.DeleteShare)
				r.With(h.RequireAdmin).Post("/clean-expired", h.SweepExpired)
			})
		}

		r.Post("/admin/login", h.AdminLogin)
	})

	return r
}
