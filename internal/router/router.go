package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"clipstudy-backend/internal/handlers"
	"clipstudy-backend/internal/middleware"
	"clipstudy-backend/internal/websocket"
)

// New builds the HTTP routing table. jobHandler, historyHandler and wsHub
// are nil when their backing services (Redis, Postgres) are not configured;
// those routes are simply not registered.
func New(
	healthHandler *handlers.HealthHandler,
	processHandler *handlers.ProcessHandler,
	cacheAdminHandler *handlers.CacheAdminHandler,
	historyHandler *handlers.HistoryHandler,
	jobHandler *handlers.JobHandler,
	wsHub *websocket.Hub,
	adminAuth *middleware.AdminAuth,
	rateLimitMax int,
	rateLimitWindow time.Duration,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Generation endpoints share one per-IP limiter; everything else is
	// cheap enough to leave unmetered.
	processLimiter := middleware.NewRateLimiter(rateLimitMax, rateLimitWindow)

	// Health check
	r.Get("/health", healthHandler.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.Health)

		// ──── Processing Routes ────
		r.Group(func(r chi.Router) {
			r.Use(processLimiter.Middleware)
			r.Post("/process", processHandler.ProcessYouTube)
			r.Post("/process-youtube", processHandler.ProcessYouTube) // legacy alias
			r.Post("/process-transcript", processHandler.ProcessTranscript)
			r.Post("/process-file", processHandler.ProcessFile)
		})

		// ──── Job Routes (async path, requires Redis + Postgres) ────
		if jobHandler != nil {
			r.Route("/jobs", func(r chi.Router) {
				r.With(processLimiter.Middleware).Post("/", jobHandler.Submit)
				r.Get("/{id}", jobHandler.Get)
			})
		}

		// ──── History Routes (requires Postgres) ────
		if historyHandler != nil {
			r.Get("/history", historyHandler.List)
		}

		// ──── WebSocket ────
		if wsHub != nil {
			r.Get("/ws", wsHub.HandleWebSocket)
		}

		// ──── Admin Routes ────
		r.Route("/admin", func(r chi.Router) {
			r.Use(adminAuth.Middleware)
			r.Get("/cache/stats", cacheAdminHandler.Stats)
			r.Delete("/cache", cacheAdminHandler.Clear)
			r.Delete("/cache/{fingerprint}", cacheAdminHandler.Delete)
		})
	})

	return r
}
