package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/skillswap-api/internal/api/middleware"
	"github.com/phrazzld/skillswap-api/internal/api/shared"
	"github.com/phrazzld/skillswap-api/internal/platform/metrics"
	"github.com/phrazzld/skillswap-api/internal/service"
	"github.com/phrazzld/skillswap-api/internal/service/auth"
)

// RouterConfig holds the dependencies of the HTTP router.
type RouterConfig struct {
	Users    service.UserService
	Matches  service.MatchService
	Requests service.RequestService
	Sessions service.SessionService

	JWTService auth.JWTService

	// RateLimiter is optional; nil disables rate limiting
	RateLimiter *middleware.RateLimiter

	// Metrics records response statuses; nil disables recording
	Metrics metrics.Recorder

	// MetricsHandler serves GET /metrics when set
	MetricsHandler http.Handler

	Logger *slog.Logger
}

// NewRouter builds the HTTP handler of the API.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.Noop{}
	}

	users := NewUserHandler(cfg.Users, cfg.Matches, log)
	requests := NewRequestHandler(cfg.Requests, log)
	sessions := NewSessionHandler(cfg.Sessions, log)
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTService)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Trace(log))
	r.Use(middleware.Metrics(recorder))
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "ok"})
	})
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Middleware)
		}

		r.Route("/users/me", func(r chi.Router) {
			r.Get("/", users.GetProfile)
			r.Put("/", users.PutProfile)
			r.Get("/matches", users.GetMatches)
		})

		r.Route("/requests", func(r chi.Router) {
			r.Post("/", requests.Create)
			r.Get("/", requests.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", requests.Get)
				r.Post("/accept", requests.Accept)
				r.Post("/decline", requests.Decline)
				r.Post("/cancel", requests.Cancel)
				r.Get("/sessions", sessions.ListForRequest)
				r.Post("/sessions", sessions.Schedule)
			})
		})

		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", sessions.Get)
			r.Post("/cancel", sessions.Cancel)
			r.Post("/attendance", sessions.RecordAttendance)
			r.Post("/complete", sessions.Complete)
		})
	})

	return r
}
