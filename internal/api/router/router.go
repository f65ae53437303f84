package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpmiddleware "github.com/wolfman30/smp-leadform/internal/http/middleware"
	"github.com/wolfman30/smp-leadform/internal/leads"
	"github.com/wolfman30/smp-leadform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	LeadsHandler       *leads.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	// SubmitLimiter throttles session creation and submits per client. Optional.
	SubmitLimiter *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	r.Get("/health", health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	h := cfg.LeadsHandler
	if h == nil {
		return r
	}

	throttle := func(next http.Handler) http.Handler { return next }
	if cfg.SubmitLimiter != nil {
		throttle = cfg.SubmitLimiter.Middleware
	}

	r.Get("/format/phone", h.FormatPhone)
	r.With(throttle).Post("/sessions", h.CreateSession)
	r.Route("/sessions/{sessionID}", func(s chi.Router) {
		s.Get("/", h.GetSession)
		s.Post("/steps/{step}", h.AdvanceStep)
		s.Post("/steps/{step}/change", h.ChangeStep)
		s.Post("/back", h.Back)
		s.Post("/keypress", h.KeyPress)
		s.With(throttle).Post("/submit", h.Submit)

		s.Put("/progress", h.SaveProgress)
		s.Get("/progress", h.GetProgress)
		s.Delete("/progress", h.ClearProgress)
	})

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
