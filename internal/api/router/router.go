package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rochsolutions/ai-receptionist/internal/gcal"
	"github.com/rochsolutions/ai-receptionist/internal/http/handlers"
	httpmiddleware "github.com/rochsolutions/ai-receptionist/internal/http/middleware"
	"github.com/rochsolutions/ai-receptionist/internal/session"
	"github.com/rochsolutions/ai-receptionist/internal/telephony"
	"github.com/rochsolutions/ai-receptionist/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger           *logging.Logger
	TelephonyHandler *telephony.Handler
	OAuthHandler     *gcal.OAuthHandler
	DebugHandler     *handlers.DebugHandler
	Sessions         *session.Store
	MetricsHandler   http.Handler

	// AdminAuthSecret enables the /debug routes when set.
	AdminAuthSecret string

	CORSAllowedOrigins []string

	// Webhook rate limiting, per caller IP. Zero disables it.
	WebhookRatePerSec float64
	WebhookRateBurst  int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (webhooks, health checks)
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck(cfg.Sessions))

		public.Route("/webhooks/twilio", func(r chi.Router) {
			if cfg.WebhookRatePerSec > 0 {
				r.Use(httpmiddleware.RateLimit(cfg.WebhookRatePerSec, cfg.WebhookRateBurst))
			}
			r.Post("/voice", cfg.TelephonyHandler.Voice)
			r.Post("/turn", cfg.TelephonyHandler.Turn)
		})

		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}

		// Google OAuth handshake; the callback must stay public for the
		// consent redirect to land.
		if cfg.OAuthHandler != nil {
			public.Mount("/oauth", cfg.OAuthHandler.Routes())
		}
	})

	// Admin endpoints
	if cfg.DebugHandler != nil && cfg.AdminAuthSecret != "" {
		r.Route("/debug", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/session/{callID}", cfg.DebugHandler.Session)
			admin.Get("/redis", cfg.DebugHandler.Redis)
		})
	}

	return r
}

// healthCheck reports liveness plus Redis reachability.
func healthCheck(sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if sessions != nil {
			if err := sessions.Ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded","redis":"unreachable"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
