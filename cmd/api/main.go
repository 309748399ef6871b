package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rochsolutions/ai-receptionist/internal/api/router"
	"github.com/rochsolutions/ai-receptionist/internal/app/bootstrap"
	"github.com/rochsolutions/ai-receptionist/internal/clinic"
	appconfig "github.com/rochsolutions/ai-receptionist/internal/config"
	"github.com/rochsolutions/ai-receptionist/internal/dialogue"
	"github.com/rochsolutions/ai-receptionist/internal/gcal"
	"github.com/rochsolutions/ai-receptionist/internal/http/handlers"
	"github.com/rochsolutions/ai-receptionist/internal/observability/metrics"
	"github.com/rochsolutions/ai-receptionist/internal/session"
	"github.com/rochsolutions/ai-receptionist/internal/telephony"
	"github.com/rochsolutions/ai-receptionist/pkg/logging"
)

const turnPath = "/webhooks/twilio/turn"

func main() {
	// Local development convenience; production supplies real env vars.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting ai-receptionist API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	rdb := bootstrap.BuildRedisClient(context.Background(), cfg, logger, true)
	if rdb == nil {
		logger.Error("redis is required for call sessions and calendar tokens")
		os.Exit(1)
	}

	clinics, err := clinic.LoadRegistry(cfg.DefaultClinicID, cfg.ClinicRegistryJSON)
	if err != nil {
		logger.Error("failed to load clinic registry", "error", err)
		os.Exit(1)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	dialogueMetrics := metrics.NewDialogueMetrics(registry)
	calendarMetrics := metrics.NewCalendarMetrics(registry)
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	// Google Calendar
	oauthCfg := gcal.NewOAuthConfig(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.PublicBaseURL+"/oauth/google/callback",
	)
	tokens := gcal.NewTokenStore(rdb)
	calendarClient := gcal.NewClient(tokens, oauthCfg, logger,
		gcal.WithTimeout(cfg.CalendarTimeout),
		gcal.WithMetrics(calendarMetrics),
	)

	// Dialogue engine and session persistence
	sessions := session.NewStore(rdb, cfg.SessionTTL, logger)
	machine := dialogue.NewMachine(clinics, calendarClient, dialogueMetrics, logger)

	// Handlers
	telephonyHandler := telephony.NewHandler(cfg.TwilioAuthToken, turnPath, sessions, machine, logger)
	oauthHandler := gcal.NewOAuthHandler(oauthCfg, tokens, logger)
	debugHandler := handlers.NewDebugHandler(sessions, rdb, logger)

	// Setup router
	r := router.New(&router.Config{
		Logger:             logger,
		TelephonyHandler:   telephonyHandler,
		OAuthHandler:       oauthHandler,
		DebugHandler:       debugHandler,
		Sessions:           sessions,
		MetricsHandler:     metricsHandler,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		WebhookRatePerSec:  cfg.WebhookRatePerSec,
		WebhookRateBurst:   cfg.WebhookRateBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if err := rdb.Close(); err != nil {
		logger.Warn("redis close failed", "error", err)
	}

	logger.Info("server stopped")
}
