package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"cstore-dashboard/internal/census"
	"cstore-dashboard/internal/config"
	"cstore-dashboard/internal/dataset"
	"cstore-dashboard/internal/middleware"
	"cstore-dashboard/internal/observability"
	"cstore-dashboard/internal/server"
	"cstore-dashboard/internal/services"
	"cstore-dashboard/internal/ui/templates"
)

const (
	renderTimeout  = 10 * time.Second
	datasetTimeout = 60 * time.Second
	cacheMaxAge    = "public, max-age=300"
)

func handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	w.Header().Set("Cache-Control", cacheMaxAge)
	if err := templates.Dashboard().Render(ctx, w); err != nil {
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

// dataSource prefers the parquet directory and falls back to the CSV
// extract when the directory is missing.
func dataSource(cfg config.DataConfig) string {
	if cfg.DataDir != "" {
		if info, err := os.Stat(cfg.DataDir); err == nil && info.IsDir() {
			return cfg.DataDir
		}
	}
	return cfg.CSVFile
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"config", cfg,
	)

	loader := dataset.NewLoader(logger)

	// A missing or broken dataset must not keep the server down; the
	// dashboard starts with an empty snapshot and renders empty states.
	source := dataSource(cfg.Data)
	ctx, cancel := context.WithTimeout(context.Background(), datasetTimeout)
	start := time.Now()
	if snap, err := loader.Load(ctx, source); err != nil {
		logger.Warn("dataset load failed, serving empty snapshot",
			"source", source,
			"error", err,
		)
	} else {
		logger.Info("dataset loaded",
			"source", source,
			"records", len(snap.Records),
			"stores", len(snap.Stores),
			"skipped", snap.Skipped,
			"duration", time.Since(start),
		)
	}
	cancel()

	analytics := services.NewAnalytics(loader, logger)
	censusClient := census.NewClient(cfg.Census)
	demographics := services.NewDemographics(censusClient, loader, logger)

	templateHandlers := &server.TemplateHandlers{
		Dashboard: handleDashboard,
	}

	srv := server.NewServer(analytics, demographics, logger, templateHandlers)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	handler := middlewareChain(srv)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("shutting down analytics service")
		return nil
	})

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
