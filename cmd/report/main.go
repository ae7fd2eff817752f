package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"shopping-trends/internal/config"
	"shopping-trends/internal/export"
	"shopping-trends/internal/middleware"
	"shopping-trends/internal/observability"
	"shopping-trends/internal/server"
	"shopping-trends/internal/services"
	"shopping-trends/internal/ui"
)

const (
	renderTimeout          = 10 * time.Second
	rateLimiterSweepPeriod = time.Minute
)

// dashboardHandler renders the dashboard for the current run.
func dashboardHandler(reports *services.Reports) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		if err := ui.Dashboard(reports.Run(), reports).Render(ctx, w); err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

// newHandler wires routes and the middleware chain.
func newHandler(cfg *config.Config, reports *services.Reports, limiter *middleware.RateLimiter, logger *slog.Logger) http.Handler {
	templateHandlers := &server.TemplateHandlers{
		Dashboard: dashboardHandler(reports),
	}

	srv := server.NewServer(reports, logger, templateHandlers)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(limiter, logger),
	)

	return middlewareChain(srv)
}

// exportReport writes the current run to the output directory and, when
// a bucket is configured, to S3.
func exportReport(ctx context.Context, cfg *config.Config, reports *services.Reports, logger *slog.Logger) (export.Manifest, error) {
	var uploader export.Uploader
	if cfg.Storage.S3Bucket != "" {
		s3Uploader, err := export.NewS3Uploader(ctx, cfg.Storage.S3Bucket, cfg.Storage.S3Region, cfg.Storage.AWSProfile)
		if err != nil {
			return export.Manifest{}, err
		}
		uploader = s3Uploader
		logger.Info("uploading artifacts to S3",
			"bucket", cfg.Storage.S3Bucket,
			"prefix", cfg.Storage.S3Prefix)
	}

	return export.NewSink(cfg, uploader, logger).Write(ctx, reports.Run())
}

func serve(ctx context.Context, cfg *config.Config, reports *services.Reports, logger *slog.Logger) error {
	limiter := middleware.NewRateLimiter(cfg.Security)
	sweepCtx, stopSweep := context.WithCancel(ctx)
	go limiter.Run(sweepCtx, rateLimiterSweepPeriod)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, reports, limiter, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("stopping rate limiter sweep")
		stopSweep()
		return nil
	})

	logger.Info("starting graceful server", "run_id", reports.Run().ID)
	return gracefulServer.ListenAndServe(ctx)
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
		"mode", cfg.Report.Mode,
		"csv_file", cfg.Dataset.CSVFile,
	)

	ctx := context.Background()
	reports := services.NewReports(cfg.Report, logger)

	loadCtx, cancel := context.WithTimeout(ctx, cfg.Dataset.LoadTimeout)
	start := time.Now()
	err = reports.LoadFromCSV(loadCtx, cfg.Dataset.CSVFile)
	cancel()
	if err != nil {
		logger.Error("failed to build report", "error", err)
		os.Exit(1)
	}
	logger.Info("report ready", "duration", time.Since(start), "run_id", reports.Run().ID)

	if cfg.Report.Exports() {
		manifest, err := exportReport(ctx, cfg, reports, logger)
		if err != nil {
			logger.Error("failed to export report", "error", err)
			os.Exit(1)
		}
		logger.Info("report written",
			"index", filepath.Join(manifest.OutputDir, export.IndexFile),
			"artifacts", len(manifest.Artifacts))
	}

	if cfg.Report.Serves() {
		if err := serve(ctx, cfg, reports, logger); err != nil {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("application stopped gracefully")
}
