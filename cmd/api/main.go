package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pdfblur/docs"
	"pdfblur/internal/config"
	"pdfblur/internal/database"
	"pdfblur/internal/database/migration"
	handlers "pdfblur/internal/http/handler"
	"pdfblur/internal/http/middleware"
	"pdfblur/internal/metrics"
	"pdfblur/internal/otel"
	"pdfblur/internal/pipeline"
	"pdfblur/internal/rasterizer"
	"pdfblur/internal/repository"
	firestorerepo "pdfblur/internal/repository/firestore"
	"pdfblur/internal/repository/postgres"
	"pdfblur/internal/service"
	"pdfblur/internal/storage"
)

// @title pdfblur API
// @version 1.0
// @description Rasterize PDFs, blur rectangular zones and reassemble redacted PDFs.
// @BasePath /
func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	loc, err := time.LoadLocation(cfg.TZLocation)
	if err != nil {
		loc = time.UTC
	}
	logger := middleware.NewJSONLogger(os.Stdout, loc)
	slog.SetDefault(logger)

	if err := cfg.Pipeline.Validate(); err != nil {
		return fmt.Errorf("invalid pipeline config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	repo, db, closeRepo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	objStore, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize object storage: %w", err)
	}

	pipelineMetrics, err := metrics.NewPipeline(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("register pipeline metrics: %w", err)
	}
	httpMetrics, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("register http metrics: %w", err)
	}

	p := cfg.Pipeline
	pipe := pipeline.New(rasterizer.NewMuPDF(), pipeline.Config{
		Width:            p.PageWidth,
		Height:           p.PageHeight,
		RenderDPI:        p.RenderDPI,
		OutputDPI:        p.OutputDPI,
		BlurSigma:        p.BlurSigma,
		Workers:          p.Workers,
		CompressionLevel: p.CompressionLevel,
	})
	jobSvc := service.NewJobService(objStore, repo, pipe, service.Options{
		MaxUploadBytes: int64(cfg.MaxUploadBytes),
		PresignExpiry:  time.Duration(cfg.Storage.PresignExpirySec) * time.Second,
		Workers:        p.Workers,
		Logger:         logger,
		Metrics:        pipelineMetrics,
	})

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		// multipart framing on top of the document itself
		BodyLimit: cfg.MaxUploadBytes + 1<<20,
	})

	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(logger))
	app.Use(httpMetrics.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	var pinger handlers.Pinger
	if db != nil {
		pinger = db
	}
	handlers.RegisterRoutes(app, pinger, jobSvc)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", ":"+cfg.Port, "storage_backend", cfg.Storage.Backend, "repository_backend", cfg.Repository.Backend)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return app.ShutdownWithContext(sctx)
}

// openRepository connects the configured job store. db is nil unless the
// backend is postgres.
func openRepository(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (repository.JobRepository, *sql.DB, func(), error) {
	switch cfg.Repository.Backend {
	case "", config.RepositoryPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := migration.EnsureMigrated(ctx, db, logger, cfg.Database.Host); err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
		return postgres.NewJobPostgres(db), db, func() { _ = db.Close() }, nil
	case config.RepositoryFirestore:
		client, err := firestorerepo.NewClient(ctx, cfg.Repository.Firestore)
		if err != nil {
			return nil, nil, nil, err
		}
		return firestorerepo.NewJobFirestore(client, cfg.Repository.Firestore.Collection), nil, func() { _ = client.Close() }, nil
	default:
		return nil, nil, nil, errors.New("unsupported repository backend: " + cfg.Repository.Backend)
	}
}
