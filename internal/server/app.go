// Package server wires the FileVault components together and runs the REST
// API and the gRPC health endpoint until the process is told to stop.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/cache"
	"github.com/dmitrijs2005/filevault/internal/server/config"
	"github.com/dmitrijs2005/filevault/internal/server/keygen"
	"github.com/dmitrijs2005/filevault/internal/server/metrics"
	"github.com/dmitrijs2005/filevault/internal/server/objectstore"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/filevault/internal/server/rest"
	"github.com/dmitrijs2005/filevault/internal/server/services"
	"github.com/dmitrijs2005/filevault/internal/server/telemetry"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/filevault/internal/server/grpc"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Version is reported to the tracing backend.
var Version = "dev"

type App struct {
	config *config.Config
	logger logging.Logger
}

func NewApp(c *config.Config) *App {
	logger := logging.NewJSON(os.Stdout, c.LogLevel)
	// route the std log package and stray slog calls through the same handler
	slog.SetDefault(logger.Slog())
	return &App{config: c, logger: logger}
}

// Run blocks until SIGINT/SIGTERM or ctx cancellation, or until one of the
// servers fails. All resources are released before it returns.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...")

	policy, err := services.ParseDownloadPolicy(app.config.DownloadPolicy)
	if err != nil {
		return err
	}

	tp, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    "filevault",
		ServiceVersion: Version,
		OTLPEndpoint:   app.config.OTLPEndpoint,
		Insecure:       app.config.OTLPInsecure,
	}, app.logger)
	if err != nil {
		return fmt.Errorf("telemetry init error: %w", err)
	}
	defer app.shutdown(tp.Shutdown)

	db, err := sqlx.Open("pgx", app.config.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if app.config.RunMigrations {
		if err := rm.RunMigrations(ctx, db.DB); err != nil {
			return err
		}
	}

	store, err := objectstore.NewS3(ctx, objectstore.Options{
		Region:        app.config.S3Region,
		Endpoint:      app.config.S3Endpoint,
		Bucket:        app.config.S3Bucket,
		AccessKey:     app.config.S3AccessKey,
		SecretKey:     app.config.S3SecretKey,
		UsePathStyle:  app.config.S3UsePathStyle,
		PresignExpiry: app.config.S3PresignExpiry,
		MaxAttempts:   app.config.S3MaxAttempts,
	})
	if err != nil {
		return fmt.Errorf("object store init error: %w", err)
	}

	urlCache, closeCache := newURLCache(app.config)
	defer closeCache()

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector()
	registry.MustRegister(
		collector,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deps := services.Deps{
		DB:       dbx.New(db, nil),
		Repos:    rm,
		Objects:  store,
		Keys:     keygen.NewUUIDGenerator(),
		URLCache: urlCache,
		Metrics:  collector,
		Log:      app.logger,
	}
	fs := services.NewFileService(deps)
	vs := services.NewFileVersionService(deps, policy, services.PageLimits{
		Default: app.config.PageDefault,
		Max:     app.config.PageMax,
	})

	h := rest.NewHandler(fs, vs, app.logger)
	httpServer := rest.NewServer(app.config.HTTPAddr, rest.NewRouter(h, registry, app.logger), app.logger)
	healthServer := gs.NewGRPCServer(app.config.GRPCAddr, app.logger, db.PingContext, app.config.HealthInterval)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpServer.Run(gctx) })
	g.Go(func() error { return healthServer.Run(gctx) })

	err = g.Wait()
	app.logger.Info(ctx, "App stopped")
	return err
}

func (app *App) shutdown(fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		app.logger.Error(ctx, "shutdown error", "error", err)
	}
}

// newURLCache returns a Redis-backed cache when an address is configured and
// a no-op cache otherwise.
func newURLCache(c *config.Config) (cache.URLCache, func()) {
	if c.RedisAddr == "" {
		return cache.Nop{}, func() {}
	}
	client := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
	return cache.NewRedisCache(client, c.CacheTTL), func() { _ = client.Close() }
}
