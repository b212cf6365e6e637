// Command printserver serves fee views and printable school documents over
// HTTP. Documents are rendered from live API data as HTML, or as PDF through
// headless Chrome, and can be archived locally and to object storage.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	feeapp "github.com/alfalah/schooladmin/internal/application/fee"
	printapp "github.com/alfalah/schooladmin/internal/application/printing"
	schoolapp "github.com/alfalah/schooladmin/internal/application/school"
	"github.com/alfalah/schooladmin/internal/application/state"
	"github.com/alfalah/schooladmin/internal/domain/fee"
	"github.com/alfalah/schooladmin/internal/infrastructure/apiclient"
	"github.com/alfalah/schooladmin/internal/infrastructure/cache"
	"github.com/alfalah/schooladmin/internal/infrastructure/config"
	"github.com/alfalah/schooladmin/internal/infrastructure/logger"
	infra "github.com/alfalah/schooladmin/internal/infrastructure/printing"
	"github.com/alfalah/schooladmin/internal/infrastructure/storage"
	"github.com/alfalah/schooladmin/internal/infrastructure/telemetry"
	"github.com/alfalah/schooladmin/internal/interfaces/http/handler"
	"github.com/alfalah/schooladmin/internal/interfaces/http/middleware"
	"github.com/alfalah/schooladmin/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "Path to config file (default: ./config.toml if present)")
	noPDF := flag.Bool("no-pdf", false, "Serve HTML only, without starting Chrome")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}

	logCfg := logger.ServerConfig()
	logCfg.Level = cfg.Log.Level
	if cfg.Log.Format != "" {
		logCfg.Format = cfg.Log.Format
	}
	if cfg.Log.Output != "" {
		logCfg.Output = cfg.Log.Output
	}
	log, err := logger.New(logCfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize logger:", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	if err := run(cfg, log, !*noPDF); err != nil {
		log.Error("Print server stopped", zap.Error(err))
		_ = logger.Sync(log)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger, pdf bool) error {
	log.Info("Starting print server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("addr", cfg.HTTP.Addr),
		zap.String("api", cfg.API.BaseURL),
		zap.Bool("pdf", pdf),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	const serviceName = "schooladmin-printserver"
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		Insecure:          cfg.Telemetry.Insecure,
		ServiceName:       serviceName,
		ServiceVersion:    version,
	}, log)
	if err != nil {
		return fmt.Errorf("tracer provider: %w", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Warn("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	api, err := apiclient.NewClient(apiclient.Config{
		BaseURL:             cfg.API.BaseURL,
		Timeout:             cfg.API.Timeout,
		RetryOnNetworkError: cfg.API.RetryOnNetworkError,
		RetryDelay:          cfg.API.RetryDelay,
		RateLimitRPS:        cfg.API.RateLimitRPS,
		RateLimitBurst:      cfg.API.RateLimitBurst,
		UserAgent:           serviceName + "/" + version,
	},
		apiclient.WithLogger(log.Named("api")),
		apiclient.WithMetrics(apiclient.NewMetrics(registry)),
	)
	if err != nil {
		return fmt.Errorf("api client: %w", err)
	}

	guard, err := cache.NewInFlightGuard(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("in-flight guard: %w", err)
	}
	defer func() {
		if err := guard.Close(); err != nil {
			log.Warn("Error closing in-flight guard", zap.Error(err))
		}
	}()

	policy, err := fee.ParseMarkPaidPolicy(cfg.Fees.MarkPaidPolicy)
	if err != nil {
		return err
	}
	store := state.NewStore(log)
	fees := feeapp.NewService(api, guard, store, feeapp.Config{
		MarkPaidPolicy: policy,
		InFlightTTL:    cfg.Fees.InFlightTTL,
	}, log)
	records := schoolapp.NewService(api, store, log)

	printer, closePrinter, err := newPrintService(ctx, cfg, log, pdf)
	if err != nil {
		return err
	}
	defer closePrinter()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.AllowOrigins
	engineCfg := router.EngineConfig{
		CORS:         cors,
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
		Registry:     registry,
	}
	if tp.IsEnabled() {
		engineCfg.TraceService = serviceName
	}
	if cfg.HTTP.RateLimitRPS > 0 {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst, 10*time.Minute)
		engineCfg.RateLimiter = limiter
		go sweepClients(ctx, limiter)
		log.Info("Rate limiting enabled",
			zap.Float64("rps", cfg.HTTP.RateLimitRPS),
			zap.Int("burst", cfg.HTTP.RateLimitBurst),
		)
	}
	engine := router.NewEngine(engineCfg, log)
	if pdf {
		engine.Static("/prints", cfg.Print.OutputDir)
	}

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(handler.FeeRoutes(handler.NewFeeHandler(fees))).
		RegisterRoot(handler.PrintRoutes(handler.NewPrintHandler(fees, records, printer))).
		RegisterRoot(handler.SystemRoutes(handler.NewSystemHandler(cfg.App.Name, version, pdf))).
		Setup()

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           engine,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       2 * time.Minute,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("Server exited gracefully")
	return nil
}

// newPrintService wires the template engine with the optional PDF renderer,
// local archive and object storage upload
func newPrintService(ctx context.Context, cfg *config.Config, log *zap.Logger, pdf bool) (*printapp.PrintService, func(), error) {
	templates, err := infra.NewTemplateEngine()
	if err != nil {
		return nil, nil, fmt.Errorf("templates: %w", err)
	}
	header := infra.SchoolHeader{Name: cfg.Print.SchoolName, Address: cfg.Print.SchoolAddress}
	closeFn := func() {}
	if !pdf {
		return printapp.NewPrintService(templates, header, log), closeFn, nil
	}

	renderer := infra.NewChromedpRenderer(infra.ChromedpConfig{
		DefaultTimeout: cfg.Print.Timeout,
		RemoteURL:      cfg.Print.ChromeURL,
		ExecPath:       cfg.Print.ChromePath,
		NoSandbox:      cfg.Print.NoSandbox,
		Logger:         log,
	})
	closeFn = func() {
		if err := renderer.Close(); err != nil {
			log.Warn("Error closing PDF renderer", zap.Error(err))
		}
	}

	files, err := infra.NewFileSystemStorage(&infra.FileSystemStorageConfig{
		BasePath: cfg.Print.OutputDir,
		BaseURL:  "/prints",
		Logger:   log,
	})
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	opts := []printapp.Option{printapp.WithRenderer(renderer), printapp.WithStorage(files)}

	if cfg.Storage.Enabled {
		archive, err := storage.NewS3Archive(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("object storage: %w", err)
		}
		if err := archive.EnsureBucket(ctx); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("object storage: %w", err)
		}
		opts = append(opts, printapp.WithArchiver(archive))
		log.Info("Archiving PDFs to object storage", zap.String("bucket", cfg.Storage.Bucket))
	}

	return printapp.NewPrintService(templates, header, log, opts...), closeFn, nil
}

func sweepClients(ctx context.Context, limiter *middleware.RateLimiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Sweep()
		}
	}
}
