package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/mms-viewer/backend/internal/api"
	"github.com/mms-viewer/backend/internal/archive"
	"github.com/mms-viewer/backend/internal/config"
	"github.com/mms-viewer/backend/internal/event"
	"github.com/mms-viewer/backend/internal/logging"
	"github.com/mms-viewer/backend/internal/metrics"
	"github.com/mms-viewer/backend/internal/models"
	"github.com/mms-viewer/backend/internal/parser"
	"github.com/mms-viewer/backend/internal/storage"
	"github.com/mms-viewer/backend/internal/web"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Load YAML configuration
	configPath := config.DefaultPath()
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Ensure all data directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create directories: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := logging.New(logging.Config{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg, configPath, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, configPath string, logger *zap.Logger) error {
	metrics.InitMetrics()

	// Initialize the local cache
	cacheDir, err := storage.EnsureOutputDir(cfg.Storage.DataDirectory, cfg.Storage.CacheName)
	if err != nil {
		return err
	}
	fileStore, err := storage.NewLocalStore(cacheDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	client := archive.NewClient(archive.Options{
		FileInfoURL:       cfg.Archive.FileInfoURL,
		DownloadURL:       cfg.Archive.DownloadURL,
		DataLevel:         cfg.Archive.DataLevel,
		RequestsPerMinute: cfg.Archive.RequestsPerMinute,
		Timeout:           cfg.ArchiveTimeout(),
	}, logger.Named("archive"))

	builder := event.NewBuilder(client, fileStore, parser.NewRegistry(logger.Named("parser")), logger.Named("event"))
	events := event.NewManager(builder, cfg.Plot.Title, cfg.Events.MaxEvents, logger.Named("event"))

	// Startup events are built before serving; any failure aborts the process
	for i, ec := range cfg.Events.Startup {
		req, err := startupRequest(ec, cfg.Plot.ApproxNumPoints)
		if err != nil {
			return fmt.Errorf("startup event %d: %w", i, err)
		}
		state, err := events.Build(context.Background(), req)
		if err != nil {
			return fmt.Errorf("startup event %d: %w", i, err)
		}
		logger.Info("startup event built",
			zap.String("id", state.Event.ID),
			zap.String("range", state.Event.Range.String()),
			zap.String("file", state.Event.SourceFile))
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	api.SetupMiddleware(e)

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.New().String() },
	}))

	if cfg.Server.EnableRequestLogging {
		httpLog := logger.Named("http")
		e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
			Skipper: func(c echo.Context) bool {
				path := c.Request().URL.Path
				return path == "/api/health" || path == "/metrics" || strings.HasPrefix(path, "/static/")
			},
			LogMethod:    true,
			LogURI:       true,
			LogStatus:    true,
			LogLatency:   true,
			LogRequestID: true,
			LogError:     true,
			LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
				fields := []zap.Field{
					zap.String("method", v.Method),
					zap.String("uri", v.URI),
					zap.Int("status", v.Status),
					zap.Duration("latency", v.Latency),
					zap.String("request_id", v.RequestID),
				}
				if v.Error != nil {
					httpLog.Warn("request failed", append(fields, zap.Error(v.Error))...)
					return nil
				}
				httpLog.Info("request", fields...)
				return nil
			},
		}))
	}

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("panic recovered", zap.Error(err), zap.ByteString("stack", stack))
			return err
		},
	}))

	// Compression middleware
	if cfg.Server.EnableGzip {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Skipper: func(c echo.Context) bool {
				return strings.HasSuffix(c.Request().URL.Path, "/msgpack")
			},
		}))
	}

	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{
		Store:   fileStore,
		Archive: client,
		Events:  events,
		Logger:  logger.Named("api"),
		Version: Version,
	}))
	if err := web.RegisterStaticRoutes(e); err != nil {
		return fmt.Errorf("registering static routes: %w", err)
	}
	if cfg.Server.EnableMetrics {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	}

	// Configure server with settings from YAML config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	logger.Info("MMS Viewer server starting",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("config", configPath),
		zap.String("listen", "http://"+cfg.GetServerAddr()),
		zap.String("cache", fileStore.BaseDir()),
		zap.Int("events", len(events.List())))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.StartServer(s)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// startupRequest converts a configured event into a pipeline request.
func startupRequest(ec config.EventConfig, defaultPoints int) (event.Request, error) {
	var req event.Request

	switch {
	case ec.Day != "":
		day, err := archive.ParseDay(ec.Day)
		if err != nil {
			return req, fmt.Errorf("%w: day %q: %v", models.ErrConfiguration, ec.Day, err)
		}
		req.Start = day
	case ec.Start != "":
		start, err := archive.ParseLong(ec.Start)
		if err != nil {
			return req, fmt.Errorf("%w: start %q: %v", models.ErrConfiguration, ec.Start, err)
		}
		req.Start = start
		if ec.Exact {
			end, err := archive.ParseLong(ec.End)
			if err != nil {
				return req, fmt.Errorf("%w: end %q: %v", models.ErrConfiguration, ec.End, err)
			}
			req.End = end
			req.Exact = true
		}
	default:
		return req, fmt.Errorf("%w: event needs a day or a start", models.ErrConfiguration)
	}

	inst, err := models.ParseInstrument(ec.Instrument)
	if err != nil {
		return req, err
	}
	req.Instrument = inst
	if ec.DataRate != "" {
		rate, err := models.ParseDataRate(ec.DataRate)
		if err != nil {
			return req, err
		}
		req.DataRate = rate
	}

	req.Probe = ec.Probe
	req.ApproxNumPoints = ec.ApproxNumPoints
	if req.ApproxNumPoints == 0 {
		req.ApproxNumPoints = defaultPoints
	}
	return req, nil
}
