package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"talenttrack/internal/api/handler"
	"talenttrack/internal/api/router"
	"talenttrack/internal/config"
	"talenttrack/internal/logger"
	"talenttrack/internal/parser"
	"talenttrack/internal/processor"
	"talenttrack/internal/storage"
	"talenttrack/internal/tracing"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzzerolog "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.String("config", "", "path to the configuration file")
	pflag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	initLogger(cfg)

	ctx := context.Background()

	shutdownTracing, err := tracing.Init(ctx, &cfg.Tracing)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize tracing")
	}

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	defer storageManager.Close()

	handlers, err := buildHandlers(cfg, storageManager)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize handlers")
	}

	tracer, tracerCfg := hertztracing.NewServerTracer()
	h := server.Default(
		tracer,
		server.WithHostPorts(cfg.Server.Address),
	)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))

	router.RegisterRoutes(h, cfg, handlers)

	go func() {
		logger.Info().Str("address", cfg.Server.Address).Msg("starting HTTP server")
		if err := h.Run(); err != nil {
			logger.Fatal().Err(err).Msg("HTTP server exited")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("tracing shutdown failed")
	}

	logger.Info().Msg("shutdown complete")
}

func initLogger(cfg *config.Config) {
	logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})
	logger.Logger = logger.Logger.With().
		Str("app", "talenttrack").
		Logger()

	// Route hertz's framework logging through the same zerolog backend.
	hlog.SetLogger(hertzzerolog.From(logger.Logger))
}

func buildHandlers(cfg *config.Config, storageManager *storage.Storage) (router.Handlers, error) {
	if storageManager.MySQL == nil {
		return router.Handlers{}, fmt.Errorf("MySQL is not initialized")
	}

	extractor, err := buildExtractor(&cfg.Parser)
	if err != nil {
		return router.Handlers{}, err
	}

	var objectStore storage.ObjectStorage
	if storageManager.MinIO != nil {
		objectStore = storageManager.MinIO
	}
	var dedup storage.DedupStore
	if storageManager.Redis != nil {
		dedup = storageManager.Redis
	}
	var publisher storage.EventPublisher
	if storageManager.RabbitMQ != nil {
		publisher = storageManager.RabbitMQ
	}

	ingester := processor.NewResumeIngester(objectStore, dedup, extractor)

	return router.Handlers{
		Application: handler.NewApplicationHandler(cfg, storageManager.MySQL, publisher),
		Interview:   handler.NewInterviewHandler(cfg, storageManager.MySQL, publisher),
		Job:         handler.NewJobHandler(cfg, storageManager.MySQL),
		Resume:      handler.NewResumeHandler(ingester),
		User:        handler.NewUserHandler(cfg, storageManager.MySQL),
		Health:      handler.NewHealthHandler(storageManager.MySQL),
	}, nil
}

func buildExtractor(cfg *config.ParserConfig) (parser.ResumeExtractor, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	switch cfg.Type {
	case "command":
		return parser.NewCommandExtractor(cfg.Command, timeout)
	case "http", "":
		if timeout > 0 {
			return parser.NewHTTPExtractor(cfg.ServerURL, parser.WithHTTPTimeout(timeout)), nil
		}
		return parser.NewHTTPExtractor(cfg.ServerURL), nil
	default:
		return nil, fmt.Errorf("unknown parser type %q", cfg.Type)
	}
}
