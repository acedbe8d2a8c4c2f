package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vindexhq/vindex/api/openapi"
	"github.com/vindexhq/vindex/internal/api/handlers"
	"github.com/vindexhq/vindex/internal/api/middleware"
	"github.com/vindexhq/vindex/internal/config"
	"github.com/vindexhq/vindex/internal/notify"
	"github.com/vindexhq/vindex/internal/pipeline"
	"github.com/vindexhq/vindex/internal/scrape"
	"github.com/vindexhq/vindex/internal/store"
	"github.com/vindexhq/vindex/pkg/extract"
	"github.com/vindexhq/vindex/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server and scheduler",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cliLog := log.NewWithOptions(os.Stderr, log.Options{
		Level: parseLogLevel(cfg.Logging.Level),
	})
	slogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.NewPostgresStore(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer st.Close()

	registry := cfg.Sources.Registry()
	fallback := scrape.GenericDealer
	fallback.BaseTrust = cfg.Confidence.BaseTrust
	registry.SetFallback(fallback)

	limiter := scrape.NewRateLimiter(
		cfg.Sources.RateLimit.PerSecond,
		cfg.Sources.RateLimit.Burst,
		cfg.Sources.RateLimit.DailyLimit,
	)
	fetcher := scrape.NewFetcher(limiter, scrape.WithFetcherLogger(slogger))
	feed := scrape.NewIndexFeed(limiter, scrape.WithFeedLogger(slogger))

	backend, err := llmBackend(cfg)
	if err != nil {
		return err
	}
	extractor := extract.NewLLMExtractor(backend)

	ingestor := pipeline.NewIngestor(st,
		pipeline.WithRegistry(registry),
		pipeline.WithReviewThreshold(cfg.Confidence.ReviewThreshold),
		pipeline.WithIngestorLogger(logger.Component(slogger, "ingest")),
	)

	var notifier notify.Notifier = notify.NewNoOpNotifier(slogger)
	if cfg.Notifications.Discord.Enabled {
		notifier = notify.NewDiscordNotifier(cfg.Notifications.Discord.WebhookURL)
	}

	pipeOpts := []pipeline.PipelineOption{
		pipeline.WithLogger(logger.Component(slogger, "pipeline")),
		pipeline.WithBatchSize(cfg.Sources.BatchSize),
		pipeline.WithStagger(cfg.Sources.Stagger),
		pipeline.WithCycleBudget(cfg.Sources.CycleBudget),
		pipeline.WithFeed(feed),
		pipeline.WithNotifier(notifier),
	}
	if cfg.LLM.PhotoEnrichment {
		pipeOpts = append(pipeOpts, pipeline.WithPhotoEnrichment(extractor, fetcher))
	}

	pipe := pipeline.New(st, ingestor, fetcher, extractor, registry, pipeOpts...)

	sched, err := pipeline.NewScheduler(
		pipe,
		cfg.Schedule.SyncInterval,
		cfg.Schedule.AuditInterval,
		cfg.Schedule.AuditBatch,
		logger.Component(slogger, "scheduler"),
	)
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}
	sched.Start()

	e := newRouter(st, ingestor, pipe, slogger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	cliLog.Info("starting server", "addr", addr)

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			cliLog.Error("server error", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cliLog.Info("shutting down server")

	<-sched.Stop().Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	cliLog.Info("server stopped")
	return nil
}

func newRouter(
	st store.Store,
	ingestor *pipeline.Ingestor,
	pipe *pipeline.Pipeline,
	lg *slog.Logger,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestLog(lg))
	e.Use(middleware.Recovery(lg))
	e.Use(middleware.Metrics())

	health := handlers.NewHealthHandler(st)
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	openapi.RegisterRoutes(e)

	api := humaecho.New(e, huma.DefaultConfig("vindex API", Version))
	handlers.RegisterVehicleRoutes(api, handlers.NewVehiclesHandler(st))
	handlers.RegisterIngestRoutes(api, handlers.NewIngestHandler(ingestor, pipe))
	handlers.RegisterAuditRoutes(api, handlers.NewAuditHandler(st, pipe))
	handlers.RegisterReviewRoutes(api, handlers.NewReviewHandler(st))
	handlers.RegisterSyncRoutes(api, handlers.NewSyncHandler(pipe))
	handlers.RegisterSystemStateRoutes(api, handlers.NewSystemStateHandler(st))
	handlers.RegisterJobRoutes(api, handlers.NewJobsHandler(st))

	return e
}

func llmBackend(cfg *config.Config) (extract.LLMBackend, error) {
	switch cfg.LLM.Backend {
	case "ollama":
		return extract.NewOllamaBackend(cfg.LLM.Ollama.Endpoint, cfg.LLM.Ollama.Model), nil
	case "anthropic":
		return extract.NewAnthropicBackend(
			extract.WithAnthropicModel(cfg.LLM.Anthropic.Model),
		), nil
	case "openai_compat":
		return extract.NewOpenAICompatBackend(
			cfg.LLM.OpenAICompat.Endpoint,
			cfg.LLM.OpenAICompat.Model,
		), nil
	default:
		return nil, fmt.Errorf("unknown llm backend %q", cfg.LLM.Backend)
	}
}

func parseLogLevel(level string) log.Level {
	switch level {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
