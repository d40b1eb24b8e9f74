package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"NewsPipeline/internal/api"
	"NewsPipeline/internal/config"
	"NewsPipeline/internal/enrichment"
	"NewsPipeline/internal/infrastructure/llm"
	"NewsPipeline/internal/infrastructure/ml"
	"NewsPipeline/internal/infrastructure/parser"
	"NewsPipeline/internal/infrastructure/scheduler"
	"NewsPipeline/internal/infrastructure/storage"
	"NewsPipeline/internal/infrastructure/telegram"
	"NewsPipeline/internal/logging"
	"NewsPipeline/internal/ports"
	"NewsPipeline/internal/usecase"
	"NewsPipeline/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
	db     *sqlx.DB

	Scrape    *usecase.ScrapeService
	Approval  *usecase.ApprovalService
	Recorder  *usecase.Recorder
	scheduler *usecase.Scheduler
}

// New connects to the database and builds every component. The caller owns Close.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	a := &Application{cfg: cfg, logger: baseLogger, db: db}
	if cfg.Database.MigrateOnStart {
		if _, err := a.Migrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	if err := a.build(storage.NewPostgresRepository(db)); err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

type repository interface {
	ports.RawItemStore
	ports.EnrichedItemStore
	ports.ProcessLogStore
}

func (a *Application) build(repo repository) error {
	cfg := a.cfg
	now := func() time.Time { return time.Now().UTC() }

	httpClient := &http.Client{Timeout: cfg.Scraper.Timeout}
	registry, err := parser.NewRegistry(cfg.Sources, httpClient, cfg.Scraper.UserAgent,
		logging.Component(a.logger, "scanner"))
	if err != nil {
		return fmt.Errorf("build source registry: %w", err)
	}

	recorder := usecase.NewRecorder(repo, now, logging.Component(a.logger, "usecase.processlog"))
	a.Recorder = recorder

	a.Scrape = usecase.NewScrapeService(usecase.ScrapeDeps{
		Orchestrator: usecase.NewOrchestrator(registry, cfg.Scraper.Concurrency,
			logging.Component(a.logger, "usecase.orchestrator")),
		Ingestor:         usecase.NewIngestor(repo, now, logging.Component(a.logger, "usecase.ingest")),
		Recorder:         recorder,
		DefaultSources:   cfg.Scraper.DefaultSources,
		DefaultLimit:     cfg.Scraper.DefaultLimit,
		TodayOnly:        cfg.Scraper.TodayOnly,
		FallbackCategory: cfg.Scraper.FallbackCategory,
		Now:              now,
		Logger:           logging.Component(a.logger, "usecase.scrape"),
	})

	deps := usecase.ApprovalDeps{
		RawItems:        repo,
		EnrichedItems:   repo,
		Recorder:        recorder,
		Enricher:        enrichment.NewAdapter(newCompleter(cfg.Enrichment), logging.Component(a.logger, "enrichment")),
		BulkConcurrency: cfg.Approval.BulkConcurrency,
		Now:             now,
		Logger:          logging.Component(a.logger, "usecase.approval"),
	}
	if notifier := a.newNotifier(); notifier != nil {
		deps.Notifier = notifier
	}
	a.Approval = usecase.NewApprovalService(deps)

	if cfg.Scheduler.Enabled {
		driver := scheduler.NewIntervalScheduler(cfg.Scheduler.Interval, cfg.Scheduler.Location(),
			logging.Component(a.logger, "scheduler"))
		a.scheduler = usecase.NewScheduler(driver, a.Scrape, logging.Component(a.logger, "scheduler"))
	}
	return nil
}

func newCompleter(cfg config.EnrichmentConfig) enrichment.Completer {
	if cfg.Provider == config.ProviderHTTP {
		return ml.NewClient(cfg.Endpoint, cfg.APIKey, cfg.Timeout)
	}
	return llm.NewChatGPTClient(cfg)
}

func (a *Application) newNotifier() *telegram.Notifier {
	tg := a.cfg.Notifications.Telegram
	if tg.BotToken == "" {
		return nil
	}
	notifier, err := telegram.Dial(tg, logging.Component(a.logger, "telegram"))
	if err != nil {
		a.logger.Warn("telegram announcements disabled", "error", err)
		return nil
	}
	return notifier
}

// Migrate applies the embedded schema migrations.
func (a *Application) Migrate() (uint, error) {
	version, dirty, err := storage.Migrate(a.db, logger.NewMigrate(a.logger, "migrate", false))
	if err != nil {
		return 0, err
	}
	if dirty {
		return version, fmt.Errorf("database schema version %d is dirty", version)
	}
	a.logger.Info("database schema is up to date", "version", version)
	return version, nil
}

// ScrapeOnce runs a single scrape over the given sources, or the defaults when empty.
func (a *Application) ScrapeOnce(ctx context.Context, sources []string, limit int) (usecase.ScrapeReport, error) {
	return a.Scrape.RunScrape(ctx, usecase.ScrapeRequest{Sources: sources, Limit: limit})
}

// Serve runs the HTTP transport and the optional scheduler until ctx is done.
func (a *Application) Serve(ctx context.Context) error {
	handler := api.NewHandler(a.Scrape, a.Approval, a.Recorder)
	server := &http.Server{
		Addr:         a.cfg.HTTP.Addr,
		Handler:      api.NewServer(handler, logging.Component(a.logger, "api")),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	if a.scheduler != nil {
		if err := a.scheduler.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if a.scheduler != nil {
		if err := a.scheduler.Stop(shutdownCtx); err != nil {
			a.logger.Error("scheduler shutdown", "error", err)
		}
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown", "error", err)
	}
	a.logger.Info("server stopped")
	return serveErr
}

// Close releases the database handle.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
