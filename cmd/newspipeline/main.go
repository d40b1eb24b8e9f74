package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"

	"NewsPipeline/internal/app"
	"NewsPipeline/internal/config"
	"NewsPipeline/internal/logging"
)

type options struct {
	Config string `short:"c" long:"config" env:"NEWS_PIPELINE_CONFIG" description:"Path to the YAML config file"`
}

type serveCommand struct{}

type scrapeCommand struct {
	Sources []string `short:"s" long:"source" description:"Source to scrape, repeatable (defaults from config)"`
	Limit   int      `short:"l" long:"limit" description:"Max articles per source"`
}

type migrateCommand struct{}

var opts options

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.SubcommandsOptional = false

	if _, err := parser.AddCommand("serve", "Run the HTTP API", "Serve the approval API and the scheduled scraper.", &serveCommand{}); err != nil {
		panic(err)
	}
	if _, err := parser.AddCommand("scrape", "Run one scrape", "Scrape the given sources once and exit.", &scrapeCommand{}); err != nil {
		panic(err)
	}
	if _, err := parser.AddCommand("migrate", "Apply migrations", "Apply the embedded database migrations and exit.", &migrateCommand{}); err != nil {
		panic(err)
	}

	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(1)
	}
}

func (c *serveCommand) Execute([]string) error {
	return run(func(ctx context.Context, application *app.Application) error {
		return application.Serve(ctx)
	})
}

func (c *scrapeCommand) Execute([]string) error {
	return run(func(ctx context.Context, application *app.Application) error {
		_, err := application.ScrapeOnce(ctx, c.Sources, c.Limit)
		return err
	})
}

func (c *migrateCommand) Execute([]string) error {
	return run(func(_ context.Context, application *app.Application) error {
		_, err := application.Migrate()
		return err
	})
}

func run(fn func(context.Context, *app.Application) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load(opts.Config)
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("application setup failed", "error", err)
		return err
	}
	defer application.Close()

	if err := fn(ctx, application); err != nil {
		logger.Error("application stopped", "error", err)
		return err
	}
	return nil
}
