package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/stefanicjuraj/daytona-docs-issues-analysis/internal/adapters/github"
	"github.com/stefanicjuraj/daytona-docs-issues-analysis/internal/adapters/telegram"
	"github.com/stefanicjuraj/daytona-docs-issues-analysis/internal/config"
	httpapi "github.com/stefanicjuraj/daytona-docs-issues-analysis/internal/http"
	"github.com/stefanicjuraj/daytona-docs-issues-analysis/internal/jobs"
	"github.com/stefanicjuraj/daytona-docs-issues-analysis/internal/logger"
	"github.com/stefanicjuraj/daytona-docs-issues-analysis/internal/services"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg)

	tracker := github.NewClient(cfg, log)
	var tg services.Notifier
	if cfg.TelegramToken != "" && len(cfg.TelegramChatIDs) > 0 {
		tg = telegram.NewClient(cfg, log)
	}
	svc := services.New(cfg, log, tracker, tg)

	log.Info().
		Str("repo", cfg.RepoOwner+"/"+cfg.RepoName).
		Str("fetch_mode", cfg.FetchMode).
		Str("cron", cfg.ReportCron).
		Msg("started")

	// One-shot mode: run once and exit.
	if cfg.ReportCron == "" {
		if _, err := svc.Run(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("report run failed")
		}
		return
	}

	// Scheduled mode: cron runs plus the artifacts server.
	cr := jobs.New(cfg, log, svc)
	cr.Start()
	defer cr.Stop()

	router := httpapi.NewRouter(cfg, log, svc)
	errCh := make(chan error, 1)
	go func() { errCh <- router.Run(cfg.HTTPAddr) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info().Msg("shutting down...")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}
}
