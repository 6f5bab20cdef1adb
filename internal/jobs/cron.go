package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/stefanicjuraj/daytona-docs-issues-analysis/internal/config"
	"github.com/stefanicjuraj/daytona-docs-issues-analysis/internal/domain"
	"github.com/stefanicjuraj/daytona-docs-issues-analysis/internal/services"
)

type service interface {
	Run(ctx context.Context) (domain.Report, error)
}

type Cron struct {
	cfg config.Config
	log zerolog.Logger
	svc service
	c   *cron.Cron
}

// New schedules a reporting run on cfg.ReportCron. Ticks that land while a
// run is still in flight are skipped, not queued.
func New(cfg config.Config, log zerolog.Logger, svc service) *Cron {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	cr := &Cron{cfg: cfg, log: log, svc: svc, c: c}
	if _, err := c.AddFunc(cfg.ReportCron, cr.run); err != nil {
		log.Fatal().Err(err).Str("spec", cfg.ReportCron).Msg("invalid cron spec")
	}
	return cr
}

func (cr *Cron) Start() { cr.c.Start() }
func (cr *Cron) Stop()  { cr.c.Stop() }

func (cr *Cron) run() {
	// Generous ceiling: a run can legitimately block on the rate-limit wait.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
	defer cancel()
	cr.log.Info().Msg("cron: scheduled report run")
	_, err := cr.svc.Run(ctx)
	switch {
	case errors.Is(err, services.ErrRunInFlight):
		cr.log.Info().Msg("cron: run skipped, another run is in flight")
	case err != nil:
		cr.log.Error().Err(err).Msg("cron: report run failed")
	}
}
