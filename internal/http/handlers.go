package http

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stefanicjuraj/daytona-docs-issues-analysis/internal/chart"
	"github.com/stefanicjuraj/daytona-docs-issues-analysis/internal/config"
	"github.com/stefanicjuraj/daytona-docs-issues-analysis/internal/domain"
	"github.com/stefanicjuraj/daytona-docs-issues-analysis/internal/services"
)

type runner interface {
	Run(ctx context.Context) (domain.Report, error)
	LastRun() *domain.Report
}

type Handlers struct {
	cfg config.Config
	log zerolog.Logger
	svc runner
}

func NewHandlers(cfg config.Config, log zerolog.Logger, svc runner) *Handlers {
	return &Handlers{cfg: cfg, log: log, svc: svc}
}

func (h *Handlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// LastRun returns the summary of the most recent completed run.
func (h *Handlers) LastRun(c *gin.Context) {
	rep := h.svc.LastRun()
	if rep == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no completed run yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"run_id":       rep.RunID,
		"generated_at": rep.GeneratedAt,
		"repo":         rep.Owner + "/" + rep.Repo,
		"weeks":        len(rep.Weekly),
		"total_opened": rep.TotalOpened,
		"total_closed": rep.TotalClosed,
		"forks":        rep.ForksCount,
		"requests":     rep.Requests,
	})
}

// RunNow triggers an immediate run in the background. A trigger that lands
// while another run is in flight is dropped, not queued behind it.
func (h *Handlers) RunNow(c *gin.Context) {
	go func() {
		_, err := h.svc.Run(context.Background())
		switch {
		case errors.Is(err, services.ErrRunInFlight):
			h.log.Info().Msg("admin-triggered run skipped, another run is in flight")
		case err != nil:
			h.log.Error().Err(err).Msg("admin-triggered run failed")
		}
	}()
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

// ReportLatest serves the most recently rendered chart HTML.
func (h *Handlers) ReportLatest(c *gin.Context) {
	path := filepath.Join(h.cfg.ArtifactDir, chart.HTMLFile)
	c.File(path)
}
