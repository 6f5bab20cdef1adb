// Package services orchestrates one reporting run: fetch (or reload),
// normalize, aggregate, then write the artifacts.
package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stefanicjuraj/daytona-docs-issues-analysis/internal/chart"
	"github.com/stefanicjuraj/daytona-docs-issues-analysis/internal/config"
	"github.com/stefanicjuraj/daytona-docs-issues-analysis/internal/domain"
	"github.com/stefanicjuraj/daytona-docs-issues-analysis/internal/report"
	"github.com/stefanicjuraj/daytona-docs-issues-analysis/internal/snapshot"
	"github.com/stefanicjuraj/daytona-docs-issues-analysis/internal/stats"
)

type TrackerClient interface {
	Issues(ctx context.Context, state string, since time.Time) []domain.Issue
	ForksCount(ctx context.Context) int
	Requests() int
}

type Notifier interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// ErrRunInFlight is returned when a run is requested while another run is
// still executing. Runs are strictly serialized: they share the tracker
// client, the snapshot file and the artifact paths.
var ErrRunInFlight = errors.New("a report run is already in flight")

type Service struct {
	cfg     config.Config
	log     zerolog.Logger
	tracker TrackerClient
	tg      Notifier

	// runMu serializes whole runs (cron ticks and admin triggers alike),
	// the single-process counterpart of the advisory lock a multi-instance
	// deployment would take.
	runMu sync.Mutex

	mu      sync.Mutex
	lastRun *domain.Report
}

// New builds the pipeline service. tg may be nil when notifications are not
// configured.
func New(cfg config.Config, log zerolog.Logger, tracker TrackerClient, tg Notifier) *Service {
	return &Service{cfg: cfg, log: log, tracker: tracker, tg: tg}
}

// FetchFresh retrieves the full issue list and the fork count from the API
// and persists them as the raw-data snapshot. A failed snapshot write is
// logged but does not fail the fetch.
func (s *Service) FetchFresh(ctx context.Context) domain.Snapshot {
	snap := domain.Snapshot{
		FetchedAt:  time.Now().UTC(),
		Owner:      s.cfg.RepoOwner,
		Repo:       s.cfg.RepoName,
		Issues:     s.tracker.Issues(ctx, "all", time.Time{}),
		ForksCount: s.tracker.ForksCount(ctx),
	}
	if err := snapshot.Save(s.cfg.SnapshotFile, snap); err != nil {
		s.log.Warn().Err(err).Msg("saving snapshot failed")
	}
	return snap
}

// LoadSnapshot reloads the raw-data snapshot written by a previous run.
func (s *Service) LoadSnapshot() (domain.Snapshot, error) {
	return snapshot.Load(s.cfg.SnapshotFile)
}

// Run executes one reporting run and returns the structured result. The
// fetch source is chosen by the configured fetch mode: snapshot mode reuses
// the snapshot file when present and falls back to fetching otherwise.
// Overlapping invocations are rejected with ErrRunInFlight rather than
// racing each other over the client and the artifact files.
func (s *Service) Run(ctx context.Context) (domain.Report, error) {
	if !s.runMu.TryLock() {
		return domain.Report{}, ErrRunInFlight
	}
	defer s.runMu.Unlock()

	runID := uuid.NewString()
	log := s.log.With().Str("run_id", runID).Logger()
	requestsBefore := s.tracker.Requests()

	var snap domain.Snapshot
	reused := false
	if s.cfg.FetchMode == config.ModeSnapshot && snapshot.Exists(s.cfg.SnapshotFile) {
		loaded, err := s.LoadSnapshot()
		if err != nil {
			log.Warn().Err(err).Msg("snapshot reload failed, refetching")
		} else {
			log.Info().Time("fetched_at", loaded.FetchedAt).Int("issues", len(loaded.Issues)).Msg("reusing snapshot")
			snap = loaded
			reused = true
		}
	}
	if !reused {
		snap = s.FetchFresh(ctx)
	}

	weekly, err := stats.Aggregate(stats.Normalize(snap.Issues))
	if err != nil {
		log.Error().Err(err).Msg("weekly aggregation failed")
		return domain.Report{}, err
	}
	opened, closed := stats.Totals(weekly)

	rep := domain.Report{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		Owner:       snap.Owner,
		Repo:        snap.Repo,
		Weekly:      weekly,
		TotalOpened: opened,
		TotalClosed: closed,
		ForksCount:  snap.ForksCount,
		Requests:    s.tracker.Requests() - requestsBefore,
	}

	textPath, err := report.WriteFile(s.cfg.ArtifactDir, rep)
	if err != nil {
		log.Error().Err(err).Msg("writing report artifact failed")
		return domain.Report{}, err
	}
	htmlPath, err := chart.WriteFiles(s.cfg.ArtifactDir, rep.Owner, rep.Repo, weekly)
	if err != nil {
		log.Error().Err(err).Msg("writing chart failed")
		return domain.Report{}, err
	}
	if s.cfg.ChartPNG {
		pngPath := htmlPath[:len(htmlPath)-len(".html")] + ".png"
		if err := chart.HTMLToPNG(htmlPath, pngPath); err != nil {
			log.Warn().Err(err).Msg("chart png conversion failed")
		}
	}

	s.notify(ctx, rep)

	s.mu.Lock()
	s.lastRun = &rep
	s.mu.Unlock()

	log.Info().
		Int("weeks", len(weekly)).
		Int("total_opened", opened).
		Int("total_closed", closed).
		Int("forks", rep.ForksCount).
		Int("requests", rep.Requests).
		Str("report", textPath).
		Str("chart", htmlPath).
		Msg("run completed")
	return rep, nil
}

func (s *Service) notify(ctx context.Context, rep domain.Report) {
	if s.tg == nil || len(s.cfg.TelegramChatIDs) == 0 {
		return
	}
	text := report.Summary(rep)
	for _, chatID := range s.cfg.TelegramChatIDs {
		if err := s.tg.SendMessage(ctx, chatID, text); err != nil {
			s.log.Warn().Err(err).Int64("chat_id", chatID).Msg("run notification failed")
		}
	}
}

// LastRun returns the most recent completed report, or nil.
func (s *Service) LastRun() *domain.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}
