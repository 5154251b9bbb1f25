package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/stockrank/internal/config"
	"github.com/aristath/stockrank/internal/database"
	"github.com/aristath/stockrank/internal/modules/prices"
	"github.com/aristath/stockrank/internal/pipeline"
)

// syncTimeout bounds one full universe download.
const syncTimeout = 30 * time.Minute

// RefreshJob runs the full daily cycle: price sync, then the
// metrics-and-scoring pipeline.
type RefreshJob struct {
	cfg    config.Engine
	sync   *prices.SyncService
	runner *pipeline.Runner
	db     *database.DB
	log    zerolog.Logger
}

// NewRefreshJob creates the daily refresh job.
func NewRefreshJob(cfg config.Engine, sync *prices.SyncService, runner *pipeline.Runner, db *database.DB, log zerolog.Logger) *RefreshJob {
	return &RefreshJob{
		cfg:    cfg,
		sync:   sync,
		runner: runner,
		db:     db,
		log:    log.With().Str("job", "refresh").Logger(),
	}
}

// Name returns the job name.
func (j *RefreshJob) Name() string { return "daily_refresh" }

// Run syncs prices and recomputes metrics and scores wholesale. A failed
// price sync does not abort the pipeline: stale prices still produce a
// consistent ranking for their own as-of date.
func (j *RefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	synced, err := j.sync.Sync(ctx, j.cfg.Universe, config.DefaultTickers)
	if err != nil {
		j.log.Error().Err(err).Msg("Price sync failed, scoring with existing prices")
	} else {
		j.log.Info().Int("synced", synced).Msg("Price sync finished")
	}

	result, err := j.runner.Run("")
	if err != nil {
		return fmt.Errorf("pipeline run failed: %w", err)
	}

	// The run just wrote every metrics and score row; checkpoint so the WAL
	// does not grow unbounded between daily runs.
	if err := j.db.WALCheckpoint(""); err != nil {
		j.log.Warn().Err(err).Msg("WAL checkpoint failed")
	}

	j.log.Info().
		Str("as_of_date", result.AsOfDate).
		Int("scored", result.Scored).
		Int("excluded", result.Excluded).
		Msg("Daily refresh completed")

	return nil
}
