// Package scheduler periodically triggers an explicit EntityGraph snapshot
// on a cron schedule, so routine snapshots need no manual trigger.
package scheduler

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/arc-self/dds-statsbackend/internal/graph"
)

// SnapshotFunc persists g's current state; the caller supplies whichever
// sink (file or Postgres) it wants driven on a schedule.
type SnapshotFunc func(g *graph.Graph) error

// SnapshotScheduler wraps robfig/cron to take a snapshot on a schedule
// expression such as "@every 5m" or "0 */6 * * *".
type SnapshotScheduler struct {
	cron   *cron.Cron
	graph  *graph.Graph
	save   SnapshotFunc
	logger *zap.Logger
}

// NewSnapshotScheduler builds a SnapshotScheduler bound to g; save is
// invoked on each tick.
func NewSnapshotScheduler(g *graph.Graph, save SnapshotFunc, logger *zap.Logger) *SnapshotScheduler {
	return &SnapshotScheduler{
		cron:   cron.New(),
		graph:  g,
		save:   save,
		logger: logger,
	}
}

// Start registers the snapshot job at spec and starts the scheduler. Call
// Stop to gracefully drain any in-flight tick.
func (s *SnapshotScheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("snapshot scheduler started", zap.String("schedule", spec))
	return nil
}

// Stop gracefully stops the scheduler, waiting for any running job to
// finish.
func (s *SnapshotScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("snapshot scheduler stopped")
}

func (s *SnapshotScheduler) tick() {
	if err := s.save(s.graph); err != nil {
		s.logger.Error("scheduled snapshot failed", zap.Error(err))
		return
	}
	s.logger.Info("scheduled snapshot written")
}
