package scheduler_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/arc-self/dds-statsbackend/internal/graph"
	"github.com/arc-self/dds-statsbackend/internal/scheduler"
)

func TestSnapshotSchedulerTicksAndSaves(t *testing.T) {
	g := graph.New()
	var calls int
	save := func(g *graph.Graph) error {
		calls++
		return nil
	}

	s := scheduler.NewSnapshotScheduler(g, save, zaptest.NewLogger(t))
	require.NoError(t, s.Start("@every 10ms"))
	defer s.Stop()

	assert.Eventually(t, func() bool { return calls >= 1 }, time.Second, 5*time.Millisecond)
}
