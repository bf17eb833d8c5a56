package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlor/pelmanism/pkg/board"
	"github.com/parlor/pelmanism/pkg/queue"
)

func testBoard(t *testing.T) *board.Monitor {
	t.Helper()
	m, err := board.NewMonitor(board.NewMonitorOptions{
		Definition: &board.Definition{
			Height: 2,
			Width:  3,
			Values: []string{"a", "b", "c", "c", "b", "a"},
		},
		AcquireTimeout: 10 * time.Millisecond,
	})
	require.NoError(t, err)
	return m
}

func TestRunnerRecordsOps(t *testing.T) {
	runner := NewRunner(NewRunnerOptions{
		Monitor:  testBoard(t),
		Players:  4,
		Duration: 200 * time.Millisecond,
		Seed:     42,
	})

	stats, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Greater(t, stats.TotalOps(), 0)
	flip := stats.Op(OpFlip)
	require.NotNil(t, flip, "robots mostly flip")
	assert.Greater(t, flip.Count, 0)
	assert.GreaterOrEqual(t, flip.Max, flip.Min)
}

func TestRunnerForwardsResultsToQueue(t *testing.T) {
	resultQueue := queue.NewInMemoryQueue(1 << 20)
	runner := NewRunner(NewRunnerOptions{
		Monitor:     testBoard(t),
		ResultQueue: resultQueue,
		Players:     2,
		Duration:    100 * time.Millisecond,
		Seed:        7,
	})

	stats, err := runner.Run(context.Background())
	require.NoError(t, err)

	items, err := resultQueue.ReadAllMessages()
	require.NoError(t, err)
	assert.Equal(t, stats.TotalOps(), len(items))
	for _, item := range items {
		res, ok := item.(OpResult)
		require.True(t, ok, "queue item is an OpResult")
		assert.NotEmpty(t, res.Op)
		assert.NotEmpty(t, res.PlayerID)
	}
}

func TestStatsAggregation(t *testing.T) {
	stats := NewStats()
	stats.Record(OpResult{Op: OpFlip, Duration: 5 * time.Millisecond})
	stats.Record(OpResult{Op: OpFlip, Duration: 1 * time.Millisecond, ErrKind: "acquire_timeout"})
	stats.Record(OpResult{Op: OpLook, Duration: 2 * time.Millisecond})

	assert.Equal(t, 3, stats.TotalOps())

	flip := stats.Op(OpFlip)
	assert.Equal(t, 2, flip.Count)
	assert.Equal(t, 1, flip.Errors)
	assert.Equal(t, 1, flip.ErrKinds["acquire_timeout"])
	assert.Equal(t, 1*time.Millisecond, flip.Min)
	assert.Equal(t, 5*time.Millisecond, flip.Max)
	assert.Equal(t, 6*time.Millisecond, flip.Total)
}
