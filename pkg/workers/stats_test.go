package workers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlor/pelmanism/pkg/board"
	"github.com/parlor/pelmanism/pkg/queue"
	"github.com/parlor/pelmanism/pkg/sim"
)

type fakeRepository struct {
	results   []sim.OpResult
	snapshots []string
}

func (r *fakeRepository) Close(_ context.Context) error { return nil }

func (r *fakeRepository) SaveOpResults(_ context.Context, results []sim.OpResult) error {
	r.results = append(r.results, results...)
	return nil
}

func (r *fakeRepository) SaveSnapshot(_ context.Context, _ int64, boardText string) error {
	r.snapshots = append(r.snapshots, boardText)
	return nil
}

func (r *fakeRepository) LoadOpCounts(_ context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, res := range r.results {
		counts[res.Op]++
	}
	return counts, nil
}

func (r *fakeRepository) LoadLatestSnapshot(_ context.Context) (string, error) {
	if len(r.snapshots) == 0 {
		return "", nil
	}
	return r.snapshots[len(r.snapshots)-1], nil
}

func TestStatsWorkerFlush(t *testing.T) {
	m, err := board.NewMonitor(board.NewMonitorOptions{
		Definition: &board.Definition{
			Height: 1,
			Width:  2,
			Values: []string{"A", "A"},
		},
	})
	require.NoError(t, err)

	resultQueue := queue.NewInMemoryQueue(10)
	require.NoError(t, resultQueue.Enqueue(sim.OpResult{PlayerID: "p1", Op: sim.OpFlip}))
	require.NoError(t, resultQueue.Enqueue(sim.OpResult{PlayerID: "p1", Op: sim.OpLook}))

	repo := &fakeRepository{}
	worker := NewStatsWorker(NewStatsWorkerOptions{
		ResultQueue: resultQueue,
		Repository:  repo,
		Monitor:     m,
		Interval:    time.Hour,
	})

	worker.Flush(context.Background(), time.Now())

	require.Len(t, repo.results, 2)
	assert.Equal(t, sim.OpFlip, repo.results[0].Op)
	assert.Equal(t, 0, resultQueue.Size(), "flush drains the queue")

	require.Len(t, repo.snapshots, 1)
	assert.Equal(t, "1x2\ndown\ndown\n", repo.snapshots[0])
}

func TestStatsWorkerFlushesOnShutdown(t *testing.T) {
	m, err := board.NewMonitor(board.NewMonitorOptions{
		Definition: &board.Definition{
			Height: 1,
			Width:  2,
			Values: []string{"A", "A"},
		},
	})
	require.NoError(t, err)

	resultQueue := queue.NewInMemoryQueue(10)
	require.NoError(t, resultQueue.Enqueue(sim.OpResult{PlayerID: "p1", Op: sim.OpFlip}))

	repo := &fakeRepository{}
	worker := NewStatsWorker(NewStatsWorkerOptions{
		ResultQueue: resultQueue,
		Repository:  repo,
		Monitor:     m,
		Interval:    time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}

	assert.Len(t, repo.results, 1)
}
