package workers

import (
	"context"
	"time"

	"github.com/parlor/pelmanism/pkg/board"
	"github.com/parlor/pelmanism/pkg/log"
	"github.com/parlor/pelmanism/pkg/queue"
	"github.com/parlor/pelmanism/pkg/repositories"
	"github.com/parlor/pelmanism/pkg/sim"
)

// observerID is the reserved player ID used for persisted snapshots.
const observerID = "observer"

type StatsWorker struct {
	resultQueue queue.Queue
	repository  repositories.Repository
	monitor     *board.Monitor
	interval    time.Duration
}

type NewStatsWorkerOptions struct {
	ResultQueue queue.Queue
	Repository  repositories.Repository
	Monitor     *board.Monitor
	Interval    time.Duration
}

// NewStatsWorker creates a new StatsWorker. The worker periodically
// drains pending operation results from the queue and persists them as
// a batch, along with a snapshot of the current board.
func NewStatsWorker(opts NewStatsWorkerOptions) *StatsWorker {
	return &StatsWorker{
		resultQueue: opts.ResultQueue,
		repository:  opts.Repository,
		monitor:     opts.Monitor,
		interval:    opts.Interval,
	}
}

func (w *StatsWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Flush whatever is still queued before stopping.
			w.Flush(context.Background(), time.Now())
			return
		case t := <-ticker.C:
			w.Flush(ctx, t)
		}
	}
}

// Flush drains pending results and persists them along with a board
// snapshot.
func (w *StatsWorker) Flush(ctx context.Context, t time.Time) {
	pending, err := w.resultQueue.ReadAllMessages()
	if err != nil {
		log.Error("Failed to read op results: %v", err)
		return
	}

	results := make([]sim.OpResult, 0, len(pending))
	for _, item := range pending {
		res, ok := item.(sim.OpResult)
		if !ok {
			log.Error("Failed to cast queue item to sim.OpResult")
			continue
		}
		results = append(results, res)
	}

	if err := w.repository.SaveOpResults(ctx, results); err != nil {
		log.Error("Failed to save op results: %v", err)
	}

	snapshot, err := w.monitor.Look(observerID)
	if err != nil {
		log.Error("Failed to take board snapshot: %v", err)
		return
	}
	if err := w.repository.SaveSnapshot(ctx, t.UnixMilli(), snapshot); err != nil {
		log.Error("Failed to save board snapshot: %v", err)
	}
}
