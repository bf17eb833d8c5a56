package sim

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parlor/pelmanism/pkg/board"
	"github.com/parlor/pelmanism/pkg/log"
	"github.com/parlor/pelmanism/pkg/queue"
)

// Operation names recorded in results.
const (
	OpFlip  = "flip"
	OpLook  = "look"
	OpMap   = "map"
	OpWatch = "watch"
)

// Runner drives a monitor with concurrent robot players and aggregates
// per-operation timing and error counts.
type Runner struct {
	monitor     *board.Monitor
	resultQueue queue.Queue
	players     int
	duration    time.Duration
	seed        int64
}

// NewRunnerOptions contains options for creating a new Runner.
type NewRunnerOptions struct {
	Monitor *board.Monitor
	// ResultQueue optionally receives every OpResult for downstream
	// persistence. Nil disables it.
	ResultQueue queue.Queue
	Players     int
	Duration    time.Duration
	Seed        int64
}

func NewRunner(opts NewRunnerOptions) *Runner {
	return &Runner{
		monitor:     opts.Monitor,
		resultQueue: opts.ResultQueue,
		players:     opts.Players,
		duration:    opts.Duration,
		seed:        opts.Seed,
	}
}

// Run exercises the board until the configured duration elapses or ctx
// is cancelled, and returns the aggregated stats.
func (r *Runner) Run(ctx context.Context) (*Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, r.duration)
	defer cancel()

	stats := NewStats()

	var wg sync.WaitGroup
	for i := 0; i < r.players; i++ {
		playerID := "sim" + strings.ReplaceAll(uuid.New().String(), "-", "")
		rng := rand.New(rand.NewSource(r.seed + int64(i)))

		wg.Add(1)
		go func() {
			defer wg.Done()
			r.robotLoop(ctx, playerID, rng, stats)
		}()
	}
	wg.Wait()

	return stats, nil
}

// robotLoop issues random operations until ctx is done: mostly flips,
// with occasional looks, watches, and a rare map.
func (r *Runner) robotLoop(ctx context.Context, playerID string, rng *rand.Rand, stats *Stats) {
	for ctx.Err() == nil {
		roll := rng.Intn(100)
		switch {
		case roll < 80:
			row := rng.Intn(r.monitor.Height())
			col := rng.Intn(r.monitor.Width())
			r.timed(stats, playerID, OpFlip, func() error {
				return r.monitor.Flip(ctx, playerID, row, col)
			})
		case roll < 92:
			r.timed(stats, playerID, OpLook, func() error {
				_, err := r.monitor.Look(playerID)
				return err
			})
		case roll < 98:
			r.timed(stats, playerID, OpWatch, func() error {
				ch, err := r.monitor.Watch(playerID)
				if err != nil {
					return err
				}
				select {
				case <-ch:
				case <-ctx.Done():
					// Abandon the handle.
				}
				return nil
			})
		default:
			r.timed(stats, playerID, OpMap, func() error {
				_, err := r.monitor.Map(ctx, playerID, func(_ context.Context, value string) (string, error) {
					return strings.ToUpper(value), nil
				})
				return err
			})
		}
	}
}

// timed runs one operation, records its result, and forwards it to the
// result queue when one is configured.
func (r *Runner) timed(stats *Stats, playerID, op string, fn func() error) {
	start := time.Now()
	err := fn()
	res := OpResult{
		Timestamp: start.UnixMilli(),
		PlayerID:  playerID,
		Op:        op,
		Duration:  time.Since(start),
		ErrKind:   board.ErrKind(err),
	}

	stats.Record(res)
	if r.resultQueue != nil {
		if err := r.resultQueue.Enqueue(res); err != nil {
			log.Warn("Failed to enqueue op result: %v", err)
		}
	}
}
