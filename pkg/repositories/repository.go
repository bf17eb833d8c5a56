package repositories

import (
	"context"

	"github.com/parlor/pelmanism/pkg/sim"
)

// Repository persists operation results and board snapshots for
// offline analysis of a run.
type Repository interface {
	Close(ctx context.Context) error
	SaveOpResults(ctx context.Context, results []sim.OpResult) error
	SaveSnapshot(ctx context.Context, timestamp int64, boardText string) error
	// LoadOpCounts returns the number of persisted results per
	// operation kind.
	LoadOpCounts(ctx context.Context) (map[string]int, error)
	// LoadLatestSnapshot returns the most recently persisted board
	// snapshot, or ErrNotFound if none has been saved.
	LoadLatestSnapshot(ctx context.Context) (string, error)
}
