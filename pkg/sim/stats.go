package sim

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// OpResult records the outcome of a single board operation issued by a
// robot player.
type OpResult struct {
	Timestamp int64
	PlayerID  string
	Op        string
	Duration  time.Duration
	// ErrKind is empty on success.
	ErrKind string
}

// OpStats aggregates timing and error counts for one operation kind.
type OpStats struct {
	Count    int
	Errors   int
	ErrKinds map[string]int
	Min      time.Duration
	Max      time.Duration
	Total    time.Duration
}

// Stats aggregates OpResults across all robots in a run.
type Stats struct {
	mu  sync.Mutex
	ops map[string]*OpStats
}

func NewStats() *Stats {
	return &Stats{
		ops: make(map[string]*OpStats),
	}
}

// Record folds one result into the aggregate.
func (s *Stats) Record(res OpResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, ok := s.ops[res.Op]
	if !ok {
		op = &OpStats{
			ErrKinds: make(map[string]int),
			Min:      res.Duration,
		}
		s.ops[res.Op] = op
	}

	op.Count++
	op.Total += res.Duration
	if res.Duration < op.Min {
		op.Min = res.Duration
	}
	if res.Duration > op.Max {
		op.Max = res.Duration
	}
	if res.ErrKind != "" {
		op.Errors++
		op.ErrKinds[res.ErrKind]++
	}
}

// Op returns a copy of the aggregate for one operation kind, or nil if
// the operation was never recorded.
func (s *Stats) Op(name string) *OpStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, ok := s.ops[name]
	if !ok {
		return nil
	}
	copy := *op
	copy.ErrKinds = make(map[string]int, len(op.ErrKinds))
	for k, v := range op.ErrKinds {
		copy.ErrKinds[k] = v
	}
	return &copy
}

// TotalOps returns the number of recorded operations across all kinds.
func (s *Stats) TotalOps() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, op := range s.ops {
		total += op.Count
	}
	return total
}

func (s *Stats) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.ops))
	for name := range s.ops {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		op := s.ops[name]
		avg := time.Duration(0)
		if op.Count > 0 {
			avg = op.Total / time.Duration(op.Count)
		}
		fmt.Fprintf(&b, "%s: count=%d errors=%d min=%s avg=%s max=%s\n",
			name, op.Count, op.Errors, op.Min, avg, op.Max)
		kinds := make([]string, 0, len(op.ErrKinds))
		for kind := range op.ErrKinds {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			fmt.Fprintf(&b, "  %s: %d\n", kind, op.ErrKinds[kind])
		}
	}
	return b.String()
}
