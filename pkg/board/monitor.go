package board

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
)

var playerIDPattern = regexp.MustCompile(`^\w+$`)

// Transform rewrites a card value. It is invoked exactly once per
// distinct live value during Map, concurrently with other invocations.
type Transform func(ctx context.Context, value string) (string, error)

// Monitor is the sole owner of all shared board state: the grid, the
// player registry, and the set of pending watchers. Every operation is
// safe to call from any number of goroutines.
type Monitor struct {
	mu       sync.Mutex
	height   int
	width    int
	grid     [][]*Card
	players  map[string]*PlayerState
	notifier *changeNotifier

	// acquireTimeout bounds the wait for a contested card in Flip.
	// Zero means wait indefinitely.
	acquireTimeout time.Duration
}

// NewMonitorOptions contains options for creating a new Monitor.
type NewMonitorOptions struct {
	Definition *Definition
	// AcquireTimeout bounds the wait for a contested card in Flip.
	// Zero or unset means wait indefinitely.
	AcquireTimeout time.Duration
}

// NewMonitor creates a new Monitor from a board definition. All cards
// are allocated face down and uncontrolled.
func NewMonitor(opts NewMonitorOptions) (*Monitor, error) {
	def := opts.Definition
	if def == nil {
		return nil, &ErrInvalidArgument{Reason: "definition is nil"}
	}
	if err := def.validate(); err != nil {
		return nil, err
	}

	grid := make([][]*Card, def.Height)
	for row := range grid {
		grid[row] = make([]*Card, def.Width)
		for col := range grid[row] {
			grid[row][col] = newCard(def.Values[row*def.Width+col], row, col)
		}
	}

	return &Monitor{
		height:         def.Height,
		width:          def.Width,
		grid:           grid,
		players:        make(map[string]*PlayerState),
		notifier:       newChangeNotifier(),
		acquireTimeout: opts.AcquireTimeout,
	}, nil
}

// Height returns the number of rows on the board.
func (m *Monitor) Height() int {
	return m.height
}

// Width returns the number of columns on the board.
func (m *Monitor) Width() int {
	return m.width
}

// Flip advances the player's current attempt by one flip. It first
// finalizes the player's previous completed attempt, then applies the
// flip as either the first or the second card of a new attempt. A first
// flip on a card controlled by another player blocks until control
// frees up, the card is removed, the configured timeout elapses, or ctx
// is cancelled.
func (m *Monitor) Flip(ctx context.Context, playerID string, row, col int) error {
	if !playerIDPattern.MatchString(playerID) {
		return &ErrInvalidArgument{Reason: fmt.Sprintf("malformed player id %q", playerID)}
	}
	if row < 0 || row >= m.height || col < 0 || col >= m.width {
		return &ErrOutOfBounds{Row: row, Col: col}
	}

	var pending []delivery
	defer func() {
		deliverAll(pending)
	}()

	m.mu.Lock()
	defer m.mu.Unlock()

	player := m.playerLocked(playerID)
	if m.finalizeLocked(player) {
		pending = append(pending, m.broadcastLocked()...)
	}

	if player.currentFirst == nil {
		return m.flipFirst(ctx, player, row, col, &pending)
	}
	return m.flipSecondLocked(player, row, col, &pending)
}

// flipFirst applies Rule 1. The monitor's lock must be held on entry
// and is held on return, but is released while waiting for a contested
// card so the controlling player can make progress.
func (m *Monitor) flipFirst(ctx context.Context, player *PlayerState, row, col int, pending *[]delivery) error {
	card := m.grid[row][col]
	if card == nil {
		return &ErrNoCardAtLocation{Row: row, Col: col}
	}

	if card.contestedFor(player.ID) {
		var timeout <-chan time.Time
		if m.acquireTimeout > 0 {
			timer := time.NewTimer(m.acquireTimeout)
			defer timer.Stop()
			timeout = timer.C
		}

		for card.contestedFor(player.ID) {
			gen := m.notifier.generation()

			// Park without the lock so the control release we are
			// waiting for can happen.
			flushing := *pending
			*pending = nil
			m.mu.Unlock()
			deliverAll(flushing)

			var err error
			select {
			case <-gen:
			case <-timeout:
				err = &ErrAcquireTimeout{Row: row, Col: col, Timeout: m.acquireTimeout}
			case <-ctx.Done():
				err = ctx.Err()
			}
			m.mu.Lock()
			if err != nil {
				return err
			}

			if m.grid[row][col] != card {
				return &ErrCardRemovedDuringWait{Row: row, Col: col}
			}
		}
	}

	// A card that went face down while we waited is re-flipped face up
	// as part of the claim.
	if !card.faceUp {
		card.faceUp = true
	}
	card.controller = player.ID
	player.currentFirst = card
	*pending = append(*pending, m.broadcastLocked()...)
	return nil
}

// flipSecondLocked applies Rule 2. The monitor's lock must be held.
func (m *Monitor) flipSecondLocked(player *PlayerState, row, col int, pending *[]delivery) error {
	first := player.currentFirst
	card := m.grid[row][col]

	if card == nil {
		m.relinquishFirstLocked(player, pending)
		return &ErrSecondCardContested{Row: row, Col: col, Reason: "no card at location"}
	}
	if card.faceUp && card.controller != "" {
		m.relinquishFirstLocked(player, pending)
		return &ErrSecondCardContested{Row: row, Col: col, Reason: "card is controlled"}
	}

	if !card.faceUp {
		card.faceUp = true
	}

	player.currentSecond = card
	player.previousFirst = first
	player.previousSecond = card

	if first.value == card.value {
		// Matched pair stays on the grid, face up and controlled,
		// pending removal at the player's next finalize.
		first.controller = player.ID
		card.controller = player.ID
	} else {
		for _, c := range []*Card{first, card} {
			if !m.gridHoldsLocked(c) {
				continue
			}
			c.controller = ""
			c.prevControlledBy = player.ID
		}
	}

	player.currentFirst = nil
	player.currentSecond = nil
	*pending = append(*pending, m.broadcastLocked()...)
	return nil
}

// relinquishFirstLocked releases the player's first card when the
// second flip fails. The card stays face up so the player's next
// finalize turns it back down. The monitor's lock must be held.
func (m *Monitor) relinquishFirstLocked(player *PlayerState, pending *[]delivery) {
	first := player.currentFirst
	player.previousFirst = first
	player.previousSecond = nil
	if m.gridHoldsLocked(first) {
		first.controller = ""
		first.prevControlledBy = player.ID
	}
	player.currentFirst = nil
	*pending = append(*pending, m.broadcastLocked()...)
}

// finalizeLocked resolves the player's previous completed attempt
// (Rule 3) and reports whether any grid state changed. The monitor's
// lock must be held.
func (m *Monitor) finalizeLocked(player *PlayerState) bool {
	if !player.hasPrevious() {
		return false
	}
	pf, ps := player.previousFirst, player.previousSecond

	changed := false
	if pf != nil && ps != nil && pf.value == ps.value {
		// Matched pair: unlink from the grid permanently.
		for _, c := range []*Card{pf, ps} {
			if !m.gridHoldsLocked(c) {
				continue
			}
			m.grid[c.row][c.col] = nil
			c.removed = true
			c.faceUp = false
			c.controller = ""
			changed = true
		}
	} else {
		// No match, or a lone relinquished card: turn face down unless
		// another player has since claimed it.
		for _, c := range []*Card{pf, ps} {
			if c == nil || !m.gridHoldsLocked(c) {
				continue
			}
			if c.faceUp && (c.controller == "" || c.controller == player.ID) {
				c.faceUp = false
				changed = true
			}
			if c.controller == player.ID {
				c.controller = ""
				c.prevControlledBy = player.ID
				changed = true
			}
		}
	}

	player.clearPrevious()
	return changed
}

// Look returns a deterministic textual snapshot of the board relative
// to the requesting player. The player is lazily registered if it has
// not been seen before.
func (m *Monitor) Look(playerID string) (string, error) {
	if !playerIDPattern.MatchString(playerID) {
		return "", &ErrInvalidArgument{Reason: fmt.Sprintf("malformed player id %q", playerID)}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.playerLocked(playerID)
	return m.renderLocked(playerID), nil
}

// Map rewrites card values in bulk. The set of distinct live values and
// their positions is snapshotted atomically, transform is invoked once
// per distinct value concurrently, and every successful rewrite is
// applied to cells that still hold their original value. Committed
// rewrites are not rolled back when some transform fails; the first
// failure in value order is reported after the successes commit.
func (m *Monitor) Map(ctx context.Context, playerID string, transform Transform) (string, error) {
	if !playerIDPattern.MatchString(playerID) {
		return "", &ErrInvalidArgument{Reason: fmt.Sprintf("malformed player id %q", playerID)}
	}
	if transform == nil {
		return "", &ErrInvalidArgument{Reason: "transform is nil"}
	}

	type position struct {
		row, col int
	}

	m.mu.Lock()
	m.playerLocked(playerID)
	positions := make(map[string][]position)
	for row := range m.grid {
		for col, card := range m.grid[row] {
			if card == nil {
				continue
			}
			positions[card.value] = append(positions[card.value], position{row: row, col: col})
		}
	}
	m.mu.Unlock()

	values := make([]string, 0, len(positions))
	for value := range positions {
		values = append(values, value)
	}
	sort.Strings(values)

	type outcome struct {
		out string
		err error
	}
	outcomes := make([]outcome, len(values))
	var wg sync.WaitGroup
	for i, value := range values {
		wg.Add(1)
		go func(i int, value string) {
			defer wg.Done()
			out, err := transform(ctx, value)
			outcomes[i] = outcome{out: out, err: err}
		}(i, value)
	}
	wg.Wait()

	m.mu.Lock()
	changed := false
	for i, value := range values {
		if outcomes[i].err != nil || outcomes[i].out == value {
			continue
		}
		// Cells rewritten or removed since the snapshot are skipped.
		for _, pos := range positions[value] {
			card := m.grid[pos.row][pos.col]
			if card == nil || card.value != value {
				continue
			}
			card.value = outcomes[i].out
			changed = true
		}
	}

	var pending []delivery
	if changed {
		pending = m.broadcastLocked()
	}

	var firstErr error
	for i := range outcomes {
		if outcomes[i].err != nil {
			firstErr = fmt.Errorf("transform failed for value %q: %v", values[i], outcomes[i].err)
			break
		}
	}

	var snapshot string
	if firstErr == nil {
		snapshot = m.renderLocked(playerID)
	}
	m.mu.Unlock()
	deliverAll(pending)

	if firstErr != nil {
		return "", firstErr
	}
	return snapshot, nil
}

// Watch registers a waiter for the next committed board mutation. The
// returned channel resolves exactly once with a snapshot computed at
// notification time. There is no built-in timeout; abandon the channel
// to cancel.
func (m *Monitor) Watch(playerID string) (<-chan string, error) {
	if !playerIDPattern.MatchString(playerID) {
		return nil, &ErrInvalidArgument{Reason: fmt.Sprintf("malformed player id %q", playerID)}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.playerLocked(playerID)
	return m.notifier.register(playerID).ch, nil
}

// playerLocked returns the player's state, creating it on first
// reference. The monitor's lock must be held.
func (m *Monitor) playerLocked(playerID string) *PlayerState {
	player, ok := m.players[playerID]
	if !ok {
		player = newPlayerState(playerID)
		m.players[playerID] = player
	}
	return player
}

// gridHoldsLocked reports whether the card still occupies its grid
// slot. The monitor's lock must be held.
func (m *Monitor) gridHoldsLocked(c *Card) bool {
	return c != nil && m.grid[c.row][c.col] == c
}

// broadcastLocked takes the entire pending watcher set, builds each
// watcher's snapshot at this instant, and starts a new change round.
// The returned deliveries must be sent after the lock is released.
// The monitor's lock must be held.
func (m *Monitor) broadcastLocked() []delivery {
	watchers := m.notifier.swap()
	if len(watchers) == 0 {
		return nil
	}
	deliveries := make([]delivery, 0, len(watchers))
	for _, w := range watchers {
		deliveries = append(deliveries, delivery{
			ch:       w.ch,
			snapshot: m.renderLocked(w.playerID),
		})
	}
	return deliveries
}

// renderLocked builds the snapshot wire format: a HEIGHTxWIDTH header
// line followed by one line per cell in row-major order. The monitor's
// lock must be held.
func (m *Monitor) renderLocked(playerID string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%dx%d\n", m.height, m.width)
	for row := range m.grid {
		for _, card := range m.grid[row] {
			switch {
			case card == nil:
				b.WriteString("none\n")
			case !card.faceUp:
				b.WriteString("down\n")
			case card.controlledBy(playerID):
				fmt.Fprintf(&b, "my %s\n", card.value)
			default:
				fmt.Fprintf(&b, "up %s\n", card.value)
			}
		}
	}
	return b.String()
}

func deliverAll(deliveries []delivery) {
	for _, d := range deliveries {
		d.ch <- d.snapshot
	}
}
