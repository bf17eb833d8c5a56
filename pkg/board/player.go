package board

// PlayerState tracks one player's turn-scoped bookkeeping. Entries are
// created on first reference to a player ID and persist for the board's
// lifetime. All access is synchronized by the owning Monitor.
type PlayerState struct {
	// ID is the stable registry key for this player.
	ID string

	// currentFirst and currentSecond are the cards of the in-progress
	// attempt. currentSecond is only ever set transiently while the
	// second flip is being resolved.
	currentFirst  *Card
	currentSecond *Card

	// previousFirst and previousSecond are the pair from the player's
	// last completed attempt, pending finalization at the start of the
	// player's next flip.
	previousFirst  *Card
	previousSecond *Card
}

func newPlayerState(id string) *PlayerState {
	return &PlayerState{ID: id}
}

// hasPrevious reports whether the player has a completed attempt
// pending finalization.
func (p *PlayerState) hasPrevious() bool {
	return p.previousFirst != nil || p.previousSecond != nil
}

// clearPrevious drops the player's references to the finalized pair.
func (p *PlayerState) clearPrevious() {
	p.previousFirst = nil
	p.previousSecond = nil
}
