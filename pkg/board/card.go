package board

// Card represents the mutable state of one grid location. Cards are
// allocated once at board construction and mutated in place; a matched
// card is unlinked from the grid and flagged removed rather than freed.
// All access is synchronized by the owning Monitor.
type Card struct {
	value string
	row   int
	col   int

	faceUp bool
	// controller is the ID of the player holding exclusive control of
	// this card, or "" if the card is uncontrolled.
	controller string
	// prevControlledBy is the ID of the player that most recently
	// relinquished control without removing the card.
	prevControlledBy string
	removed          bool
}

func newCard(value string, row, col int) *Card {
	return &Card{
		value: value,
		row:   row,
		col:   col,
	}
}

// Value returns the card's current value.
func (c *Card) Value() string {
	return c.value
}

// Row returns the card's fixed row, assigned at creation.
func (c *Card) Row() int {
	return c.row
}

// Col returns the card's fixed column, assigned at creation.
func (c *Card) Col() int {
	return c.col
}

// controlledBy reports whether the card is currently controlled by the
// given player.
func (c *Card) controlledBy(playerID string) bool {
	return c.controller != "" && c.controller == playerID
}

// contestedFor reports whether the card is face up and controlled by a
// player other than the given one.
func (c *Card) contestedFor(playerID string) bool {
	return c.faceUp && c.controller != "" && c.controller != playerID
}
