package board

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidArgument is returned for malformed player IDs, bad board
// dimensions, and nil transforms.
type ErrInvalidArgument struct {
	Reason string
}

func (e *ErrInvalidArgument) Error() string {
	return fmt.Sprintf("invalid argument: %s", e.Reason)
}

// IsInvalidArgument checks if the error is an ErrInvalidArgument
func IsInvalidArgument(err error) bool {
	var e *ErrInvalidArgument
	return errors.As(err, &e)
}

// ErrOutOfBounds is returned when coordinates fall outside the grid.
type ErrOutOfBounds struct {
	Row, Col int
}

func (e *ErrOutOfBounds) Error() string {
	return fmt.Sprintf("location (%d,%d) is out of bounds", e.Row, e.Col)
}

// IsOutOfBounds checks if the error is an ErrOutOfBounds
func IsOutOfBounds(err error) bool {
	var e *ErrOutOfBounds
	return errors.As(err, &e)
}

// ErrNoCardAtLocation is returned when a first flip targets an empty
// grid slot.
type ErrNoCardAtLocation struct {
	Row, Col int
}

func (e *ErrNoCardAtLocation) Error() string {
	return fmt.Sprintf("no card at (%d,%d)", e.Row, e.Col)
}

// IsNoCardAtLocation checks if the error is an ErrNoCardAtLocation
func IsNoCardAtLocation(err error) bool {
	var e *ErrNoCardAtLocation
	return errors.As(err, &e)
}

// ErrSecondCardContested is returned when a second flip targets an
// empty slot or a controlled card. The player's first card has already
// been relinquished by the time this error is returned.
type ErrSecondCardContested struct {
	Row, Col int
	// Reason distinguishes the empty-slot case from the controlled-card
	// case.
	Reason string
}

func (e *ErrSecondCardContested) Error() string {
	return fmt.Sprintf("cannot take second card at (%d,%d): %s", e.Row, e.Col, e.Reason)
}

// IsSecondCardContested checks if the error is an ErrSecondCardContested
func IsSecondCardContested(err error) bool {
	var e *ErrSecondCardContested
	return errors.As(err, &e)
}

// ErrCardRemovedDuringWait is returned when a contested card disappears
// from the grid while the caller is waiting to claim it.
type ErrCardRemovedDuringWait struct {
	Row, Col int
}

func (e *ErrCardRemovedDuringWait) Error() string {
	return fmt.Sprintf("card at (%d,%d) was removed while waiting", e.Row, e.Col)
}

// IsCardRemovedDuringWait checks if the error is an ErrCardRemovedDuringWait
func IsCardRemovedDuringWait(err error) bool {
	var e *ErrCardRemovedDuringWait
	return errors.As(err, &e)
}

// ErrAcquireTimeout is returned when the wait for a contested card
// exhausts the configured timeout.
type ErrAcquireTimeout struct {
	Row, Col int
	Timeout  time.Duration
}

func (e *ErrAcquireTimeout) Error() string {
	return fmt.Sprintf("timed out after %s waiting for card at (%d,%d)", e.Timeout, e.Row, e.Col)
}

// IsAcquireTimeout checks if the error is an ErrAcquireTimeout
func IsAcquireTimeout(err error) bool {
	var e *ErrAcquireTimeout
	return errors.As(err, &e)
}

// ErrKind returns a stable short name for the board error kind, for
// statistics and wire error payloads. It returns "" for nil and
// "other" for errors that are not board errors.
func ErrKind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsInvalidArgument(err):
		return "invalid_argument"
	case IsOutOfBounds(err):
		return "out_of_bounds"
	case IsNoCardAtLocation(err):
		return "no_card_at_location"
	case IsSecondCardContested(err):
		return "second_card_contested"
	case IsCardRemovedDuringWait(err):
		return "card_removed_during_wait"
	case IsAcquireTimeout(err):
		return "acquire_timeout"
	default:
		return "other"
	}
}
