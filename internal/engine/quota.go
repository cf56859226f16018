package engine

import (
	"errors"
	"fmt"
)

// RoundQuota counts enumeration rounds and enforces a maximum.
//
// Enumeration over a finite closure always terminates, but an infinite
// closure (an unbounded integer parent, or a world that keeps generating
// objects) runs forever. The quota turns that into an error for callers
// that need a hard stop.
type RoundQuota struct {
	maxRounds int // 0 means unlimited
	current   int
}

// NewRoundQuota creates a quota. maxRounds <= 0 disables it.
func NewRoundQuota(maxRounds int) *RoundQuota {
	return &RoundQuota{maxRounds: max(maxRounds, 0)}
}

// Check counts the start of a round and fails once more than maxRounds
// rounds have started.
func (q *RoundQuota) Check(runID string) error {
	q.current++
	if q.maxRounds > 0 && q.current > q.maxRounds {
		return &RoundsExceededError{
			RunID:  runID,
			Rounds: q.current,
			Limit:  q.maxRounds,
		}
	}
	return nil
}

// Current returns the number of rounds started.
func (q *RoundQuota) Current() int {
	return q.current
}

// MaxRounds returns the limit (0 when unlimited).
func (q *RoundQuota) MaxRounds() int {
	return q.maxRounds
}

// RoundsExceededError is returned when an enumeration would start more
// rounds than its quota allows. Results yielded before the error remain
// valid.
type RoundsExceededError struct {
	RunID  string
	Rounds int
	Limit  int
}

// Error implements the error interface.
func (e *RoundsExceededError) Error() string {
	return fmt.Sprintf("enumeration %s exceeded max rounds: round %d > %d limit",
		e.RunID, e.Rounds, e.Limit)
}

// IsRoundsExceeded returns true if the error is a RoundsExceededError.
// Uses errors.As to handle wrapped errors.
func IsRoundsExceeded(err error) bool {
	var re *RoundsExceededError
	return errors.As(err, &re)
}
