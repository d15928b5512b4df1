package behavior

import (
	"math/rand/v2"
	"sync/atomic"
)

// TurnMemory decides which way to turn after an obstacle. Every turn that
// did not clear the way is added to a signed tally, and the robot keeps
// turning the way the tally leans. With an even tally the direction is a
// coin flip. The tally is never reset or bounded.
//
// Next is called from the control loop only; Value may be read anywhere.
type TurnMemory struct {
	inc   int64
	tally atomic.Int64
	rng   *rand.Rand
}

// NewTurnMemory returns a memory adding inc per failed turn.
func NewTurnMemory(inc int, rng *rand.Rand) *TurnMemory {
	return &TurnMemory{inc: int64(inc), rng: rng}
}

// Next returns -1 or +1. last is the direction of the previous turn, or 0
// if the robot walked freely since.
func (m *TurnMemory) Next(last int) int {
	t := m.tally.Load()
	switch {
	case last > 0:
		t = m.tally.Add(m.inc)
	case last < 0:
		t = m.tally.Add(-m.inc)
	}
	switch {
	case t > 0:
		return 1
	case t < 0:
		return -1
	}
	if m.rng.IntN(2) == 0 {
		return -1
	}
	return 1
}

// Value returns the current tally.
func (m *TurnMemory) Value() int {
	return int(m.tally.Load())
}
