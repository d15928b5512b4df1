package behavior

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teslashibe/go-hexbug/pkg/robot"
)

func TestState_NamesAndColors(t *testing.T) {
	tests := []struct {
		state State
		name  string
		color robot.Color
	}{
		{Idle, "idle", robot.Color{R: 10, G: 10, B: 10}},
		{Walking, "walking", robot.Color{R: 20, G: 70, B: 0}},
		{Looking, "looking", robot.Color{R: 40, G: 30, B: 0}},
		{OnHold, "on_hold", robot.Color{R: 20, G: 0, B: 50}},
		{Obstacle, "obstacle", robot.Color{R: 90, G: 30, B: 0}},
		{Cliff, "cliff", robot.Color{R: 90, G: 0, B: 30}},
		{WakingUp, "waking_up", robot.Color{R: 10, G: 60, B: 60}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.state.String())
			assert.Equal(t, tt.color, tt.state.Color())
		})
	}
}

func TestState_Unknown(t *testing.T) {
	s := State(42)
	assert.Equal(t, "State(42)", s.String())
	assert.Equal(t, Idle.Color(), s.Color())
}

func TestState_TelemetryCodes(t *testing.T) {
	// Dashboards decode these numbers.
	assert.EqualValues(t, 0, Idle)
	assert.EqualValues(t, 3, OnHold)
	assert.EqualValues(t, 6, WakingUp)
}

func TestTurnMemory_EvenTallyIsACoinFlip(t *testing.T) {
	m := NewTurnMemory(1, seeded(3))
	left := 0
	const trials = 10000
	for range trials {
		if m.Next(0) < 0 {
			left++
		}
	}
	assert.Zero(t, m.Value())
	assert.InDelta(t, trials/2, left, trials*0.05, "left turns")
}

func TestTurnMemory_Reinforcement(t *testing.T) {
	m := NewTurnMemory(1, seeded(3))

	// Two failed right turns lean the tally right.
	assert.Equal(t, 1, m.Next(1))
	assert.Equal(t, 1, m.Next(1))
	assert.Equal(t, 2, m.Value())

	// A free walk leaves the tally alone.
	assert.Equal(t, 1, m.Next(0))
	assert.Equal(t, 2, m.Value())

	// Failed left turns pull it back and past zero.
	assert.Equal(t, 1, m.Next(-1))
	m.Next(-1)
	assert.Zero(t, m.Value())
	assert.Equal(t, -1, m.Next(-1))
	assert.Equal(t, -1, m.Value())
}

func TestTurnMemory_Increment(t *testing.T) {
	m := NewTurnMemory(5, seeded(3))
	m.Next(-1)
	m.Next(-1)
	assert.Equal(t, -10, m.Value())
	assert.Equal(t, -1, m.Next(1))
	assert.Equal(t, -5, m.Value())
}

func TestTurnMemory_Unbounded(t *testing.T) {
	m := NewTurnMemory(1, seeded(3))
	for range 1000 {
		m.Next(-1)
	}
	assert.Equal(t, -1000, m.Value())
}
