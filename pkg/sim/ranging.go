package sim

import (
	"math/rand/v2"
	"sync"
)

// Script is a ranging sensor that replays a fixed list of readings,
// wrapping around at the end.
type Script struct {
	mu     sync.Mutex
	name   string
	values []float64
	next   int
	reads  int
	ready  bool
}

// NewScript returns a ready sensor replaying values.
func NewScript(values ...float64) *Script {
	return &Script{name: "script", values: values, ready: true}
}

// SetReady changes the readiness flag.
func (s *Script) SetReady(ready bool) {
	s.mu.Lock()
	s.ready = ready
	s.mu.Unlock()
}

// RangeCM implements robot.RangingSensor.
func (s *Script) RangeCM() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.next]
	s.next = (s.next + 1) % len(s.values)
	s.reads++
	return v
}

// Ready implements robot.RangingSensor.
func (s *Script) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Name implements robot.RangingSensor.
func (s *Script) Name() string { return s.name }

// Reads returns how many readings were taken.
func (s *Script) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// Ground simulates a floor about GroundCM away with the occasional object
// or table edge that persists for a few readings.
type Ground struct {
	mu       sync.Mutex
	rng      *rand.Rand
	GroundCM float64
	// Odds per reading, in [0, 1].
	ObstacleOdds float64
	CliffOdds    float64

	event float64
	left  int
}

// NewGround returns a floor at 15 cm with rare events.
func NewGround(seed uint64) *Ground {
	return &Ground{
		rng:          rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		GroundCM:     15,
		ObstacleOdds: 0.03,
		CliffOdds:    0.02,
	}
}

// RangeCM implements robot.RangingSensor.
func (g *Ground) RangeCM() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.left > 0 {
		g.left--
		return g.event
	}
	switch p := g.rng.Float64(); {
	case p < g.ObstacleOdds:
		g.event, g.left = 4+g.rng.Float64()*4, 3
		return g.event
	case p < g.ObstacleOdds+g.CliffOdds:
		g.event, g.left = 30+g.rng.Float64()*10, 3
		return g.event
	}
	return g.GroundCM + g.rng.NormFloat64()*0.8
}

// Ready implements robot.RangingSensor.
func (g *Ground) Ready() bool { return true }

// Name implements robot.RangingSensor.
func (g *Ground) Name() string { return "sim-ground" }
