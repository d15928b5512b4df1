package behavior

import (
	"log/slog"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-hexbug/internal/log"
	"github.com/teslashibe/go-hexbug/pkg/sim"
	"github.com/teslashibe/go-hexbug/pkg/telemetry"
)

func quiet() *slog.Logger {
	return log.Discard()
}

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed+1))
}

// rig is a machine on a simulated robot with a virtual clock.
type rig struct {
	bot    *sim.Robot
	clk    *sim.Clock
	sensor *sim.Script
	sink   *captureSink
	m      *Machine
}

type rigOption func(*rigSetup)

type rigSetup struct {
	opts []Option
	sink *captureSink
}

func withTelemetry() rigOption {
	return func(s *rigSetup) {
		s.sink = &captureSink{ready: true}
		s.opts = append(s.opts, WithReporter(telemetry.NewReporter(s.sink, quiet())))
	}
}

func newRig(t *testing.T, cfg Config, readings []float64, ro ...rigOption) *rig {
	t.Helper()
	var setup rigSetup
	for _, o := range ro {
		o(&setup)
	}

	clk := sim.NewClock()
	sensor := sim.NewScript(readings...)
	bot := sim.NewRobot(clk, sensor)
	hw := bot.Hardware()

	ranging, err := cfg.Probe(hw)
	require.NoError(t, err)

	opts := append([]Option{WithClock(clk), WithRand(seeded(7)), WithLogger(quiet())}, setup.opts...)
	m, err := New(cfg, hw, ranging, opts...)
	require.NoError(t, err)
	return &rig{bot: bot, clk: clk, sensor: sensor, sink: setup.sink, m: m}
}

// captureSink records published payloads.
type captureSink struct {
	mu       sync.Mutex
	ready    bool
	payloads []map[string]any
}

func (s *captureSink) Publish(_ string, payload map[string]any) error {
	s.mu.Lock()
	s.payloads = append(s.payloads, payload)
	s.mu.Unlock()
	return nil
}

func (s *captureSink) Ready() bool { return s.ready }

func (s *captureSink) last() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.payloads) == 0 {
		return nil
	}
	return s.payloads[len(s.payloads)-1]
}
