// hexbug: walking robot controller
// Drives the robotling co-processor over serial (or a simulated robot),
// serves a local dashboard and optionally uplinks telemetry to a collector.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/teslashibe/go-hexbug/internal/config"
	"github.com/teslashibe/go-hexbug/internal/log"
	"github.com/teslashibe/go-hexbug/pkg/behavior"
	"github.com/teslashibe/go-hexbug/pkg/board"
	"github.com/teslashibe/go-hexbug/pkg/protocol"
	"github.com/teslashibe/go-hexbug/pkg/robot"
	"github.com/teslashibe/go-hexbug/pkg/scan"
	"github.com/teslashibe/go-hexbug/pkg/sim"
	"github.com/teslashibe/go-hexbug/pkg/telemetry"
	"github.com/teslashibe/go-hexbug/pkg/web"
)

var (
	version    = "0.4.0"
	configPath = flag.String("config", "", "JSON config file (built-in profile when empty)")
	serialPort = flag.String("serial", config.SerialPort(), "co-processor serial device")
	useSim     = flag.Bool("sim", false, "run against a simulated robot")
	httpPort   = flag.String("http", config.HTTPPort(), "local dashboard port (empty disables)")
	collector  = flag.String("collector", config.CollectorURL(), "telemetry collector, e.g. ws://host:8090")
	debug      = flag.Bool("debug", false, "enable debug logging")
)

func main() {
	flag.Parse()

	level := config.LogLevel()
	if *debug {
		level = "debug"
	}
	log.Init(level)

	fmt.Println()
	fmt.Println("🐞 HexBug v" + version)
	fmt.Println()

	if err := run(); err != nil {
		log.Error("hexbug stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := behavior.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = behavior.LoadConfig(*configPath); err != nil {
			return err
		}
	}
	enableTelemetry(&cfg, *httpPort, *collector)
	robotID := config.RobotID()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hw, closeHW, err := openHardware(cfg)
	if err != nil {
		return err
	}
	defer closeHW()

	ranging, err := cfg.Probe(hw)
	if err != nil {
		return fmt.Errorf("probe ranging: %w", err)
	}
	log.Info("ranging", "kind", ranging.Kind, "sensors", len(ranging.Sensors))

	// Sinks are wired before the machine exists; the status closure reads
	// the machine only once the server answers requests.
	var (
		sinks  telemetry.MultiSink
		m      *behavior.Machine
		timer  *robot.Timer
		server *web.Server
	)
	reporter := telemetry.NewReporter(&sinks, log.Component("telemetry"))

	if *httpPort != "" {
		server = web.NewServer(*httpPort, cfg, func() web.Status {
			return status(robotID, m, timer, reporter)
		}, log.Component("web"))
		sinks = append(sinks, server)
	}
	if *collector != "" {
		hello := protocol.HelloData{
			Ranging: ranging.Kind.String(),
			Sensors: len(ranging.Sensors),
			Angles:  scan.NewProfile(cfg.Scan.Positions).Angles(),
			Version: version,
		}
		uplink, err := telemetry.NewWSSink(*collector, robotID, hello, log.Component("uplink"))
		if err != nil {
			return err
		}
		sinks = append(sinks, uplink)
		go uplink.Run(ctx)
	}

	seed := uint64(time.Now().UnixNano())
	m, err = behavior.New(cfg, hw, ranging,
		behavior.WithRand(rand.New(rand.NewPCG(seed, seed>>1|1))),
		behavior.WithReporter(reporter),
		behavior.WithLogger(log.Component("behavior")),
	)
	if err != nil {
		return err
	}
	timer = m.NewBackground(clock.New())
	go timer.Run(ctx)
	defer timer.Stop()

	if server != nil {
		server.StartAsync(ctx)
		defer server.Shutdown()
	}

	log.Info("hexbug running", "robot", robotID, "sim", *useSim)
	err = m.Run(ctx)
	m.Stop()
	log.Info("👋 stopped", "reason", err)
	return nil
}

// openHardware connects to the co-processor, or builds a simulated robot.
func openHardware(cfg behavior.Config) (robot.Hardware, func(), error) {
	if *useSim {
		bot := sim.NewRobot(clock.New(), sim.NewGround(uint64(time.Now().UnixNano())))
		bot.Camera = &sim.Camera{Temp: 21}
		return bot.Hardware(), func() {}, nil
	}

	b, err := board.Open(*serialPort, cfg.Servo, board.WithLogger(log.Component("board")))
	if err != nil {
		return robot.Hardware{}, nil, err
	}
	go func() {
		if err := b.Wait(); err != nil && !errors.Is(err, board.ErrClosed) {
			log.Error("serial link lost", "error", err)
		}
	}()

	// Give the co-processor a moment to stream its first A/D line.
	deadline := time.Now().Add(2 * time.Second)
	for !b.Ready() && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if !b.Ready() {
		log.Warn("no A/D data from co-processor yet", "port", *serialPort)
	}
	return b.Hardware(nil), func() { b.Close() }, nil
}

// enableTelemetry switches publishing on when anything will consume it: the
// local dashboard or a collector uplink.
func enableTelemetry(cfg *behavior.Config, httpPort, collector string) {
	if httpPort != "" || collector != "" {
		cfg.Telemetry = true
	}
}

func status(robotID string, m *behavior.Machine, timer *robot.Timer, r *telemetry.Reporter) web.Status {
	st := web.Status{Robot: robotID}
	if m == nil {
		return st
	}
	s := m.Snapshot()
	st.State = s.State.String()
	st.StateCode = int(s.State)
	st.Tilted = s.Tilted
	st.Ranging = m.Ranging().String()
	st.TurnMemory = m.TurnTally()
	if last := m.LastScan(); last != nil {
		st.LastScan = last.Class.String()
	}
	if timer != nil {
		st.Ticks = timer.Ticks()
	}
	st.Published, st.Dropped = r.Stats()
	return st
}
