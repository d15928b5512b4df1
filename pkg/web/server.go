// Package web provides the robot's local status API and a live telemetry
// websocket for dashboards on the same network.
package web

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-hexbug/pkg/hub"
)

// Status is what GET /api/status reports besides the last snapshot.
type Status struct {
	Robot      string `json:"robot"`
	State      string `json:"state"`
	StateCode  int    `json:"state_code"`
	Tilted     bool   `json:"tilted"`
	Ranging    string `json:"ranging"`
	LastScan   string `json:"last_scan,omitempty"`
	TurnMemory int    `json:"turn_memory"`
	Ticks      uint64 `json:"ticks"`
	Published  uint64 `json:"published"`
	Dropped    uint64 `json:"dropped"`
}

// StatusFunc is polled on every status request.
type StatusFunc func() Status

// Frame is the JSON pushed to /ws/telemetry clients.
type Frame struct {
	Topic   string         `json:"topic"`
	Payload map[string]any `json:"payload"`
}

// Server is the local web server. It doubles as a telemetry sink.
type Server struct {
	app  *fiber.App
	port string
	log  *slog.Logger

	telemetryHub *hub.Hub
	status       StatusFunc
	config       any

	mu      sync.RWMutex
	last    *Frame
	started time.Time

	ready atomic.Bool
}

// NewServer creates the server. config is served verbatim on /api/config;
// status may be nil.
func NewServer(port string, config any, status StatusFunc, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		port:         port,
		log:          logger,
		telemetryHub: hub.New("telemetry", logger),
		status:       status,
		config:       config,
	}

	app := fiber.New(fiber.Config{
		AppName:               "HexBug",
		DisableStartupMessage: true,
	})

	// CORS for dashboards served from elsewhere
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/config", s.handleConfig)
	api.Get("/snapshot", s.handleSnapshot)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/telemetry", websocket.New(s.handleTelemetryWS))

	s.app = app
	return s
}

// App exposes the fiber app, mainly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start runs the hub and serves until the listener fails or Shutdown is
// called. The hub stops with ctx.
func (s *Server) Start(ctx context.Context) error {
	s.log.Info("web server listening", "url", "http://localhost:"+s.port)

	go s.telemetryHub.Run(ctx)
	s.mu.Lock()
	s.started = time.Now()
	s.mu.Unlock()
	s.ready.Store(true)
	defer s.ready.Store(false)

	return s.app.Listen(":" + s.port)
}

// StartAsync starts the server in a goroutine
func (s *Server) StartAsync(ctx context.Context) {
	go func() {
		if err := s.Start(ctx); err != nil {
			s.log.Error("web server stopped", "error", err)
		}
	}()
}

// Publish stores the snapshot for /api/snapshot and pushes it to websocket
// clients. It never blocks the caller.
func (s *Server) Publish(topic string, payload map[string]any) error {
	f := &Frame{Topic: topic, Payload: payload}
	s.mu.Lock()
	s.last = f
	s.mu.Unlock()
	return s.telemetryHub.BroadcastJSON(f)
}

// Ready reports whether the server has been started.
func (s *Server) Ready() bool {
	return s.ready.Load()
}

// Clients returns the number of connected telemetry websockets.
func (s *Server) Clients() int {
	return s.telemetryHub.ViewerCount()
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
