package web

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-hexbug/pkg/hub"
)

// handleStatus returns the robot's current state
func (s *Server) handleStatus(c *fiber.Ctx) error {
	var st Status
	if s.status != nil {
		st = s.status()
	}

	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	uptime := 0.0
	if !started.IsZero() {
		uptime = time.Since(started).Seconds()
	}
	return c.JSON(fiber.Map{
		"status":     st,
		"uptime_s":   uptime,
		"ws_clients": s.telemetryHub.ViewerCount(),
	})
}

// handleConfig returns the configuration the robot runs with
func (s *Server) handleConfig(c *fiber.Ctx) error {
	if s.config == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no configuration",
		})
	}
	return c.JSON(s.config)
}

// handleSnapshot returns the most recent telemetry snapshot
func (s *Server) handleSnapshot(c *fiber.Ctx) error {
	s.mu.RLock()
	last := s.last
	s.mu.RUnlock()

	if last == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no snapshot yet",
		})
	}
	return c.JSON(last)
}

// handleTelemetryWS streams snapshots until the client goes away
func (s *Server) handleTelemetryWS(c *websocket.Conn) {
	hub.Watch(s.telemetryHub, c)
}
