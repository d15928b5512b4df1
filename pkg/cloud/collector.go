// Package cloud provides the telemetry collector robots report to over
// WebSocket. It keeps the latest snapshot per robot, answers pings and
// optionally persists every snapshot.
package cloud

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/teslashibe/go-hexbug/pkg/protocol"
)

// RobotConnection represents a connected robot
type RobotConnection struct {
	ID        string
	Conn      *websocket.Conn
	Connected time.Time

	mu       sync.Mutex
	lastSeen time.Time
	hello    *protocol.HelloData
	latest   map[string]any
	received uint64
}

// Send sends a message to the robot
func (r *RobotConnection) Send(msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Conn.WriteMessage(websocket.TextMessage, data)
}

// Latest returns the most recent snapshot, or nil.
func (r *RobotConnection) Latest() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest
}

// Collector manages WebSocket connections from robots
type Collector struct {
	mu     sync.RWMutex
	robots map[string]*RobotConnection
	store  *Store
	log    *slog.Logger

	onTelemetry func(robotID string, t *protocol.TelemetryData)

	// Stats
	messagesReceived atomic.Uint64
	messagesSent     atomic.Uint64
	snapshots        atomic.Uint64
	storeErrors      atomic.Uint64
}

// NewCollector creates a collector. store may be nil to keep only the
// latest snapshot in memory.
func NewCollector(store *Store, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		robots: make(map[string]*RobotConnection),
		store:  store,
		log:    logger,
	}
}

// OnTelemetry sets the callback for incoming snapshots
func (h *Collector) OnTelemetry(callback func(robotID string, t *protocol.TelemetryData)) {
	h.mu.Lock()
	h.onTelemetry = callback
	h.mu.Unlock()
}

// RegisterRoutes registers WebSocket routes on a Fiber app
func (h *Collector) RegisterRoutes(app *fiber.App) {
	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// Robot connection endpoint
	app.Get("/ws/robot", websocket.New(h.handleRobot))
	app.Get("/ws/robot/:id", websocket.New(h.handleRobot))
}

// handleRobot handles a robot WebSocket connection
func (h *Collector) handleRobot(c *websocket.Conn) {
	// Get robot ID from path or generate one
	robotID := c.Params("id")
	if robotID == "" {
		robotID = generateRobotID()
	}

	now := time.Now()
	robot := &RobotConnection{
		ID:        robotID,
		Conn:      c,
		Connected: now,
		lastSeen:  now,
	}

	h.mu.Lock()
	h.robots[robotID] = robot
	robotCount := len(h.robots)
	h.mu.Unlock()
	h.log.Info("robot connected", "robot", robotID, "robots", robotCount)

	defer func() {
		h.mu.Lock()
		if h.robots[robotID] == robot {
			delete(h.robots, robotID)
		}
		robotCount := len(h.robots)
		h.mu.Unlock()
		h.log.Info("robot disconnected", "robot", robotID, "robots", robotCount)
	}()

	// Read loop
	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			h.log.Debug("robot read error", "robot", robotID, "error", err)
			return
		}

		robot.mu.Lock()
		robot.lastSeen = time.Now()
		robot.mu.Unlock()

		h.messagesReceived.Add(1)
		h.handleMessage(robot, data)
	}
}

// handleMessage processes an incoming message from a robot
func (h *Collector) handleMessage(robot *RobotConnection, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		h.log.Debug("parse error", "robot", robot.ID, "error", err)
		return
	}

	switch msg.Type {
	case protocol.TypeHello:
		hello, err := msg.GetHelloData()
		if err != nil {
			return
		}
		robot.mu.Lock()
		robot.hello = hello
		robot.mu.Unlock()
		h.log.Info("robot hello", "robot", robot.ID, "ranging", hello.Ranging, "sensors", hello.Sensors)

	case protocol.TypeTelemetry:
		t, err := msg.GetTelemetryData()
		if err != nil {
			h.log.Debug("bad telemetry", "robot", robot.ID, "error", err)
			return
		}
		h.snapshots.Add(1)
		robot.mu.Lock()
		robot.latest = t.Payload
		robot.received++
		robot.mu.Unlock()

		if h.store != nil {
			rec := Record{Robot: robot.ID, Received: time.Now(), State: stateOf(t.Payload), Payload: t.Payload}
			if err := h.store.Save(context.Background(), rec); err != nil {
				h.storeErrors.Add(1)
				h.log.Warn("store snapshot", "robot", robot.ID, "error", err)
			}
		}

		h.mu.RLock()
		cb := h.onTelemetry
		h.mu.RUnlock()
		if cb != nil {
			cb(robot.ID, t)
		}

	case protocol.TypePing:
		ping, _ := msg.GetPingData()
		id := ""
		if ping != nil {
			id = ping.ID
		}
		h.SendPong(robot.ID, id, msg.Timestamp)
	}
}

// stateOf extracts the numeric robot state from a decoded payload.
func stateOf(payload map[string]any) int {
	switch v := payload["state"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return -1
}

// SendPong sends a pong response to a robot
func (h *Collector) SendPong(robotID, id string, pingTS int64) error {
	msg, err := protocol.NewPongMessage(id, pingTS, time.Now().UnixMilli())
	if err != nil {
		return err
	}
	return h.sendToRobot(robotID, msg)
}

// sendToRobot sends a message to a specific robot
func (h *Collector) sendToRobot(robotID string, msg *protocol.Message) error {
	h.mu.RLock()
	robot, ok := h.robots[robotID]
	h.mu.RUnlock()

	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "robot not connected")
	}

	h.messagesSent.Add(1)
	return robot.Send(msg)
}

// GetRobot returns a robot connection by ID
func (h *Collector) GetRobot(robotID string) *RobotConnection {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.robots[robotID]
}

// RobotCount returns the number of connected robots
func (h *Collector) RobotCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.robots)
}

// Stats contains collector statistics
type Stats struct {
	RobotCount       int    `json:"robot_count"`
	MessagesReceived uint64 `json:"messages_received"`
	MessagesSent     uint64 `json:"messages_sent"`
	Snapshots        uint64 `json:"snapshots"`
	StoreErrors      uint64 `json:"store_errors"`
}

// GetStats returns collector statistics
func (h *Collector) GetStats() Stats {
	return Stats{
		RobotCount:       h.RobotCount(),
		MessagesReceived: h.messagesReceived.Load(),
		MessagesSent:     h.messagesSent.Load(),
		Snapshots:        h.snapshots.Load(),
		StoreErrors:      h.storeErrors.Load(),
	}
}

// RobotInfo contains info about a connected robot
type RobotInfo struct {
	ID        string    `json:"id"`
	Connected time.Time `json:"connected"`
	LastSeen  time.Time `json:"last_seen"`
	Ranging   string    `json:"ranging,omitempty"`
	Snapshots uint64    `json:"snapshots"`
}

// GetRobotInfos returns info about all connected robots
func (h *Collector) GetRobotInfos() []RobotInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()

	infos := make([]RobotInfo, 0, len(h.robots))
	for _, r := range h.robots {
		r.mu.Lock()
		info := RobotInfo{
			ID:        r.ID,
			Connected: r.Connected,
			LastSeen:  r.lastSeen,
			Snapshots: r.received,
		}
		if r.hello != nil {
			info.Ranging = r.hello.Ranging
		}
		r.mu.Unlock()
		infos = append(infos, info)
	}
	return infos
}

// generateRobotID names robots that connect without an ID
func generateRobotID() string {
	return "hexbug-" + uuid.NewString()[:8]
}
