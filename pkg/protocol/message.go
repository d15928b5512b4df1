// Package protocol defines the WebSocket message types for robot-collector
// communication. It is shared between cmd/hexbug (robot) and cmd/collector.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Robot → Collector messages
	TypeHello     MessageType = "hello"     // Sent once after connecting
	TypeTelemetry MessageType = "telemetry" // One housekeeping snapshot

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"`    // Unix milliseconds
	Robot     string          `json:"robot,omitempty"` // Sender robot ID
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data any) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// From sets the sender robot ID and returns the message.
func (m *Message) From(robot string) *Message {
	m.Robot = robot
	return m
}

// ParseData unmarshals the message data into the provided value
func (m *Message) ParseData(v any) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// =============================================================================
// Robot → Collector Message Types
// =============================================================================

// HelloData describes the robot once per connection.
type HelloData struct {
	Ranging string    `json:"ranging"`    // "tof", "ir-sweep", "ir-array"
	Sensors int       `json:"sensors"`    // Number of ranging sensors
	Angles  []float64 `json:"angles_deg"` // Distinct scan angles
	Version string    `json:"version,omitempty"`
}

// TelemetryData carries one snapshot. Payload keeps the on-robot key names
// (state, timestamp_s, power, sensor, camera_IR, debug).
type TelemetryData struct {
	Topic   string         `json:"topic"`
	Payload map[string]any `json:"payload"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
