package protocol

import "time"

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewHelloMessage creates the greeting a robot sends after connecting
func NewHelloMessage(robot string, hello HelloData) (*Message, error) {
	msg, err := NewMessage(TypeHello, hello)
	if err != nil {
		return nil, err
	}
	return msg.From(robot), nil
}

// NewTelemetryMessage wraps a snapshot payload
func NewTelemetryMessage(robot, topic string, payload map[string]any) (*Message, error) {
	msg, err := NewMessage(TypeTelemetry, TelemetryData{Topic: topic, Payload: payload})
	if err != nil {
		return nil, err
	}
	return msg.From(robot), nil
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: time.Now().UnixMilli(),
	})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetHelloData extracts hello data from a message
func (m *Message) GetHelloData() (*HelloData, error) {
	var data HelloData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetTelemetryData extracts telemetry data from a message
func (m *Message) GetTelemetryData() (*TelemetryData, error) {
	var data TelemetryData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
