package protocol

import (
	"testing"
	"time"
)

func TestNewMessage(t *testing.T) {
	tests := []struct {
		name    string
		msgType MessageType
		data    any
		wantErr bool
	}{
		{
			name:    "hello message",
			msgType: TypeHello,
			data:    HelloData{Ranging: "tof", Sensors: 1, Angles: []float64{-35, 0, 35}},
			wantErr: false,
		},
		{
			name:    "telemetry message",
			msgType: TypeTelemetry,
			data:    TelemetryData{Topic: "raw", Payload: map[string]any{"state": 1}},
			wantErr: false,
		},
		{
			name:    "nil data",
			msgType: TypePing,
			data:    nil,
			wantErr: false,
		},
		{
			name:    "unmarshalable data",
			msgType: TypeTelemetry,
			data:    map[string]any{"bad": make(chan int)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(tt.msgType, tt.data)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewMessage() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if msg == nil {
				t.Error("NewMessage() returned nil message")
				return
			}
			if msg.Type != tt.msgType {
				t.Errorf("NewMessage() type = %v, want %v", msg.Type, tt.msgType)
			}
			if msg.Timestamp == 0 {
				t.Error("NewMessage() timestamp should be set")
			}
		})
	}
}

func TestTelemetryRoundTrip(t *testing.T) {
	payload := map[string]any{
		"state":       4,
		"timestamp_s": 12.5,
		"sensor": map[string]any{
			"distance_cm": []int{5, 20, 20},
		},
	}

	msg, err := NewTelemetryMessage("hexbug-1", "raw", payload)
	if err != nil {
		t.Fatalf("NewTelemetryMessage() error = %v", err)
	}

	// Serialize to bytes
	bytes, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}

	// Parse back
	parsed, err := ParseMessage(bytes)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}

	if parsed.Type != TypeTelemetry {
		t.Errorf("Type = %v, want %v", parsed.Type, TypeTelemetry)
	}
	if parsed.Robot != "hexbug-1" {
		t.Errorf("Robot = %v, want hexbug-1", parsed.Robot)
	}

	data, err := parsed.GetTelemetryData()
	if err != nil {
		t.Fatalf("GetTelemetryData() error = %v", err)
	}
	if data.Topic != "raw" {
		t.Errorf("Topic = %v, want raw", data.Topic)
	}
	// JSON numbers come back as float64
	if state, _ := data.Payload["state"].(float64); state != 4 {
		t.Errorf("state = %v, want 4", data.Payload["state"])
	}
	sensor, ok := data.Payload["sensor"].(map[string]any)
	if !ok {
		t.Fatalf("sensor = %T, want object", data.Payload["sensor"])
	}
	if dist, _ := sensor["distance_cm"].([]any); len(dist) != 3 {
		t.Errorf("distance_cm = %v, want 3 entries", sensor["distance_cm"])
	}
}

func TestHelloMessage(t *testing.T) {
	msg, err := NewHelloMessage("hexbug-2", HelloData{Ranging: "ir-array", Sensors: 3, Angles: []float64{-35, 0, 35}})
	if err != nil {
		t.Fatalf("NewHelloMessage() error = %v", err)
	}

	if msg.Type != TypeHello {
		t.Errorf("Type = %v, want %v", msg.Type, TypeHello)
	}

	hello, err := msg.GetHelloData()
	if err != nil {
		t.Fatalf("GetHelloData() error = %v", err)
	}
	if hello.Sensors != 3 {
		t.Errorf("Sensors = %v, want 3", hello.Sensors)
	}
	if len(hello.Angles) != 3 || hello.Angles[2] != 35 {
		t.Errorf("Angles = %v, want [-35 0 35]", hello.Angles)
	}
}

func TestPingPongMessage(t *testing.T) {
	pingMsg, err := NewPingMessage("test-123")
	if err != nil {
		t.Fatalf("NewPingMessage() error = %v", err)
	}

	if pingMsg.Type != TypePing {
		t.Errorf("Type = %v, want %v", pingMsg.Type, TypePing)
	}

	pingData, err := pingMsg.GetPingData()
	if err != nil {
		t.Fatalf("GetPingData() error = %v", err)
	}

	if pingData.ID != "test-123" {
		t.Errorf("ID = %v, want test-123", pingData.ID)
	}
	if pingData.Timestamp == 0 {
		t.Error("ping timestamp should be set")
	}

	// Create pong response
	now := time.Now().UnixMilli()
	pongMsg, err := NewPongMessage("test-123", pingMsg.Timestamp, now)
	if err != nil {
		t.Fatalf("NewPongMessage() error = %v", err)
	}

	if pongMsg.Type != TypePong {
		t.Errorf("Type = %v, want %v", pongMsg.Type, TypePong)
	}

	pongData, err := pongMsg.GetPongData()
	if err != nil {
		t.Fatalf("GetPongData() error = %v", err)
	}

	if pongData.ID != "test-123" {
		t.Errorf("ID = %v, want test-123", pongData.ID)
	}
	if pongData.LatencyMs < 0 {
		t.Errorf("LatencyMs = %v, should be >= 0", pongData.LatencyMs)
	}
}

func TestParseMessage_Invalid(t *testing.T) {
	if _, err := ParseMessage([]byte("{not json")); err == nil {
		t.Error("ParseMessage() should fail on invalid JSON")
	}
}

func TestParseData_Empty(t *testing.T) {
	msg := &Message{Type: TypePing}
	var data PingData
	if err := msg.ParseData(&data); err != nil {
		t.Errorf("ParseData() on empty data error = %v", err)
	}
}
