// Package hub fans JSON snapshots out to websocket viewers using a
// channel-based broadcast loop. The most recent message is replayed to every
// viewer that joins, so a dashboard shows the robot's state immediately.
package hub

// Message is one pre-encoded JSON text frame.
type Message struct {
	Data []byte
}

// NewJSONMessage creates a message from pre-encoded bytes
func NewJSONMessage(data []byte) Message {
	return Message{Data: data}
}
