package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-hexbug/pkg/protocol"
)

const (
	writeWait    = 2 * time.Second
	maxBackoff   = 30 * time.Second
	pingInterval = 20 * time.Second
)

// WSSink uplinks snapshots to a collector over a WebSocket. Run keeps the
// connection up; Publish writes one message or fails immediately when the
// link is down.
type WSSink struct {
	url   string
	robot string
	hello protocol.HelloData
	log   *slog.Logger

	dialer *websocket.Dialer

	mu   sync.Mutex // serializes writes and guards conn
	conn *websocket.Conn

	connected atomic.Bool
	pongs     atomic.Uint64
}

// NewWSSink prepares an uplink to base (e.g. ws://host:8090). The robot ID
// is appended as /ws/robot/<id>.
func NewWSSink(base, robot string, hello protocol.HelloData, logger *slog.Logger) (*WSSink, error) {
	u, err := url.Parse(strings.TrimRight(base, "/") + "/ws/robot/" + url.PathEscape(robot))
	if err != nil {
		return nil, fmt.Errorf("collector url: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("collector url: unsupported scheme %q", u.Scheme)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WSSink{
		url:    u.String(),
		robot:  robot,
		hello:  hello,
		log:    logger,
		dialer: &websocket.Dialer{HandshakeTimeout: 5 * time.Second},
	}, nil
}

// URL returns the endpoint the sink dials.
func (s *WSSink) URL() string {
	return s.url
}

// Run connects and reconnects with exponential backoff until ctx is done.
func (s *WSSink) Run(ctx context.Context) {
	backoff := time.Second
	for {
		err := s.session(ctx)
		if ctx.Err() != nil {
			return
		}
		s.log.Warn("collector link down", "url", s.url, "error", err, "retry_in", backoff)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

// session runs one connection until it fails.
func (s *WSSink) session(ctx context.Context) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	defer func() {
		s.connected.Store(false)
		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
		conn.Close()
	}()

	hello, err := protocol.NewHelloMessage(s.robot, s.hello)
	if err != nil {
		return err
	}
	if err := s.write(hello); err != nil {
		return err
	}
	s.connected.Store(true)
	s.log.Info("collector connected", "url", s.url)

	// Close the connection on cancel so the read below returns.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	done := make(chan struct{})
	defer close(done)
	go s.keepalive(ctx, done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		msg, err := protocol.ParseMessage(data)
		if err != nil {
			continue
		}
		if msg.Type == protocol.TypePong {
			s.pongs.Add(1)
		}
	}
}

// keepalive pings the collector until the session ends or ctx is canceled.
func (s *WSSink) keepalive(ctx context.Context, done <-chan struct{}) {
	t := time.NewTicker(pingInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-t.C:
			ping, _ := protocol.NewPingMessage(s.robot)
			if err := s.write(ping.From(s.robot)); err != nil {
				return
			}
		}
	}
}

func (s *WSSink) write(msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return ErrNotReady
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Publish implements Sink.
func (s *WSSink) Publish(topic string, payload map[string]any) error {
	if !s.connected.Load() {
		return ErrNotReady
	}
	msg, err := protocol.NewTelemetryMessage(s.robot, topic, payload)
	if err != nil {
		return err
	}
	return s.write(msg)
}

// Ready implements Sink.
func (s *WSSink) Ready() bool {
	return s.connected.Load()
}

// Pongs returns how many pongs the collector sent back.
func (s *WSSink) Pongs() uint64 {
	return s.pongs.Load()
}
