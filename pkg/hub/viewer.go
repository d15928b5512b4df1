package hub

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

// Dashboard viewers only watch. Anything they send is read and discarded so
// that control frames (pong, close) are processed.
const (
	writeTimeout = 10 * time.Second
	idleTimeout  = 60 * time.Second
	heartbeat    = idleTimeout * 9 / 10
	inboundLimit = 4 * 1024
	queueDepth   = 32
)

// Viewer is one dashboard watching a hub over a websocket.
type Viewer struct {
	hub   *Hub
	conn  *websocket.Conn
	queue chan Message
}

// Watch attaches conn to h and streams every broadcast to it until the
// viewer goes away or the hub shuts down. It blocks, so call it from the
// websocket handler.
func Watch(h *Hub, conn *websocket.Conn) {
	v := &Viewer{hub: h, conn: conn, queue: make(chan Message, queueDepth)}
	select {
	case h.register <- v:
	case <-h.stopped:
		conn.Close()
		return
	}

	go v.render()
	v.discardInbound()
	select {
	case h.unregister <- v:
	case <-h.stopped:
	}
	conn.Close()
}

// discardInbound returns once the viewer stops answering or hangs up.
func (v *Viewer) discardInbound() {
	v.conn.SetReadLimit(inboundLimit)
	v.conn.SetReadDeadline(time.Now().Add(idleTimeout))
	v.conn.SetPongHandler(func(string) error {
		return v.conn.SetReadDeadline(time.Now().Add(idleTimeout))
	})
	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// render owns all writes: queued snapshots plus a heartbeat ping. A closed
// queue means the hub dropped the viewer.
func (v *Viewer) render() {
	beat := time.NewTicker(heartbeat)
	defer beat.Stop()
	defer v.conn.Close()

	for {
		var err error
		select {
		case msg, ok := <-v.queue:
			if !ok {
				v.frame(websocket.CloseMessage, nil)
				return
			}
			err = v.frame(websocket.TextMessage, msg.Data)
		case <-beat.C:
			err = v.frame(websocket.PingMessage, nil)
		}
		if err != nil {
			return
		}
	}
}

func (v *Viewer) frame(kind int, data []byte) error {
	v.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return v.conn.WriteMessage(kind, data)
}
