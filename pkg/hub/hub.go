package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Hub fans broadcast messages out to every attached viewer.
type Hub struct {
	name string
	log  *slog.Logger

	// Attached viewers, owned by Run
	viewers map[*Viewer]bool

	broadcast  chan Message
	register   chan *Viewer
	unregister chan *Viewer
	stopped    chan struct{}

	// Last broadcast message, replayed on register
	latest *Message

	mu      sync.RWMutex // guards viewers for ViewerCount
	running atomic.Bool
	dropped atomic.Uint64
}

// New creates a new Hub. A nil logger uses slog.Default().
func New(name string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		name:       name,
		log:        logger.With("hub", name),
		viewers:    make(map[*Viewer]bool),
		broadcast:  make(chan Message, 64),
		register:   make(chan *Viewer),
		unregister: make(chan *Viewer),
		stopped:    make(chan struct{}),
	}
}

// Run is the hub's main loop. It returns when ctx is done, closing every
// viewer's queue. A hub runs once.
func (h *Hub) Run(ctx context.Context) {
	h.running.Store(true)
	defer h.running.Store(false)
	defer close(h.stopped)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for v := range h.viewers {
				delete(h.viewers, v)
				close(v.queue)
			}
			h.mu.Unlock()
			return

		case v := <-h.register:
			h.mu.Lock()
			h.viewers[v] = true
			count := len(h.viewers)
			h.mu.Unlock()
			if h.latest != nil {
				v.queue <- *h.latest
			}
			h.log.Debug("viewer attached", "viewers", count)

		case v := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.viewers[v]; ok {
				delete(h.viewers, v)
				close(v.queue)
			}
			count := len(h.viewers)
			h.mu.Unlock()
			h.log.Debug("viewer left", "viewers", count)

		case message := <-h.broadcast:
			h.latest = &message
			h.mu.Lock()
			for v := range h.viewers {
				select {
				case v.queue <- message:
				default:
					// Lagging viewer: cut it loose
					close(v.queue)
					delete(h.viewers, v)
					h.log.Warn("dropped slow viewer")
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues a message for all attached viewers. It never blocks;
// when the queue is full the message is dropped.
func (h *Hub) Broadcast(msg Message) bool {
	select {
	case h.broadcast <- msg:
		return true
	default:
		h.dropped.Add(1)
		h.log.Debug("broadcast queue full, dropping message")
		return false
	}
}

// BroadcastJSON encodes and broadcasts v
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(NewJSONMessage(data))
	return nil
}

// ViewerCount returns the number of attached viewers
func (h *Hub) ViewerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.viewers)
}

// IsRunning returns whether the hub loop is active
func (h *Hub) IsRunning() bool {
	return h.running.Load()
}

// Dropped returns how many broadcasts were discarded.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}
