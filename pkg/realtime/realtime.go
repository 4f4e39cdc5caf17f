// Package realtime fans out index lifecycle events (build started, index
// ready, build failed) to in-process listeners such as WebSocket sessions.
//
// Delivery is best effort: a listener whose buffer is full misses the event
// instead of blocking the publisher. There is no persistence or replay.
package realtime

import (
	"sync"
	"time"
)

// Event types.
const (
	EventBuilding = "building"
	EventReady    = "ready"
	EventFailed   = "failed"
	EventDeleted  = "deleted"
)

// Event describes a lifecycle transition of the index.
type Event struct {
	Type string    `json:"type"`
	Time time.Time `json:"time"`
	// Reason says what triggered a build: "startup", "refresh", "schedule",
	// "watch".
	Reason    string `json:"reason,omitempty"`
	Documents int    `json:"documents,omitempty"`
	Sheets    int    `json:"sheets,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Hub is an in-memory fan-out dispatcher. Each listener receives events on
// its own buffered channel. The hub is safe for concurrent use.
type Hub struct {
	mu        sync.RWMutex
	listeners map[uint64]chan Event
	nextID    uint64
	bufSize   int
}

// NewHub constructs a hub with the given per-listener buffer size.
// If bufSize <= 0, a default of 32 is used.
func NewHub(bufSize int) *Hub {
	if bufSize <= 0 {
		bufSize = 32
	}
	return &Hub{
		listeners: make(map[uint64]chan Event),
		bufSize:   bufSize,
	}
}

// Register adds a listener. Callers must Unregister the returned id.
func (h *Hub) Register() (uint64, <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan Event, h.bufSize)
	h.listeners[id] = ch
	return id, ch
}

// Unregister removes the listener and closes its channel. Unknown ids are
// ignored.
func (h *Hub) Unregister(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.listeners[id]; ok {
		delete(h.listeners, id)
		close(ch)
	}
}

// Broadcast delivers ev to every listener, dropping it for slow ones. A
// zero Time is set to now.
func (h *Hub) Broadcast(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.listeners {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Size returns the number of registered listeners.
func (h *Hub) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}
