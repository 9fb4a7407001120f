package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Event types pushed to dashboard subscribers.
const (
	EventSnapshot = "snapshot"
	EventAction   = "action"
)

const (
	wsWriteTimeout = 5 * time.Second
	wsSendBuffer   = 32
)

// Event is the envelope written to every websocket subscriber.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// subscriber owns one connection. Only its write loop writes to conn.
type subscriber struct {
	conn *websocket.Conn
	send chan Event
	done chan struct{}
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

// Hub fans events out to connected dashboards. Subscribers only receive; any
// inbound frame is discarded. Each subscriber has a bounded queue and one
// that falls behind is dropped, so Broadcast never blocks on a socket.
type Hub struct {
	upgrader websocket.Upgrader
	snapshot func() interface{}
	log      *zap.Logger

	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

// NewHub builds a hub. snapshot supplies the payload sent on connect.
func NewHub(snapshot func() interface{}, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		snapshot: snapshot,
		log:      log,
		subs:     map[*subscriber]struct{}{},
	}
}

// HandleEvents upgrades the request and registers the subscriber.
func (h *Hub) HandleEvents(w http.ResponseWriter, r *http.Request) {
	c, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}
	sub := &subscriber{conn: c, send: make(chan Event, wsSendBuffer), done: make(chan struct{})}
	if h.snapshot != nil {
		sub.send <- Event{Type: EventSnapshot, Payload: h.snapshot()}
	}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	h.log.Debug("ws subscriber connected", zap.String("remote", r.RemoteAddr))
	go h.writeLoop(sub)
	go h.readLoop(sub)
}

// Broadcast queues ev for every subscriber. A subscriber whose queue is full
// is dropped.
func (h *Hub) Broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub.send <- ev:
		default:
			h.log.Debug("ws subscriber too slow; dropping")
			delete(h.subs, sub)
			sub.close()
		}
	}
}

// Count returns the number of connected subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		delete(h.subs, sub)
		sub.close()
	}
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
	sub.close()
}

func (h *Hub) writeLoop(sub *subscriber) {
	defer h.remove(sub)
	for {
		select {
		case <-sub.done:
			return
		case ev := <-sub.send:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := sub.conn.WriteJSON(ev); err != nil {
				h.log.Debug("ws write failed; dropping subscriber", zap.Error(err))
				return
			}
		}
	}
}

func (h *Hub) readLoop(sub *subscriber) {
	defer func() {
		h.remove(sub)
		h.log.Debug("ws subscriber disconnected")
	}()
	for {
		if _, _, err := sub.conn.NextReader(); err != nil {
			return
		}
	}
}
