package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/reliefline/disaster-response-api/events"
)

const feedWriteWait = 5 * time.Second

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type feedMessage struct {
	Event string       `json:"event"`
	Data  events.Event `json:"data"`
}

// IncidentFeed pushes incident events to connected websocket clients
type IncidentFeed struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewIncidentFeed returns a feed with no clients
func NewIncidentFeed() *IncidentFeed {
	return &IncidentFeed{clients: make(map[*websocket.Conn]struct{})}
}

// HandleIncidentFeed upgrades the request and keeps the client registered until it
// disconnects
func (f *IncidentFeed) HandleIncidentFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Warnw("websocket upgrade error", "error", err)
		return
	}

	f.mu.Lock()
	f.clients[conn] = struct{}{}
	f.mu.Unlock()
	zap.S().Debugw("client connected to /ws/incidents", "remote", r.RemoteAddr)

	// clients only listen; reading drives ping/close handling
	for {
		if _, _, err := conn.NextReader(); err != nil {
			break
		}
	}
	f.remove(conn)
	zap.S().Debugw("client disconnected from /ws/incidents", "remote", r.RemoteAddr)
}

// Publish broadcasts the event to every client, dropping clients that fail
func (f *IncidentFeed) Publish(_ context.Context, e events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for conn := range f.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
		if err := conn.WriteJSON(feedMessage{Event: e.Type, Data: e}); err != nil {
			zap.S().Debugw("dropping websocket client", "error", err)
			delete(f.clients, conn)
			conn.Close()
		}
	}
	return nil
}

// ClientCount returns the number of connected clients
func (f *IncidentFeed) ClientCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

// Close disconnects every client
func (f *IncidentFeed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for conn := range f.clients {
		conn.Close()
		delete(f.clients, conn)
	}
}

func (f *IncidentFeed) remove(conn *websocket.Conn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.clients[conn]; ok {
		delete(f.clients, conn)
		conn.Close()
	}
}
