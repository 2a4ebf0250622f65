// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"net/http"
	"sync"

	applog "player/internal/log"

	"github.com/gorilla/websocket"
)

// SpectrumPath is where clients connect to receive frames.
const SpectrumPath = "/spectrum"

// WebSocketTransport implements the Transport interface for WebSocket connections.
// Every frame is broadcast as JSON to all connected clients. When the
// broadcast backlog is full new frames are dropped.
type WebSocketTransport struct {
	addr      string
	log       applog.Logger
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan any
	done      chan struct{}
	closeOnce sync.Once
	server    *http.Server
	dropped   uint64
}

// NewWebSocketTransport creates a new WebSocketTransport instance and starts
// its broadcast loop. Call ListenAndServe to accept connections on addr, or
// mount Handler on an existing server.
func NewWebSocketTransport(addr string, logger applog.Logger) *WebSocketTransport {
	wst := &WebSocketTransport{
		addr: addr,
		log:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Local visualisers connect from any origin
			},
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan any, 256),
		done:      make(chan struct{}),
	}

	go wst.handleBroadcasts()
	return wst
}

// Handler serves the WebSocket endpoint at SpectrumPath.
func (wst *WebSocketTransport) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(SpectrumPath, wst.handleWebSocket)
	return mux
}

// ListenAndServe runs the HTTP server until Close is called.
func (wst *WebSocketTransport) ListenAndServe() error {
	wst.clientsMu.Lock()
	select {
	case <-wst.done:
		wst.clientsMu.Unlock()
		return nil
	default:
	}
	wst.server = &http.Server{
		Addr:    wst.addr,
		Handler: wst.Handler(),
	}
	server := wst.server
	wst.clientsMu.Unlock()

	wst.log.Infof("WebSocketTransport: Starting WebSocket server on %s%s", wst.addr, SpectrumPath)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleWebSocket upgrades HTTP connections to WebSocket
func (wst *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		wst.log.Warnf("WebSocketTransport: Upgrade error: %v", err)
		return
	}

	wst.clientsMu.Lock()
	wst.clients[conn] = true
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	wst.log.Infof("WebSocketTransport: Client connected, total: %d", total)

	// Clients never send; a read error means the client went away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		wst.clientsMu.Lock()
		delete(wst.clients, conn)
		total := len(wst.clients)
		wst.clientsMu.Unlock()
		conn.Close()
		wst.log.Infof("WebSocketTransport: Client disconnected, total: %d", total)
	}()
}

// handleBroadcasts sends messages to all connected clients
func (wst *WebSocketTransport) handleBroadcasts() {
	for {
		select {
		case <-wst.done:
			return
		case data := <-wst.broadcast:
			wst.clientsMu.Lock()
			for client := range wst.clients {
				if err := client.WriteJSON(data); err != nil {
					wst.log.Debugf("WebSocketTransport: Error sending to client: %v", err)
					client.Close()
					delete(wst.clients, client)
				}
			}
			wst.clientsMu.Unlock()
		}
	}
}

// Send queues data for broadcast to all connected WebSocket clients.
func (wst *WebSocketTransport) Send(data any) error {
	select {
	case <-wst.done:
		return errors.New("websocket transport closed")
	default:
	}

	select {
	case wst.broadcast <- data:
	default:
		// Channel full, drop message
		wst.clientsMu.Lock()
		wst.dropped++
		wst.clientsMu.Unlock()
	}
	return nil
}

// ClientCount returns the number of connected clients.
func (wst *WebSocketTransport) ClientCount() int {
	wst.clientsMu.Lock()
	defer wst.clientsMu.Unlock()
	return len(wst.clients)
}

// Dropped returns how many frames were discarded because the backlog was full.
func (wst *WebSocketTransport) Dropped() uint64 {
	wst.clientsMu.Lock()
	defer wst.clientsMu.Unlock()
	return wst.dropped
}

// Close shuts down the WebSocket server and disconnects all clients.
func (wst *WebSocketTransport) Close() error {
	var err error
	wst.closeOnce.Do(func() {
		wst.log.Infof("WebSocketTransport: Closing server")
		close(wst.done)

		wst.clientsMu.Lock()
		for client := range wst.clients {
			client.Close()
		}
		wst.clients = make(map[*websocket.Conn]bool)
		server := wst.server
		wst.clientsMu.Unlock()

		if server != nil {
			err = server.Close()
		}
	})
	return err
}

// Ensure WebSocketTransport satisfies the interface
var _ Transport = (*WebSocketTransport)(nil)
