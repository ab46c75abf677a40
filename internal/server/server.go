// Package server exposes the compiler as a WebSocket service for
// live-editing hosts: clients send a block's statement lines and
// receive the compiled instruction set plus diagnostics. Compile
// events are also broadcast to every connected client, so a debug
// overlay can watch activity it did not trigger.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/veildoc/veil/core/compile"
	"github.com/veildoc/veil/internal/logging"
)

// CompileRequest is one client frame.
type CompileRequest struct {
	BlockID string   `json:"block_id"`
	Lines   []string `json:"lines"`
}

// CompileResponse answers a request on the same connection.
type CompileResponse struct {
	Type   string          `json:"type"` // "result" or "error"
	Result *compile.Result `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Event is broadcast to all clients after each compile.
type Event struct {
	Type         string `json:"type"` // "compiled"
	BlockID      string `json:"block_id"`
	Instructions int    `json:"instructions"`
	Errors       int    `json:"errors"`
	Warnings     int    `json:"warnings"`
	Timestamp    string `json:"timestamp"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// The service binds to localhost for editor tooling; origin
		// enforcement is the reverse proxy's job in any other setup.
		return true
	},
}

// client is one connected WebSocket peer.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub tracks connected clients and fans out events.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]bool)}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = true
	n := len(h.clients)
	h.mu.Unlock()
	logging.WebSocketEvent("client_connected", n)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	logging.WebSocketEvent("client_disconnected", n)
}

// Broadcast sends an event to every connected client, dropping
// clients whose send queue is full.
func (h *Hub) Broadcast(ev Event) {
	if ev.Timestamp == "" {
		ev.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	data, err := json.Marshal(ev)
	if err != nil {
		logging.Error("failed to marshal event", "error", err)
		return
	}

	h.mu.Lock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			delete(h.clients, c)
			close(c.send)
		}
	}
	h.mu.Unlock()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Server is the WebSocket compile service.
type Server struct {
	hub      *Hub
	pipeline *compile.Pipeline
	httpSrv  *http.Server
}

// New creates a server around a pipeline.
func New(pipeline *compile.Pipeline) *Server {
	return &Server{
		hub:      NewHub(),
		pipeline: pipeline,
	}
}

// Hub exposes the server's hub, mainly for tests.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the HTTP handler serving the WebSocket endpoint at
// /compile.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/compile", s.handleWS)
	return mux
}

// ListenAndServe serves until the context is canceled.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	s.httpSrv = &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	logging.ServerStartup("compile", "ws", port)

	errc := make(chan error, 1)
	go func() { errc <- s.httpSrv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	case err := <-errc:
		return err
	}
}

// handleWS upgrades the connection and serves compile requests until
// the peer disconnects.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 64)}
	s.hub.add(c)

	go c.writePump()
	s.readPump(c)
}

// readPump processes compile requests from one client.
func (s *Server) readPump(c *client) {
	defer func() {
		s.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(1 << 20)
	for {
		var req CompileRequest
		if err := c.conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Error("websocket unexpected close", "error", err)
			}
			return
		}

		resp := s.serve(req)
		data, err := json.Marshal(resp)
		if err != nil {
			logging.Error("failed to marshal response", "error", err)
			continue
		}
		select {
		case c.send <- data:
		default:
			return
		}
	}
}

// serve compiles one request and broadcasts the compile event.
func (s *Server) serve(req CompileRequest) CompileResponse {
	if req.BlockID == "" {
		return CompileResponse{Type: "error", Error: "block_id is required"}
	}

	res := compile.Compile(req.Lines, req.BlockID)
	s.hub.Broadcast(Event{
		Type:         "compiled",
		BlockID:      req.BlockID,
		Instructions: len(res.Instructions),
		Errors:       len(res.Errors),
		Warnings:     len(res.Warnings),
	})
	return CompileResponse{Type: "result", Result: res}
}

// writePump flushes queued frames to the peer.
func (c *client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
