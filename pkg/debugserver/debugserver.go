// Package debugserver exposes a read-only, loopback-only introspection
// surface over the running workspace: a JSON snapshot of window
// geometry and a websocket feed of periodic snapshots. It is grounded
// on pkg/termsocket/manager.go's debounced-subscriber idiom and
// pkg/api/raw_websocket.go's ping/pong/writer-goroutine/closeOnce
// connection lifecycle, narrowed from "stream raw PTY bytes to any
// client" down to "expose read-only diagnostics to a local operator" —
// termwm has no network session model to protect, so the surface never
// accepts writes.
package debugserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	snapshotPeriod = 250 * time.Millisecond
)

var upgrader = websocket.Upgrader{
	// Any origin is accepted. The server binds exactly the address
	// passed to Server.ListenAndServe, which is expected to be loopback.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WindowInfo is the read-only geometry snapshot of one window.
type WindowInfo struct {
	ID     uuid.UUID `json:"id"`
	X      int       `json:"x"`
	Y      int       `json:"y"`
	Width  int       `json:"width"`
	Height int       `json:"height"`
}

// Snapshotter is implemented by pkg/workspace.Workspace: the minimal
// read that debugserver needs, kept as an interface so tests can supply
// a fake workspace without spawning real ptys.
type Snapshotter interface {
	Snapshot() []WindowInfo
}

// Server serves the introspection HTTP+WebSocket endpoints.
type Server struct {
	log   *zap.Logger
	ws    Snapshotter
	mux   *mux.Router
	httpS *http.Server
}

// New builds a Server routing GET /windows (a single JSON snapshot) and
// GET /ws (a periodic snapshot feed), both read-only.
func New(ws Snapshotter, log *zap.Logger) *Server {
	s := &Server{log: log, ws: ws, mux: mux.NewRouter()}
	s.mux.HandleFunc("/windows", s.handleWindows).Methods(http.MethodGet)
	s.mux.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)
	return s
}

// ListenAndServe binds to addr (expected to be a loopback address; it is
// not checked) and serves until the process exits.
func (s *Server) ListenAndServe(addr string) error {
	s.httpS = &http.Server{Addr: addr, Handler: s.mux}
	return s.httpS.ListenAndServe()
}

func (s *Server) handleWindows(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.ws.Snapshot()); err != nil {
		s.log.Warn("failed to encode window snapshot", zap.Error(err))
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("failed to upgrade debug websocket", zap.Error(err))
		return
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	send := make(chan []byte, 16)
	done := make(chan struct{})
	var closeOnce sync.Once
	closeDone := func() { closeOnce.Do(func() { close(done) }) }

	go s.writer(conn, send, done)
	go s.snapshotLoop(send, done)

	// The endpoint is read-only: any inbound message is drained and
	// discarded purely to detect disconnects (a close frame or error).
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			closeDone()
			return
		}
	}
}

func (s *Server) snapshotLoop(send chan<- []byte, done <-chan struct{}) {
	ticker := time.NewTicker(snapshotPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			data, err := json.Marshal(s.ws.Snapshot())
			if err != nil {
				continue
			}
			select {
			case send <- data:
			case <-done:
				return
			default:
				// Backpressure: drop this tick rather than block the
				// snapshot loop on a slow client.
			}
		case <-done:
			return
		}
	}
}

func (s *Server) writer(conn *websocket.Conn, send <-chan []byte, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
