// Package livereload tells connected browsers to reload after a rebuild.
package livereload

import (
	_ "embed"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/js"
	"github.com/vinceanalytics/forge/internal/metrics"
)

const (
	// Path of the websocket endpoint the client connects to.
	Path = "/livereload"
	// ScriptPath serves the client script.
	ScriptPath = "/livereload.js"
)

//go:embed reload.js
var reloadData []byte

var script []byte

func init() {
	m := minify.New()
	m.AddFunc("text/js", js.Minify)
	o, err := m.Bytes("text/js", reloadData)
	if err != nil {
		panic(err)
	}
	script = o
}

// Script returns the minified client script.
func Script() []byte {
	return script
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:    1024,
	WriteBufferSize:   1024,
	EnableCompression: true,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	// Time allowed to write a message to the client.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the client.
	pongWait = 60 * time.Second

	// Send pings to client with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// Hub fans reload notifications out to every connected browser.
type Hub struct {
	mu      sync.Mutex
	clients map[chan struct{}]struct{}
	log     *slog.Logger
}

func New() *Hub {
	return &Hub{
		clients: make(map[chan struct{}]struct{}),
		log:     slog.Default().With("component", "livereload"),
	}
}

func (h *Hub) subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) unsubscribe(ch chan struct{}) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
}

// Clients returns the number of connected browsers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Reload notifies every connected browser. Notifications for a client that
// has not consumed the previous one are coalesced.
func (h *Hub) Reload() {
	h.mu.Lock()
	n := len(h.clients)
	for ch := range h.clients {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	h.mu.Unlock()
	metrics.Reloads.Inc()
	h.log.Debug("reload", "clients", n)
}

// ServeHTTP upgrades the request to a websocket and writes "reload" on every
// notification until the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("upgrade", "err", err)
		return
	}
	ch := h.subscribe()
	pingTicker := time.NewTicker(pingPeriod)
	defer func() {
		pingTicker.Stop()
		h.unsubscribe(ch)
		conn.Close()
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-ch:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, []byte("reload")); err != nil {
				return
			}
		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				return
			}
		}
	}
}

// ServeScript serves the client script.
func ServeScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Write(script)
}
