package devserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Inspector exposes the debugger discovery endpoints and bridges a
// single external inspector to the runtime's debug stream over a
// websocket. It runs on its own plain-HTTP listener, separate from the
// storefront port, the way real runtime inspector ports do.
type Inspector struct {
	hub       *DebugHub
	logger    *zap.Logger
	host      string
	sourceMap string // path to the build's index.js.map, may not exist

	upgrader websocket.Upgrader

	mu      sync.Mutex
	current *websocket.Conn
	stop    chan struct{}
}

// NewInspector builds the inspector front end. host is the address
// advertised in the discovery document ("127.0.0.1:9331").
func NewInspector(hub *DebugHub, host, sourceMap string, logger *zap.Logger) *Inspector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inspector{
		hub:       hub,
		logger:    logger,
		host:      host,
		sourceMap: sourceMap,
		upgrader: websocket.Upgrader{
			// The inspector port is local-only; origin checks just get
			// in the way of DevTools frontends.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the inspector's HTTP mux.
func (i *Inspector) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/json", i.handleList)
	mux.HandleFunc("/json/list", i.handleList)
	mux.HandleFunc("/json/version", i.handleVersion)
	mux.HandleFunc("/__index.js.map", i.handleSourceMap)
	mux.HandleFunc("/ws", i.handleWS)
	return mux
}

type target struct {
	ID                   string `json:"id"`
	Type                 string `json:"type"`
	Title                string `json:"title"`
	URL                  string `json:"url"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
	DevtoolsFrontendURL  string `json:"devtoolsFrontendUrl"`
}

// handleList serves the CDP discovery document: one debuggable target,
// the simulated worker runtime.
func (i *Inspector) handleList(w http.ResponseWriter, r *http.Request) {
	wsURL := fmt.Sprintf("ws://%s/ws", i.host)
	targets := []target{{
		ID:                   "vitrin-worker",
		Type:                 "node",
		Title:                "vitrin worker runtime",
		URL:                  "file://worker/main.go",
		WebSocketDebuggerURL: wsURL,
		DevtoolsFrontendURL: fmt.Sprintf(
			"devtools://devtools/bundled/js_app.html?ws=%s/ws", i.host),
	}}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(targets)
}

func (i *Inspector) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"Browser":              "vitrin-dev",
		"Protocol-Version":     "1.3",
		"webSocketDebuggerUrl": fmt.Sprintf("ws://%s/ws", i.host),
	})
}

// handleSourceMap serves the worker entry's source map from the last
// build, 404 when the project has not been built yet.
func (i *Inspector) handleSourceMap(w http.ResponseWriter, r *http.Request) {
	data, err := os.ReadFile(i.sourceMap)
	if err != nil {
		http.Error(w, "source map not built", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// handleWS attaches an inspector. Only one inspector is bridged at a
// time; a new connection preempts the previous one.
func (i *Inspector) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := i.upgrader.Upgrade(w, r, nil)
	if err != nil {
		i.logger.Warn("inspector upgrade failed", zap.Error(err))
		return
	}

	i.mu.Lock()
	if i.current != nil {
		i.logger.Info("new inspector attached, dropping previous connection")
		close(i.stop)
		i.current.Close()
	}
	i.current = conn
	stop := make(chan struct{})
	i.stop = stop
	i.mu.Unlock()

	i.logger.Info("inspector attached", zap.String("remote", conn.RemoteAddr().String()))

	// gorilla allows one writer at a time; the event drain and the
	// command replies share this lock.
	var writeMu sync.Mutex
	write := func(msg []byte) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteMessage(websocket.TextMessage, msg)
	}

	// Runtime -> inspector: drain the hub's event stream.
	go func() {
		for {
			select {
			case <-stop:
				return
			case msg, ok := <-i.hub.Outgoing():
				if !ok {
					return
				}
				if err := write(msg); err != nil {
					return
				}
			}
		}
	}()

	// Inspector -> runtime: feed commands to the hub, write replies back.
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if reply := i.hub.HandleCommand(frame); reply != nil {
			if err := write(reply); err != nil {
				break
			}
		}
	}

	i.mu.Lock()
	if i.current == conn {
		i.current = nil
		close(i.stop)
		i.stop = nil
	}
	i.mu.Unlock()
	conn.Close()
	i.logger.Info("inspector detached")
}
