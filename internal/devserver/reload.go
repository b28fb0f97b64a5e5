package devserver

import (
	"bytes"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// ReloadHub pushes reload notifications to connected browser tabs over
// a websocket opened by the injected client script.
type ReloadHub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewReloadHub creates an empty hub.
func NewReloadHub(logger *zap.Logger) *ReloadHub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReloadHub{
		clients: make(map[*websocket.Conn]struct{}),
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP registers a tab. The connection is held open until the tab
// goes away; the hub only ever writes.
func (h *ReloadHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("reload client connected", zap.Int("clients", n))

	// Reads only to detect close.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.mu.Lock()
				delete(h.clients, conn)
				h.mu.Unlock()
				conn.Close()
				return
			}
		}
	}()
}

// Broadcast tells every connected tab to reload. Dead connections are
// pruned as they fail.
func (h *ReloadHub) Broadcast() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, []byte("reload")); err != nil {
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

const reloadScript = `(function(){
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/__vitrin/reload");
  ws.onmessage = function(){ location.reload(); };
})();`

// InjectReloadScript parses an HTML document and appends the reload
// client to <body> (or the root when the document has no body). Returns
// the input unchanged when it does not parse as HTML.
func InjectReloadScript(doc []byte) []byte {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		return doc
	}

	target := findElement(root, "body")
	if target == nil {
		target = root
	}

	script := &html.Node{Type: html.ElementNode, Data: "script"}
	script.AppendChild(&html.Node{Type: html.TextNode, Data: reloadScript})
	target.AppendChild(script)

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return doc
	}
	return buf.Bytes()
}

func findElement(n *html.Node, name string) *html.Node {
	if n.Type == html.ElementNode && n.Data == name {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, name); found != nil {
			return found
		}
	}
	return nil
}
