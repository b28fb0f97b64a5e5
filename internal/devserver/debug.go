package devserver

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DebugHub is the simulated runtime's debug channel. The proxy and the
// runtime's logger binding emit protocol events into it; the inspector
// bridge drains them toward the attached inspector and feeds inspector
// commands back.
type DebugHub struct {
	mu     sync.Mutex
	out    chan []byte
	logger *zap.Logger

	// enabled domains, toggled by inspector commands.
	domains map[string]bool
}

// NewDebugHub creates the hub with a bounded outgoing buffer.
func NewDebugHub(logger *zap.Logger) *DebugHub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DebugHub{
		out:     make(chan []byte, 256),
		logger:  logger,
		domains: make(map[string]bool),
	}
}

// Outgoing is the stream of protocol events for the inspector.
func (h *DebugHub) Outgoing() <-chan []byte { return h.out }

// Emit queues a protocol notification. Emitting never blocks request
// handling: when the buffer is full the event is dropped.
func (h *DebugHub) Emit(method string, params any) {
	msg, err := json.Marshal(map[string]any{
		"method": method,
		"params": params,
	})
	if err != nil {
		return
	}
	select {
	case h.out <- msg:
	default:
		h.logger.Debug("debug event dropped", zap.String("method", method))
	}
}

// Console emits a Runtime.consoleAPICalled notification for a runtime
// log line, mirroring what the worker's console binding produces.
func (h *DebugHub) Console(level, text string) {
	h.Emit("Runtime.consoleAPICalled", map[string]any{
		"type": level,
		"args": []map[string]any{
			{"type": "string", "value": text},
		},
		"timestamp": float64(time.Now().UnixMilli()),
	})
}

// ConsoleHook builds a zap option that tees every log entry into the
// hub as a console event, so an attached inspector sees the runtime's
// own log output alongside the network and file-change events.
func ConsoleHook(hub *DebugHub) zap.Option {
	return zap.Hooks(func(entry zapcore.Entry) error {
		hub.Console(consoleType(entry.Level), entry.Message)
		return nil
	})
}

// consoleType maps zap levels onto console event types.
func consoleType(level zapcore.Level) string {
	switch level {
	case zapcore.DebugLevel:
		return "debug"
	case zapcore.WarnLevel:
		return "warning"
	case zapcore.InfoLevel:
		return "info"
	default:
		return "error"
	}
}

// Request emits the Network pair for one proxied request.
func (h *DebugHub) Request(rec RequestRecord) {
	h.Emit("Network.requestWillBeSent", map[string]any{
		"requestId": rec.ID,
		"request": map[string]any{
			"url":    rec.URL,
			"method": rec.Method,
		},
		"timestamp": float64(rec.At.UnixMilli()) / 1000,
	})
	h.Emit("Network.responseReceived", map[string]any{
		"requestId": rec.ID,
		"response": map[string]any{
			"status":            rec.Status,
			"encodedDataLength": rec.Size,
		},
		"timestamp": float64(rec.At.Add(rec.Duration).UnixMilli()) / 1000,
	})
}

type inspectorCommand struct {
	ID     int             `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// HandleCommand processes one inspector frame and returns the runtime's
// reply. Unknown methods are acknowledged with an empty result, which is
// what inspectors expect from a runtime without that domain.
func (h *DebugHub) HandleCommand(frame []byte) []byte {
	var cmd inspectorCommand
	if err := json.Unmarshal(frame, &cmd); err != nil {
		h.logger.Debug("ignoring malformed inspector frame", zap.Error(err))
		return nil
	}

	h.mu.Lock()
	switch cmd.Method {
	case "Runtime.enable":
		h.domains["Runtime"] = true
	case "Network.enable":
		h.domains["Network"] = true
	case "Runtime.disable":
		delete(h.domains, "Runtime")
	case "Network.disable":
		delete(h.domains, "Network")
	}
	h.mu.Unlock()

	reply, err := json.Marshal(map[string]any{
		"id":     cmd.ID,
		"result": map[string]any{},
	})
	if err != nil {
		return nil
	}
	return reply
}
