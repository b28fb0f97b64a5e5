package devserver_test

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/vitrin/vitrin/internal/devserver"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestConsoleEmitsRuntimeEvent(t *testing.T) {
	hub := devserver.NewDebugHub(nil)

	hub.Console("log", "listening on :3000")

	var event struct {
		Method string `json:"method"`
		Params struct {
			Type string `json:"type"`
			Args []struct {
				Value string `json:"value"`
			} `json:"args"`
		} `json:"params"`
	}
	assert.NoError(t, json.Unmarshal(<-hub.Outgoing(), &event))
	assert.Equal(t, "Runtime.consoleAPICalled", event.Method)
	assert.Equal(t, "log", event.Params.Type)
	assert.Equal(t, "listening on :3000", event.Params.Args[0].Value)
}

// A zap logger wearing the console hook feeds its entries into the hub,
// so the inspector sees the runtime's own log output.
func TestConsoleHookTeesLoggerIntoHub(t *testing.T) {
	hub := devserver.NewDebugHub(nil)

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(io.Discard),
		zapcore.DebugLevel,
	)
	logger := zap.New(core, devserver.ConsoleHook(hub))

	logger.Info("storefront ready")
	logger.Warn("slow upstream")

	var event struct {
		Method string `json:"method"`
		Params struct {
			Type string `json:"type"`
			Args []struct {
				Value string `json:"value"`
			} `json:"args"`
		} `json:"params"`
	}
	assert.NoError(t, json.Unmarshal(<-hub.Outgoing(), &event))
	assert.Equal(t, "Runtime.consoleAPICalled", event.Method)
	assert.Equal(t, "info", event.Params.Type)
	assert.Equal(t, "storefront ready", event.Params.Args[0].Value)

	assert.NoError(t, json.Unmarshal(<-hub.Outgoing(), &event))
	assert.Equal(t, "warning", event.Params.Type)
	assert.Equal(t, "slow upstream", event.Params.Args[0].Value)
}

func TestRequestEmitsNetworkPair(t *testing.T) {
	hub := devserver.NewDebugHub(nil)

	hub.Request(devserver.RequestRecord{ID: "req-1", Method: "GET", URL: "http://localhost:3000/", Status: 200})

	var first, second struct {
		Method string `json:"method"`
		Params struct {
			RequestID string `json:"requestId"`
		} `json:"params"`
	}
	assert.NoError(t, json.Unmarshal(<-hub.Outgoing(), &first))
	assert.NoError(t, json.Unmarshal(<-hub.Outgoing(), &second))
	assert.Equal(t, "Network.requestWillBeSent", first.Method)
	assert.Equal(t, "Network.responseReceived", second.Method)
	assert.Equal(t, "req-1", first.Params.RequestID)
	assert.Equal(t, "req-1", second.Params.RequestID)
}

func TestEmitDropsWhenBufferFull(t *testing.T) {
	hub := devserver.NewDebugHub(nil)

	// Nobody is draining; filling far past the buffer must not block.
	for i := 0; i < 1000; i++ {
		hub.Console("log", "spam")
	}
}

func TestHandleCommandAcknowledges(t *testing.T) {
	hub := devserver.NewDebugHub(nil)

	reply := hub.HandleCommand([]byte(`{"id":7,"method":"Runtime.enable"}`))
	assert.NotNil(t, reply)

	var ack struct {
		ID     int            `json:"id"`
		Result map[string]any `json:"result"`
	}
	assert.NoError(t, json.Unmarshal(reply, &ack))
	assert.Equal(t, 7, ack.ID)
	assert.NotNil(t, ack.Result)
}

func TestHandleCommandUnknownMethodStillAcknowledged(t *testing.T) {
	hub := devserver.NewDebugHub(nil)

	reply := hub.HandleCommand([]byte(`{"id":3,"method":"Profiler.enable"}`))
	var ack struct {
		ID int `json:"id"`
	}
	assert.NoError(t, json.Unmarshal(reply, &ack))
	assert.Equal(t, 3, ack.ID)
}

func TestHandleCommandMalformedFrame(t *testing.T) {
	hub := devserver.NewDebugHub(nil)
	assert.Nil(t, hub.HandleCommand([]byte("not json")))
}
