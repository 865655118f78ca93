package ipc

import (
	"time"

	"github.com/gorilla/websocket"
)

// JSON-RPC 2.0 error codes. The reserved range matches the teacher's
// internal/websocket/types.go; camera-core adds its own domain codes in the
// -32001 to -32099 server-error range rather than reusing the
// MediaMTX/recording-specific ones.
const (
	MethodNotFound   = -32601
	InvalidParams    = -32602
	InternalError    = -32603
	InvalidRequest   = -32600
	AuthRequired     = -32001
	DeviceNotFound   = -32010
	NoActivePreview  = -32011
	NoFrameAvailable = -32012
)

// JsonRpcRequest is one incoming JSON-RPC 2.0 call or notification (ID is
// nil for notifications sent by the peer, which this server never expects
// but tolerates).
type JsonRpcRequest struct {
	JSONRPC string                 `json:"jsonrpc"`
	Method  string                 `json:"method"`
	ID      interface{}            `json:"id,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// JsonRpcResponse is the reply to a JsonRpcRequest.
type JsonRpcResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      interface{}   `json:"id,omitempty"`
	Result  interface{}   `json:"result,omitempty"`
	Error   *JsonRpcError `json:"error,omitempty"`
}

// JsonRpcNotification is a server-initiated push message: camera-hotplug,
// settings-restored, or preview-error.
type JsonRpcNotification struct {
	JSONRPC string                 `json:"jsonrpc"`
	Method  string                 `json:"method"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// JsonRpcError is the error member of a JsonRpcResponse.
type JsonRpcError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func newError(code int, message string) *JsonRpcError {
	return &JsonRpcError{Code: code, Message: message}
}

// ClientConnection is the single peer this server accepts at a time. It
// carries no role/permission state — the only gate is the optional JWT
// presented at upgrade time.
type ClientConnection struct {
	ID            string
	Authenticated bool
	ConnectedAt   time.Time
	Conn          *websocket.Conn
	writeMu       chan struct{}
}

func newClientConnection(id string, conn *websocket.Conn) *ClientConnection {
	c := &ClientConnection{ID: id, ConnectedAt: time.Now(), Conn: conn, writeMu: make(chan struct{}, 1)}
	c.writeMu <- struct{}{}
	return c
}

