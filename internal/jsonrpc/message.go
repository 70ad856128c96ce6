package jsonrpc

import (
	"encoding/json"
	"fmt"
)

// Version is the protocol version stamped on every outgoing message.
const Version = "2.0"

// Request is a call that expects exactly one Response carrying the same id.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// Notification is a Request without an id. It never produces a response.
type Notification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// Response carries exactly one of Result or Error. ID is a pointer because
// servers answer unparseable requests with "id": null.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RequestError   `json:"error,omitempty"`
}

// RequestError is the error outcome of a request as reported by the server.
type RequestError struct {
	Code    int64           `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RequestError) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("server error %d: %s: %s", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("server error %d: %s", e.Code, e.Message)
}
