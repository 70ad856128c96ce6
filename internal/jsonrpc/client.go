package jsonrpc

import (
	"encoding/json"
	"fmt"
)

// Transport moves one logical message at a time between client and server.
// Framing is the transport's concern; bodies are bare JSON documents.
type Transport interface {
	Send(body []byte) error
	Recv() ([]byte, error)
}

// Client is a strictly synchronous JSON-RPC client: one request in flight at
// a time, responses correlated by id. Callers that want concurrency must
// serialize their own request issuance.
type Client struct {
	transport Transport
	next      int64
}

func NewClient(t Transport) *Client {
	return &Client{transport: t}
}

// NextID reports the id the next request will use. A request that fails in
// transit does not consume its id, so it stays inspectable here.
func (c *Client) NextID() int64 { return c.next }

// Notify sends a notification and returns once the transport accepted the
// bytes. No reply is ever expected.
func (c *Client) Notify(method string, params any) error {
	body, err := json.Marshal(Notification{JSONRPC: Version, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("marshaling %s notification: %w", method, err)
	}
	return c.transport.Send(body)
}

// envelope is the probe shape used to classify incoming messages without
// decoding their payload.
type envelope struct {
	ID     *int64          `json:"id"`
	Method *string         `json:"method"`
	Result json.RawMessage `json:"result"`
	Error  *RequestError   `json:"error"`
}

// Request sends method with params and blocks until the matching response
// arrives. A message matches iff it carries no method field and its id
// equals the outstanding id. Everything else is discarded: server-initiated
// requests and notifications live in an independent id space, so even an id
// collision is not a match. An error outcome surfaces as *RequestError.
func (c *Client) Request(method string, params any) (json.RawMessage, error) {
	id := c.next

	body, err := json.Marshal(Request{JSONRPC: Version, ID: id, Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("marshaling %s request: %w", method, err)
	}
	if err := c.transport.Send(body); err != nil {
		return nil, fmt.Errorf("sending %s request: %w", method, err)
	}

	for {
		raw, err := c.transport.Recv()
		if err != nil {
			return nil, fmt.Errorf("waiting for %s response: %w", method, err)
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("decoding message while waiting for %s: %w", method, err)
		}

		if env.Method != nil {
			// server-initiated request or notification, not answered
			continue
		}
		if env.ID == nil || *env.ID != id {
			continue
		}

		c.next++
		if env.Error != nil {
			return nil, env.Error
		}
		return env.Result, nil
	}
}
