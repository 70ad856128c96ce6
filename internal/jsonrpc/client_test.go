package jsonrpc

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Client:
// - Request sends id 0 first and returns the matching result
// - Request skips server-initiated messages, even on an id collision
// - Request skips responses carrying a different id
// - Request does not consume the id on transport failure
// - Error outcomes surface as *RequestError and still consume the id
// - Notify sends without waiting and without touching the id counter
// - Sequential requests allocate monotonic ids

type fakeTransport struct {
	sent    [][]byte
	recv    [][]byte
	sendErr error
	recvErr error
}

func (f *fakeTransport) Send(body []byte) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, body)
	return nil
}

func (f *fakeTransport) Recv() ([]byte, error) {
	if len(f.recv) == 0 {
		if f.recvErr != nil {
			return nil, f.recvErr
		}
		return nil, io.EOF
	}
	msg := f.recv[0]
	f.recv = f.recv[1:]
	return msg, nil
}

func response(id int64, result string) []byte {
	return []byte(fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":%s}`, id, result))
}

func TestRequestMatchesResponseByID(t *testing.T) {
	t.Parallel()

	tr := &fakeTransport{recv: [][]byte{response(0, `{"ok":true}`)}}
	c := NewClient(tr)

	result, err := c.Request("initialize", map[string]any{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(result))

	require.Len(t, tr.sent, 1)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":0,"method":"initialize","params":{}}`, string(tr.sent[0]))
	assert.Equal(t, int64(1), c.NextID())
}

func TestRequestSkipsNonMatchingMessages(t *testing.T) {
	t.Parallel()

	tr := &fakeTransport{recv: [][]byte{
		// server notification
		[]byte(`{"jsonrpc":"2.0","method":"window/logMessage","params":{"type":3,"message":"indexing"}}`),
		// server-initiated request whose id collides with ours
		[]byte(`{"jsonrpc":"2.0","id":0,"method":"workspace/configuration","params":{"items":[]}}`),
		// response for a different id
		response(5, `"stale"`),
		response(0, `"mine"`),
	}}
	c := NewClient(tr)

	result, err := c.Request("textDocument/documentSymbol", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `"mine"`, string(result))
	assert.Equal(t, int64(1), c.NextID())
}

func TestRequestKeepsIDOnTransportFailure(t *testing.T) {
	t.Parallel()

	tr := &fakeTransport{recvErr: errors.New("broken pipe")}
	c := NewClient(tr)

	_, err := c.Request("initialize", nil)
	require.Error(t, err)
	assert.Equal(t, int64(0), c.NextID())
}

func TestRequestErrorOutcome(t *testing.T) {
	t.Parallel()

	tr := &fakeTransport{recv: [][]byte{
		[]byte(`{"jsonrpc":"2.0","id":0,"error":{"code":-32601,"message":"method not found"}}`),
	}}
	c := NewClient(tr)

	_, err := c.Request("textDocument/references", nil)
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, int64(-32601), reqErr.Code)
	assert.Equal(t, "method not found", reqErr.Message)

	// the response matched, so the id is consumed
	assert.Equal(t, int64(1), c.NextID())
}

func TestNotifySendsWithoutWaiting(t *testing.T) {
	t.Parallel()

	tr := &fakeTransport{}
	c := NewClient(tr)

	require.NoError(t, c.Notify("initialized", struct{}{}))
	require.Len(t, tr.sent, 1)
	assert.JSONEq(t, `{"jsonrpc":"2.0","method":"initialized","params":{}}`, string(tr.sent[0]))
	assert.Equal(t, int64(0), c.NextID())
}

func TestSequentialRequestsAllocateMonotonicIDs(t *testing.T) {
	t.Parallel()

	tr := &fakeTransport{recv: [][]byte{response(0, `1`), response(1, `2`)}}
	c := NewClient(tr)

	first, err := c.Request("a", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `1`, string(first))

	second, err := c.Request("b", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `2`, string(second))

	require.Len(t, tr.sent, 2)
	assert.Contains(t, string(tr.sent[0]), `"id":0`)
	assert.Contains(t, string(tr.sent[1]), `"id":1`)
	assert.Equal(t, int64(2), c.NextID())
}
