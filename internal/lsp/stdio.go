package lsp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// FramingError reports a violation of the Content-Length header protocol.
// Framing errors are fatal to the session; nothing is retried.
type FramingError struct {
	Reason string
}

func (e *FramingError) Error() string { return "lsp framing: " + e.Reason }

// WriteFrame writes one message body prefixed with its Content-Length
// header. The declared length is the byte length of the UTF-8 body, which
// diverges from the rune count as soon as the JSON contains multi-byte text.
func WriteFrame(w io.Writer, body []byte) error {
	if _, err := fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(body)); err != nil {
		return fmt.Errorf("writing frame header: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("writing frame body: %w", err)
	}
	return nil
}

// ReadFrame reads header lines until the blank separator, then consumes
// exactly Content-Length bytes. The body is never scanned for structural
// characters: a '}' inside a string literal must not end the read, so only
// the declared byte count decides where the frame stops.
func ReadFrame(r *bufio.Reader) ([]byte, error) {
	length := -1
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("reading frame header: %w", err)
		}
		line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
		if line == "" {
			break
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, &FramingError{Reason: fmt.Sprintf("malformed header line %q", line)}
		}
		switch name {
		case "Content-Length":
			if length >= 0 {
				return nil, &FramingError{Reason: "duplicate Content-Length header"}
			}
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil || n < 0 {
				return nil, &FramingError{Reason: fmt.Sprintf("invalid Content-Length %q", strings.TrimSpace(value))}
			}
			length = n
		case "Content-Type":
			if length < 0 {
				return nil, &FramingError{Reason: "Content-Type before Content-Length"}
			}
			// advisory, ignored
		default:
			return nil, &FramingError{Reason: fmt.Sprintf("unexpected header %q", name)}
		}
	}

	if length < 0 {
		return nil, &FramingError{Reason: "missing Content-Length header"}
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("reading %d-byte frame body: %w", length, err)
	}
	return body, nil
}

// StdioTransport frames messages over a subprocess's standard streams. It
// satisfies jsonrpc.Transport.
type StdioTransport struct {
	in  io.Writer
	out *bufio.Reader
}

func NewStdioTransport(in io.Writer, out io.Reader) *StdioTransport {
	return &StdioTransport{in: in, out: bufio.NewReader(out)}
}

func (t *StdioTransport) Send(body []byte) error {
	return WriteFrame(t.in, body)
}

func (t *StdioTransport) Recv() ([]byte, error) {
	return ReadFrame(t.out)
}
