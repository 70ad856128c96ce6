package lsp

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/fatih/color"
)

// ServerProc owns a language server child process for its whole lifetime.
// The stdin/stdout pipes carry the framed JSON-RPC channel; stderr is
// drained by a goroutine so the child can never block on a full pipe buffer
// while the main loop runs request/response cycles.
type ServerProc struct {
	cmd       *exec.Cmd
	transport *StdioTransport
}

// StartServer pipes the command's standard streams, starts the process and
// begins draining its stderr.
func StartServer(cmd *exec.Cmd) (*ServerProc, error) {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("piping server stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("piping server stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("piping server stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting server %s: %w", cmd.Path, err)
	}

	go drainStderr(stderr)

	return &ServerProc{
		cmd:       cmd,
		transport: NewStdioTransport(stdin, stdout),
	}, nil
}

// Transport returns the framed channel over the child's stdin/stdout.
func (p *ServerProc) Transport() *StdioTransport { return p.transport }

// Close kills the child process.
func (p *ServerProc) Close() {
	if p.cmd.Process != nil {
		p.cmd.Process.Kill()
	}
}

// drainStderr surfaces the server's free-form stderr as diagnostics on our
// stderr. The text is never parsed; it exists so a human can see what the
// server is doing.
func drainStderr(r io.Reader) {
	faint := color.New(color.Faint)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		faint.Fprintf(os.Stderr, "server: %s\n", scanner.Text())
	}
}
