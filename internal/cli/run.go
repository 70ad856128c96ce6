package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"lspgraph/internal/config"
	"lspgraph/internal/graphbuild"
	"lspgraph/internal/lsp"
)

// session holds everything both subcommands share: a running server, a
// builder pointed at the project root and the include filter.
type session struct {
	proc    *lsp.ServerProc
	builder *graphbuild.Builder
	rootURI string
	match   func(string) bool
}

// openSession resolves config and flags, starts the language server and runs
// the capability handshake. args is the positional tail: the root followed by
// an optional server command line that overrides the config.
func openSession(args []string) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	rootURI := normalizeRoot(args[0])

	cmd, err := serverCommand(cfg, args[1:])
	if err != nil {
		return nil, err
	}

	mask, err := cfg.KindMask()
	if err != nil {
		return nil, err
	}
	match, err := cfg.Matcher()
	if err != nil {
		return nil, err
	}

	proc, err := lsp.StartServer(cmd)
	if err != nil {
		return nil, err
	}

	builder := graphbuild.NewBuilder(
		lsp.NewClient(proc.Transport()),
		rootURI,
		graphbuild.WithKindMask(mask),
		graphbuild.WithSettleDelay(settleDelay(cfg)),
		graphbuild.WithProgress(flagVerbose),
	)

	if err := builder.CheckCapabilities(); err != nil {
		proc.Close()
		return nil, err
	}
	return &session{proc: proc, builder: builder, rootURI: rootURI, match: match}, nil
}

func (s *session) close() { s.proc.Close() }

// normalizeRoot accepts either a file: URI or a local path and returns a root
// URI with a trailing slash, so relative-path derivation is an exact prefix
// trim.
func normalizeRoot(arg string) string {
	uri := arg
	if !strings.HasPrefix(uri, "file://") {
		uri = lsp.ToURI(arg)
	}
	if !strings.HasSuffix(uri, "/") {
		uri += "/"
	}
	return uri
}

func serverCommand(cfg *config.Config, args []string) (*exec.Cmd, error) {
	if len(args) > 0 {
		return exec.Command(args[0], args[1:]...), nil
	}
	if cfg.Server.Command != "" {
		return exec.Command(cfg.Server.Command, cfg.Server.Args...), nil
	}
	return nil, errors.New("no language server command given (pass it after the root, or set server.command in the config)")
}

func settleDelay(cfg *config.Config) time.Duration {
	if flagSettle >= 0 {
		return time.Duration(flagSettle) * time.Second
	}
	return time.Duration(cfg.SettleSeconds) * time.Second
}

// readFileList turns the newline-separated root-relative paths on r into
// document URIs, applying the include filter. Blank lines are skipped. An
// empty result is an error: a scan over nothing is a mistake, not a no-op.
func readFileList(r io.Reader, rootURI string, match func(string) bool) ([]string, error) {
	scanner := bufio.NewScanner(r)
	var uris []string
	for scanner.Scan() {
		rel := strings.TrimSpace(scanner.Text())
		if rel == "" {
			continue
		}
		if !match(rel) {
			continue
		}
		uris = append(uris, lsp.ResolveURI(rootURI, rel))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading file list: %w", err)
	}
	if len(uris) == 0 {
		return nil, errors.New("no project files given on stdin")
	}
	return uris, nil
}
