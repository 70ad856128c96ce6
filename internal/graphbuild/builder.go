package graphbuild

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"lspgraph/internal/lsp"
)

// Facade is the slice of the LSP client the builder drives. Declared here so
// the graph logic can be tested against a scripted fake.
type Facade interface {
	Initialize(rootURI string) (*lsp.ServerCapabilities, error)
	Open(uri, text string) error
	Symbols(uri string, mask lsp.KindMask) ([]lsp.DocumentSymbol, error)
	Definitions(uri string, sym *lsp.DocumentSymbol) ([]lsp.Location, error)
	References(uri string, sym *lsp.DocumentSymbol) ([]lsp.Location, error)
}

// Builder accumulates reference edges between the files of one project root.
// All failures are fatal and propagate; partial results are never returned.
type Builder struct {
	facade   Facade
	rootURI  string
	mask     lsp.KindMask
	settle   time.Duration
	readFile func(uri string) (string, error)
	progress bool
}

type Option func(*Builder)

// WithSettleDelay overrides the pause between opening the files and the
// first symbol query. Servers give no indexing-complete signal for this
// operation set, so the builder waits a fixed interval.
func WithSettleDelay(d time.Duration) Option {
	return func(b *Builder) { b.settle = d }
}

// WithKindMask restricts which symbol kinds produce edges in the file-level
// build.
func WithKindMask(mask lsp.KindMask) Option {
	return func(b *Builder) { b.mask = mask }
}

// WithFileReader replaces how document text is loaded. Tests use it to feed
// in-memory sources.
func WithFileReader(read func(uri string) (string, error)) Option {
	return func(b *Builder) { b.readFile = read }
}

// WithProgress toggles the stderr progress bars.
func WithProgress(enabled bool) Option {
	return func(b *Builder) { b.progress = enabled }
}

func NewBuilder(facade Facade, rootURI string, opts ...Option) *Builder {
	b := &Builder{
		facade:  facade,
		rootURI: rootURI,
		mask: lsp.NewKindMask(
			lsp.SymbolKindFunction,
			lsp.SymbolKindMethod,
			lsp.SymbolKindStruct,
			lsp.SymbolKindClass,
		),
		settle:   3 * time.Second,
		readFile: readFileURI,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func readFileURI(uri string) (string, error) {
	data, err := os.ReadFile(lsp.FromURI(uri))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", uri, err)
	}
	return string(data), nil
}

// CheckCapabilities runs the handshake and verifies the server supports the
// full query set. A missing capability is a fatal configuration error: the
// server is unusable for this tool.
func (b *Builder) CheckCapabilities() error {
	caps, err := b.facade.Initialize(b.rootURI)
	if err != nil {
		return err
	}
	switch {
	case !caps.HasDocumentSymbol():
		return &CapabilityError{Missing: "textDocument/documentSymbol"}
	case !caps.HasDefinition():
		return &CapabilityError{Missing: "textDocument/definition"}
	case !caps.HasReferences():
		return &CapabilityError{Missing: "textDocument/references"}
	}
	return nil
}

// Build opens every project file, waits for indexing to settle, then walks
// each file's symbols and their references into a file-level edge set.
// Symbols whose definition resolves outside the root contribute nothing;
// self-references and references to files outside the input set are
// excluded; duplicate edges collapse.
func (b *Builder) Build(uris []string) (*Graph, error) {
	uris = b.underRoot(dedupe(uris))

	if err := b.openAll(uris); err != nil {
		return nil, err
	}
	b.settleWait()

	inSet := make(map[string]bool, len(uris))
	for _, uri := range uris {
		inSet[uri] = true
	}

	nodes := make([]string, 0, len(uris))
	edges := make(map[[2]string]bool)

	bar := b.newBar(len(uris), "scanning")
	for _, uri := range uris {
		node := strings.TrimPrefix(uri, b.rootURI)
		nodes = append(nodes, node)

		symbols, err := b.facade.Symbols(uri, b.mask)
		if err != nil {
			return nil, err
		}

		for i := range symbols {
			sym := &symbols[i]

			defined, err := b.definedUnderRoot(uri, sym)
			if err != nil {
				return nil, err
			}
			if !defined {
				continue
			}

			refs, err := b.facade.References(uri, sym)
			if err != nil {
				return nil, err
			}
			for _, ref := range refs {
				if ref.URI == uri || !inSet[ref.URI] {
					continue
				}
				from := strings.TrimPrefix(ref.URI, b.rootURI)
				edges[[2]string{from, node}] = true
			}
		}
		bar.Add(1)
	}

	sort.Strings(nodes)
	return &Graph{Root: b.rootURI, Nodes: nodes, Edges: sortedEdges(edges)}, nil
}

func (b *Builder) openAll(uris []string) error {
	bar := b.newBar(len(uris), "opening")
	for _, uri := range uris {
		text, err := b.readFile(uri)
		if err != nil {
			return err
		}
		if err := b.facade.Open(uri, text); err != nil {
			return err
		}
		bar.Add(1)
	}
	return nil
}

func (b *Builder) settleWait() {
	if b.settle <= 0 {
		return
	}
	color.New(color.FgCyan).Fprintf(os.Stderr, "[*] Waiting %s for the server to index...\n", b.settle)
	time.Sleep(b.settle)
}

// definedUnderRoot reports whether any of the symbol's definition locations
// lies under the project root. Symbols defined elsewhere are external and
// contribute no edges.
func (b *Builder) definedUnderRoot(uri string, sym *lsp.DocumentSymbol) (bool, error) {
	defs, err := b.facade.Definitions(uri, sym)
	if err != nil {
		return false, err
	}
	for _, def := range defs {
		if strings.HasPrefix(def.URI, b.rootURI) {
			return true, nil
		}
	}
	return false, nil
}

func (b *Builder) underRoot(uris []string) []string {
	var out []string
	for _, u := range uris {
		if strings.HasPrefix(u, b.rootURI) {
			out = append(out, u)
		}
	}
	return out
}

func (b *Builder) newBar(n int, label string) *progressbar.ProgressBar {
	if !b.progress {
		return progressbar.DefaultSilent(int64(n))
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)
}

func dedupe(uris []string) []string {
	seen := make(map[string]bool, len(uris))
	var out []string
	for _, u := range uris {
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}

func sortedEdges(set map[[2]string]bool) [][2]string {
	edges := make([][2]string, 0, len(set))
	for e := range set {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i][0] != edges[j][0] {
			return edges[i][0] < edges[j][0]
		}
		return edges[i][1] < edges[j][1]
	})
	return edges
}
