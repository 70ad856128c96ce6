package graphbuild

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dominikbraun/graph"

	"lspgraph/internal/lsp"
)

// functionRef identifies one function definition inside the project.
type functionRef struct {
	uri string
	sym lsp.DocumentSymbol
}

func (f *functionRef) id(rootURI string) string {
	return strings.TrimPrefix(f.uri, rootURI) + "#" + f.sym.Name
}

// BuildUsage builds the function-level call graph — an edge A -> B means a
// reference to B sits inside A's body — and derives, for every function,
// the share of all project functions that reach it transitively.
func (b *Builder) BuildUsage(uris []string) (*UsageReport, error) {
	uris = b.underRoot(dedupe(uris))

	if err := b.openAll(uris); err != nil {
		return nil, err
	}
	b.settleWait()

	fnMask := lsp.NewKindMask(lsp.SymbolKindFunction, lsp.SymbolKindMethod)

	// Enumerate function definitions per file. The per-file symbol lists
	// also back the enclosing-function lookups below.
	fileSyms := make(map[string][]lsp.DocumentSymbol, len(uris))
	var fns []functionRef

	bar := b.newBar(len(uris), "listing symbols")
	for _, uri := range uris {
		symbols, err := b.facade.Symbols(uri, fnMask)
		if err != nil {
			return nil, err
		}
		fileSyms[uri] = symbols
		for _, sym := range symbols {
			fns = append(fns, functionRef{uri: uri, sym: sym})
		}
		bar.Add(1)
	}

	// Externally defined functions are not project nodes.
	kept := fns[:0]
	for i := range fns {
		defined, err := b.definedUnderRoot(fns[i].uri, &fns[i].sym)
		if err != nil {
			return nil, err
		}
		if defined {
			kept = append(kept, fns[i])
		}
	}
	fns = kept

	g := graph.New(graph.StringHash, graph.Directed())
	for i := range fns {
		id := fns[i].id(b.rootURI)
		if err := g.AddVertex(id); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return nil, fmt.Errorf("adding call graph node %s: %w", id, err)
		}
	}

	bar = b.newBar(len(fns), "resolving references")
	for i := range fns {
		callee := &fns[i]
		calleeID := callee.id(b.rootURI)

		refs, err := b.facade.References(callee.uri, &callee.sym)
		if err != nil {
			return nil, err
		}
		for _, ref := range refs {
			syms, ok := fileSyms[ref.URI]
			if !ok {
				continue // reference outside the project files
			}
			caller := enclosingFunction(syms, ref.Range.Start)
			if caller == nil {
				continue // top-level reference, no calling function
			}

			callerRef := functionRef{uri: ref.URI, sym: *caller}
			callerID := callerRef.id(b.rootURI)
			if callerID == calleeID {
				continue
			}

			err := g.AddEdge(callerID, calleeID)
			switch {
			case err == nil, errors.Is(err, graph.ErrEdgeAlreadyExists):
			case errors.Is(err, graph.ErrVertexNotFound):
				// caller was filtered out as externally defined
			default:
				return nil, fmt.Errorf("adding call graph edge %s -> %s: %w", callerID, calleeID, err)
			}
		}
		bar.Add(1)
	}

	return usageFromGraph(g, b.rootURI)
}

// usageFromGraph runs one forward reachability pass per node: every
// function reached from src counts src among its transitive callers. The
// ratio reaching/total is reported as an integer-truncated percentage.
func usageFromGraph(g graph.Graph[string, string], rootURI string) (*UsageReport, error) {
	adj, err := g.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("reading call graph adjacency: %w", err)
	}

	usage := make(map[string]int, len(adj))
	for id := range adj {
		usage[id] = 0
	}
	total := len(adj)
	if total == 0 {
		return &UsageReport{Root: rootURI, Usage: usage}, nil
	}

	reaching := make(map[string]int, total)
	for src := range adj {
		for _, dst := range reachableFrom(adj, src) {
			if dst != src {
				reaching[dst]++
			}
		}
	}
	for id := range adj {
		usage[id] = reaching[id] * 100 / total
	}
	return &UsageReport{Root: rootURI, Usage: usage}, nil
}

// reachableFrom walks the adjacency map from src and returns every node a
// directed path reaches. src itself appears only if a cycle returns to it.
func reachableFrom(adj map[string]map[string]graph.Edge[string], src string) []string {
	seen := make(map[string]bool)
	stack := []string{src}
	var out []string
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for next := range adj[cur] {
			if !seen[next] {
				seen[next] = true
				out = append(out, next)
				stack = append(stack, next)
			}
		}
	}
	return out
}

// enclosingFunction finds the innermost function whose range contains pos.
// The symbols arrive flattened, so innermost means the smallest containing
// range.
func enclosingFunction(symbols []lsp.DocumentSymbol, pos lsp.Position) *lsp.DocumentSymbol {
	var best *lsp.DocumentSymbol
	for i := range symbols {
		sym := &symbols[i]
		if !containsPosition(sym.Range, pos) {
			continue
		}
		if best == nil || rangeWithin(sym.Range, best.Range) {
			best = sym
		}
	}
	return best
}

func containsPosition(r lsp.Range, p lsp.Position) bool {
	if p.Line < r.Start.Line || p.Line > r.End.Line {
		return false
	}
	if p.Line == r.Start.Line && p.Character < r.Start.Character {
		return false
	}
	if p.Line == r.End.Line && p.Character > r.End.Character {
		return false
	}
	return true
}

func rangeWithin(inner, outer lsp.Range) bool {
	return containsPosition(outer, inner.Start) && containsPosition(outer, inner.End)
}
