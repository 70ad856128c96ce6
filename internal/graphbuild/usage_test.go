package graphbuild

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lspgraph/internal/lsp"
)

// Test Plan for the usage variant:
// - No edges: every function has usage 0
// - Chain A->B->C: C is 66 (truncated, not 67), B is 33, A is 0
// - Two-node cycle: both functions are 50
// - References outside any function body produce no edges
// - Externally defined functions are excluded from the node set
// - Enclosing-function lookup picks the innermost containing symbol

func TestUsageNoEdges(t *testing.T) {
	t.Parallel()

	f := &fakeFacade{
		symbols: map[string][]lsp.DocumentSymbol{
			testRoot + "a": {fn("A", 0)},
			testRoot + "b": {fn("B", 0)},
		},
	}

	report, err := newTestBuilder(f).BuildUsage([]string{testRoot + "a", testRoot + "b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a#A": 0, "b#B": 0}, report.Usage)
}

func TestUsageChainTruncates(t *testing.T) {
	t.Parallel()

	// A calls B, B calls C: C reached by {A, B} of 3 functions -> 66
	f := &fakeFacade{
		symbols: map[string][]lsp.DocumentSymbol{
			testRoot + "a": {fn("A", 0)},
			testRoot + "b": {fn("B", 0)},
			testRoot + "c": {fn("C", 0)},
		},
		refs: map[string][]lsp.Location{
			// a reference to B sits inside A's body
			testRoot + "b#B": {at(testRoot+"a", 1)},
			// a reference to C sits inside B's body
			testRoot + "c#C": {at(testRoot+"b", 1)},
		},
	}

	report, err := newTestBuilder(f).BuildUsage([]string{
		testRoot + "a", testRoot + "b", testRoot + "c",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a#A": 0, "b#B": 33, "c#C": 66}, report.Usage)
}

func TestUsageCycle(t *testing.T) {
	t.Parallel()

	// A calls B and B calls A; each is reached by the one other function
	f := &fakeFacade{
		symbols: map[string][]lsp.DocumentSymbol{
			testRoot + "a": {fn("A", 0)},
			testRoot + "b": {fn("B", 0)},
		},
		refs: map[string][]lsp.Location{
			testRoot + "a#A": {at(testRoot+"b", 1)},
			testRoot + "b#B": {at(testRoot+"a", 1)},
		},
	}

	report, err := newTestBuilder(f).BuildUsage([]string{testRoot + "a", testRoot + "b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a#A": 50, "b#B": 50}, report.Usage)
}

func TestUsageIgnoresTopLevelReferences(t *testing.T) {
	t.Parallel()

	f := &fakeFacade{
		symbols: map[string][]lsp.DocumentSymbol{
			testRoot + "a": {fn("A", 0)},
			testRoot + "b": {fn("B", 0)},
		},
		refs: map[string][]lsp.Location{
			// line 50 is outside every function range in b
			testRoot + "a#A": {at(testRoot+"b", 50)},
		},
	}

	report, err := newTestBuilder(f).BuildUsage([]string{testRoot + "a", testRoot + "b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a#A": 0, "b#B": 0}, report.Usage)
}

func TestUsageExcludesExternallyDefinedFunctions(t *testing.T) {
	t.Parallel()

	f := &fakeFacade{
		symbols: map[string][]lsp.DocumentSymbol{
			testRoot + "a": {fn("A", 0), fn("imported", 10)},
		},
		defs: map[string][]lsp.Location{
			testRoot + "a#imported": {at("file:///usr/lib/std", 1)},
		},
	}

	report, err := newTestBuilder(f).BuildUsage([]string{testRoot + "a"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a#A": 0}, report.Usage)
}

func TestEnclosingFunctionPicksInnermost(t *testing.T) {
	t.Parallel()

	outer := lsp.DocumentSymbol{
		Name: "outer",
		Kind: lsp.SymbolKindFunction,
		Range: lsp.Range{
			Start: lsp.Position{Line: 0},
			End:   lsp.Position{Line: 20},
		},
	}
	inner := lsp.DocumentSymbol{
		Name: "inner",
		Kind: lsp.SymbolKindFunction,
		Range: lsp.Range{
			Start: lsp.Position{Line: 5},
			End:   lsp.Position{Line: 10},
		},
	}

	got := enclosingFunction([]lsp.DocumentSymbol{outer, inner}, lsp.Position{Line: 7, Character: 2})
	require.NotNil(t, got)
	assert.Equal(t, "inner", got.Name)

	got = enclosingFunction([]lsp.DocumentSymbol{outer, inner}, lsp.Position{Line: 15, Character: 0})
	require.NotNil(t, got)
	assert.Equal(t, "outer", got.Name)

	got = enclosingFunction([]lsp.DocumentSymbol{outer, inner}, lsp.Position{Line: 30, Character: 0})
	assert.Nil(t, got)
}
