package lsp

import (
	"bytes"
	"encoding/json"
	"fmt"

	"lspgraph/internal/jsonrpc"
)

// The wire methods this tool exercises.
const (
	MethodInitialize     = "initialize"
	MethodInitialized    = "initialized"
	MethodDidOpen        = "textDocument/didOpen"
	MethodDocumentSymbol = "textDocument/documentSymbol"
	MethodDefinition     = "textDocument/definition"
	MethodReferences     = "textDocument/references"
)

// Client is the capability facade: each method is one wire operation with a
// fixed params/result shape on top of the JSON-RPC engine.
type Client struct {
	rpc *jsonrpc.Client
}

func NewClient(t jsonrpc.Transport) *Client {
	return &Client{rpc: jsonrpc.NewClient(t)}
}

// Initialize performs the handshake: the initialize request declaring
// hierarchical documentSymbol support and a single workspace folder at
// rootURI, then the initialized notification the protocol requires before
// any further traffic. Returns the server's advertised capabilities.
func (c *Client) Initialize(rootURI string) (*ServerCapabilities, error) {
	params := InitializeParams{
		RootURI: rootURI,
		Capabilities: ClientCapabilities{
			TextDocument: &TextDocumentClientCapabilities{
				DocumentSymbol: &DocumentSymbolClientCapabilities{
					HierarchicalDocumentSymbolSupport: true,
				},
			},
		},
		WorkspaceFolders: []WorkspaceFolder{{URI: rootURI, Name: "root"}},
	}

	raw, err := c.rpc.Request(MethodInitialize, params)
	if err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}

	var result InitializeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decoding initialize result: %w", err)
	}

	if err := c.rpc.Notify(MethodInitialized, struct{}{}); err != nil {
		return nil, fmt.Errorf("initialized: %w", err)
	}
	return &result.Capabilities, nil
}

// Open advises the server of a document's full text. No reply is expected.
func (c *Client) Open(uri, text string) error {
	err := c.rpc.Notify(MethodDidOpen, DidOpenTextDocumentParams{
		TextDocument: TextDocumentItem{URI: uri, LanguageID: "", Version: 1, Text: text},
	})
	if err != nil {
		return fmt.Errorf("didOpen %s: %w", uri, err)
	}
	return nil
}

// Symbols returns the document's symbols flattened into one collection:
// every node and all of its descendants, filtered through mask. Flattening
// order is unspecified; only completeness matters.
func (c *Client) Symbols(uri string, mask KindMask) ([]DocumentSymbol, error) {
	raw, err := c.rpc.Request(MethodDocumentSymbol, DocumentSymbolParams{
		TextDocument: TextDocumentIdentifier{URI: uri},
	})
	if err != nil {
		return nil, fmt.Errorf("documentSymbol %s: %w", uri, err)
	}
	return decodeSymbols(raw, mask, uri)
}

func decodeSymbols(raw json.RawMessage, mask KindMask, uri string) ([]DocumentSymbol, error) {
	if isNull(raw) {
		return nil, nil
	}

	// The legacy flat form carries a location per entry; the hierarchical
	// form does not. Probe before committing to a shape.
	var probe []struct {
		Location *Location `json:"location"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("decoding documentSymbol result for %s: %w", uri, err)
	}
	if len(probe) == 0 {
		return nil, nil
	}
	if probe[0].Location != nil {
		return nil, fmt.Errorf("documentSymbol %s: got non-empty flat SymbolInformation response, hierarchical symbols are required", uri)
	}

	var nested []DocumentSymbol
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, fmt.Errorf("decoding documentSymbol result for %s: %w", uri, err)
	}

	var flat []DocumentSymbol
	queue := append([]DocumentSymbol(nil), nested...)
	for len(queue) > 0 {
		sym := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		queue = append(queue, sym.Children...)
		if mask.Keep(sym.Kind) {
			flat = append(flat, sym)
		}
	}
	return flat, nil
}

// Definitions resolves the symbol's definition locations, queried at the
// selection-range start. The server may answer with nothing, one Location,
// an array of Locations or an array of LocationLinks; all normalize to a
// flat list.
func (c *Client) Definitions(uri string, sym *DocumentSymbol) ([]Location, error) {
	raw, err := c.rpc.Request(MethodDefinition, DefinitionParams{
		TextDocumentPositionParams: TextDocumentPositionParams{
			TextDocument: TextDocumentIdentifier{URI: uri},
			Position:     sym.SelectionRange.Start,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("definition of %s in %s: %w", sym.Name, uri, err)
	}
	return decodeLocations(raw)
}

func decodeLocations(raw json.RawMessage) ([]Location, error) {
	if isNull(raw) {
		return nil, nil
	}

	var single Location
	if err := json.Unmarshal(raw, &single); err == nil && single.URI != "" {
		return []Location{single}, nil
	}

	var many []Location
	if err := json.Unmarshal(raw, &many); err == nil && (len(many) == 0 || many[0].URI != "") {
		return many, nil
	}

	var links []LocationLink
	if err := json.Unmarshal(raw, &links); err != nil {
		return nil, fmt.Errorf("decoding definition locations: %w", err)
	}
	locs := make([]Location, 0, len(links))
	for _, l := range links {
		locs = append(locs, Location{URI: l.TargetURI, Range: l.TargetRange})
	}
	return locs, nil
}

// References lists every location referencing the symbol, excluding its own
// declaration.
func (c *Client) References(uri string, sym *DocumentSymbol) ([]Location, error) {
	raw, err := c.rpc.Request(MethodReferences, ReferenceParams{
		TextDocumentPositionParams: TextDocumentPositionParams{
			TextDocument: TextDocumentIdentifier{URI: uri},
			Position:     sym.SelectionRange.Start,
		},
		Context: ReferenceContext{IncludeDeclaration: false},
	})
	if err != nil {
		return nil, fmt.Errorf("references of %s in %s: %w", sym.Name, uri, err)
	}
	if isNull(raw) {
		return nil, nil
	}

	var refs []Location
	if err := json.Unmarshal(raw, &refs); err != nil {
		return nil, fmt.Errorf("decoding references result: %w", err)
	}
	return refs, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || string(trimmed) == "null"
}
