package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"

	"lspgraph/internal/lsp"
)

// Config is the optional scan configuration. Every field has a built-in
// default; command-line arguments override whatever the file sets.
type Config struct {
	Server struct {
		Command string   `yaml:"command"`
		Args    []string `yaml:"args"`
	} `yaml:"server"`
	SettleSeconds int      `yaml:"settle_seconds"`
	SymbolKinds   []string `yaml:"symbol_kinds"`
	Include       []string `yaml:"include"`
}

// Default returns the built-in configuration: 3s settle delay, the
// definable symbol kinds, and no file filtering.
func Default() *Config {
	return &Config{
		SettleSeconds: 3,
		SymbolKinds:   []string{"function", "method", "struct", "class"},
		Include:       []string{"**"},
	}
}

// Load reads a yaml config file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

var kindNames = map[string]lsp.SymbolKind{
	"file":        lsp.SymbolKindFile,
	"module":      lsp.SymbolKindModule,
	"namespace":   lsp.SymbolKindNamespace,
	"package":     lsp.SymbolKindPackage,
	"class":       lsp.SymbolKindClass,
	"method":      lsp.SymbolKindMethod,
	"property":    lsp.SymbolKindProperty,
	"field":       lsp.SymbolKindField,
	"constructor": lsp.SymbolKindConstructor,
	"enum":        lsp.SymbolKindEnum,
	"interface":   lsp.SymbolKindInterface,
	"function":    lsp.SymbolKindFunction,
	"variable":    lsp.SymbolKindVariable,
	"constant":    lsp.SymbolKindConstant,
	"struct":      lsp.SymbolKindStruct,
	"event":       lsp.SymbolKindEvent,
	"operator":    lsp.SymbolKindOperator,
}

// KindMask resolves the configured kind names. Unknown names are an error
// rather than silently dropped.
func (c *Config) KindMask() (lsp.KindMask, error) {
	mask := make(lsp.KindMask, len(c.SymbolKinds))
	for _, name := range c.SymbolKinds {
		kind, ok := kindNames[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("unknown symbol kind %q", name)
		}
		mask[kind] = true
	}
	return mask, nil
}

// Matcher compiles the include patterns into a root-relative path filter.
func (c *Config) Matcher() (func(string) bool, error) {
	globs := make([]glob.Glob, 0, len(c.Include))
	for _, pattern := range c.Include {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("compiling include pattern %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}
	return func(rel string) bool {
		for _, g := range globs {
			if g.Match(rel) {
				return true
			}
		}
		return false
	}, nil
}
