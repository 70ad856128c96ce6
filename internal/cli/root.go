// Package cli wires the commands: flag parsing, config resolution and the
// server process lifecycle around the graph builders.
package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"lspgraph/internal/config"
)

var (
	flagConfig  string
	flagSettle  int
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "lspgraph",
	Short: "Build cross-file reference graphs by querying a language server",
	Long: `lspgraph drives any LSP-compliant language server over stdio and turns
its symbol, definition and reference answers into a project-wide graph.

The list of project files is read from stdin, one root-relative path per
line; the resulting graph is written to stdout as JSON.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to a config file (default ./lspgraph.yaml if present)")
	rootCmd.PersistentFlags().IntVar(&flagSettle, "settle", -1, "seconds to wait after opening files before querying (-1 uses the config value)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "show progress on stderr")

	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(usageCmd)
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "[x] %v\n", err)
		os.Exit(1)
	}
}

const defaultConfigPath = "lspgraph.yaml"

func loadConfig() (*config.Config, error) {
	if flagConfig != "" {
		return config.Load(flagConfig)
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		cfg, err := config.Load(defaultConfigPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", defaultConfigPath, err)
		}
		return cfg, nil
	}
	return config.Default(), nil
}
