// Package report serializes scan results for consumption by other tools.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"lspgraph/internal/graphbuild"
)

// WriteGraph writes the file-level reference graph as indented JSON.
func WriteGraph(w io.Writer, g *graphbuild.Graph) error {
	return write(w, g)
}

// WriteUsage writes the per-function usage percentages as indented JSON.
// Map keys come out sorted, so the output is stable across runs.
func WriteUsage(w io.Writer, r *graphbuild.UsageReport) error {
	return write(w, r)
}

func write(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
