package cli

import (
	"os"

	"github.com/spf13/cobra"

	"lspgraph/internal/report"
)

var usageCmd = &cobra.Command{
	Use:   "usage <root> [server-cmd [args...]]",
	Short: "Emit per-function transitive usage percentages",
	Long: `usage builds the function-level call graph instead of the file graph:
nodes are "path#function" and an edge means one function's body references
another. Each function is then scored by the percentage of all project
functions that reach it transitively.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(args)
		if err != nil {
			return err
		}
		defer s.close()

		uris, err := readFileList(os.Stdin, s.rootURI, s.match)
		if err != nil {
			return err
		}

		r, err := s.builder.BuildUsage(uris)
		if err != nil {
			return err
		}
		return report.WriteUsage(os.Stdout, r)
	},
}
