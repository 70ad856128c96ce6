package cli

import (
	"os"

	"github.com/spf13/cobra"

	"lspgraph/internal/report"
)

var graphCmd = &cobra.Command{
	Use:   "graph <root> [server-cmd [args...]]",
	Short: "Emit the file-level reference graph",
	Long: `graph opens every file listed on stdin, asks the server for each file's
symbols and their references, and prints a file-to-file dependency graph:
an edge [b, a] means something in b references a symbol defined in a.`,
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

		g, err := s.builder.Build(uris)
		if err != nil {
			return err
		}
		return report.WriteGraph(os.Stdout, g)
	},
}
