package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

var docsPage int

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "List stored documents",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		engine, shutdown, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer shutdown()

		const pageSize = 20
		docs, total, err := engine.Documents(ctx, docsPage, pageSize)
		if err != nil {
			return err
		}

		cmd.Printf("%d documents (page %d)\n\n", total, docsPage)
		for _, doc := range docs {
			preview := doc.Text
			if i := strings.IndexByte(preview, '\n'); i >= 0 {
				preview = preview[:i]
			}
			if len(preview) > 80 {
				preview = preview[:80] + "…"
			}
			cmd.Printf("  #%-6d %s\n", doc.ID, preview)
			if src := doc.Metadata["filename"]; src != "" {
				cmd.Printf("          %s\n", src)
			}
		}
		return nil
	},
}

func init() {
	docsCmd.Flags().IntVar(&docsPage, "page", 1, "page number")
	rootCmd.AddCommand(docsCmd)
}
