package cli

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/mindsage-labs/mindsage-cli/internal/core/domain"
)

var (
	recallLimit   int
	recallJSON    bool
	recallContext bool
)

var recallCmd = &cobra.Command{
	Use:   "recall [query]",
	Short: "Search the index",
	Long: `Searches indexed documents. On capable tiers with an embedding
model loaded this runs hybrid BM25 + vector search; otherwise keyword only.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecall,
}

func init() {
	recallCmd.Flags().IntVarP(&recallLimit, "limit", "n", 10, "maximum number of results")
	recallCmd.Flags().BoolVar(&recallJSON, "json", false, "output results as JSON")
	recallCmd.Flags().BoolVarP(&recallContext, "context", "c", false, "show the surrounding section for each result")
	rootCmd.AddCommand(recallCmd)
}

var (
	scoreStyle    = lipgloss.NewStyle().Faint(true)
	resolverStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	rankStyle     = lipgloss.NewStyle().Bold(true)
)

func runRecall(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	engine, shutdown, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer shutdown()

	results, err := engine.Recall(ctx, args[0], recallLimit)
	if err != nil {
		return fmt.Errorf("recall failed: %w", err)
	}

	if recallJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	for i, res := range results {
		cmd.Printf("%s %s %s\n",
			rankStyle.Render(fmt.Sprintf("[%d]", i+1)),
			resolverStyle.Render(string(res.Resolver)),
			scoreStyle.Render(fmt.Sprintf("(%.4f)", res.Score)))
		cmd.Printf("    %s\n", snippet(res))
		if recallContext {
			if section, err := engine.ExpandContext(ctx, res.ChunkID); err == nil && section != "" {
				cmd.Printf("    %s\n", scoreStyle.Render(section))
			}
		}
		cmd.Println()
	}
	return nil
}

func snippet(res domain.SearchResult) string {
	const max = 200
	text := res.Text
	if len(text) > max {
		text = text[:max] + "…"
	}
	return text
}
