package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

var distillCmd = &cobra.Command{
	Use:   "distill",
	Short: "Embed and enrich chunks left pending by earlier sessions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		engine, shutdown, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer shutdown()

		enriched, embedded, err := engine.Distill(ctx)
		if err != nil {
			return err
		}
		cmd.Printf("Distilled: %d enriched, %d embedded\n", enriched, embedded)
		return nil
	},
}

var consolidateCmd = &cobra.Command{
	Use:   "consolidate",
	Short: "Prune orphans, remove duplicates and evict past the tier envelope",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		engine, shutdown, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer shutdown()

		report, err := engine.Consolidate(ctx)
		if err != nil {
			return err
		}
		cmd.Printf("Consolidated: pruned=%d deduped=%d evicted=%d (%dms)\n",
			report.OrphansPruned, report.DuplicatesRemoved,
			report.DocumentsEvicted, report.DurationMs)
		return nil
	},
}

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		engine, shutdown, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer shutdown()

		stats, err := engine.Stats(ctx)
		if err != nil {
			return err
		}

		if statsJSON {
			data, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return err
			}
			cmd.Println(string(data))
			return nil
		}

		cmd.Printf("Tier:             %s\n", engine.Tier())
		cmd.Printf("Documents:        %d\n", stats.Documents)
		cmd.Printf("Section chunks:   %d\n", stats.SectionChunks)
		cmd.Printf("Paragraph chunks: %d\n", stats.ParagraphChunks)
		cmd.Printf("Embeddings:       %d\n", stats.Embeddings)
		cmd.Printf("Matrix rows:      %d\n", stats.MatrixRows)
		cmd.Printf("DB size:          %.1f MB\n", float64(stats.DBSizeBytes)/(1024*1024))
		return nil
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(distillCmd, consolidateCmd, statsCmd)
}
