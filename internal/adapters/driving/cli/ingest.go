package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mindsage-labs/mindsage-cli/internal/connectors/filesystem"
	"github.com/mindsage-labs/mindsage-cli/internal/core/domain"
)

var ingestRecursive bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Ingest files or stdin into the index",
	Long: `Ingests the given files (or text piped to stdin when no path is
given) into the index. Directories are walked when --recursive is set.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestRecursive, "recursive", "r", false, "walk directories recursively")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	engine, shutdown, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer shutdown()

	if len(args) == 0 {
		text, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		id, err := engine.Ingest(ctx, string(text), map[string]string{"source": "stdin"})
		if err != nil {
			return err
		}
		cmd.Printf("Ingested document %d\n", id)
		return nil
	}

	for _, path := range args {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}

		if info.IsDir() {
			if !ingestRecursive {
				return fmt.Errorf("%s is a directory (use --recursive)", path)
			}
			connector := filesystem.New(engine, supportedExtensions())
			queued, err := connector.WalkDir(ctx, path)
			if err != nil {
				return err
			}
			cmd.Printf("Queued %d files from %s\n", queued, path)
			continue
		}

		ids, err := engine.IngestFile(ctx, path)
		if err != nil {
			if errors.Is(err, domain.ErrUnsupportedType) {
				cmd.Printf("Skipped %s: unsupported type\n", path)
				continue
			}
			return err
		}
		cmd.Printf("Ingested %s: %d document(s)\n", path, len(ids))
	}
	return nil
}

func supportedExtensions() []string {
	return []string{".txt", ".md", ".pdf", ".zip", ".log", ".json"}
}
