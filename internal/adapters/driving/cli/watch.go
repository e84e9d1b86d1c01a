package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mindsage-labs/mindsage-cli/internal/connectors/filesystem"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a directory and index new files as they appear",
	Long: `Walks the directory once, then watches it for created or written
files and feeds them into the background indexing queue. Paths already
recorded as indexed are skipped, so a file changed after it was indexed
is not indexed again. Runs until interrupted; the queue is drained before
exit.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine, shutdown, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer shutdown()

	connector := filesystem.New(engine, supportedExtensions())

	queued, err := connector.WalkDir(ctx, args[0])
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	cmd.Printf("Queued %d existing files, watching %s\n", queued, args[0])

	if err := connector.Watch(ctx, args[0]); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	cmd.Println("Draining queue…")
	return nil
}
