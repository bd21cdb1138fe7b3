package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/sheldonrobinson/AI4All/internal/watcher"
)

var watchParagraphs bool

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Ingest files dropped into a directory",
	Long: `Watches a directory and ingests every text file created or modified
in it. Files already present are ingested on startup. Removing a file
deletes its document from the knowledge base. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVarP(&watchParagraphs, "paragraphs", "p", false, "one fragment per paragraph")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	var opts []watcher.Option
	if watchParagraphs {
		opts = append(opts, watcher.WithParagraphs())
	}

	w, err := watcher.New(args[0], ingestService, lifecycleService, opts...)
	if err != nil {
		return err
	}

	cmd.Printf("Watching %s\n", args[0])
	return w.Run(cmd.Context())
}
