package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sheldonrobinson/AI4All/internal/normalise"
)

var (
	ingestURI        string
	ingestParagraphs bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Add text to the knowledge base",
	Long: `Reads a text file, splits it into chunks, embeds each chunk and
stores the resulting fragments. Pass "-" to read from stdin.
HTML and Markdown files are converted to plain text first.

By default the text is split into overlapping sentence windows. Use
--paragraphs to store one fragment per paragraph instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestURI, "uri", "u", "", "origin recorded with the document (defaults to the file path)")
	ingestCmd.Flags().BoolVarP(&ingestParagraphs, "paragraphs", "p", false, "one fragment per paragraph")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	path := args[0]
	text, err := readInput(cmd, path)
	if err != nil {
		return err
	}

	uri := ingestURI
	if uri == "" && path != "-" {
		uri = path
	}

	var documentID string
	if ingestParagraphs {
		documentID, err = ingestService.IngestParagraphs(cmd.Context(), uri, text)
	} else {
		documentID, err = ingestService.Ingest(cmd.Context(), uri, text)
	}
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("Ingested as document %s\n", documentID)
	return nil
}

func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return normalise.Text(path, data), nil
}
