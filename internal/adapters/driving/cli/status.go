package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show knowledge base counters",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if statsReader == nil {
		return errors.New("store not configured")
	}

	documents, fragments, err := statsReader.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("reading stats: %w", err)
	}

	cmd.Printf("Documents: %d\n", documents)
	cmd.Printf("Fragments: %d\n", fragments)
	return nil
}
