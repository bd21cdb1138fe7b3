package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sheldonrobinson/AI4All/internal/core/domain"
)

var (
	queryLimit int
	queryJSON  bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Query the knowledge base",
	Long: `Performs a hybrid query over all stored fragments.
Combines keyword (BM25) and semantic (vector) ranking for best results.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryLimit, "limit", "n", 0, "maximum number of results (0 = configured default)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	text := args[0]

	if queryService == nil {
		return errors.New("query service not configured")
	}

	ranked, err := queryService.Query(cmd.Context(), text, queryLimit)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		return outputQueryJSON(cmd, ranked)
	}

	return outputQueryTable(cmd, ranked)
}

func outputQueryJSON(cmd *cobra.Command, ranked []domain.RankedFragment) error {
	type row struct {
		Text  string  `json:"text"`
		Score float64 `json:"score"`
	}
	rows := make([]row, len(ranked))
	for i := range ranked {
		rows[i] = row{Text: ranked[i].Text, Score: ranked[i].Score}
	}

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputQueryTable(cmd *cobra.Command, ranked []domain.RankedFragment) error {
	if len(ranked) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range ranked {
		cmd.Printf("  [%d] (%.3f) %s\n", i+1, ranked[i].Score, ranked[i].Text)
	}
	cmd.Println()

	return nil
}
