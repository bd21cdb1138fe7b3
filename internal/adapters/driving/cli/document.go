package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sheldonrobinson/AI4All/internal/core/domain"
)

var deleteURI string

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage stored documents",
	Long:  `Commands for inspecting and deleting documents in the knowledge base.`,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [document-id]",
	Short: "Delete a document and its fragments",
	Long: `Removes the document, every fragment behind it and the mapping rows,
then compacts the vector index and rebuilds the full-text index.
Deleting an unknown document is not an error.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentDelete,
}

var documentFragmentsCmd = &cobra.Command{
	Use:   "fragments [document-id]",
	Short: "List the fragments stored for a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentFragments,
}

func init() {
	documentDeleteCmd.Flags().StringVarP(&deleteURI, "uri", "u", "", "URI the document was ingested with")
	documentCmd.AddCommand(documentDeleteCmd)
	documentCmd.AddCommand(documentFragmentsCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if lifecycleService == nil {
		return errors.New("lifecycle service not configured")
	}

	documentID := args[0]
	if err := lifecycleService.Delete(cmd.Context(), documentID, deleteURI); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}

	cmd.Printf("Deleted document %s\n", documentID)
	return nil
}

func runDocumentFragments(cmd *cobra.Command, args []string) error {
	if fragmentLister == nil {
		return errors.New("fragment store not configured")
	}

	type fragInfo struct {
		FragID string `json:"frag_id"`
		Text   string `json:"text"`
	}

	infos := []fragInfo{}
	err := fragmentLister.FragmentsByDocument(cmd.Context(), args[0], func(f domain.Fragment) error {
		infos = append(infos, fragInfo{FragID: f.FragID, Text: f.Text})
		return nil
	})
	if err != nil {
		return fmt.Errorf("listing fragments: %w", err)
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal fragments: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
