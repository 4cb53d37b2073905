package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var docsOwner string

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage indexed documents",
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents for an owner",
	RunE:  runDocsList,
}

var docsDeleteCmd = &cobra.Command{
	Use:   "delete [document-id]",
	Short: "Delete a document and its indexed chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsDelete,
}

func init() {
	docsCmd.PersistentFlags().StringVar(&docsOwner, "owner", "admin", "document owner")
	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsDeleteCmd)
	rootCmd.AddCommand(docsCmd)
}

func runDocsList(cmd *cobra.Command, _ []string) error {
	if err := ensureDocumentService(cmd.Context()); err != nil {
		return err
	}

	docs, err := documentService.List(cmd.Context(), docsOwner)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	if len(docs) == 0 {
		cmd.Println("No documents.")
		return nil
	}

	for _, doc := range docs {
		cmd.Printf("%s  %-10s  %4d chunks  %s\n", doc.ID, doc.Status, doc.ChunkCount, doc.FilePath)
		if doc.ErrorReason != "" {
			cmd.Printf("  error: %s\n", doc.ErrorReason)
		}
	}
	return nil
}

func runDocsDelete(cmd *cobra.Command, args []string) error {
	if err := ensureDocumentService(cmd.Context()); err != nil {
		return err
	}

	if err := documentService.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	cmd.Printf("Deleted %s\n", args[0])
	return nil
}
