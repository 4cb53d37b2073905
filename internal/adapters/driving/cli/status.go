package cli

import (
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backend configuration and index size",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(cmd.Context()); err != nil {
		return err
	}

	cmd.Printf("LLM:        %s (%s)\n", cfg.LLM.Provider, llmService.ModelName())
	if embeddingService != nil {
		cmd.Printf("Embedding:  %s (%s, %d dimensions)\n",
			cfg.Embedding.Provider, embeddingService.ModelName(), embeddingService.Dimensions())
	} else {
		cmd.Println("Embedding:  not configured")
	}

	switch {
	case vectorIndex == nil:
		cmd.Println("Index:      disabled")
	case cfg.Storage.PostgresDSN != "":
		cmd.Println("Index:      pgvector")
	default:
		cmd.Println("Index:      in-memory")
	}

	if vectorIndex != nil {
		count, err := vectorIndex.Count(cmd.Context())
		if err != nil {
			return err
		}
		cmd.Printf("Chunks:     %d\n", count)
	}
	cmd.Printf("Metadata:   %s\n", store.Path())
	return nil
}
