package cli

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/agrichat/agrichat/internal/core/domain"
	"github.com/agrichat/agrichat/internal/core/ports/driving"
)

var (
	queryK    int
	queryJSON bool
	queryConv string
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask a single question",
	Long: `Answers one question and exits. Use --json for machine-readable
output including sources and the detected intent.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryK, "k", "k", 0, "number of context chunks to retrieve (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output the response as JSON")
	queryCmd.Flags().StringVar(&queryConv, "conversation", "", "conversation ID for history-aware answers")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if err := ensureServices(cmd.Context()); err != nil {
		return err
	}

	resp, err := chatService.Query(cmd.Context(), driving.QueryRequest{
		Question:       args[0],
		ConversationID: queryConv,
		K:              queryK,
	})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal response: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(resp.Answer)
	printSources(cmd, resp.Sources)
	return nil
}

// printSources renders citations below an answer.
func printSources(cmd *cobra.Command, sources []domain.Source) {
	if len(sources) == 0 {
		return
	}
	cmd.Println()
	color.New(color.FgCyan).Fprintln(cmd.OutOrStdout(), "參考資料：")
	for i, src := range sources {
		cmd.Printf("  [%d] %s", i+1, src.Source)
		if src.Department != "" {
			cmd.Printf("（%s）", src.Department)
		}
		cmd.Println()
	}
}
