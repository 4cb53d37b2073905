package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agrichat/agrichat/internal/core/domain"
)

var (
	historyLimit  int
	historyOffset int
	historyClear  bool
)

var historyCmd = &cobra.Command{
	Use:   "history [conversation-id]",
	Short: "Show or clear a conversation's history",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 50, "maximum messages to show")
	historyCmd.Flags().IntVar(&historyOffset, "offset", 0, "messages to skip")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "delete the conversation history")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if err := ensureServices(cmd.Context()); err != nil {
		return err
	}
	conversationID := args[0]

	if historyClear {
		if err := chatService.ClearHistory(cmd.Context(), conversationID); err != nil {
			return fmt.Errorf("clear history: %w", err)
		}
		cmd.Println("History cleared.")
		return nil
	}

	messages, err := chatService.History(cmd.Context(), conversationID, historyLimit, historyOffset)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	if len(messages) == 0 {
		cmd.Println("No messages.")
		return nil
	}

	for _, msg := range messages {
		role := "用戶"
		if msg.Role == domain.RoleAssistant {
			role = "AI"
		}
		cmd.Printf("[%s] %s: %s\n", msg.CreatedAt.Format("2006-01-02 15:04"), role, msg.Content)
	}
	return nil
}
