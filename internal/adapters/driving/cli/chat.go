package cli

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/agrichat/agrichat/internal/core/ports/driving"
)

var chatConv string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Opens a streaming chat session. Answers arrive incrementally;
sources are listed after each grounded answer.

Commands inside the session:
  /clear  clear the conversation history
  /exit   quit the session`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatConv, "conversation", "", "resume an existing conversation ID")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(cmd.Context()); err != nil {
		return err
	}

	conversationID := chatConv
	if conversationID == "" {
		conversationID = uuid.New().String()
	}

	answerColor := color.New(color.FgGreen)
	sourceColor := color.New(color.FgCyan)
	promptColor := color.New(color.FgYellow, color.Bold)

	cmd.Printf("對話 ID: %s\n", conversationID)
	cmd.Println("輸入問題開始對話（/exit 離開，/clear 清除歷史）")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		promptColor.Fprint(cmd.OutOrStdout(), "\n> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}

		switch question {
		case "/exit", "/quit":
			return nil
		case "/clear":
			if err := chatService.ClearHistory(cmd.Context(), conversationID); err != nil {
				cmd.PrintErrf("清除歷史失敗: %v\n", err)
				continue
			}
			cmd.Println("歷史已清除")
			continue
		}

		if err := streamOne(cmd, conversationID, question, answerColor, sourceColor); err != nil {
			cmd.PrintErrf("錯誤: %v\n", err)
		}
	}
	return scanner.Err()
}

// streamOne sends one question and renders the fragment stream.
// Ctrl-C cancels generation without ending the session.
func streamOne(cmd *cobra.Command, conversationID, question string, answerColor, sourceColor *color.Color) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	fragments, err := chatService.StreamQuery(ctx, driving.QueryRequest{
		Question:       question,
		ConversationID: conversationID,
	})
	if err != nil {
		return err
	}

	for frag := range fragments {
		switch frag.Type {
		case driving.FragmentChunk, driving.FragmentAnswer:
			answerColor.Fprint(cmd.OutOrStdout(), frag.Content)
		case driving.FragmentError:
			cmd.Println()
			return fmt.Errorf("%s", frag.Content)
		case driving.FragmentDone:
			cmd.Println()
			if len(frag.Sources) > 0 {
				sourceColor.Fprintln(cmd.OutOrStdout(), "參考資料：")
				for i, src := range frag.Sources {
					cmd.Printf("  [%d] %s", i+1, src.Source)
					if src.Department != "" {
						cmd.Printf("（%s）", src.Department)
					}
					cmd.Println()
				}
			}
		}
	}

	if ctx.Err() != nil {
		cmd.Println("\n（已中斷）")
	}
	return nil
}
