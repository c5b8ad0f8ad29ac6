package cmd

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/bnema/shopper-earnings-bot/internal/domain"
	"github.com/bnema/shopper-earnings-bot/internal/ports"
)

// consoleTransport buffers replies during a turn so they can be printed
// after the spinner releases the terminal.
type consoleTransport struct {
	mu      sync.Mutex
	replies []string
}

var _ ports.Transport = (*consoleTransport)(nil)

func (t *consoleTransport) Send(_ context.Context, _ domain.ChatID, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.replies = append(t.replies, text)
	return nil
}

func (t *consoleTransport) drain() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	replies := t.replies
	t.replies = nil
	return replies
}

func newChatCmd(app *app) *cobra.Command {
	var chatID string

	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the bot on the terminal instead of Telegram",
		Long:  "chat runs the same conversation flow as serve but reads messages from stdin and prints replies to stdout. Useful for trying the bot without a Telegram token.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			transport := &consoleTransport{}
			conversation := app.newConversation(transport)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "type a message, Ctrl+D to quit")

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				line := scanner.Text()
				if strings.TrimSpace(line) == "" {
					continue
				}

				err := runTurnSpinner(cmd.Context(), out, func(ctx context.Context) error {
					return conversation.HandleMessage(ctx, domain.ChatID(chatID), line)
				})
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "turn failed: %v\n", err)
				}

				for _, reply := range transport.drain() {
					fmt.Fprintln(out, reply)
				}
			}

			return scanner.Err()
		},
	}

	chatCmd.Flags().StringVar(&chatID, "chat-id", "local", "chat identity to run the conversation under")

	return chatCmd
}
