package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bnema/shopper-earnings-bot/internal/adapters/transport/telegram"
)

func newServeCmd(app *app) *cobra.Command {
	var pollTimeout time.Duration

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bot against the Telegram Bot API",
		Long:  "serve long-polls Telegram for incoming messages and answers them until interrupted. The bot token comes from SEB_BOT_TOKEN.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := telegram.NewClient(telegram.Options{
				Token:       app.botToken,
				PollTimeout: pollTimeout,
			})
			if err != nil {
				return err
			}

			conversation := app.newConversation(client)

			fmt.Fprintln(cmd.OutOrStdout(), "listening for messages...")
			return client.Poll(cmd.Context(), func(ctx context.Context, update telegram.Update) {
				// Updates from distinct chats proceed in parallel; the
				// conversation serializes turns within a chat.
				go func() {
					if err := conversation.HandleMessage(ctx, update.ChatID, update.Text); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "chat %s: %v\n", update.ChatID, err)
					}
				}()
			})
		},
	}

	serveCmd.Flags().DurationVar(&pollTimeout, "poll-timeout", 50*time.Second, "long-poll window per getUpdates call")

	return serveCmd
}
