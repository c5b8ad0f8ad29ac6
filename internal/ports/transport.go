package ports

import (
	"context"

	"github.com/bnema/shopper-earnings-bot/internal/domain"
)

// Transport delivers outbound text to a chat identity. Sends are
// fire-and-forget from the conversation's point of view; the returned error
// exists for the caller's diagnostics, not for flow control. Sequential
// sends to the same identity keep their order.
type Transport interface {
	Send(ctx context.Context, chatID domain.ChatID, text string) error
}
