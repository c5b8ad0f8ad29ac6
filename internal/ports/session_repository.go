package ports

import (
	"context"

	"github.com/bnema/shopper-earnings-bot/internal/domain"
)

// SessionRepository is the durable owner of conversation state between
// turns. Get returns domain.ErrSessionNotFound for an unknown chat.
type SessionRepository interface {
	Get(ctx context.Context, chatID domain.ChatID) (domain.Session, error)
	List(ctx context.Context) ([]domain.Session, error)
	Save(ctx context.Context, session domain.Session) error
	Delete(ctx context.Context, chatID domain.ChatID) error
}
