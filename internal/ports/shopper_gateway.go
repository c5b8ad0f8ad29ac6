package ports

import (
	"context"

	"github.com/bnema/shopper-earnings-bot/internal/domain"
)

// ShopperGateway is the authenticated-fetch collaborator in front of the
// shopper center. Pages are most-recent-first; an empty next page token
// means the last page was reached. Login failures surface as
// domain.ErrAuthFailed, a rejected token as domain.ErrAuthExpired.
type ShopperGateway interface {
	Login(ctx context.Context, email, password string) (domain.SessionToken, error)
	FetchDeliveryPage(ctx context.Context, token domain.SessionToken, pageToken string) ([]domain.DeliveryRecord, string, error)
	FetchCommissionPage(ctx context.Context, token domain.SessionToken, pageToken string) ([]domain.CommissionRecord, string, error)
}
