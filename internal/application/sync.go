package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/shopper-earnings-bot/internal/domain"
	"github.com/bnema/shopper-earnings-bot/internal/ports"
)

const (
	// DefaultSyncInterval is the minimum gap between two fetches against
	// the shopper center for the same session.
	DefaultSyncInterval = 30 * time.Minute

	// commissionDateQuota bounds pagination on the commission feed, which
	// exposes no usable end marker to the cursor logic.
	commissionDateQuota = 3
)

type SyncService struct {
	gateway  ports.ShopperGateway
	secrets  ports.SecretStore
	clock    ports.Clock
	interval time.Duration
}

func NewSyncService(gateway ports.ShopperGateway, secrets ports.SecretStore, clock ports.Clock, interval time.Duration) *SyncService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if interval <= 0 {
		interval = DefaultSyncInterval
	}

	return &SyncService{
		gateway:  gateway,
		secrets:  secrets,
		clock:    clock,
		interval: interval,
	}
}

// Sync folds any rows newer than the session's cursor into the session and
// advances the cursor. Inside the throttle window it returns the session
// unchanged without touching the network. The two feeds are fetched
// concurrently and joined; if either fails the whole sync fails and the
// input session is returned exactly as given — cursor and lists are updated
// together or not at all.
func (s *SyncService) Sync(ctx context.Context, session domain.Session) (domain.Session, error) {
	now := s.clock.Now()
	if !session.Cursor.LastSyncedAt.IsZero() && now.Sub(session.Cursor.LastSyncedAt) < s.interval {
		return session, nil
	}

	token, err := s.sessionToken(ctx, session)
	if err != nil {
		return session, err
	}

	type deliveryResult struct {
		rows []domain.DeliveryRecord
		err  error
	}
	type commissionResult struct {
		rows []domain.CommissionRecord
		err  error
	}

	deliveryCh := make(chan deliveryResult, 1)
	commissionCh := make(chan commissionResult, 1)

	go func() {
		rows, err := s.fetchDeliveries(ctx, token, session.Cursor.LastDeliveryID)
		deliveryCh <- deliveryResult{rows: rows, err: err}
	}()
	go func() {
		rows, err := s.fetchCommissions(ctx, token, session.Cursor.LastCommissionID)
		commissionCh <- commissionResult{rows: rows, err: err}
	}()

	deliveries := <-deliveryCh
	commissions := <-commissionCh
	if deliveries.err != nil {
		return session, fmt.Errorf("fetch delivery history: %w", deliveries.err)
	}
	if commissions.err != nil {
		return session, fmt.Errorf("fetch commission history: %w", commissions.err)
	}

	repaired, err := RepairDates(deliveries.rows)
	if err != nil {
		return session, fmt.Errorf("repair delivery dates: %w", err)
	}

	session.Deliveries = append(repaired, session.Deliveries...)
	session.Commissions = append(commissions.rows, session.Commissions...)
	if len(repaired) > 0 {
		session.Cursor.LastDeliveryID = repaired[0].ID
	}
	if len(commissions.rows) > 0 {
		session.Cursor.LastCommissionID = commissions.rows[0].ID
	}
	session.Cursor.LastSyncedAt = now

	return session, nil
}

func (s *SyncService) sessionToken(ctx context.Context, session domain.Session) (domain.SessionToken, error) {
	if session.TokenRef == "" {
		return "", domain.ErrAuthExpired
	}
	value, err := s.secrets.Get(ctx, session.TokenRef)
	if err != nil {
		if errors.Is(err, domain.ErrSecretNotFound) {
			return "", domain.ErrAuthExpired
		}
		return "", fmt.Errorf("load session token: %w", err)
	}
	return domain.SessionToken(value), nil
}

func (s *SyncService) fetchDeliveries(ctx context.Context, token domain.SessionToken, cursor domain.OrderID) ([]domain.DeliveryRecord, error) {
	pageToken := ""
	next := func(ctx context.Context) ([]domain.DeliveryRecord, bool, error) {
		rows, nextToken, err := s.gateway.FetchDeliveryPage(ctx, token, pageToken)
		if err != nil {
			return nil, false, err
		}
		pageToken = nextToken
		return rows, nextToken != "", nil
	}

	return FetchNewRows(ctx, next,
		StopAtKnownID(cursor, func(r domain.DeliveryRecord) domain.OrderID { return r.ID }),
	)
}

func (s *SyncService) fetchCommissions(ctx context.Context, token domain.SessionToken, cursor domain.OrderID) ([]domain.CommissionRecord, error) {
	pageToken := ""
	next := func(ctx context.Context) ([]domain.CommissionRecord, bool, error) {
		rows, nextToken, err := s.gateway.FetchCommissionPage(ctx, token, pageToken)
		if err != nil {
			return nil, false, err
		}
		pageToken = nextToken
		return rows, nextToken != "", nil
	}

	return FetchNewRows(ctx, next,
		StopAtKnownID(cursor, func(r domain.CommissionRecord) domain.OrderID { return r.ID }),
		StopAfterDistinctDates(commissionDateQuota, func(r domain.CommissionRecord) domain.DayKey {
			return domain.DayKeyFor(r.PaymentDate)
		}),
	)
}
