package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bnema/shopper-earnings-bot/internal/domain"
)

// The JSONB column holds a self-describing snapshot so the table can
// survive schema evolution without migrations.
type snapshot struct {
	Version     int             `json:"version"`
	ChatID      string          `json:"chat_id"`
	Phase       string          `json:"phase"`
	Email       string          `json:"email,omitempty"`
	TokenRef    string          `json:"token_ref,omitempty"`
	Cursor      cursorSnapshot  `json:"cursor"`
	Deliveries  []deliveryRow   `json:"deliveries,omitempty"`
	Commissions []commissionRow `json:"commissions,omitempty"`
}

type cursorSnapshot struct {
	LastDeliveryID   string    `json:"last_delivery_id,omitempty"`
	LastCommissionID string    `json:"last_commission_id,omitempty"`
	LastSyncedAt     time.Time `json:"last_synced_at,omitempty"`
}

type deliveryRow struct {
	ID   string    `json:"id"`
	Date time.Time `json:"date,omitempty"`
}

type commissionRow struct {
	ID          string    `json:"id"`
	Amount      int64     `json:"amount"`
	PaymentDate time.Time `json:"payment_date,omitempty"`
}

func encodeSnapshot(session domain.Session) ([]byte, error) {
	deliveries := make([]deliveryRow, 0, len(session.Deliveries))
	for _, row := range session.Deliveries {
		deliveries = append(deliveries, deliveryRow{ID: string(row.ID), Date: row.Date})
	}

	commissions := make([]commissionRow, 0, len(session.Commissions))
	for _, row := range session.Commissions {
		commissions = append(commissions, commissionRow{
			ID:          string(row.ID),
			Amount:      int64(row.Amount),
			PaymentDate: row.PaymentDate,
		})
	}

	raw, err := json.Marshal(snapshot{
		Version:  currentSnapshotVersion,
		ChatID:   string(session.ChatID),
		Phase:    string(session.Phase),
		Email:    session.Email,
		TokenRef: session.TokenRef,
		Cursor: cursorSnapshot{
			LastDeliveryID:   string(session.Cursor.LastDeliveryID),
			LastCommissionID: string(session.Cursor.LastCommissionID),
			LastSyncedAt:     session.Cursor.LastSyncedAt,
		},
		Deliveries:  deliveries,
		Commissions: commissions,
	})
	if err != nil {
		return nil, fmt.Errorf("encode session snapshot: %w", err)
	}
	return raw, nil
}

func decodeSnapshot(raw []byte) (domain.Session, error) {
	var decoded snapshot
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return domain.Session{}, fmt.Errorf("decode session snapshot: %w", err)
	}
	if decoded.Version > currentSnapshotVersion {
		return domain.Session{}, fmt.Errorf("unsupported session snapshot version %d (current %d)", decoded.Version, currentSnapshotVersion)
	}

	phase := domain.Phase(decoded.Phase)
	if !phase.Valid() {
		return domain.Session{}, fmt.Errorf("session %s: unknown phase %q", decoded.ChatID, decoded.Phase)
	}

	deliveries := make([]domain.DeliveryRecord, 0, len(decoded.Deliveries))
	for _, row := range decoded.Deliveries {
		deliveries = append(deliveries, domain.DeliveryRecord{
			ID:   domain.OrderID(row.ID),
			Date: row.Date,
		})
	}

	commissions := make([]domain.CommissionRecord, 0, len(decoded.Commissions))
	for _, row := range decoded.Commissions {
		commissions = append(commissions, domain.CommissionRecord{
			ID:          domain.OrderID(row.ID),
			Amount:      domain.Money(row.Amount),
			PaymentDate: row.PaymentDate,
		})
	}

	return domain.Session{
		ChatID:   domain.ChatID(decoded.ChatID),
		Phase:    phase,
		Email:    decoded.Email,
		TokenRef: decoded.TokenRef,
		Cursor: domain.SyncCursor{
			LastDeliveryID:   domain.OrderID(decoded.Cursor.LastDeliveryID),
			LastCommissionID: domain.OrderID(decoded.Cursor.LastCommissionID),
			LastSyncedAt:     decoded.Cursor.LastSyncedAt,
		},
		Deliveries:  deliveries,
		Commissions: commissions,
	}, nil
}
