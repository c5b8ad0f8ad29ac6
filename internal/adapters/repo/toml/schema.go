package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version  int             `toml:"version"`
	Sessions []sessionSchema `toml:"sessions"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported sessions schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type sessionSchema struct {
	ChatID      string             `toml:"chat_id"`
	Phase       string             `toml:"phase"`
	Email       string             `toml:"email,omitempty"`
	TokenRef    string             `toml:"token_ref,omitempty"`
	Cursor      cursorSchema       `toml:"cursor"`
	Deliveries  []deliverySchema   `toml:"deliveries,omitempty"`
	Commissions []commissionSchema `toml:"commissions,omitempty"`
}

type cursorSchema struct {
	LastDeliveryID   string `toml:"last_delivery_id,omitempty"`
	LastCommissionID string `toml:"last_commission_id,omitempty"`
	LastSyncedAt     string `toml:"last_synced_at,omitempty"`
}

type deliverySchema struct {
	ID   string `toml:"id"`
	Date string `toml:"date,omitempty"`
}

type commissionSchema struct {
	ID          string `toml:"id"`
	Amount      int64  `toml:"amount"`
	PaymentDate string `toml:"payment_date,omitempty"`
}
