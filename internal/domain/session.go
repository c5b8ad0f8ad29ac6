package domain

import "time"

type ChatID string

// SessionToken is the opaque credential the shopper center hands back after
// a successful login. It lives in the secret store, never in the session
// snapshot itself; Session carries only the reference.
type SessionToken string

type Phase string

const (
	PhaseGreeting      Phase = "greeting"
	PhaseAskEmail      Phase = "ask_email"
	PhaseAskPassword   Phase = "ask_password"
	PhaseAnswerQueries Phase = "answer_queries"
)

func (p Phase) Valid() bool {
	switch p {
	case PhaseGreeting, PhaseAskEmail, PhaseAskPassword, PhaseAnswerQueries:
		return true
	default:
		return false
	}
}

// SyncCursor bounds pagination on the next sync: fetching stops as soon as
// a row with the recorded id shows up, since every row after it (older, the
// feeds are most-recent-first) has been seen already. Advanced after every
// successful sync, never rolled back.
type SyncCursor struct {
	LastDeliveryID   OrderID
	LastCommissionID OrderID
	LastSyncedAt     time.Time
}

// Session is the per-chat conversation state: the phase gate, credential
// reference, and the full accumulated row lists the ledger is merged from.
type Session struct {
	ChatID      ChatID
	Phase       Phase
	Email       string
	TokenRef    string
	Deliveries  []DeliveryRecord
	Commissions []CommissionRecord
	Cursor      SyncCursor
}

func NewSession(chatID ChatID) Session {
	return Session{ChatID: chatID, Phase: PhaseGreeting}
}
