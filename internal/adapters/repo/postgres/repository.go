// Package postgres stores chat sessions as versioned JSONB snapshots in a
// single table, one row per chat. It suits deployments where the bot runs
// on more than one host and a shared file is not an option.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq"

	"github.com/bnema/shopper-earnings-bot/internal/domain"
	"github.com/bnema/shopper-earnings-bot/internal/ports"
)

const (
	currentSnapshotVersion = 1
	operationTimeout       = 5 * time.Second
)

const createTableStmt = `
CREATE TABLE IF NOT EXISTS shopper_sessions (
	chat_id    TEXT PRIMARY KEY,
	snapshot   JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type Repository struct {
	db *sql.DB

	initOnce sync.Once
	initErr  error
}

var _ ports.SessionRepository = (*Repository)(nil)

func NewRepository(dsn string) (*Repository, error) {
	if dsn == "" {
		return nil, errors.New("postgres: dsn is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(time.Minute)

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) ensureReady(ctx context.Context) error {
	r.initOnce.Do(func() {
		initCtx, cancel := context.WithTimeout(ctx, operationTimeout)
		defer cancel()

		if err := r.db.PingContext(initCtx); err != nil {
			r.initErr = fmt.Errorf("ping postgres: %w", err)
			return
		}
		if _, err := r.db.ExecContext(initCtx, createTableStmt); err != nil {
			r.initErr = fmt.Errorf("create sessions table: %w", err)
		}
	})
	return r.initErr
}

func (r *Repository) Get(ctx context.Context, chatID domain.ChatID) (domain.Session, error) {
	if err := r.ensureReady(ctx); err != nil {
		return domain.Session{}, err
	}

	opCtx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	var raw []byte
	err := r.db.QueryRowContext(opCtx,
		`SELECT snapshot FROM shopper_sessions WHERE chat_id = $1`,
		string(chatID),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("query session %s: %w", chatID, err)
	}

	return decodeSnapshot(raw)
}

func (r *Repository) List(ctx context.Context) ([]domain.Session, error) {
	if err := r.ensureReady(ctx); err != nil {
		return nil, err
	}

	opCtx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(opCtx,
		`SELECT snapshot FROM shopper_sessions ORDER BY chat_id`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		session, err := decodeSnapshot(raw)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session rows: %w", err)
	}

	return sessions, nil
}

func (r *Repository) Save(ctx context.Context, session domain.Session) error {
	if err := r.ensureReady(ctx); err != nil {
		return err
	}

	raw, err := encodeSnapshot(session)
	if err != nil {
		return err
	}

	opCtx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	_, err = r.db.ExecContext(opCtx, `
		INSERT INTO shopper_sessions (chat_id, snapshot, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (chat_id)
		DO UPDATE SET snapshot = EXCLUDED.snapshot, updated_at = now()`,
		string(session.ChatID), raw,
	)
	if err != nil {
		return fmt.Errorf("upsert session %s: %w", session.ChatID, err)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, chatID domain.ChatID) error {
	if err := r.ensureReady(ctx); err != nil {
		return err
	}

	opCtx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(opCtx,
		`DELETE FROM shopper_sessions WHERE chat_id = $1`,
		string(chatID),
	); err != nil {
		return fmt.Errorf("delete session %s: %w", chatID, err)
	}
	return nil
}
