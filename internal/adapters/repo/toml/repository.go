// Package toml stores chat sessions in a single TOML file under the
// user's config directory. Writes go through a temp file and rename so a
// crash never leaves a half-written session list behind.
package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/bnema/shopper-earnings-bot/internal/domain"
	"github.com/bnema/shopper-earnings-bot/internal/ports"
)

const (
	configName         = "config"
	configType         = "toml"
	sessionsPathKey    = "sessions.path"
	sessionsFileMode   = 0o600
	sessionsDirMode    = 0o700
	sessionsConfigDir  = ".seb"
	sessionsConfigFile = "sessions.toml"
	tempFilePattern    = ".sessions-*.toml.tmp"
)

type Repository struct {
	sessionsPath string
	mu           *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.SessionRepository = (*Repository)(nil)

func NewRepository(cfg *viper.Viper) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	defaultPath := filepath.Join(homeDir, sessionsConfigDir, sessionsConfigFile)

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, sessionsConfigDir))
	cfg.SetDefault(sessionsPathKey, defaultPath)

	err = cfg.ReadInConfig()
	if err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	sessionsPath := cfg.GetString(sessionsPathKey)
	if sessionsPath == "" {
		return nil, errors.New("sessions path is empty")
	}
	sessionsPath, err = normalizeSessionsPath(sessionsPath)
	if err != nil {
		return nil, err
	}

	return &Repository{sessionsPath: sessionsPath, mu: lockForPath(sessionsPath)}, nil
}

func (r *Repository) Get(ctx context.Context, chatID domain.ChatID) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.Session{}, err
	}

	for _, entry := range file.Sessions {
		if entry.ChatID == string(chatID) {
			return fromSchema(entry)
		}
	}

	return domain.Session{}, domain.ErrSessionNotFound
}

func (r *Repository) List(ctx context.Context) ([]domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	sessions := make([]domain.Session, 0, len(file.Sessions))
	for _, entry := range file.Sessions {
		session, err := fromSchema(entry)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	return sessions, nil
}

func (r *Repository) Save(ctx context.Context, session domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}
	file.applyDefaults()

	encoded := toSchema(session)
	updated := false
	for i := range file.Sessions {
		if file.Sessions[i].ChatID == encoded.ChatID {
			file.Sessions[i] = encoded
			updated = true
			break
		}
	}

	if !updated {
		file.Sessions = append(file.Sessions, encoded)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *Repository) Delete(ctx context.Context, chatID domain.ChatID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}
	file.applyDefaults()

	kept := file.Sessions[:0]
	for _, entry := range file.Sessions {
		if entry.ChatID != string(chatID) {
			kept = append(kept, entry)
		}
	}
	file.Sessions = kept

	return r.writeSchema(file)
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.sessionsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{}, nil
		}
		return fileSchema{}, fmt.Errorf("read sessions file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode sessions file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.sessionsPath), sessionsDirMode); err != nil {
		return fmt.Errorf("create sessions directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode sessions file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.sessionsPath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp sessions file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp sessions file: %w", err)
	}

	if err := tempFile.Chmod(sessionsFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp sessions file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp sessions file: %w", err)
	}

	if err := os.Rename(tempName, r.sessionsPath); err != nil {
		return fmt.Errorf("replace sessions file: %w", err)
	}

	cleanup = false

	if err := os.Chmod(r.sessionsPath, sessionsFileMode); err != nil {
		return fmt.Errorf("chmod sessions file: %w", err)
	}

	return nil
}

func normalizeSessionsPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve sessions path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func toSchema(session domain.Session) sessionSchema {
	deliveries := make([]deliverySchema, 0, len(session.Deliveries))
	for _, row := range session.Deliveries {
		deliveries = append(deliveries, deliverySchema{
			ID:   string(row.ID),
			Date: formatTime(row.Date),
		})
	}

	commissions := make([]commissionSchema, 0, len(session.Commissions))
	for _, row := range session.Commissions {
		commissions = append(commissions, commissionSchema{
			ID:          string(row.ID),
			Amount:      int64(row.Amount),
			PaymentDate: formatTime(row.PaymentDate),
		})
	}

	return sessionSchema{
		ChatID:   string(session.ChatID),
		Phase:    string(session.Phase),
		Email:    session.Email,
		TokenRef: session.TokenRef,
		Cursor: cursorSchema{
			LastDeliveryID:   string(session.Cursor.LastDeliveryID),
			LastCommissionID: string(session.Cursor.LastCommissionID),
			LastSyncedAt:     formatTime(session.Cursor.LastSyncedAt),
		},
		Deliveries:  deliveries,
		Commissions: commissions,
	}
}

func fromSchema(entry sessionSchema) (domain.Session, error) {
	phase := domain.Phase(entry.Phase)
	if !phase.Valid() {
		return domain.Session{}, fmt.Errorf("session %s: unknown phase %q", entry.ChatID, entry.Phase)
	}

	deliveries := make([]domain.DeliveryRecord, 0, len(entry.Deliveries))
	for _, row := range entry.Deliveries {
		deliveries = append(deliveries, domain.DeliveryRecord{
			ID:   domain.OrderID(row.ID),
			Date: parseTime(row.Date),
		})
	}

	commissions := make([]domain.CommissionRecord, 0, len(entry.Commissions))
	for _, row := range entry.Commissions {
		commissions = append(commissions, domain.CommissionRecord{
			ID:          domain.OrderID(row.ID),
			Amount:      domain.Money(row.Amount),
			PaymentDate: parseTime(row.PaymentDate),
		})
	}

	return domain.Session{
		ChatID:   domain.ChatID(entry.ChatID),
		Phase:    phase,
		Email:    entry.Email,
		TokenRef: entry.TokenRef,
		Cursor: domain.SyncCursor{
			LastDeliveryID:   domain.OrderID(entry.Cursor.LastDeliveryID),
			LastCommissionID: domain.OrderID(entry.Cursor.LastCommissionID),
			LastSyncedAt:     parseTime(entry.Cursor.LastSyncedAt),
		},
		Deliveries:  deliveries,
		Commissions: commissions,
	}, nil
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.Format(time.RFC3339)
}
