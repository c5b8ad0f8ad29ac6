package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/bnema/shopper-earnings-bot/internal/adapters/gateway/shoppercenter"
	"github.com/bnema/shopper-earnings-bot/internal/adapters/render"
	sessionsadapter "github.com/bnema/shopper-earnings-bot/internal/adapters/render/sessions"
	postgresrepo "github.com/bnema/shopper-earnings-bot/internal/adapters/repo/postgres"
	tomlrepo "github.com/bnema/shopper-earnings-bot/internal/adapters/repo/toml"
	filestore "github.com/bnema/shopper-earnings-bot/internal/adapters/secrets/file"
	"github.com/bnema/shopper-earnings-bot/internal/application"
	"github.com/bnema/shopper-earnings-bot/internal/domain"
	"github.com/bnema/shopper-earnings-bot/internal/ports"
)

type app struct {
	sessions         ports.SessionRepository
	secrets          ports.SecretStore
	gateway          ports.ShopperGateway
	syncService      *application.SyncService
	sessionsRenderer func([]domain.Session, sessionsadapter.RenderOptions) (string, error)
	botToken         string
	now              func() time.Time
}

func wireApp() (*app, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	sessions, err := wireSessionRepository()
	if err != nil {
		return nil, err
	}

	secretsDir := envOrDefault("SEB_SECRETS_DIR", filepath.Join(homeDir, ".seb", "secrets"))
	secrets := filestore.NewStore(secretsDir)

	gateway := shoppercenter.NewClient(shoppercenter.Options{
		BaseURL: os.Getenv("SEB_GATEWAY_URL"),
	})

	syncInterval := application.DefaultSyncInterval
	if raw := os.Getenv("SEB_SYNC_INTERVAL"); raw != "" {
		syncInterval, err = time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("parse SEB_SYNC_INTERVAL: %w", err)
		}
	}

	return &app{
		sessions:         sessions,
		secrets:          secrets,
		gateway:          gateway,
		syncService:      application.NewSyncService(gateway, secrets, ports.SystemClock{}, syncInterval),
		sessionsRenderer: sessionsadapter.Render,
		botToken:         os.Getenv("SEB_BOT_TOKEN"),
		now:              time.Now,
	}, nil
}

func wireSessionRepository() (ports.SessionRepository, error) {
	switch backend := envOrDefault("SEB_SESSIONS_BACKEND", "toml"); backend {
	case "toml":
		repo, err := tomlrepo.NewRepository(viper.New())
		if err != nil {
			return nil, fmt.Errorf("wire session repository: %w", err)
		}
		return repo, nil
	case "postgres":
		dsn := os.Getenv("SEB_POSTGRES_DSN")
		if dsn == "" {
			return nil, fmt.Errorf("SEB_POSTGRES_DSN is required with the postgres backend")
		}
		repo, err := postgresrepo.NewRepository(dsn)
		if err != nil {
			return nil, fmt.Errorf("wire session repository: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown sessions backend %q (want toml or postgres)", backend)
	}
}

func (a *app) newConversation(transport ports.Transport) *application.Conversation {
	return application.NewConversation(a.sessions, a.secrets, a.gateway, transport, a.syncService, render.FormatCLP)
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
