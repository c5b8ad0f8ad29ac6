package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "version")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", stdout)
}

func TestSessionsEmptyStore(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "sessions")
	require.NoError(t, err)
	assert.Contains(t, stdout, "sessions: 0")
	assert.Contains(t, stdout, "No sessions stored.")
}

func TestSessionsShowsStoredSession(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeSessionsFixture(home))

	stdout, _, err := executeCLI(t, home, "sessions")
	require.NoError(t, err)
	assert.Contains(t, stdout, "sessions: 1")
	assert.Contains(t, stdout, "chat 42 (user@example.com)")
	assert.Contains(t, stdout, "phase: answering queries")
}

func TestSessionsJSONOutput(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeSessionsFixture(home))

	stdout, _, err := executeCLI(t, home, "sessions", "--json")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(stdout)))
	assert.Contains(t, stdout, "\"ChatID\": \"42\"")
}

func TestUnknownSessionsBackendFailsWiring(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SEB_SESSIONS_BACKEND", "bolt")

	_, _, err := executeCLI(t, home)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown sessions backend \"bolt\"")
}

func TestPostgresBackendRequiresDSN(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SEB_SESSIONS_BACKEND", "postgres")
	t.Setenv("SEB_POSTGRES_DSN", "")

	_, _, err := executeCLI(t, home)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SEB_POSTGRES_DSN is required")
}

func TestInvalidSyncIntervalFailsWiring(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SEB_SYNC_INTERVAL", "soon")

	_, _, err := executeCLI(t, home)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse SEB_SYNC_INTERVAL")
}

func TestServeRequiresBotToken(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SEB_BOT_TOKEN", "")

	_, _, err := executeCLI(t, home, "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bot token is required")
}

func TestUnknownCommand(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "reconcile")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command \"reconcile\"")
}

func executeCLI(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", home)

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeSessionsFixture(home string) error {
	configDir := filepath.Join(home, ".seb")
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return err
	}

	sessions := `version = 1

[[sessions]]
chat_id = "42"
phase = "answer_queries"
email = "user@example.com"
token_ref = "shopper/42/session_token"

[sessions.cursor]
last_delivery_id = "d1"
last_synced_at = "2024-01-10T12:00:00Z"

[[sessions.deliveries]]
id = "d1"
date = "2024-01-10T00:00:00Z"

[[sessions.commissions]]
id = "d1"
amount = 5000
payment_date = "2024-01-10T00:00:00Z"
`

	return os.WriteFile(filepath.Join(configDir, "sessions.toml"), []byte(sessions), 0o600)
}
