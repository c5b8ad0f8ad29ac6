package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)
	require.NoError(t, writeSessionsFixture(home))

	stdout, stderr, err := runSeb(t, binaryPath, home, "version")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Equal(t, "dev\n", stdout)

	stdout, stderr, err = runSeb(t, binaryPath, home, "sessions")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "sessions: 1")
	assert.Contains(t, stdout, "chat 42 (user@example.com)")
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "seb-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/seb")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build seb binary: %s", string(output))
	return binaryPath
}

func runSeb(t *testing.T, binaryPath, home string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "HOME="+home)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
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
`

	return os.WriteFile(filepath.Join(configDir, "sessions.toml"), []byte(sessions), 0o600)
}
