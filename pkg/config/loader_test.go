package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestConfigDir(t *testing.T) string {
	t.Helper()
	configDir := t.TempDir()

	compassYAML := `
assistant:
  base_url: "https://assistant.example.com/v1"
  api_key: "{{.COMPASS_API_KEY}}"
  poll_interval: "50ms"
  run_timeout: "5s"
  max_poll_attempts: 10
auth:
  jwt_secret: "{{.COMPASS_JWT_SECRET}}"
  token_ttl: "1h"
report:
  verify_attempts: 3
  verify_backoff: "10ms"
stages:
  swot:
    persona_id: "asst_swot_123"
  interview:
    persona_id: "asst_custom_456"
    instructions: "Run a practice interview."
    report_kind: "interview-feedback"
  default:
    persona_id: "asst_default_789"
`
	err := os.WriteFile(filepath.Join(configDir, "compass.yaml"), []byte(compassYAML), 0644)
	require.NoError(t, err)

	return configDir
}

func TestInitialize(t *testing.T) {
	configDir := setupTestConfigDir(t)

	t.Setenv("COMPASS_API_KEY", "test-api-key")
	t.Setenv("COMPASS_JWT_SECRET", "test-secret")

	ctx := context.Background()
	cfg, err := Initialize(ctx, configDir)

	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Env expansion flows through to the resolved sections
	assert.Equal(t, "https://assistant.example.com/v1", cfg.Assistant.BaseURL)
	assert.Equal(t, "test-api-key", cfg.Assistant.APIKey)
	assert.Equal(t, "test-secret", cfg.Auth.JWTSecret)

	// Duration strings parsed
	assert.Equal(t, 50*time.Millisecond, cfg.Assistant.PollInterval)
	assert.Equal(t, 5*time.Second, cfg.Assistant.RunTimeout)
	assert.Equal(t, 10, cfg.Assistant.MaxPollAttempts)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 3, cfg.Report.VerifyAttempts)
	assert.Equal(t, 10*time.Millisecond, cfg.Report.VerifyBackoff)

	// User stages merged over built-ins
	swot, err := cfg.Stages.Get("swot")
	require.NoError(t, err)
	assert.Equal(t, "asst_swot_123", swot.PersonaID)
	assert.NotEmpty(t, swot.Instructions, "built-in instructions should survive a persona-only entry")

	interview, err := cfg.Stages.Get("interview")
	require.NoError(t, err)
	assert.Equal(t, "Run a practice interview.", interview.Instructions)
	assert.Equal(t, "interview-feedback", cfg.Stages.ReportKind("interview"))

	// Built-in stages with no user entry are present
	assert.Greater(t, cfg.Stats().Stages, 3)
}

func TestInitializeConfigNotFound(t *testing.T) {
	ctx := context.Background()
	_, err := Initialize(ctx, "/nonexistent/directory")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestInitializeInvalidYAML(t *testing.T) {
	configDir := t.TempDir()

	err := os.WriteFile(filepath.Join(configDir, "compass.yaml"), []byte(`{{{`), 0644)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = Initialize(ctx, configDir)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidYAML)
}

func TestInitializeMissingAPIKey(t *testing.T) {
	configDir := t.TempDir()

	compassYAML := `
auth:
  jwt_secret: "secret"
`
	err := os.WriteFile(filepath.Join(configDir, "compass.yaml"), []byte(compassYAML), 0644)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = Initialize(ctx, configDir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key")

	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestInitializeMissingJWTSecret(t *testing.T) {
	configDir := t.TempDir()

	compassYAML := `
assistant:
  api_key: "key"
`
	err := os.WriteFile(filepath.Join(configDir, "compass.yaml"), []byte(compassYAML), 0644)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = Initialize(ctx, configDir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestInitializeAppliesDefaults(t *testing.T) {
	configDir := t.TempDir()

	compassYAML := `
assistant:
  api_key: "key"
auth:
  jwt_secret: "secret"
`
	err := os.WriteFile(filepath.Join(configDir, "compass.yaml"), []byte(compassYAML), 0644)
	require.NoError(t, err)

	ctx := context.Background()
	cfg, err := Initialize(ctx, configDir)
	require.NoError(t, err)

	assert.Equal(t, "https://api.openai.com/v1", cfg.Assistant.BaseURL)
	assert.Equal(t, 1*time.Second, cfg.Assistant.PollInterval)
	assert.Equal(t, 2*time.Minute, cfg.Assistant.RunTimeout)
	assert.Equal(t, 120, cfg.Assistant.MaxPollAttempts)
	assert.Equal(t, 30*time.Second, cfg.Assistant.RequestTimeout)
	assert.Equal(t, 5, cfg.Report.VerifyAttempts)
	assert.Equal(t, 200*time.Millisecond, cfg.Report.VerifyBackoff)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
}

func TestResolveDurationInvalidFallsBack(t *testing.T) {
	d := resolveDuration("assistant.poll_interval", "not-a-duration", 1*time.Second)
	assert.Equal(t, 1*time.Second, d)

	d = resolveDuration("assistant.poll_interval", "", 2*time.Second)
	assert.Equal(t, 2*time.Second, d)

	d = resolveDuration("assistant.poll_interval", "250ms", 1*time.Second)
	assert.Equal(t, 250*time.Millisecond, d)
}
