package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef-secret")
	t.Setenv("SWEEP_ON_START", "false")
	t.Setenv("JWT_TTL", "2h")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 2*time.Hour, cfg.JWT.TTL)
	assert.False(t, cfg.Sweep.RunOnStart)
	assert.Equal(t, "0 8 * * *", cfg.Sweep.Schedule)
	assert.False(t, cfg.Mail.Enabled())
	assert.Contains(t, cfg.DB.DSN(), "dbname=gym_management")
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "short")
	_, err = Load()
	assert.Error(t, err)
}

func TestMailEnabled(t *testing.T) {
	m := MailConfig{User: "gym@example.com", Password: "app-password"}
	assert.True(t, m.Enabled())
}
