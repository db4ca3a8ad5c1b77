package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"DATABASE_URL", "DB_HOST", "DB_PASSWORD", "RISK_TIMEOUT", "RISK_MAX_ATTEMPTS", "ELIGIBILITY_POLICY", "PORT"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Second, cfg.RiskTimeout)
	assert.Equal(t, 1, cfg.RiskMaxAttempts)
	assert.Equal(t, "any", cfg.EligibilityPolicy)
	assert.Equal(t, "8000", cfg.Port)
	assert.False(t, cfg.DatabaseConfigured())
	assert.Equal(t, "postgres://postgres:@localhost:5432/loan_applications?sslmode=disable", cfg.DatabaseURL())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("RISK_TIMEOUT", "3s")
	t.Setenv("RISK_MAX_ATTEMPTS", "2")
	t.Setenv("RISK_CACHE_TTL", "60")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.RiskTimeout)
	assert.Equal(t, 2, cfg.RiskMaxAttempts)
	assert.Equal(t, time.Minute, cfg.RiskCacheTTL)
	assert.True(t, cfg.DatabaseConfigured())
	assert.Contains(t, cfg.DatabaseURL(), "sslmode=require")
}

func TestDatabaseURL_ExplicitURLWins(t *testing.T) {
	cfg := &Config{DatabaseURLOverride: "postgres://u:p@h/db", DBHost: "other"}
	assert.Equal(t, "postgres://u:p@h/db", cfg.DatabaseURL())
}

func TestGetEnvDuration_Invalid(t *testing.T) {
	t.Setenv("SOME_DURATION", "soon")
	assert.Equal(t, time.Second, getEnvDuration("SOME_DURATION", time.Second))
}
