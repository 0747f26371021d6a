package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DATABASE_URL", "TELEGRAM_TOKEN", "ADMIN_TELEGRAM_ID", "MANAGER_TELEGRAM_ID",
		"LOG_LEVEL", "ENVIRONMENT", "CRON_SPEC_DAILY_PLAN", "HTTP_ADDR", "TIMEZONE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "0 9 * * *", cfg.CronSpecDailyPlan)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "Asia/Tokyo", cfg.Timezone)
	assert.Equal(t, "Asia/Tokyo", cfg.Location().String())
	assert.Zero(t, cfg.AdminTelegramID)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://planner@localhost/planner?sslmode=disable")
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("ADMIN_TELEGRAM_ID", "1001")
	t.Setenv("MANAGER_TELEGRAM_ID", "2002")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("ENVIRONMENT", "Production")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(1001), cfg.AdminTelegramID)
	assert.Equal(t, int64(2002), cfg.ManagerTelegramID)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "production", cfg.Environment)
	assert.NoError(t, cfg.ValidateForServe())
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"admin id not a number", "ADMIN_TELEGRAM_ID", "admin"},
		{"manager id not a number", "MANAGER_TELEGRAM_ID", "12x"},
		{"unknown time zone", "TIMEZONE", "Mars/Olympus"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestValidateForServe(t *testing.T) {
	full := AppConfig{DatabaseURL: "postgres://x", TelegramToken: "t", AdminTelegramID: 1, ManagerTelegramID: 2}
	require.NoError(t, full.ValidateForServe())

	noDB := full
	noDB.DatabaseURL = ""
	assert.EqualError(t, noDB.ValidateForServe(), "DATABASE_URL is not set")

	noManager := full
	noManager.ManagerTelegramID = 0
	assert.EqualError(t, noManager.ValidateForServe(), "MANAGER_TELEGRAM_ID is not set")
}
