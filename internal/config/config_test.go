package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/tenancy")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "postgres://localhost/tenancy", cfg.GetDBDSN())
	assert.Equal(t, NotifyModeQueue, cfg.NotifyMode)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 8, cfg.AutomationHour)
	assert.Equal(t, 15*time.Minute, cfg.AutomationInterval)
	assert.Equal(t, 4, cfg.AutomationWorkers)
	assert.Equal(t, "Asia/Manila", cfg.Location().String())
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://db/tenancy")
	t.Setenv("ENV", "production")
	t.Setenv("NOTIFY_MODE", " LOG ")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("AUTOMATION_HOUR", "6")
	t.Setenv("AUTOMATION_INTERVAL", "1h")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, NotifyModeLog, cfg.NotifyMode)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 6, cfg.AutomationHour)
	assert.Equal(t, time.Hour, cfg.AutomationInterval)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "missing dsn",
			env:  map[string]string{"NOTIFY_MODE": "log"},
			want: "DB_DSN",
		},
		{
			name: "unknown notify mode",
			env:  map[string]string{"DB_DSN": "x", "NOTIFY_MODE": "carrier-pigeon"},
			want: "NOTIFY_MODE",
		},
		{
			name: "telegram token required for delivery",
			env:  map[string]string{"DB_DSN": "x", "NOTIFY_MODE": "direct"},
			want: "TELEGRAM_TOKEN",
		},
		{
			name: "hour out of range",
			env:  map[string]string{"DB_DSN": "x", "NOTIFY_MODE": "log", "AUTOMATION_HOUR": "24"},
			want: "AUTOMATION_HOUR",
		},
		{
			name: "bad timezone",
			env:  map[string]string{"DB_DSN": "x", "NOTIFY_MODE": "log", "TIMEZONE": "Mars/Olympus"},
			want: "TIMEZONE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DB_DSN", "")
			t.Setenv("TELEGRAM_TOKEN", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := load(viper.New())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
