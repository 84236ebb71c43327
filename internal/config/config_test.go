package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, "file", cfg.Storage.Backend)
	require.Equal(t, "0 0 3 * * *", cfg.Schedule.ExpiryCron)
	require.Equal(t, 7, cfg.Schedule.ExpireAfterDays)
	require.Equal(t, "22:00", cfg.Alerts.QuietStart)
	require.False(t, cfg.TelegramEnabled())

	vc := cfg.ValueConfig()
	require.Equal(t, 4, vc.FamilySize)
	require.InDelta(t, 1.5, vc.Currencies["delta_skymiles"].Target, 1e-9)
	require.Equal(t, "Delta", vc.Loyalty.Carrier)
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
telegram:
  bot_token: from-file
  chat_id: "42"
storage:
  backend: pebble
  data_dir: /tmp/deals
traveler:
  family_size: 3
value_calc:
  target_cpp:
    amex_mr: 2.2
  min_cpp:
    amex_mr: 1.4
`)
	t.Setenv("TELEGRAM_BOT_TOKEN", "from-env")
	t.Setenv("FAMILY_SIZE", "5")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, "from-env", cfg.Telegram.BotToken)
	require.Equal(t, "42", cfg.Telegram.ChatID)
	require.Equal(t, "pebble", cfg.Storage.Backend)
	require.Equal(t, 5, cfg.Traveler.FamilySize)

	vc := cfg.ValueConfig()
	require.Len(t, vc.Currencies, 1)
	require.InDelta(t, 1.4, vc.Currencies["amex_mr"].Min, 1e-9)
	require.InDelta(t, 2.2*1.3, vc.Currencies["amex_mr"].Excellent(), 1e-9)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown backend", "storage:\n  backend: s3\n"},
		{"bad quiet hours", "alerts:\n  quiet_start: \"25:99\"\n"},
		{"bad timezone", "alerts:\n  timezone: Mars/Olympus\n"},
		{"max below target", "budget:\n  target_total: 9000\n  max_total_cash: 100\n"},
		{"half telegram", "telegram:\n  bot_token: abc\n"},
		{"target below min", "value_calc:\n  target_cpp:\n    hilton: 0.3\n  min_cpp:\n    hilton: 0.4\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.body))
			require.NoError(t, err)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "telegram: [unclosed"))
	require.Error(t, err)
}
