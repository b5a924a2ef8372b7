package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var envKeys = []string{
	"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "DATA_PROVIDER", "POLYGON_API_KEY",
	"ALPHAVANTAGE_API_KEY", "HTTPS_PROXY", "CRON_BATCH", "BATCH_WORKERS",
	"SQLITE_PATH", "METRICS_ADDR",
}

// isolate clears the variables Load reads and points EnvFile at dir.
func isolate(t *testing.T, dir string) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	old := EnvFile
	EnvFile = filepath.Join(dir, ".env")
	t.Cleanup(func() { EnvFile = old })
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	isolate(t, dir)

	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DataSource.Provider != ProviderYahoo {
		t.Errorf("expected yahoo without a polygon key, got %s", cfg.DataSource.Provider)
	}
	if cfg.Batch.Workers != 4 || cfg.DataSource.LookbackDays != 120 {
		t.Errorf("unexpected defaults: workers=%d lookback=%d", cfg.Batch.Workers, cfg.DataSource.LookbackDays)
	}
	if cfg.Schedule.BatchCron != "0 30 22 * * 1-5" {
		t.Errorf("unexpected cron default %q", cfg.Schedule.BatchCron)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	if err := cfg.ValidateDaemon(); err == nil {
		t.Error("daemon validation should require telegram settings")
	}
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	isolate(t, dir)

	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, `
data_source:
  provider: polygon
  polygon_api_key: from-yaml
  lookback_days: 200
batch:
  workers: 8
telegram:
  bot_token: tok
  chat_id: "42"
`)
	t.Setenv("POLYGON_API_KEY", "from-env")
	t.Setenv("BATCH_WORKERS", "2")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DataSource.PolygonAPIKey != "from-env" {
		t.Errorf("env should override yaml, got %q", cfg.DataSource.PolygonAPIKey)
	}
	if cfg.Batch.Workers != 2 {
		t.Errorf("expected 2 workers, got %d", cfg.Batch.Workers)
	}
	if cfg.DataSource.LookbackDays != 200 {
		t.Errorf("expected lookback 200, got %d", cfg.DataSource.LookbackDays)
	}
	if err := cfg.ValidateDaemon(); err != nil {
		t.Errorf("expected valid daemon config: %v", err)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	isolate(t, dir)
	writeFile(t, filepath.Join(dir, ".env"), "POLYGON_API_KEY=from-dotenv\nMETRICS_ADDR=:9999\n")
	t.Setenv("METRICS_ADDR", ":7777")

	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DataSource.PolygonAPIKey != "from-dotenv" {
		t.Errorf("expected key from .env, got %q", cfg.DataSource.PolygonAPIKey)
	}
	if cfg.DataSource.Provider != ProviderPolygon {
		t.Errorf("expected polygon when a key is configured, got %s", cfg.DataSource.Provider)
	}
	if cfg.Metrics.Addr != ":7777" {
		t.Errorf("process env should win over .env, got %q", cfg.Metrics.Addr)
	}
}

func TestLoad_BadInput(t *testing.T) {
	dir := t.TempDir()
	isolate(t, dir)

	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "data_source: [unclosed")
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}

	t.Setenv("BATCH_WORKERS", "many")
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil || !strings.Contains(err.Error(), "BATCH_WORKERS") {
		t.Errorf("expected BATCH_WORKERS error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"polygon without key", func(c *Config) { c.DataSource.Provider = ProviderPolygon }, "polygon_api_key"},
		{"unknown provider", func(c *Config) { c.DataSource.Provider = "bloomberg" }, "unknown"},
		{"short lookback", func(c *Config) { c.DataSource.LookbackDays = 10 }, "lookback_days"},
		{"no workers", func(c *Config) { c.Batch.Workers = -1 }, "workers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{}
			c.DataSource.Provider = ProviderYahoo
			c.DataSource.LookbackDays = 120
			c.Batch.Workers = 4
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
