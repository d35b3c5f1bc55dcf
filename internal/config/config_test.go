package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Source.PageSize != 40 {
		t.Fatalf("unexpected page size: %d", cfg.Source.PageSize)
	}
	if cfg.Source.Window() != 24*time.Hour {
		t.Fatalf("unexpected window: %v", cfg.Source.Window())
	}
	if cfg.ETL.BatchSize != 10 {
		t.Fatalf("unexpected batch size: %d", cfg.ETL.BatchSize)
	}
	if cfg.Notifications.Line.NewsLimit != 5 {
		t.Fatalf("unexpected news limit: %d", cfg.Notifications.Line.NewsLimit)
	}
	if cfg.Scheduler.Location().String() != "Asia/Taipei" {
		t.Fatalf("unexpected timezone: %s", cfg.Scheduler.Location())
	}
}

func TestLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
source:
  pageSize: 20
  windowHours: 48
etl:
  categories: [aopl]
notifications:
  line:
    newsLimit: 3
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)

	cfg := Load()

	if cfg.Source.PageSize != 20 {
		t.Fatalf("unexpected page size: %d", cfg.Source.PageSize)
	}
	if cfg.Source.Window() != 48*time.Hour {
		t.Fatalf("unexpected window: %v", cfg.Source.Window())
	}
	if len(cfg.ETL.Categories) != 1 || cfg.ETL.Categories[0] != "aopl" {
		t.Fatalf("unexpected categories: %v", cfg.ETL.Categories)
	}
	if cfg.Notifications.Line.NewsLimit != 3 {
		t.Fatalf("unexpected news limit: %d", cfg.Notifications.Line.NewsLimit)
	}
	// Untouched values keep their defaults.
	if cfg.ETL.BatchSize != 10 {
		t.Fatalf("unexpected batch size: %d", cfg.ETL.BatchSize)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(databaseDSNEnv, "postgres://env-wins")
	t.Setenv(lineTokenEnv, "env-token")
	t.Setenv(owmAPIKeyEnv, "env-key")

	cfg := Load()

	if cfg.Database.DSN != "postgres://env-wins" {
		t.Fatalf("unexpected dsn: %s", cfg.Database.DSN)
	}
	if cfg.Notifications.Line.ChannelToken != "env-token" {
		t.Fatalf("unexpected token: %s", cfg.Notifications.Line.ChannelToken)
	}
	if cfg.Weather.APIKey != "env-key" {
		t.Fatalf("unexpected api key: %s", cfg.Weather.APIKey)
	}
}

func TestValidateForETL(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.ValidateForETL(); err == nil {
		t.Fatal("expected error for missing DSN")
	}

	cfg.Database.DSN = "postgres://ok"
	if err := cfg.ValidateForETL(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateForNotify(t *testing.T) {
	cfg := defaultConfig()
	cfg.Database.DSN = "postgres://ok"

	if err := cfg.ValidateForNotify(false); err == nil {
		t.Fatal("expected error for missing channel token")
	}

	cfg.Notifications.Line.ChannelToken = "token"
	if err := cfg.ValidateForNotify(false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := cfg.ValidateForNotify(true); err == nil {
		t.Fatal("expected error for missing weather key")
	}

	cfg.Weather.APIKey = "key"
	if err := cfg.ValidateForNotify(true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBindTimezoneUnknownFallsBack(t *testing.T) {
	cfg := defaultConfig()
	cfg.Scheduler.Timezone = "Mars/Olympus"
	cfg.bindTimezone()

	if cfg.Scheduler.Location().String() != "Asia/Taipei" {
		t.Fatalf("unexpected timezone: %s", cfg.Scheduler.Location())
	}
}
