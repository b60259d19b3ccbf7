package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.BotToken != "123:abc" {
		t.Errorf("Unexpected token: %s", cfg.BotToken)
	}
	if cfg.DBPath != "data/coinheist.db" {
		t.Errorf("Unexpected default db path: %s", cfg.DBPath)
	}
	if cfg.ItemsPath != "configs/items.yaml" {
		t.Errorf("Unexpected default items path: %s", cfg.ItemsPath)
	}
	if cfg.HTTPPort != "8080" {
		t.Errorf("Unexpected default port: %s", cfg.HTTPPort)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Unexpected default log level: %s", cfg.LogLevel)
	}
	if len(cfg.SuperAdmins) != 0 {
		t.Errorf("Expected no super admins by default, got %v", cfg.SuperAdmins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("DB_PATH", "/tmp/test.db")
	t.Setenv("PORT", "9090")
	t.Setenv("SUPER_ADMINS", "10,20,30")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DBPath != "/tmp/test.db" || cfg.HTTPPort != "9090" {
		t.Errorf("Unexpected overrides: %+v", cfg)
	}
	if len(cfg.SuperAdmins) != 3 || cfg.SuperAdmins[0] != 10 || cfg.SuperAdmins[2] != 30 {
		t.Errorf("Unexpected super admins: %v", cfg.SuperAdmins)
	}
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")

	if _, err := Load(); err == nil {
		t.Fatal("Expected an error when BOT_TOKEN is unset")
	}
}
