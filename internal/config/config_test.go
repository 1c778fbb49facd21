package config

import (
	"testing"
	"time"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL is missing")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/clinic")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if !cfg.SchedulerEnabled {
		t.Error("expected scheduler enabled by default")
	}
	if cfg.GenerateCron == "" || cfg.ReconcileCron == "" {
		t.Error("expected default cron expressions")
	}
	if cfg.CacheTTL() != 60*time.Second {
		t.Errorf("expected 60s cache TTL, got %s", cfg.CacheTTL())
	}
}

func TestValidate_MinConnsExceedMax(t *testing.T) {
	cfg := &Config{DBMaxConns: 5, DBMinConns: 10}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when min conns exceed max")
	}
}

func TestValidate_SchedulerNeedsCron(t *testing.T) {
	cfg := &Config{DBMaxConns: 10, DBMinConns: 5, SchedulerEnabled: true, GenerateCron: "", ReconcileCron: "0 0 * * *"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when GENERATE_CRON is empty")
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := &Config{DBMaxConns: 10, DBMinConns: 5, SchedulerEnabled: true, GenerateCron: "10 0 * * *", ReconcileCron: "0 0 * * *"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
