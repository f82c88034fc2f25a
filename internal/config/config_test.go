package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if cfg.Port != "8080" || cfg.DBDriver != "sqlite" || cfg.DailyWindowDays != 7 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.SessionTTL() != 24*time.Hour {
		t.Fatalf("SessionTTL=%s want 24h", cfg.SessionTTL())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "JSON")
	t.Setenv("CURRENCY", "eur")
	t.Setenv("DAILY_WINDOW_DAYS", "0")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if cfg.Port != "9090" || cfg.DBDriver != "json" || cfg.Currency != "EUR" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.DailyWindowDays != 7 {
		t.Fatalf("DailyWindowDays=%d want fallback 7", cfg.DailyWindowDays)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("TZ_DEFAULT=Europe/Paris\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("TZ_DEFAULT") })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if cfg.Location().String() != "Europe/Paris" {
		t.Fatalf("Location=%s want Europe/Paris", cfg.Location())
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DB_DRIVER", "mongo")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestLoadLocationOr(t *testing.T) {
	if loc := LoadLocationOr("Not/AZone", "UTC"); loc.String() != "UTC" {
		t.Fatalf("got %s want UTC", loc)
	}
	if loc := LoadLocationOr("", "Asia/Kolkata"); loc.String() != "Asia/Kolkata" {
		t.Fatalf("got %s want Asia/Kolkata", loc)
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd err=%v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir err=%v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
