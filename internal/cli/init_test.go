package cli

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"cashflow/internal/config"
	applog "cashflow/internal/log"
)

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger("debug", "json")
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected debug level to be enabled")
	}
	if logger.Component() != applog.ComponentApp {
		t.Errorf("Component() = %q", logger.Component())
	}
}

func TestInitBackend(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     *config.Config
		wantErr bool
	}{
		{name: "memory", cfg: &config.Config{DataBackend: "memory"}},
		{name: "file", cfg: &config.Config{DataBackend: "file", DataDirectory: filepath.Join(dir, "kv")}},
		{name: "sqlite", cfg: &config.Config{DataBackend: "sqlite", SQLiteDBPath: filepath.Join(dir, "ledger.db")}},
		{name: "unknown", cfg: &config.Config{DataBackend: "postgres"}, wantErr: true},
		{name: "nil config", cfg: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := InitBackend(context.Background(), applog.Discard(), tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("InitBackend() error = %v", err)
			}
			defer result.Cleanup()
			if result.Store == nil {
				t.Fatal("expected a ledger store")
			}
		})
	}
}
