package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arnarpall/musicsearch/internal/logging"
)

func writeConfig(t *testing.T, path, level string) {
	t.Helper()
	content := "database:\n  path: /tmp/test.db\nlogging:\n  level: " + level + "\n  format: json\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
}

func TestReloadAppliesLoggingConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "info")

	mgr, logger := logging.NewManager(logging.Config{Level: "info", Format: "json"})
	defer mgr.Close() //nolint:errcheck

	w := New(path, mgr, logger)

	writeConfig(t, path, "debug")
	w.reload()

	if mgr.Config().Level != "debug" {
		t.Errorf("level = %q, want debug after reload", mgr.Config().Level)
	}
}

func TestReloadKeepsSettingsOnBadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	mgr, logger := logging.NewManager(logging.Config{Level: "warn", Format: "json"})
	defer mgr.Close() //nolint:errcheck

	w := New(path, mgr, logger)

	// Invalid port fails validation; the current settings must survive.
	if err := os.WriteFile(path, []byte("server:\n  port: 0\n"), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	w.reload()

	if mgr.Config().Level != "warn" {
		t.Errorf("level = %q, want warn preserved", mgr.Config().Level)
	}
}

func TestStartReloadsOnFileChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "info")

	mgr, logger := logging.NewManager(logging.Config{Level: "info", Format: "json"})
	defer mgr.Close() //nolint:errcheck

	w := New(path, mgr, logger)
	w.SetDebounce(50 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	// Give the watcher time to register before the write.
	time.Sleep(200 * time.Millisecond)
	writeConfig(t, path, "error")

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if mgr.Config().Level == "error" {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Errorf("level = %q, want error after file change", mgr.Config().Level)
}
