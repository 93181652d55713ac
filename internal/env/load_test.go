package env

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "RANDO_ENV_TEST_VERSION=1.1\nRANDO_LOG_LEVEL=debug\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RANDO_LOG_LEVEL", "warn")
	t.Cleanup(func() { os.Unsetenv("RANDO_ENV_TEST_VERSION") })

	if err := LoadEnv(path); err != nil {
		t.Fatalf("LoadEnv error: %v", err)
	}
	if got := os.Getenv("RANDO_ENV_TEST_VERSION"); got != "1.1" {
		t.Errorf("RANDO_ENV_TEST_VERSION = %q; want 1.1", got)
	}
	if got := os.Getenv("RANDO_LOG_LEVEL"); got != "warn" {
		t.Errorf("RANDO_LOG_LEVEL = %q; want the existing value warn", got)
	}
}

func TestLoadEnv_MissingFile(t *testing.T) {
	if err := LoadEnv(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Errorf("LoadEnv error for a missing file: %v", err)
	}
}
