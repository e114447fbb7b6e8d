package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "auditmig.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `version: 1
source:
  directory: /srv/rilievi
target:
  connection_string: "postgres://audit:pw@db:5432/audit"
migration:
  on_failure: continue
  validate: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Version != 1 {
		t.Errorf("expected version 1, got %d", cfg.Version)
	}
	if cfg.Source.Directory != "/srv/rilievi" {
		t.Errorf("expected source directory /srv/rilievi, got %s", cfg.Source.Directory)
	}
	if cfg.Source.Script != DefaultScript {
		t.Errorf("expected default script, got %s", cfg.Source.Script)
	}
	if cfg.Target.MaxConnections != 4 {
		t.Errorf("expected default max_connections 4, got %d", cfg.Target.MaxConnections)
	}
	if cfg.Migration.OnFailure != OnFailureContinue || !cfg.Migration.Validate {
		t.Errorf("unexpected migration settings: %+v", cfg.Migration)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level info, got %s", cfg.Logging.Level)
	}
}

func TestLoadInvalidVersion(t *testing.T) {
	path := writeConfig(t, `version: 99
target:
  connection_string: postgres://localhost/audit
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid version")
	}
}

func TestLoadInvalidFailurePolicy(t *testing.T) {
	path := writeConfig(t, `version: 1
migration:
  on_failure: retry
`)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "on_failure") {
		t.Fatalf("expected on_failure error, got %v", err)
	}
}

func TestMaxConnectionsCapped(t *testing.T) {
	path := writeConfig(t, `version: 1
target:
  connection_string: postgres://localhost/audit
  max_connections: 100
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Target.MaxConnections != 20 {
		t.Errorf("expected max_connections capped at 20, got %d", cfg.Target.MaxConnections)
	}
}

func TestLoadOrDefault_Missing(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Migration.OnFailure != OnFailureAsk {
		t.Errorf("expected default failure policy ask, got %s", cfg.Migration.OnFailure)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "auditmig.yaml")
	cfg := Default()
	cfg.Target.ConnectionString = "postgres://u:p@h/db"
	cfg.Migration.CollectViolations = true
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Target.ConnectionString != cfg.Target.ConnectionString || !loaded.Migration.CollectViolations {
		t.Errorf("loaded config differs: %+v", loaded)
	}
}

func TestConnectionStringPrecedence(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "")
	cfg := Default()
	if got := cfg.ConnectionString(); got != DefaultConnectionString {
		t.Errorf("expected default DSN, got %s", got)
	}

	cfg.Target.ConnectionString = "postgres://configured/audit"
	if got := cfg.ConnectionString(); got != "postgres://configured/audit" {
		t.Errorf("expected configured DSN, got %s", got)
	}

	t.Setenv(EnvDatabaseURL, "postgres://env/audit")
	if got := cfg.ConnectionString(); got != "postgres://env/audit" {
		t.Errorf("expected env DSN, got %s", got)
	}
}

func TestSourceDir(t *testing.T) {
	docs := t.TempDir()
	t.Setenv("XDG_DOCUMENTS_DIR", docs)

	cfg := Default()
	dir, err := cfg.SourceDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join(docs, SourceSubdir) {
		t.Errorf("expected %s, got %s", filepath.Join(docs, SourceSubdir), dir)
	}

	cfg.Source.Directory = "/srv/rilievi"
	if dir, _ := cfg.SourceDir(); dir != "/srv/rilievi" {
		t.Errorf("configured directory ignored, got %s", dir)
	}
}

func TestLoadDotEnv(t *testing.T) {
	const key = "AUDITMIG_TEST_DOTENV_PASSWORD"
	os.Unsetenv(key)
	t.Cleanup(func() { os.Unsetenv(key) })

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(key+"=fromdotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "auditmig.yaml")
	content := "version: 1\ntarget:\n  connection_string: \"postgres://audit:${ENV:" + key + "}@db/audit\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Target.ConnectionString != "postgres://audit:fromdotenv@db/audit" {
		t.Errorf("unexpected DSN %s", cfg.Target.ConnectionString)
	}
}

func TestLoadDotEnv_NoFile(t *testing.T) {
	if err := LoadDotEnv(t.TempDir()); err != nil {
		t.Errorf("missing .env should be ignored, got %v", err)
	}
}

func TestResolveEnvSecret(t *testing.T) {
	t.Setenv("TEST_SECRET", "mysecret")
	val, err := ResolveValue(context.Background(), "${ENV:TEST_SECRET}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "mysecret" {
		t.Errorf("expected mysecret, got %s", val)
	}
}

func TestResolveEmbeddedSecrets(t *testing.T) {
	t.Setenv("TEST_PG_USER", "audit")
	t.Setenv("TEST_PG_PASS", "s3cret")
	val, err := ResolveValue(context.Background(), "postgres://${ENV:TEST_PG_USER}:${ENV:TEST_PG_PASS}@db:5432/audit")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "postgres://audit:s3cret@db:5432/audit" {
		t.Errorf("unexpected value %s", val)
	}
}

func TestResolveMissingEnvSecret(t *testing.T) {
	t.Setenv("TEST_SECRET_UNSET", "")
	if _, err := ResolveValue(context.Background(), "${ENV:TEST_SECRET_UNSET}"); err == nil {
		t.Error("expected error for unset variable")
	}
}

func TestResolvePlainValue(t *testing.T) {
	val, err := ResolveValue(context.Background(), "plaintext")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "plaintext" {
		t.Errorf("expected plaintext, got %s", val)
	}
}
