package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fints.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
url = "https://banking.example.com/fints"
bank_code = " 50010517 "
user_id = "user1"
pin = "secret"
timeout_seconds = 10

[decoupled]
wait_between_ms = 500
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BankCode != "50010517" {
		t.Fatalf("bank code = %q", cfg.BankCode)
	}
	if cfg.Timeout != 10*time.Second {
		t.Fatalf("timeout = %v", cfg.Timeout)
	}
	// Keys absent from the file keep their defaults.
	if cfg.ProductID != "fints-cli" || cfg.MaxPages != 100 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
	if cfg.MaxRetries != 3 || cfg.RetryDelay != time.Second {
		t.Fatalf("retry defaults lost: %+v", cfg)
	}
	if cfg.DecoupledWaitBetween != 500*time.Millisecond {
		t.Fatalf("decoupled wait = %v", cfg.DecoupledWaitBetween)
	}
	if cfg.DecoupledWaitBeforeFirst != 0 || cfg.DecoupledMaxRequests != 0 {
		t.Fatalf("decoupled overrides invented: %+v", cfg)
	}
}

func TestLoadPinFromEnvironment(t *testing.T) {
	path := writeConfig(t, `
url = "https://banking.example.com/fints"
bank_code = "50010517"
user_id = "user1"
pin = "from-file"
pin_env = "FINTS_TEST_PIN"
`)
	t.Setenv("FINTS_TEST_PIN", "from-env")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PIN != "from-env" {
		t.Fatalf("pin = %q", cfg.PIN)
	}

	// An unset variable falls back to the file value.
	t.Setenv("FINTS_TEST_PIN", "")
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PIN != "from-file" {
		t.Fatalf("pin = %q", cfg.PIN)
	}
}

func TestLoadValidates(t *testing.T) {
	path := writeConfig(t, `
url = "https://banking.example.com/fints"
bank_code = "50010517"
user_id = "user1"
`)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "pin") {
		t.Fatalf("got %v, want pin error", err)
	}

	path = writeConfig(t, `
bank_code = "50010517"
user_id = "user1"
pin = "secret"
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "url") {
		t.Fatalf("got %v, want url error", err)
	}
}

func TestLoadRejectsBrokenTOML(t *testing.T) {
	path := writeConfig(t, `url = "unterminated`)
	if _, err := Load(path); err == nil {
		t.Fatal("broken TOML accepted")
	}
}

func TestWriteTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fints.toml")
	if err := WriteTemplate(path, false); err != nil {
		t.Fatalf("WriteTemplate: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read template: %v", err)
	}
	if !strings.Contains(string(content), "pin_env") {
		t.Fatalf("template content = %q", content)
	}
	// An existing file is not clobbered without the overwrite flag.
	if err := WriteTemplate(path, false); err == nil {
		t.Fatal("existing config overwritten")
	}
	if err := WriteTemplate(path, true); err != nil {
		t.Fatalf("WriteTemplate overwrite: %v", err)
	}
}

func TestTransportConfigDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.URL = "https://banking.example.com/fints"
	out := TransportConfig(cfg)
	if out.URL != cfg.URL || out.Timeout != 30*time.Second {
		t.Fatalf("transport config = %+v", out)
	}
	cfg.Timeout = 5 * time.Second
	cfg.MaxRetries = 1
	out = TransportConfig(cfg)
	if out.Timeout != 5*time.Second || out.MaxRetries != 1 {
		t.Fatalf("transport config = %+v", out)
	}
}

func TestPollConfigMapping(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DecoupledWaitBetween = 750 * time.Millisecond
	cfg.DecoupledMaxRequests = 12
	poll := PollConfig(cfg)
	if poll.WaitBetween != 750*time.Millisecond || poll.MaxRequests != 12 {
		t.Fatalf("poll config = %+v", poll)
	}
	if poll.WaitBeforeFirst != 0 || poll.TotalTimeout != 0 {
		t.Fatalf("poll config = %+v", poll)
	}
}
