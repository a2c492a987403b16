package runbook

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("VMSCRIPT_SUBSCRIPTION_ID", "sub-1")
	t.Setenv("VMSCRIPT_RESOURCE_GROUP", "rg-1")
	t.Setenv("VMSCRIPT_STORAGE_ACCOUNT", "acct1")
	t.Setenv("VMSCRIPT_CONTAINER", "")
	t.Setenv("VMSCRIPT_POLL_INTERVAL", "")
	t.Setenv("VMSCRIPT_TIMEOUT", "")

	cfg := ConfigFromEnv()
	if cfg.Container != "customscripts" {
		t.Errorf("container default: got %q", cfg.Container)
	}
	if cfg.PollIntervalSec != 15 {
		t.Errorf("interval default: got %d", cfg.PollIntervalSec)
	}
	if cfg.TimeoutSec != 900 {
		t.Errorf("timeout default: got %d", cfg.TimeoutSec)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("VMSCRIPT_CONTAINER", "scripts")
	t.Setenv("VMSCRIPT_POLL_INTERVAL", "60")
	t.Setenv("VMSCRIPT_TIMEOUT", "600")

	cfg := ConfigFromEnv()
	if cfg.Container != "scripts" {
		t.Errorf("container: got %q", cfg.Container)
	}
	if cfg.Interval() != 60*time.Second {
		t.Errorf("interval: got %s", cfg.Interval())
	}
	if cfg.Timeout() != 600*time.Second {
		t.Errorf("timeout: got %s", cfg.Timeout())
	}
}

func TestLoadConfigTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vmscript.toml")
	data := `
subscription_id = "sub-1"
resource_group = "rg-1"
storage_account = "acct1"
container = "scripts"
poll_interval_seconds = 30
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SubscriptionID != "sub-1" || cfg.ResourceGroup != "rg-1" {
		t.Errorf("identity fields: got %+v", cfg)
	}
	if cfg.Container != "scripts" {
		t.Errorf("container: got %q", cfg.Container)
	}
	if cfg.PollIntervalSec != 30 {
		t.Errorf("interval: got %d", cfg.PollIntervalSec)
	}
	if cfg.TimeoutSec != DefaultTimeoutSec {
		t.Errorf("timeout should default, got %d", cfg.TimeoutSec)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"complete", func(c *Config) {}, false},
		{"missing subscription", func(c *Config) { c.SubscriptionID = "" }, true},
		{"missing resource group", func(c *Config) { c.ResourceGroup = "" }, true},
		{"missing storage account", func(c *Config) { c.StorageAccount = "" }, true},
		{"zero interval", func(c *Config) { c.PollIntervalSec = 0 }, true},
		{"negative timeout", func(c *Config) { c.TimeoutSec = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				SubscriptionID:  "sub-1",
				ResourceGroup:   "rg-1",
				StorageAccount:  "acct1",
				PollIntervalSec: 15,
				TimeoutSec:      900,
			}
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
