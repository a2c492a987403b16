package runbook

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Defaults for the configuration surface.
const (
	DefaultContainer       = "customscripts"
	DefaultPollIntervalSec = 15
	DefaultTimeoutSec      = 900
)

// Config holds runbook configuration.
type Config struct {
	SubscriptionID  string `toml:"subscription_id"`
	ResourceGroup   string `toml:"resource_group"`
	Location        string `toml:"location"`
	StorageAccount  string `toml:"storage_account"`
	Container       string `toml:"container"`
	ScratchDir      string `toml:"scratch_dir"`
	CheckpointPath  string `toml:"checkpoint_path"`
	PollIntervalSec int    `toml:"poll_interval_seconds"`
	TimeoutSec      int    `toml:"timeout_seconds"`
	EndpointURL     string `toml:"endpoint_url"`
	BlobEndpointURL string `toml:"blob_endpoint_url"`
}

// ConfigFromEnv loads configuration from environment variables.
func ConfigFromEnv() Config {
	return Config{
		SubscriptionID:  os.Getenv("VMSCRIPT_SUBSCRIPTION_ID"),
		ResourceGroup:   os.Getenv("VMSCRIPT_RESOURCE_GROUP"),
		Location:        envOrDefault("VMSCRIPT_LOCATION", "eastus"),
		StorageAccount:  os.Getenv("VMSCRIPT_STORAGE_ACCOUNT"),
		Container:       envOrDefault("VMSCRIPT_CONTAINER", DefaultContainer),
		ScratchDir:      envOrDefault("VMSCRIPT_SCRATCH_DIR", os.TempDir()),
		CheckpointPath:  os.Getenv("VMSCRIPT_CHECKPOINT_PATH"),
		PollIntervalSec: intEnvOrDefault("VMSCRIPT_POLL_INTERVAL", DefaultPollIntervalSec),
		TimeoutSec:      intEnvOrDefault("VMSCRIPT_TIMEOUT", DefaultTimeoutSec),
		EndpointURL:     os.Getenv("VMSCRIPT_ENDPOINT_URL"),
		BlobEndpointURL: os.Getenv("VMSCRIPT_BLOB_ENDPOINT_URL"),
	}
}

// LoadConfig reads a TOML config file and fills unset fields with
// defaults.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.Container == "" {
		cfg.Container = DefaultContainer
	}
	if cfg.ScratchDir == "" {
		cfg.ScratchDir = os.TempDir()
	}
	if cfg.PollIntervalSec == 0 {
		cfg.PollIntervalSec = DefaultPollIntervalSec
	}
	if cfg.TimeoutSec == 0 {
		cfg.TimeoutSec = DefaultTimeoutSec
	}
	if cfg.Location == "" {
		cfg.Location = "eastus"
	}
	return cfg, nil
}

// Validate checks required configuration.
func (c Config) Validate() error {
	if c.SubscriptionID == "" {
		return fmt.Errorf("subscription_id is required")
	}
	if c.ResourceGroup == "" {
		return fmt.Errorf("resource_group is required")
	}
	if c.StorageAccount == "" {
		return fmt.Errorf("storage_account is required")
	}
	if c.PollIntervalSec <= 0 {
		return fmt.Errorf("poll_interval_seconds must be positive")
	}
	if c.TimeoutSec <= 0 {
		return fmt.Errorf("timeout_seconds must be positive")
	}
	return nil
}

// Interval returns the poll cadence as a duration.
func (c Config) Interval() time.Duration {
	return time.Duration(c.PollIntervalSec) * time.Second
}

// Timeout returns the total poll budget as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnvOrDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
