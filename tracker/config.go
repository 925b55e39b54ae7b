package main

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Duration lets config values be written as "3s" / "500ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", raw)
	}
	*d = Duration(parsed)
	return nil
}

// Config holds tracker settings. Every field has a default, so the tracker
// runs with no config file at all.
type Config struct {
	ListenAddr       string   `yaml:"listen_addr"`
	AdminAddr        string   `yaml:"admin_addr"`
	CredentialsFile  string   `yaml:"credentials_file"`
	HeartbeatTimeout Duration `yaml:"heartbeat_timeout"`
	ReaperInterval   Duration `yaml:"reaper_interval"`
	Workers          int      `yaml:"workers"`
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:       ":9000",
		CredentialsFile:  "credentials.txt",
		HeartbeatTimeout: Duration(3 * time.Second),
		ReaperInterval:   Duration(1 * time.Second),
		Workers:          8,
	}
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}

	if cfg.Workers < 1 {
		return cfg, errors.Errorf("workers must be positive, got %d", cfg.Workers)
	}
	if cfg.HeartbeatTimeout <= 0 || cfg.ReaperInterval <= 0 {
		return cfg, errors.New("heartbeat_timeout and reaper_interval must be positive")
	}
	return cfg, nil
}
