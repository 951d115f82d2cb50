package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Storage struct {
		// Driver is "memory" or "sqlite".
		Driver string `yaml:"driver"`
		Path   string `yaml:"path"`
	} `yaml:"storage"`
	Market struct {
		Seed   int64 `yaml:"seed"`
		TickMs int   `yaml:"tick_ms"`
	} `yaml:"market"`
	Trading struct {
		AccountValue float64 `yaml:"account_value"`
	} `yaml:"trading"`
	Logging struct {
		Level    string `yaml:"level"`
		Encoding string `yaml:"encoding"`
	} `yaml:"logging"`
}

// Load reads the yaml config at path and applies defaults for anything
// left unset. XAUBOT_CONFIG overrides the path when present.
func Load(path string) (*Config, error) {
	if env := os.Getenv("XAUBOT_CONFIG"); env != "" {
		path = env
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "xaubot.db"
	}
	if c.Market.Seed == 0 {
		c.Market.Seed = 42
	}
	if c.Market.TickMs == 0 {
		c.Market.TickMs = 2000
	}
	if c.Trading.AccountValue == 0 {
		c.Trading.AccountValue = 10000
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Encoding == "" {
		c.Logging.Encoding = "json"
	}
}
