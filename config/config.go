package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	mu sync.Mutex `yaml:"-"`

	MasterPath  string `yaml:"master_path"`
	HistoryPath string `yaml:"history_path"`
	ImagesDir   string `yaml:"images_dir"`

	Cycles CyclesConfig `yaml:"cycles"`
	Web    WebConfig    `yaml:"web"`
}

// CyclesConfig defines how usage cycles accrue and when items fall due.
type CyclesConfig struct {
	RatePerDay   int    `yaml:"rate_per_day"`
	RestDay      string `yaml:"rest_day"`
	DueThreshold int    `yaml:"due_threshold"`
}

// WebConfig defines the web server settings.
type WebConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	SessionSecret string `yaml:"session_secret"`
}

// Defaults returns a Config with sane defaults.
func Defaults() *Config {
	return &Config{
		MasterPath:  "config_master.csv",
		HistoryPath: "audit_history.csv",
		ImagesDir:   "images",
		Cycles: CyclesConfig{
			RatePerDay:   1800,
			RestDay:      "Sunday",
			DueThreshold: 5000,
		},
		Web: WebConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
	}
}

// Load reads a YAML config file. If the file doesn't exist, defaults are used.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if _, err := cfg.RestWeekday(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to a YAML file.
func (c *Config) Save(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// RestWeekday resolves the configured rest day name to a time.Weekday.
func (c *Config) RestWeekday() (time.Weekday, error) {
	name := strings.TrimSpace(c.Cycles.RestDay)
	if name == "" {
		return time.Sunday, nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), name) {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("unknown rest day %q", name)
}

// Lock acquires the config mutex for multi-step mutations.
func (c *Config) Lock() { c.mu.Lock() }

// Unlock releases the config mutex.
func (c *Config) Unlock() { c.mu.Unlock() }
