// Package config holds the optional on-disk defaults cmd/kwpdash loads at
// startup: baud rate, ECU address, default measurement group, the directory
// used for raw session logs, and the debug dashboard settings. None of this is
// protocol or session state — nothing here is read by package kwp.
package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds dashboard defaults, overridable by CLI flags.
type Config struct {
	Baud      int             `yaml:"baud"`
	Addr      byte            `yaml:"addr"`
	Group     int             `yaml:"group"`
	LogDir    string          `yaml:"log_dir"`
	Dashboard DashboardConfig `yaml:"dashboard"`

	path string
}

// DashboardConfig configures the optional debug web dashboard.
type DashboardConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

// Default addresses, per spec.md §3.
const (
	AddrEngine      byte = 0x01
	AddrInstruments byte = 0x17
)

// Default returns a Config with the module's sensible defaults: 9600 baud,
// the instrument cluster address, measurement group 1, logs under ./logs.
func Default() *Config {
	return &Config{
		Baud:   9600,
		Addr:   AddrInstruments,
		Group:  1,
		LogDir: "logs",
		Dashboard: DashboardConfig{
			Enabled:    false,
			ListenAddr: ":8080",
		},
	}
}

// Load reads a YAML config file at path, falling back to Default() if the
// file does not exist or fails to parse.
func Load(path string) *Config {
	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("config: no file at %s, using defaults", path)
		return cfg
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		log.Printf("config: error parsing %s: %v, using defaults", path, err)
		return Default()
	}
	log.Printf("config: loaded from %s", path)
	return cfg
}

// Save writes cfg to path; an empty path means the file cfg was loaded from,
// and if cfg was never loaded either, kwpdash.yaml.
func (c *Config) Save(path string) error {
	if path == "" {
		path = c.path
	}
	if path == "" {
		path = "kwpdash.yaml"
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
