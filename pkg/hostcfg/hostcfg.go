// Package hostcfg loads the reference host's configuration: a YAML
// file resolved through the XDG search path with environment variable
// overrides, the same shape the rest of the host tooling expects.
package hostcfg

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the host configuration.
type Config struct {
	// Skin names the boot skin.
	Skin string `yaml:"skin"`
	// SkinDir is an optional host directory mounted at /etc/skins.
	SkinDir string `yaml:"skin_dir"`
	// DataDir is an optional host directory overlaid read-only under /.
	DataDir string `yaml:"data_dir"`
	// Remote configures the remote shell listener.
	Remote RemoteConfig `yaml:"remote"`
	// Scale multiplies the virtual resolution for display.
	Scale int `yaml:"scale"`
	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
}

// RemoteConfig gates the PSK remote shell.
type RemoteConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	PSK     string `yaml:"psk"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Skin:     "classic",
		Scale:    2,
		LogLevel: "info",
		Remote:   RemoteConfig{Port: 2323},
	}
}

// Load reads configuration from the standard path. Search order:
//  1. $XDG_CONFIG_HOME/oasis/config.yaml
//  2. ~/.config/oasis/config.yaml
//
// A missing file yields Default.
func Load() (*Config, error) {
	for _, p := range searchPaths() {
		if _, err := os.Stat(p); err == nil {
			return LoadFromFile(p)
		}
	}
	return Default(), nil
}

// LoadFromFile reads configuration from a specific path.
func LoadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	defer f.Close()
	return LoadFromReader(f)
}

// LoadFromReader decodes configuration and applies env overrides.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("hostcfg: parse: %w", err)
	}
	applyEnvOverrides(cfg)
	if cfg.Scale < 1 {
		cfg.Scale = 1
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OASIS_SKIN"); v != "" {
		cfg.Skin = v
	}
	if v := os.Getenv("OASIS_PSK"); v != "" {
		cfg.Remote.PSK = v
		cfg.Remote.Enabled = true
	}
	if v := os.Getenv("OASIS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

func searchPaths() []string {
	var paths []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "oasis", "config.yaml"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "oasis", "config.yaml"))
	}
	return paths
}
