package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds all configuration for the application
type Config struct {
	APIURL      string `koanf:"api-url"`
	WebMode     bool   `koanf:"web"`
	Port        int    `koanf:"port"`
	Watch       bool   `koanf:"watch"`
	OpenBrowser bool   `koanf:"open"`
	ExportDir   string `koanf:"export-dir"`
	Timeout     int    `koanf:"timeout"`
	Debounce    int    `koanf:"debounce"`
	Cooldown    int    `koanf:"cooldown"`
	Verbosity   string `koanf:"verbosity"`
	VerboseCnt  int    `koanf:"verbose"`
}

// RequestTimeout is the per-request deadline for conversion service calls.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// SearchDebounce is the quiet period before a typed query fires a search.
func (c *Config) SearchDebounce() time.Duration {
	return time.Duration(c.Debounce) * time.Millisecond
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	defaults := map[string]interface{}{
		"api-url":    "http://localhost:8000",
		"web":        false,
		"port":       8080,
		"watch":      false,
		"open":       true,
		"export-dir": "exports",
		"timeout":    30,
		"debounce":   300,
		"cooldown":   100,
		"verbosity":  "",
		"verbose":    0,
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config File (optional) - edviz.toml
	// We ignore errors here as the file might not exist
	_ = k.Load(file.Provider("edviz.toml"), toml.Parser())

	// 3. Environment Variables
	// Prefix: EDVIZ_ (e.g., EDVIZ_PORT=9090, EDVIZ_API_URL=...)
	if err := k.Load(env.Provider("EDVIZ_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, "EDVIZ_")), "_", "-")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// Unmarshal into struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
