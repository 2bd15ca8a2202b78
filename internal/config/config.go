package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/xwire/internal/logging"
	"github.com/danmuck/xwire/internal/protocol/schema"
	"github.com/danmuck/xwire/internal/protocol/wire"
)

// Config is the xwirectl runtime configuration.
type Config struct {
	// Catalog is the schema catalogue path. Empty selects the built-in core
	// types.
	Catalog         string
	MaxMessageBytes int
	LogLevel        string
	LogNoColor      bool
	Workers         int
}

// xwirectl config.toml key mapping.
type fileConfig struct {
	Catalog         string `toml:"catalog"`
	MaxMessageBytes int    `toml:"max_message_bytes"`
	LogLevel        string `toml:"log_level"`
	LogNoColor      bool   `toml:"log_nocolor"`
	Workers         int    `toml:"workers"`
}

func DefaultConfig() Config {
	return Config{
		MaxMessageBytes: wire.DefaultLimits().MaxMessageBytes,
		LogLevel:        "info",
		Workers:         runtime.NumCPU(),
	}
}

// Load overlays the keys defined in path on the defaults. A relative
// catalog path resolves against the config file's directory.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config parse failed (%s): unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("catalog") {
		cfg.Catalog = resolve(path, raw.Catalog)
	}
	if meta.IsDefined("max_message_bytes") {
		cfg.MaxMessageBytes = raw.MaxMessageBytes
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("log_nocolor") {
		cfg.LogNoColor = raw.LogNoColor
	}
	if meta.IsDefined("workers") {
		cfg.Workers = raw.Workers
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func resolve(configPath, p string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(configPath), p)
}

func Validate(cfg Config) error {
	if cfg.MaxMessageBytes < 0 {
		return fmt.Errorf("config max_message_bytes must not be negative")
	}
	if cfg.Workers < 1 {
		return fmt.Errorf("config workers must be at least 1")
	}
	if _, ok := logging.ParseLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("config log_level invalid: %q", cfg.LogLevel)
	}
	if cfg.Catalog != "" {
		if _, err := os.Stat(cfg.Catalog); err != nil {
			return fmt.Errorf("config catalog %q: %w", cfg.Catalog, err)
		}
	}
	return nil
}

func (c Config) Limits() wire.Limits {
	return wire.Limits{MaxMessageBytes: c.MaxMessageBytes}
}

// LoadCatalog compiles the configured catalogue, or returns nil when none
// is configured.
func (c Config) LoadCatalog() (*schema.Catalog, error) {
	if c.Catalog == "" {
		return nil, nil
	}
	return schema.Load(c.Catalog)
}
