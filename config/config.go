// Package config loads cmd/vasm's optional vasm.toml configuration
// file, the way lookbusy1344-arm_emulator/config loads emulator
// settings: a struct of grouped settings with sensible defaults,
// overridden field by field when a TOML file is present.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds cmd/vasm's configurable behavior.
type Config struct {
	Assemble struct {
		DefaultOrigin    string `toml:"default_origin"` // hex, "$"/"0x" prefix optional; seeds the location counter
		OutputDir        string `toml:"output_dir"`     // redirects default -o/-map output here when set
		WarningsAsErrors bool   `toml:"warnings_as_errors"`
		EmitSourceMap    bool   `toml:"emit_source_map"`
	} `toml:"assemble"`

	Repl struct {
		Prompt      string `toml:"prompt"`
		HistorySize int    `toml:"history_size"`
	} `toml:"repl"`
}

// DefaultConfig returns the configuration cmd/vasm uses when no
// vasm.toml is found.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Assemble.DefaultOrigin = "0x0000"
	cfg.Assemble.OutputDir = ""
	cfg.Assemble.WarningsAsErrors = false
	cfg.Assemble.EmitSourceMap = true
	cfg.Repl.Prompt = "vasm> "
	cfg.Repl.HistorySize = 100
	return cfg
}

// Load reads path, merging it over DefaultConfig. A missing file is
// not an error; it simply yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to path in TOML form, creating its parent directory
// if necessary.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	f, err := os.Create(path) // #nosec G304 -- user-specified config path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
