// Package config holds the persisted form of a clicker run: the document
// written to the cache after interactive setup and accepted by --config.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

const (
	CommandRun       = "run"
	CommandRunLegacy = "run-legacy"

	DefaultCooldownMS = 25
)

// Config describes one run. Bindings are key names (BTN_SIDE, KEY_F8) or
// numeric codes; an empty binding is unbound.
type Config struct {
	Command              string `json:"command" yaml:"command" toml:"command"`
	Device               string `json:"device" yaml:"device" toml:"device"`
	CooldownMS           uint64 `json:"cooldown_ms" yaml:"cooldown_ms" toml:"cooldown_ms"`
	CooldownPressRelease uint64 `json:"cooldown_press_release_ms" yaml:"cooldown_press_release_ms" toml:"cooldown_press_release_ms"`
	Left                 string `json:"left,omitempty" yaml:"left,omitempty" toml:"left,omitempty"`
	Middle               string `json:"middle,omitempty" yaml:"middle,omitempty" toml:"middle,omitempty"`
	Right                string `json:"right,omitempty" yaml:"right,omitempty" toml:"right,omitempty"`
	LockUnlock           string `json:"lock_unlock,omitempty" yaml:"lock_unlock,omitempty" toml:"lock_unlock,omitempty"`
	Hold                 bool   `json:"hold" yaml:"hold" toml:"hold"`
	Grab                 bool   `json:"grab" yaml:"grab" toml:"grab"`
}

func Default() Config {
	return Config{
		Command:    CommandRun,
		CooldownMS: DefaultCooldownMS,
	}
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var result *multierror.Error

	if strings.TrimSpace(c.Device) == "" {
		result = multierror.Append(result, errors.New("device is empty"))
	}
	if c.CooldownMS == 0 {
		result = multierror.Append(result, errors.New("cooldown_ms must be > 0"))
	}

	switch c.Command {
	case CommandRun:
		if c.Left == "" && c.Middle == "" && c.Right == "" {
			result = multierror.Append(result, errors.New("run needs at least one of left, middle or right"))
		}
	case CommandRunLegacy:
		if c.Left != "" || c.Middle != "" || c.Right != "" || c.LockUnlock != "" {
			result = multierror.Append(result, errors.New("run-legacy uses fixed bindings; remove left/middle/right/lock_unlock"))
		}
		if c.Hold || c.Grab {
			result = multierror.Append(result, errors.New("run-legacy supports neither hold nor grab"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("unknown command %q (expected %s|%s)", c.Command, CommandRun, CommandRunLegacy))
	}

	return result.ErrorOrNil()
}

// Load reads path, picking the format from its extension, on top of Default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return Config{}, fmt.Errorf("decode TOML: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode YAML: %w", err)
		}
	case ".json", "":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode JSON: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg atomically in the format implied by path.
func Save(path string, cfg Config) error {
	data, err := encode(path, cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to persist config: %w", err)
	}
	return nil
}

func encode(path string, cfg Config) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case ".yaml", ".yml":
		return yaml.Marshal(cfg)
	case ".json", "":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
}
