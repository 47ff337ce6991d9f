package pbsetup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ConfigFileName is the persisted configuration file at the project
// root, read by the generated helper scripts.
const ConfigFileName = "pb_config.json"

// DefaultPort is used when no port is supplied.
const DefaultPort = 8090

// ProjectConfig is the persisted project configuration: the port the
// server listens on and the release version the project is pinned to.
type ProjectConfig struct {
	Port    int    `json:"port"`
	Version string `json:"version"`
}

// ValidatePort fails with ErrInvalidPort for ports outside
// [1024, 65535].
func ValidatePort(port int) error {
	if port < 1024 || port > 65535 {
		return fmt.Errorf("%w: got %d", ErrInvalidPort, port)
	}
	return nil
}

// LoadConfig reads the configuration at path. A missing file is not an
// error: it returns (nil, nil) so callers can distinguish "absent"
// from "unreadable".
func LoadConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg ProjectConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return &cfg, nil
}

// SaveConfig writes cfg to path, validating the port first.
func SaveConfig(path string, cfg *ProjectConfig) error {
	if err := ValidatePort(cfg.Port); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
