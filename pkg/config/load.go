package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file values
const (
	EnvHost     = "KAGI_HOST"
	EnvToken    = "KAGI_TOKEN"
	EnvEmail    = "KAGI_EMAIL"
	EnvPassword = "KAGI_PASSWORD"
	EnvOTP      = "KAGI_OTP"
)

// Format is a config file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatOf picks the encoding from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported config file extension %q (use .yaml, .toml or .json)", filepath.Ext(path))
	}
}

// DefaultPath returns ~/.kagisearch/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".kagisearch", "config.yaml"), nil
}

// Load reads the configuration at path over the defaults, applies
// environment overrides and validates the result. An empty path loads the
// default path if that file exists.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(path, data, cfg); err != nil {
			return nil, err
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// No config file yet, use defaults
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	ApplyEnv(cfg, os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}

	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, cfg)
	case FormatTOML:
		err = toml.Unmarshal(data, cfg)
	case FormatJSON:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides cfg with the KAGI_* variables that lookup reports as set.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	overrides := []struct {
		name  string
		field *string
	}{
		{EnvHost, &cfg.Host},
		{EnvToken, &cfg.Credentials.Token},
		{EnvEmail, &cfg.Credentials.Email},
		{EnvPassword, &cfg.Credentials.Password},
		{EnvOTP, &cfg.Credentials.OTP},
	}
	for _, o := range overrides {
		if v, ok := lookup(o.name); ok && v != "" {
			*o.field = v
		}
	}
}

// Save writes cfg to path in the format its extension names. The file is
// replaced atomically and readable by the owner only, since it may hold
// credentials.
func Save(path string, cfg *Config) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
	case FormatTOML:
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
	case FormatJSON:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
	}

	return WriteFileAtomic(path, buf.Bytes(), 0600)
}

// WriteFileAtomic writes data to a temp file next to path and renames it
// into place, creating the parent directory if needed.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tempPath := path + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
