package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultPath is used when neither a flag nor CASEBOOK_CONFIG names a file.
const DefaultPath = "./casebook.yaml"

// EnvPath names the environment variable holding the config file path.
const EnvPath = "CASEBOOK_CONFIG"

// Load reads and validates the configuration.
// Priority: ENV > YAML > defaults (via env-default tags).
// The YAML path is path if non-empty, else CASEBOOK_CONFIG, else
// ./casebook.yaml. An explicitly named file must exist; when the default file
// is absent the config comes from ENV + defaults only.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}

// Read is Load without validation. `firm add` uses it to bootstrap a config
// that does not list any firm yet.
func Read(path string) (*Config, error) {
	var cfg Config

	path, explicit := Resolve(path)

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		cfg.path = path
	} else if explicit || !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else {
		return Defaults()
	}

	return &cfg, nil
}

// Defaults returns the configuration built from ENV and env-default tags
// alone, with no firms.
func Defaults() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	return &cfg, nil
}

// Resolve picks the config file path and reports whether it was named
// explicitly.
func Resolve(path string) (string, bool) {
	if path != "" {
		return path, true
	}
	if env := os.Getenv(EnvPath); env != "" {
		return env, true
	}
	return DefaultPath, false
}
