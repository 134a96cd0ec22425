// Package config loads application configuration from a flat JSON
// config file with environment-variable overrides.
package config

import (
	"os"
	"path/filepath"
)

type Config struct {
	Server  ServerConfig
	Models  ModelsConfig
	Storage StorageConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port     int
	APIToken string
}

// ModelsConfig holds the model identifiers offered during onboarding.
type ModelsConfig struct {
	SummaryModel       string
	TranscriptionModel string
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4600,
		},
		Models: ModelsConfig{
			SummaryModel:       "gemma3:1b",
			TranscriptionModel: "parakeet-tdt-0.6b-v3-int8",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "echonote-data"
		}
	}
	return filepath.Join(dir, "echonote")
}

// Load reads configuration from the config file backend and applies
// ECHONOTE_* environment-variable overrides. The backend is a JSON file
// at $XDG_CONFIG_HOME/echonote/config.json.
func Load() (Config, error) {
	return loadWith(newFileBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	return cfg, nil
}
