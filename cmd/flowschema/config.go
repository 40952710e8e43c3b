package main

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config holds the flowschema CLI configuration.
// Priority: flags > env vars > settings.json > defaults.
type Config struct {
	DBPath   string `json:"db_path"`
	LogLevel string `json:"log_level"`
	Output   string `json:"output"` // "-" for stdout
}

func defaultConfig() Config {
	return Config{
		DBPath:   filepath.Join(flowschemaDir(), "flowschema.db"),
		LogLevel: "info",
		Output:   "-",
	}
}

func flowschemaDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".flowschema"
	}
	return filepath.Join(home, ".flowschema")
}

func settingsPath() string {
	return filepath.Join(flowschemaDir(), "settings.json")
}

func loadConfig() Config {
	cfg := defaultConfig()

	// Layer 2: settings.json (ignore if missing).
	if data, err := os.ReadFile(settingsPath()); err == nil {
		_ = json.Unmarshal(data, &cfg)
	}

	// Layer 3: env vars override.
	if v := os.Getenv("FLOWSCHEMA_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("FLOWSCHEMA_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("FLOWSCHEMA_OUTPUT"); v != "" {
		cfg.Output = v
	}

	return cfg
}
