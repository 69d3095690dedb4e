// Package config loads application configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
)

// ErrMissingCredential is a fatal startup error: the application must not
// start without the API key for its configured generation backend.
var ErrMissingCredential = errors.New("missing credential")

type Config struct {
	ListenAddr string

	// Generation backend: "gemini" or "anthropic".
	GenerateBackend string
	GeminiAPIKey    string
	GeminiModel     string
	AnthropicAPIKey string
	AnthropicModel  string

	// Saved-recipe persistence: "file" or "sqlite".
	StorageBackend string
	DataDir        string
	DBPath         string

	// Camera backend: "none" disables capture (headless deployment).
	CameraBackend string

	LogLevel string
	LogFile  string
}

func Load() *Config {
	return &Config{
		ListenAddr:      getEnv("LISTEN_ADDR", ":8080"),
		GenerateBackend: getEnv("GENERATE_BACKEND", "gemini"),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		StorageBackend:  getEnv("STORAGE_BACKEND", "file"),
		DataDir:         getEnv("DATA_DIR", "/data"),
		DBPath:          getEnv("DB_PATH", "/data/fridgechef.db"),
		CameraBackend:   getEnv("CAMERA_BACKEND", "none"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFile:         getEnv("LOG_FILE", ""),
	}
}

// Validate checks that the configured generation backend has its credential.
// A missing key wraps ErrMissingCredential and must abort startup.
func (c *Config) Validate() error {
	switch c.GenerateBackend {
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY is required when GENERATE_BACKEND=gemini", ErrMissingCredential)
		}
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("%w: ANTHROPIC_API_KEY is required when GENERATE_BACKEND=anthropic", ErrMissingCredential)
		}
	default:
		return fmt.Errorf("unknown GENERATE_BACKEND %q", c.GenerateBackend)
	}

	switch c.StorageBackend {
	case "file", "sqlite":
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}
