package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the console reads from the environment.
type Config struct {
	APIBaseURL  string
	DataDir     string
	HTTPTimeout time.Duration
	LogLevel    string
}

// Load reads an optional .env file and resolves the configuration with
// defaults suitable for a local service.
func Load() Config {
	_ = godotenv.Load()
	return Config{
		APIBaseURL:  getenv("BIBLIOTECA_API_URL", "http://localhost:5000"),
		DataDir:     getenv("BIBLIOTECA_DATA_DIR", defaultDataDir()),
		HTTPTimeout: getenvDuration("BIBLIOTECA_HTTP_TIMEOUT", 15*time.Second),
		LogLevel:    getenv("LOG_LEVEL", "info"),
	}
}

// SessionPath is the SQLite file the session store lives in.
func (c Config) SessionPath() string {
	return filepath.Join(c.DataDir, "session.db")
}

// LogPath is the log file; stdout belongs to the console UI.
func (c Config) LogPath() string {
	return filepath.Join(c.DataDir, "console.log")
}

func defaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(base, "biblioteca-admin")
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}
