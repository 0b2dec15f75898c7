package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	API   APIConfig
	Store StoreConfig
	Sync  SyncConfig
}

type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type StoreConfig struct {
	// Dir holds the token file. Defaults to ~/.config/taskdeck.
	Dir string
}

type SyncConfig struct {
	// SearchDebounce is the quiet period before a filter/search change
	// triggers a list refetch.
	SearchDebounce time.Duration
}

func Load() Config {
	// A .env next to the binary is a convenience for local use; absence is
	// not an error.
	_ = godotenv.Load()

	return Config{
		API: APIConfig{
			BaseURL: getenv("TASKDECK_API_URL", "http://localhost:8000"),
			Timeout: getdur("TASKDECK_TIMEOUT", 10*time.Second),
		},
		Store: StoreConfig{
			Dir: getenv("TASKDECK_CONFIG_DIR", defaultConfigDir()),
		},
		Sync: SyncConfig{
			SearchDebounce: getdur("TASKDECK_SEARCH_DEBOUNCE", 300*time.Millisecond),
		},
	}
}

func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskdeck"
	}
	return filepath.Join(home, ".config", "taskdeck")
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getdur(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return d
}
