package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.API.BaseURL != "http://localhost:8000" {
		t.Fatalf("base url = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Fatalf("timeout = %v", cfg.API.Timeout)
	}
	if cfg.Sync.SearchDebounce != 300*time.Millisecond {
		t.Fatalf("debounce = %v", cfg.Sync.SearchDebounce)
	}
	if cfg.Store.Dir == "" {
		t.Fatal("store dir must have a default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TASKDECK_API_URL", "https://todo.example.com")
	t.Setenv("TASKDECK_TIMEOUT", "3s")
	t.Setenv("TASKDECK_CONFIG_DIR", "/tmp/taskdeck-test")
	t.Setenv("TASKDECK_SEARCH_DEBOUNCE", "100ms")

	cfg := Load()

	if cfg.API.BaseURL != "https://todo.example.com" {
		t.Fatalf("base url = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 3*time.Second {
		t.Fatalf("timeout = %v", cfg.API.Timeout)
	}
	if cfg.Store.Dir != "/tmp/taskdeck-test" {
		t.Fatalf("store dir = %q", cfg.Store.Dir)
	}
	if cfg.Sync.SearchDebounce != 100*time.Millisecond {
		t.Fatalf("debounce = %v", cfg.Sync.SearchDebounce)
	}
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("TASKDECK_TIMEOUT", "soon")

	cfg := Load()
	if cfg.API.Timeout != 10*time.Second {
		t.Fatalf("timeout = %v, want default", cfg.API.Timeout)
	}
}
