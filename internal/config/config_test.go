package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ServerURL != "http://localhost:8080" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if cfg.RetryAttempts != 3 || cfg.RetryDelay != time.Second {
		t.Errorf("retry defaults = %d attempts, %v delay", cfg.RetryAttempts, cfg.RetryDelay)
	}
	if cfg.MaxUploadSize != 50<<20 {
		t.Errorf("MaxUploadSize = %d", cfg.MaxUploadSize)
	}
	if cfg.JobPollInterval != 5*time.Second || cfg.SuggestionPollInterval != 3*time.Second {
		t.Errorf("poll intervals = %v, %v", cfg.JobPollInterval, cfg.SuggestionPollInterval)
	}
	if cfg.Backend.ContainerName != "docagent-backend" || cfg.Backend.Port != "8080" {
		t.Errorf("backend defaults = %+v", cfg.Backend)
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)

	if !strings.HasPrefix(text, "# docagent configuration") {
		t.Errorf("missing header comment:\n%s", text)
	}
	for _, key := range []string{"server_url", "request_timeout", "max_upload_size", "backend"} {
		if !strings.Contains(text, key) {
			t.Errorf("written config missing %q:\n%s", key, text)
		}
	}
}
