package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"GRAPHMARK_LISTEN_ADDR", "GRAPHMARK_DB_PATH", "GRAPHMARK_LOG_LEVEL",
		"GRAPHMARK_OP_TIMEOUT_MS", "GRAPHMARK_SAMPLE_SIZE", "GRAPHMARK_CONTAINER",
		"GRAPHMARK_RUNNER_URL", "GRAPHMARK_CALLBACK_URL",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.ListenAddr != ":8888" {
		t.Errorf("ListenAddr = %q, want :8888", cfg.ListenAddr)
	}
	if cfg.DBPath != "graphmark.db" {
		t.Errorf("DBPath = %q, want graphmark.db", cfg.DBPath)
	}
	if cfg.OpTimeout != 10*time.Millisecond {
		t.Errorf("OpTimeout = %v, want 10ms", cfg.OpTimeout)
	}
	if cfg.SampleSize != 100000 {
		t.Errorf("SampleSize = %d, want 100000", cfg.SampleSize)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
	if cfg.RunnerURL != "http://127.0.0.1:8889" {
		t.Errorf("RunnerURL = %q", cfg.RunnerURL)
	}
	if cfg.CallbackURL != "http://127.0.0.1:8888/progress" {
		t.Errorf("CallbackURL = %q", cfg.CallbackURL)
	}
	if cfg.Container != "" {
		t.Errorf("Container = %q, want empty (stop hook disabled)", cfg.Container)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GRAPHMARK_LISTEN_ADDR", ":9999")
	t.Setenv("GRAPHMARK_DB_PATH", "/tmp/bench.db")
	t.Setenv("GRAPHMARK_LOG_LEVEL", "debug")
	t.Setenv("GRAPHMARK_OP_TIMEOUT_MS", "25")
	t.Setenv("GRAPHMARK_SAMPLE_SIZE", "5000")
	t.Setenv("GRAPHMARK_CONTAINER", "bench-runner")
	t.Setenv("GRAPHMARK_RUNNER_URL", "http://10.0.0.5:9000")
	t.Setenv("GRAPHMARK_CALLBACK_URL", "http://host.docker.internal:8888/progress")

	cfg := Load()

	if cfg.ListenAddr != ":9999" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.DBPath != "/tmp/bench.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
	if cfg.OpTimeout != 25*time.Millisecond {
		t.Errorf("OpTimeout = %v, want 25ms", cfg.OpTimeout)
	}
	if cfg.SampleSize != 5000 {
		t.Errorf("SampleSize = %d, want 5000", cfg.SampleSize)
	}
	if cfg.Container != "bench-runner" {
		t.Errorf("Container = %q", cfg.Container)
	}
	if cfg.RunnerURL != "http://10.0.0.5:9000" {
		t.Errorf("RunnerURL = %q", cfg.RunnerURL)
	}
	if cfg.CallbackURL != "http://host.docker.internal:8888/progress" {
		t.Errorf("CallbackURL = %q", cfg.CallbackURL)
	}
}

func TestLoadIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("GRAPHMARK_OP_TIMEOUT_MS", "not-a-number")
	t.Setenv("GRAPHMARK_SAMPLE_SIZE", "-5")

	cfg := Load()

	if cfg.OpTimeout != 10*time.Millisecond {
		t.Errorf("OpTimeout = %v, want default on bad input", cfg.OpTimeout)
	}
	if cfg.SampleSize != 100000 {
		t.Errorf("SampleSize = %d, want default on bad input", cfg.SampleSize)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"Warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
