package config

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultListenAddr  = ":8888"
	defaultDBPath      = "graphmark.db"
	defaultOpTimeoutMS = 10
	defaultSampleSize  = 100000
	defaultRunnerURL   = "http://127.0.0.1:8889"
	defaultCallbackURL = "http://127.0.0.1:8888/progress"

	envListenAddr  = "GRAPHMARK_LISTEN_ADDR"
	envDBPath      = "GRAPHMARK_DB_PATH"
	envLogLevel    = "GRAPHMARK_LOG_LEVEL"
	envOpTimeoutMS = "GRAPHMARK_OP_TIMEOUT_MS"
	envSampleSize  = "GRAPHMARK_SAMPLE_SIZE"
	envContainer   = "GRAPHMARK_CONTAINER"
	envRunnerURL   = "GRAPHMARK_RUNNER_URL"
	envCallbackURL = "GRAPHMARK_CALLBACK_URL"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	ListenAddr string
	DBPath     string
	LogLevel   slog.Level

	// OpTimeout is the per-operation share of a subtask deadline: a subtask
	// reporting num_ops operations gets num_ops*OpTimeout before it is
	// aborted. The 10ms default is a heuristic, not a calibrated figure.
	OpTimeout time.Duration

	// SampleSize bounds the reservoir samples taken during a dataset scan.
	SampleSize int

	// Container names the execution container to stop when a subtask
	// deadline expires. Empty disables the stop hook.
	Container string

	// RunnerURL is the base URL of the in-container runner's execute
	// endpoint.
	RunnerURL string

	// CallbackURL is where the runner posts progress events, as seen from
	// inside the container.
	CallbackURL string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	cfg := Config{
		ListenAddr:  defaultListenAddr,
		DBPath:      defaultDBPath,
		LogLevel:    slog.LevelInfo,
		OpTimeout:   defaultOpTimeoutMS * time.Millisecond,
		SampleSize:  defaultSampleSize,
		RunnerURL:   defaultRunnerURL,
		CallbackURL: defaultCallbackURL,
	}

	if v := os.Getenv(envListenAddr); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv(envDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(envLogLevel); v != "" {
		cfg.LogLevel = parseLogLevel(v)
	}
	if v := os.Getenv(envOpTimeoutMS); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.OpTimeout = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv(envSampleSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SampleSize = n
		}
	}
	if v := os.Getenv(envContainer); v != "" {
		cfg.Container = v
	}
	if v := os.Getenv(envRunnerURL); v != "" {
		cfg.RunnerURL = v
	}
	if v := os.Getenv(envCallbackURL); v != "" {
		cfg.CallbackURL = v
	}

	return cfg
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a structured JSON logger writing to w at the configured level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
