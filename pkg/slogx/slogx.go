package slogx

import (
	"log/slog"
	"os"
	"strings"
)

// defaultService names the emitting process when Config.Service is empty.
// KonBase ships as a single binary, so one default covers every caller.
const defaultService = "konbase"

type Config struct {
	Service string // emitting service name; defaults to "konbase"
	Version string
	Env     string // e.g. "dev", "prod"
	Level   string // e.g. "debug", "info", "warn", "error"
	Format  string // e.g. "json", "text"
}

// New returns a configured slog.Logger and installs it as the default.
// Every record carries the service/version/env triple so log lines from
// different deployments can be told apart downstream.
func New(cfg Config) *slog.Logger {
	if cfg.Service == "" {
		cfg.Service = defaultService
	}

	opts := &slog.HandlerOptions{
		AddSource: cfg.Env == "dev",
		Level:     parseLevel(cfg.Level),
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler).With(
		"service", cfg.Service,
		"version", cfg.Version,
		"env", cfg.Env,
	)

	slog.SetDefault(logger)
	return logger
}

// Discard returns a logger that drops every record. Services take a logger
// as a required dependency; tests pass this instead of nil.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func parseLevel(lvl string) slog.Level {
	switch strings.ToLower(lvl) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
