package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger shared by the API server and the
// worker. JSON output is for deployments; the text handler reads better on a
// workshop laptop.
func NewLogger(cfg *Config) *slog.Logger {
	if cfg != nil && cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
}
