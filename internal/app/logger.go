package app

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds the process logger. Production always emits JSON;
// elsewhere LOG_FORMAT picks the handler, defaulting to text for local runs.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}

	format := ""
	if cfg != nil {
		format = cfg.LogFormat
	}
	var handler slog.Handler
	if cfg.IsProduction() || strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler).With(slog.String("app", "veloura"))
	slog.SetDefault(logger)
	return logger
}
