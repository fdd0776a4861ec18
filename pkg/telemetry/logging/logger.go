// Package logging builds structured loggers from the telemetry
// configuration.
//
// Commands and long-running components construct one logger at startup
// and install it with slog.SetDefault; library packages receive a
// *slog.Logger from their caller and never configure output themselves.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"mercator-hq/ganymede/pkg/config"
)

// New builds a *slog.Logger writing to w according to cfg. A nil cfg
// selects the defaults (info level, JSON format) and a nil w writes to
// os.Stderr, keeping stdout free for command output.
func New(cfg *config.LoggingConfig, w io.Writer) (*slog.Logger, error) {
	if cfg == nil {
		cfg = &config.LoggingConfig{}
	}
	if w == nil {
		w = os.Stderr
	}

	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource}
	var handler slog.Handler
	switch cfg.Format {
	case "", "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	return slog.New(handler), nil
}

// parseLevel maps a configuration level name to a slog.Level. The
// empty string selects info.
func parseLevel(name string) (slog.Level, error) {
	switch name {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}
