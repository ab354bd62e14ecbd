package logs

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/carolhungwt/physio-doctor-platform/config"
	"github.com/carolhungwt/physio-doctor-platform/pkg/constants"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds a logger from config, supporting multi-output fan-out.
// The returned func flushes buffered outputs and must be called on exit.
func New(cfg *config.Config) (*slog.Logger, func()) {
	level := parseLevel(cfg.Logging.Level)
	isDev := strings.EqualFold(cfg.Server.Environment, "development")
	out := cfg.Logging.Output

	var writers []io.Writer

	if out.Stdout || (!out.File.Enabled && !out.Loki.Enabled) {
		writers = append(writers, os.Stdout)
	}

	var rotator *lumberjack.Logger
	if out.File.Enabled {
		rotator = &lumberjack.Logger{
			Filename:   out.File.Path,
			MaxSize:    out.File.MaxSizeMB,
			MaxBackups: out.File.MaxBackups,
			MaxAge:     out.File.MaxAgeDays,
			Compress:   out.File.Compress,
		}
		writers = append(writers, rotator)
	}

	var handlers []slog.Handler
	if len(writers) > 0 {
		w := io.MultiWriter(writers...)
		opts := &slog.HandlerOptions{
			Level:     level,
			AddSource: isDev,
		}
		if strings.EqualFold(cfg.Logging.Format, "json") || !isDev {
			handlers = append(handlers, slog.NewJSONHandler(w, opts))
		} else {
			handlers = append(handlers, slog.NewTextHandler(w, opts))
		}
	}

	stops := []func(){}
	if rotator != nil {
		stops = append(stops, func() { _ = rotator.Close() })
	}

	if out.Loki.Enabled {
		h, stop, err := newLokiHandler(cfg, level)
		if err != nil {
			// stdout is still available; report and continue without Loki
			slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("loki handler disabled", "error", err)
		} else {
			handlers = append(handlers, h)
			stops = append(stops, stop)
		}
	}

	var h slog.Handler
	if len(handlers) == 1 {
		h = handlers[0]
	} else {
		h = &multiHandler{handlers: handlers}
	}

	logger := slog.New(h).With(
		slog.String("service", cfg.Observability.ServiceName),
		slog.String("version", cfg.Observability.ServiceVersion),
		slog.String("env", cfg.Server.Environment),
	)

	return logger, func() {
		for _, stop := range stops {
			stop()
		}
	}
}

func Default() *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: false,
	})
	return slog.New(h).With(slog.String("service", constants.ServiceName))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
