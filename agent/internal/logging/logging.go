package logging

import (
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/savewarden/savewarden/agent/internal/config"
)

// Logger bundles the constructed logger with the handles needed to adjust
// and release it.
type Logger struct {
	*slog.Logger

	// Level controls the handler's minimum level and may be changed at runtime.
	Level *slog.LevelVar

	file *lumberjack.Logger
}

// New builds a Logger that writes to out and, when cfg.File is set, to a
// rotated log file as well.
func New(cfg config.LogConfig, out io.Writer) (*Logger, error) {
	lv := new(slog.LevelVar)
	lv.Set(cfg.SlogLevel())

	l := &Logger{Level: lv}
	w := out
	if cfg.File != "" {
		l.file = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		w = io.MultiWriter(out, l.file)
	}

	opts := &slog.HandlerOptions{Level: lv}
	var h slog.Handler
	switch cfg.Format {
	case "", "text":
		h = slog.NewTextHandler(w, opts)
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("logging: unknown format %q", cfg.Format)
	}
	l.Logger = slog.New(h)
	return l, nil
}

// SetLevel applies the level named in cfg. It is used by the config watcher.
func (l *Logger) SetLevel(cfg config.LogConfig) {
	lvl := cfg.SlogLevel()
	if l.Level.Level() == lvl {
		return
	}
	l.Level.Set(lvl)
	l.Info("logging: level changed", "level", lvl.String())
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
