package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	CompRegistry = "registry"
	CompRouter   = "router"
	CompSelector = "selector"
	CompDaemon   = "daemon"
	CompHooks    = "hooks"
	CompReminder = "reminder"
	CompStorage  = "storage"
	CompSpeech   = "speech"
	CompCLI      = "cli"
)

const logFileName = "cvoice.log"

type Config struct {
	// LogDir holds cvoice.log; empty discards everything.
	LogDir string

	// Level is one of "debug", "info", "warn", "error".
	Level string

	// Format is "json" (default) or "text".
	Format string

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

var (
	globalMu     sync.RWMutex
	globalLogger *slog.Logger
	rotator      *lumberjack.Logger
)

func Init(cfg Config) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	closeRotatorLocked()

	if strings.TrimSpace(cfg.LogDir) == "" {
		globalLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))
		return nil
	}

	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 5
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = 3
	}
	if cfg.MaxAgeDays <= 0 {
		cfg.MaxAgeDays = 14
	}

	if err := os.MkdirAll(cfg.LogDir, 0o700); err != nil {
		globalLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))
		return err
	}

	rotator = &lumberjack.Logger{
		Filename:   filepath.Join(cfg.LogDir, logFileName),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(rotator, opts)
	} else {
		handler = slog.NewJSONHandler(rotator, opts)
	}
	globalLogger = slog.New(handler)

	return nil
}

// InitWriter routes all logs to w. Used by tests and the foreground daemon.
func InitWriter(w io.Writer, level string) {
	globalMu.Lock()
	defer globalMu.Unlock()

	closeRotatorLocked()
	globalLogger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// Logger returns the global logger. Safe to call before Init.
func Logger() *slog.Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalLogger == nil {
		return slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return globalLogger
}

// ForComponent returns a logger tagged with component. The handler is looked
// up at log time so package-level loggers follow a later Init.
func ForComponent(name string) *slog.Logger {
	return slog.New(&dynamicHandler{component: name})
}

func Shutdown() {
	globalMu.Lock()
	defer globalMu.Unlock()

	closeRotatorLocked()
	globalLogger = nil
}

func closeRotatorLocked() {
	if rotator != nil {
		_ = rotator.Close()
		rotator = nil
	}
}

type dynamicHandler struct {
	component string
	attrs     []slog.Attr
	group     string
}

func (h *dynamicHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return Logger().Handler().Enabled(ctx, level)
}

func (h *dynamicHandler) Handle(ctx context.Context, r slog.Record) error {
	handler := Logger().Handler().WithAttrs([]slog.Attr{slog.String("component", h.component)})
	if len(h.attrs) > 0 {
		handler = handler.WithAttrs(h.attrs)
	}
	if h.group != "" {
		handler = handler.WithGroup(h.group)
	}
	return handler.Handle(ctx, r)
}

func (h *dynamicHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(merged, h.attrs)
	copy(merged[len(h.attrs):], attrs)
	return &dynamicHandler{component: h.component, attrs: merged, group: h.group}
}

func (h *dynamicHandler) WithGroup(name string) slog.Handler {
	return &dynamicHandler{component: h.component, attrs: h.attrs, group: name}
}
