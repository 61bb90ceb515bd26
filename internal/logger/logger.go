package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"newshub/internal/config"
)

// New создает и настраивает логгер приложения на основе конфигурации.
// При выводе в stdout ошибки идут в stderr, при выводе в файл - в отдельный файл ошибок.
func New(cfg config.LoggerConfig) (*slog.Logger, error) {
	logWriter, errorWriter, err := openWriters(cfg)
	if err != nil {
		return nil, err
	}
	handler := NewLevelDispatcherHandler(logWriter, errorWriter, &slog.HandlerOptions{
		AddSource: cfg.Level == "debug",
		Level:     parseLogLevel(cfg.Level),
	})
	return slog.New(handler), nil
}

func openWriters(cfg config.LoggerConfig) (io.Writer, io.Writer, error) {
	switch cfg.Output {
	case "", config.LogOutputStdout:
		return os.Stdout, os.Stderr, nil
	case config.LogOutputFile:
		logWriter, err := openFile(cfg.File)
		if err != nil {
			return nil, nil, err
		}
		errorWriter, err := openFile(cfg.ErrorFile)
		if err != nil {
			logWriter.Close()
			return nil, nil, err
		}
		return logWriter, errorWriter, nil
	default:
		return nil, nil, fmt.Errorf("unknown log output %q", cfg.Output)
	}
}

func openFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return f, nil
}

// parseLogLevel преобразует строковое представление уровня логирования в тип slog.Level.
// Поддерживает уровни: debug, info, warn, error.
func parseLogLevel(levelStr string) slog.Level {
	switch levelStr {
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

// LevelDispatcherHandler реализует slog.Handler с маршрутизацией сообщений по уровням.
// Сообщения уровня ERROR и выше направляются в errorHandler, остальные - в defaultHandler.
type LevelDispatcherHandler struct {
	defaultHandler slog.Handler
	errorHandler   slog.Handler
}

// NewLevelDispatcherHandler создает новый обработчик логов с маршрутизацией по уровням.
func NewLevelDispatcherHandler(defaultOut, errorOut io.Writer, opts *slog.HandlerOptions) *LevelDispatcherHandler {
	return &LevelDispatcherHandler{
		defaultHandler: NewReadableHandler(defaultOut, opts),
		errorHandler:   NewReadableHandler(errorOut, opts),
	}
}

func (h *LevelDispatcherHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.defaultHandler.Enabled(ctx, level)
}

func (h *LevelDispatcherHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return h.errorHandler.Handle(ctx, r)
	}
	return h.defaultHandler.Handle(ctx, r)
}

func (h *LevelDispatcherHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LevelDispatcherHandler{
		defaultHandler: h.defaultHandler.WithAttrs(attrs),
		errorHandler:   h.errorHandler.WithAttrs(attrs),
	}
}

func (h *LevelDispatcherHandler) WithGroup(name string) slog.Handler {
	return &LevelDispatcherHandler{
		defaultHandler: h.defaultHandler.WithGroup(name),
		errorHandler:   h.errorHandler.WithGroup(name),
	}
}

// ReadableHandler реализует slog.Handler с удобочитаемым форматированием логов:
// [время] УРОВЕНЬ [компонент] (операция) <источник>: сообщение | ключ=значение.
type ReadableHandler struct {
	w      io.Writer
	opts   *slog.HandlerOptions
	attrs  []slog.Attr
	groups []string
}

// NewReadableHandler создает новый обработчик с читаемым форматированием.
// Если opts равен nil, используются настройки по умолчанию.
func NewReadableHandler(w io.Writer, opts *slog.HandlerOptions) *ReadableHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &ReadableHandler{w: w, opts: opts}
}

func (h *ReadableHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

func (h *ReadableHandler) Handle(_ context.Context, r slog.Record) error {
	var component, operation string
	var parts []string
	collect := func(a slog.Attr, prefix string) {
		switch {
		case prefix == "" && a.Key == "component":
			component = a.Value.String()
		case prefix == "" && a.Key == "op":
			operation = a.Value.String()
		default:
			parts = append(parts, h.formatAttr(a, prefix))
		}
	}
	for _, a := range h.attrs {
		collect(a, "")
	}
	groupPrefix := strings.Join(h.groups, ".")
	if groupPrefix != "" {
		groupPrefix += "."
	}
	r.Attrs(func(a slog.Attr) bool {
		collect(a, groupPrefix)
		return true
	})

	var prefix strings.Builder
	fmt.Fprintf(&prefix, "[%s] %s", r.Time.Format("15:04:05.000"), formatLevel(r.Level))
	if component != "" {
		fmt.Fprintf(&prefix, " [%s]", component)
	}
	if operation != "" {
		fmt.Fprintf(&prefix, " (%s)", operation)
	}
	if h.opts.AddSource && r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		fmt.Fprintf(&prefix, " <%s:%d>", filepath.Base(frame.File), frame.Line)
	}
	message := r.Message
	if len(parts) > 0 {
		message += " | " + strings.Join(parts, ", ")
	}
	_, err := fmt.Fprintf(h.w, "%s: %s\n", prefix.String(), message)
	return err
}

func formatLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// formatAttr форматирует атрибут: ошибки в кавычках, длинные URL сокращаются,
// длительности округляются до миллисекунд.
func (h *ReadableHandler) formatAttr(attr slog.Attr, prefix string) string {
	key := prefix + attr.Key
	value := attr.Value.Resolve()
	switch {
	case attr.Key == "error":
		return fmt.Sprintf("%s=%q", key, value.String())
	case attr.Key == "url":
		return fmt.Sprintf("%s=%s", key, shortenURL(value.String()))
	case value.Kind() == slog.KindDuration:
		return fmt.Sprintf("%s=%s", key, value.Duration().Round(time.Millisecond))
	case value.Kind() == slog.KindGroup:
		nested := make([]string, 0, len(value.Group()))
		for _, a := range value.Group() {
			nested = append(nested, h.formatAttr(a, key+"."))
		}
		return strings.Join(nested, ", ")
	default:
		return fmt.Sprintf("%s=%s", key, value.String())
	}
}

// shortenURL сокращает длинные URL до схемы и домена.
func shortenURL(url string) string {
	if len(url) > 50 {
		parts := strings.Split(url, "/")
		if len(parts) >= 3 {
			return fmt.Sprintf("%s//%s/...", parts[0], parts[2])
		}
	}
	return url
}

// WithAttrs возвращает копию обработчика с добавленными атрибутами.
// Атрибуты внутри открытой группы получают ее префикс.
func (h *ReadableHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.attrs = append([]slog.Attr(nil), h.attrs...)
	if len(h.groups) > 0 {
		prefix := strings.Join(h.groups, ".")
		for _, a := range attrs {
			clone.attrs = append(clone.attrs, slog.Attr{Key: prefix + "." + a.Key, Value: a.Value})
		}
		return &clone
	}
	clone.attrs = append(clone.attrs, attrs...)
	return &clone
}

func (h *ReadableHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}
