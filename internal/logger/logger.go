// Package logger holds the process-wide slog logger used by the CLI and the
// HTTP server.
package logger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

const DateTimeMilli = "2006-01-02 15:04:05.000"

// Config selects the level and output format.
type Config struct {
	Level  string    // debug|info|warn|error
	Format string    // text|json
	Out    io.Writer // stderr when nil
}

var (
	log  *slog.Logger
	mu   sync.Mutex
	once sync.Once
)

// ParseLevel maps a level name to a slog level, info for unknown names.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// New builds a logger without touching the global one.
func New(cfg Config) *slog.Logger {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}
	lvl := ParseLevel(cfg.Level)

	if strings.EqualFold(cfg.Format, "json") {
		return NewZerolog(out, lvl)
	}
	return slog.New(tint.NewHandler(out, &tint.Options{
		AddSource:  lvl == slog.LevelDebug,
		Level:      lvl,
		NoColor:    !isTerminal(out),
		TimeFormat: DateTimeMilli,
	}))
}

// Init replaces the global logger.
func Init(cfg Config) {
	l := New(cfg)
	mu.Lock()
	log = l
	mu.Unlock()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	if fd > uintptr(^uint(0)>>1) {
		return false
	}
	return term.IsTerminal(int(fd))
}

// Log returns the global logger, initialising it at info level on first use.
func Log() *slog.Logger {
	once.Do(func() {
		mu.Lock()
		if log == nil {
			log = New(Config{Level: "info"})
		}
		mu.Unlock()
	})
	mu.Lock()
	defer mu.Unlock()
	return log
}

func Debug(msg string, args ...any) { Log().Debug(msg, args...) }
func Info(msg string, args ...any)  { Log().Info(msg, args...) }
func Warn(msg string, args ...any)  { Log().Warn(msg, args...) }
func Error(msg string, args ...any) { Log().Error(msg, args...) }

type ctxKey string

const (
	ctxReqIDKey  ctxKey = "request_id"
	ctxComponent ctxKey = "component"
)

// WithRequestID stores reqID in ctx, generating one when empty.
func WithRequestID(ctx context.Context, reqID string) context.Context {
	if reqID == "" {
		reqID = NewID()
	}
	return context.WithValue(ctx, ctxReqIDKey, reqID)
}

func WithComponent(ctx context.Context, component string) context.Context {
	if component == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxComponent, component)
}

// RequestID returns the request id stored in ctx, or "".
func RequestID(ctx context.Context) string {
	s, _ := ctx.Value(ctxReqIDKey).(string)
	return s
}

// FromContext returns parent with the context's request id and component
// attached.
func FromContext(ctx context.Context, parent *slog.Logger) *slog.Logger {
	if parent == nil {
		parent = Log()
	}
	for _, k := range []ctxKey{ctxReqIDKey, ctxComponent} {
		if s, ok := ctx.Value(k).(string); ok && s != "" {
			parent = parent.With(string(k), s)
		}
	}
	return parent
}

func NewID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
