// Package logger provides structured logging built on Go's slog package.
// It carries a subsystem name through context so that every component of a
// running system logs under the same label, and bridges to the test log in
// test code via slogt.
package logger

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/neilotoole/slogt"
)

// subsystem stores the default subsystem name for the process. It can be
// overridden per-context with WithSubsystem.
var subsystem atomic.Value //nolint:gochecknoglobals

// configMutex serializes calls to Configure, which mutates process-global
// logger state.
var configMutex sync.Mutex //nolint:gochecknoglobals

// contextKey is an unexported type for context values, preventing collisions
// with keys defined by other packages.
type contextKey string

const subsystemKey contextKey = "subsystem"

// Options configures logging behavior and output format.
type Options struct {
	// Subsystem identifies the component generating the logs, for example
	// "paxos-sync". Included in every log record.
	Subsystem string

	// JSON selects slog.JSONHandler output; text output otherwise.
	JSON bool

	// MinLevel is the minimum level that will be emitted.
	MinLevel slog.Level

	// Output is the destination for log output. Defaults to os.Stdout.
	Output io.Writer
}

// NewHandler creates a slog.Handler from the given options.
func NewHandler(opts Options) slog.Handler {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{
		Level: opts.MinLevel,
	}

	if opts.JSON {
		return slog.NewJSONHandler(opts.Output, handlerOpts)
	}

	return slog.NewTextHandler(opts.Output, handlerOpts)
}

// Configure configures logging for the process and returns the default logger.
// It sets the slog default, redirects the legacy log package into it, and
// records the default subsystem name. Safe for concurrent use.
func Configure(opts Options) *slog.Logger {
	configMutex.Lock()
	defer configMutex.Unlock()

	handler := NewHandler(opts)
	logger := slog.New(handler)

	slog.SetDefault(logger)

	// Third-party packages may still use the legacy log package.
	def := log.Default()
	*def = *slog.NewLogLogger(handler, slog.LevelInfo)

	subsystem.Store(opts.Subsystem)

	return logger
}

// WithSubsystem returns a context carrying the given subsystem name. Loggers
// obtained from that context via Get label their records with it.
func WithSubsystem(ctx context.Context, name string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, subsystemKey, name)
}

// GetSubsystem returns the subsystem name from the context, falling back to
// the process default set by Configure, then to the empty string.
func GetSubsystem(ctx context.Context) string {
	if ctx != nil {
		if name, ok := ctx.Value(subsystemKey).(string); ok {
			return name
		}
	}

	if name, ok := subsystem.Load().(string); ok {
		return name
	}

	return ""
}

// Get returns a logger for the given context. The logger is the process
// default with the context's subsystem attached, if one is set.
func Get(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if name := GetSubsystem(ctx); name != "" {
		logger = logger.With("subsystem", name)
	}

	return logger
}

// Debug logs a debug-level message using the logger from the context.
func Debug(ctx context.Context, msg string, args ...any) {
	Get(ctx).DebugContext(ctx, msg, args...)
}

// Info logs an info-level message using the logger from the context.
func Info(ctx context.Context, msg string, args ...any) {
	Get(ctx).InfoContext(ctx, msg, args...)
}

// Warn logs a warning-level message using the logger from the context.
func Warn(ctx context.Context, msg string, args ...any) {
	Get(ctx).WarnContext(ctx, msg, args...)
}

// Error logs an error-level message using the logger from the context.
func Error(ctx context.Context, msg string, args ...any) {
	Get(ctx).ErrorContext(ctx, msg, args...)
}

// Testing returns a logger that writes through t.Log, so that log output is
// captured per-test and only shown for failures.
func Testing(t *testing.T) *slog.Logger {
	t.Helper()

	return slogt.New(t)
}
