package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const formatConsole = "console"

// Options configures the structured logger.
type Options struct {
	ServiceName string
	// Environment is stamped on every line when set (dev, prod).
	Environment string
	Level       zerolog.Level
	Format      string
	WarnStack   bool
	Output      io.Writer
}

type Logger struct {
	base      *zerolog.Logger
	warnStack bool
}

type ctxKey struct{}

func New(opts Options) *Logger {
	if opts.Level == zerolog.NoLevel {
		opts.Level = zerolog.InfoLevel
	}

	var output io.Writer = opts.Output
	if output == nil {
		output = os.Stderr
	}
	if strings.EqualFold(strings.TrimSpace(opts.Format), formatConsole) {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: "15:04:05",
		}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	fields := zerolog.
		New(output).
		With().
		Timestamp().
		Str("service", opts.ServiceName)
	if env := strings.TrimSpace(opts.Environment); env != "" {
		fields = fields.Str("env", env)
	}
	logger := fields.Logger().Level(opts.Level)

	return &Logger{
		base:      &logger,
		warnStack: opts.WarnStack,
	}
}

// Nop returns a logger that discards everything; handy for tests.
func Nop() *Logger {
	logger := zerolog.Nop()
	return &Logger{base: &logger}
}

func ParseLevel(value string) zerolog.Level {
	levelString := strings.ToLower(strings.TrimSpace(value))
	if levelString == "" {
		return zerolog.InfoLevel
	}
	if lvl, err := zerolog.ParseLevel(levelString); err == nil {
		return lvl
	}
	return zerolog.InfoLevel
}

func (l *Logger) loggerFromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return l.base
	}
	if entry, ok := ctx.Value(ctxKey{}).(*zerolog.Logger); ok {
		return entry
	}
	return l.base
}

func (l *Logger) attach(ctx context.Context, entry zerolog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	entr := entry
	return context.WithValue(ctx, ctxKey{}, &entr)
}

func (l *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	entry := l.loggerFromContext(ctx)
	return l.attach(ctx, entry.With().Interface(key, value).Logger())
}

func (l *Logger) WithFields(ctx context.Context, fields map[string]any) context.Context {
	entry := l.loggerFromContext(ctx)
	builder := entry.With()
	for k, v := range fields {
		builder = builder.Interface(k, v)
	}
	return l.attach(ctx, builder.Logger())
}

func (l *Logger) WithRequestID(ctx context.Context, requestID string) context.Context {
	return l.WithField(ctx, "request_id", requestID)
}

func (l *Logger) WithUserID(ctx context.Context, userID string) context.Context {
	return l.WithField(ctx, "user_id", userID)
}

func (l *Logger) WithEndpoint(ctx context.Context, endpoint string) context.Context {
	return l.WithField(ctx, "endpoint", endpoint)
}

// WithView tags lines with the screen that issued them and the request
// generation it was issued under.
func (l *Logger) WithView(ctx context.Context, view string, generation uint64) context.Context {
	entry := l.loggerFromContext(ctx)
	return l.attach(ctx, entry.With().Str("view", view).Uint64("generation", generation).Logger())
}

func (l *Logger) WithMode(ctx context.Context, mode string) context.Context {
	return l.WithField(ctx, "mode", mode)
}

// WithCall records the outcome of one outbound request.
func (l *Logger) WithCall(ctx context.Context, method string, status int, took time.Duration) context.Context {
	entry := l.loggerFromContext(ctx)
	return l.attach(ctx, entry.With().
		Str("method", method).
		Int("status", status).
		Int64("duration_ms", took.Milliseconds()).
		Logger())
}

// Discarded notes a response that arrived after its view moved on.
func (l *Logger) Discarded(ctx context.Context, view string, generation uint64) {
	l.loggerFromContext(ctx).Debug().
		Str("view", view).
		Uint64("stale_generation", generation).
		Msg(view + ".stale_response_discarded")
}

func (l *Logger) Debug(ctx context.Context, msg string) {
	l.loggerFromContext(ctx).Debug().Msg(msg)
}

func (l *Logger) Info(ctx context.Context, msg string) {
	l.loggerFromContext(ctx).Info().Msg(msg)
}

func (l *Logger) Warn(ctx context.Context, msg string) {
	event := l.loggerFromContext(ctx).Warn()
	if l.warnStack {
		event = event.Str("stack", stackTrace())
	}
	event.Msg(msg)
}

func (l *Logger) Error(ctx context.Context, msg string, err error) {
	event := l.loggerFromContext(ctx).Error()
	if err != nil {
		event = event.Err(err)
	}
	event.Str("stack", stackTrace()).Msg(msg)
}

func stackTrace() string {
	return strings.TrimSpace(string(debug.Stack()))
}
