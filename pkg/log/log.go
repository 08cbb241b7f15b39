// Package log is the process-wide structured logger, a thin layer over zap
// that also hands out logr adapters.
package log

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is implemented by every logger this package returns.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	// Error logs at error level; err may be nil.
	Error(err error, msg string, keysAndValues ...any)

	WithName(name string) Logger
	WithValues(keysAndValues ...any) Logger

	// Logr adapts the logger for libraries that take a logr.Logger.
	Logr() logr.Logger
}

var _ Logger = (*zapLogger)(nil)

type zapLogger struct {
	core  *zap.Logger
	level zap.AtomicLevel
}

var (
	initOnce sync.Once

	std Logger = NewNopLogger()
	// pkg is std seen from one more stack frame, for the package-level helpers.
	pkg Logger = std
)

// NewLogger builds a logger from opts, falling back to NewOptions when nil.
// It panics if an output path cannot be opened.
func NewLogger(opts *Options) Logger {
	if opts == nil {
		opts = NewOptions()
	}

	level := zap.NewAtomicLevelAt(parseLevel(opts.Level))

	paths := opts.OutputPaths
	if len(paths) == 0 {
		paths = []string{"stdout"}
	}
	sink, _, err := zap.Open(paths...)
	if err != nil {
		panic(fmt.Sprintf("log: open %v: %v", paths, err))
	}
	errSink, _, err := zap.Open("stderr")
	if err != nil {
		panic(fmt.Sprintf("log: open stderr: %v", err))
	}

	zo := []zap.Option{
		zap.ErrorOutput(errSink),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.AddCallerSkip(1),
	}
	if opts.Caller {
		zo = append(zo, zap.AddCaller())
	}

	l := zap.New(zapcore.NewCore(newEncoder(opts), sink, level), zo...)
	if opts.Name != "" {
		l = l.Named(opts.Name)
	}
	return &zapLogger{core: l, level: level}
}

func newEncoder(opts *Options) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.MessageKey = "message"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncodeDuration = func(d time.Duration, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendFloat64(float64(d) / float64(time.Millisecond))
	}

	if opts.Format == FormatJSON {
		return zapcore.NewJSONEncoder(cfg)
	}
	if opts.Color {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return zapcore.NewConsoleEncoder(cfg)
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() Logger {
	return &zapLogger{core: zap.NewNop(), level: zap.NewAtomicLevel()}
}

// Init installs the global logger. Only the first call has an effect.
func Init(opts *Options) {
	initOnce.Do(func() {
		setStd(NewLogger(opts))
	})
}

func setStd(l Logger) {
	std = l
	pkg = l
	if z, ok := l.(*zapLogger); ok {
		pkg = &zapLogger{core: z.core.WithOptions(zap.AddCallerSkip(1)), level: z.level}
	}
}

// Std returns the global logger.
func Std() Logger { return std }

// SetLevel changes the global minimum level at runtime. Loggers already
// derived from the global one follow the change.
func SetLevel(level string) error {
	z, ok := std.(*zapLogger)
	if !ok {
		return fmt.Errorf("log: %T does not support level changes", std)
	}
	l, err := zapcore.ParseLevel(level)
	if err != nil {
		return err
	}
	z.level.SetLevel(l)
	return nil
}

func parseLevel(s string) zapcore.Level {
	l, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}

func Debug(msg string, kv ...any)            { pkg.Debug(msg, kv...) }
func Info(msg string, kv ...any)             { pkg.Info(msg, kv...) }
func Warn(msg string, kv ...any)             { pkg.Warn(msg, kv...) }
func Error(err error, msg string, kv ...any) { pkg.Error(err, msg, kv...) }
func WithName(name string) Logger            { return std.WithName(name) }
func WithValues(kv ...any) Logger            { return std.WithValues(kv...) }
func Logr() logr.Logger                      { return std.Logr() }

func (z *zapLogger) Debug(msg string, kv ...any) { z.core.Debug(msg, toFields(kv...)...) }
func (z *zapLogger) Info(msg string, kv ...any)  { z.core.Info(msg, toFields(kv...)...) }
func (z *zapLogger) Warn(msg string, kv ...any)  { z.core.Warn(msg, toFields(kv...)...) }

func (z *zapLogger) Error(err error, msg string, kv ...any) {
	fields := toFields(kv...)
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	z.core.Error(msg, fields...)
}

func (z *zapLogger) WithName(name string) Logger {
	return &zapLogger{core: z.core.Named(name), level: z.level}
}

func (z *zapLogger) WithValues(kv ...any) Logger {
	return &zapLogger{core: z.core.With(toFields(kv...)...), level: z.level}
}

// Logr drops the extra caller frame this wrapper adds.
func (z *zapLogger) Logr() logr.Logger {
	return zapr.NewLogger(z.core.WithOptions(zap.AddCallerSkip(-1)))
}
