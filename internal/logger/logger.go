package logger

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type implLogger struct {
	sugar *zap.SugaredLogger
}

// New creates a console Logger writing to stdout at the given level
func New(level string) Logger {
	l, err := NewWithFormat(level, "console")
	if err != nil {
		return NewNop()
	}
	return l
}

// NewWithFormat creates a Logger using the "console" or "json" encoder
func NewWithFormat(level, format string) (Logger, error) {
	lvl := parseLevel(level)

	var encoder zapcore.Encoder
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "console", "text":
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05")
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		encoder = zapcore.NewConsoleEncoder(encCfg)
	case "json":
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", format)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), lvl)
	return &implLogger{sugar: zap.New(core).Sugar()}, nil
}

// NewWithCore wraps an existing zap core, mainly for tests
func NewWithCore(core zapcore.Core) Logger {
	return &implLogger{sugar: zap.New(core).Sugar()}
}

// NewNop returns a Logger that discards everything
func NewNop() Logger {
	return &implLogger{sugar: zap.NewNop().Sugar()}
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *implLogger) Debug(ctx context.Context, msg string, args ...interface{}) {
	l.sugar.Debugw(fmt.Sprintf(msg, args...), contextFields(ctx)...)
}

func (l *implLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	l.sugar.Infow(fmt.Sprintf(msg, args...), contextFields(ctx)...)
}

func (l *implLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	l.sugar.Warnw(fmt.Sprintf(msg, args...), contextFields(ctx)...)
}

func (l *implLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	l.sugar.Errorw(fmt.Sprintf(msg, args...), contextFields(ctx)...)
}

func (l *implLogger) Sync() error {
	return l.sugar.Sync()
}
