// Package logging builds the zap logger used across the workspace
// manager. Console output goes to stderr; an optional rotating file
// sink captures the same stream for long release runs.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// LevelDebug enables debug logging.
	LevelDebug = "debug"

	// LevelInfo is the default level.
	LevelInfo = "info"

	// LevelNone disables logging entirely.
	LevelNone = "none"
)

// Options configures logger construction.
type Options struct {
	// Level is one of debug, info, warn, error, or none.
	Level string

	// File, when set, adds a rotating file sink at this path.
	File string
}

// New returns a zap logger for the given options.
func New(opts Options) (*zap.Logger, error) {
	if opts.Level == LevelNone {
		return zap.NewNop(), nil
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(opts.Level)); err != nil {
		return nil, err
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.Lock(os.Stderr),
			lvl,
		),
	}

	if opts.File != "" {
		sink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     30, // days
		})
		fileEnc := zap.NewProductionEncoderConfig()
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(fileEnc),
			sink,
			lvl,
		))
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}

// MustNew returns a logger or panics; used at CLI startup where a
// broken logging flag should stop the process immediately.
func MustNew(opts Options) *zap.Logger {
	l, err := New(opts)
	if err != nil {
		panic(err)
	}
	return l
}
