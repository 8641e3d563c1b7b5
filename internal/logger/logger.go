// Package logger builds the zap logger shared by every sysop command.
//
// Console output goes to stderr in a human encoding; when a log directory is
// configured a JSON copy is also written to a size-rotated file.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the rotated log file created inside Options.Dir.
const FileName = "sysop.log"

// Options controls logger construction.
type Options struct {
	// Verbose lowers the console level to debug. The file core always logs at info.
	Verbose bool
	// Dir enables the rotated JSON file when non-empty.
	Dir string
	// Console overrides stderr, mostly for tests.
	Console io.Writer
	// MaxSizeMB and MaxBackups bound the rotated file.
	MaxSizeMB  int
	MaxBackups int
}

// New returns a logger writing to the console and, optionally, a rotated file.
// The returned func flushes and closes the file sink.
func New(opts Options) (*zap.Logger, func(), error) {
	consoleLevel := zapcore.WarnLevel
	if opts.Verbose {
		consoleLevel = zapcore.DebugLevel
	}

	var console io.Writer = os.Stderr
	if opts.Console != nil {
		console = opts.Console
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleEnc := encCfg
	consoleEnc.EncodeLevel = zapcore.CapitalLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleEnc),
			zapcore.AddSync(console),
			zap.NewAtomicLevelAt(consoleLevel),
		),
	}

	closeFn := func() {}
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		sink := &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, FileName),
			MaxSize:    orDefault(opts.MaxSizeMB, 1),
			MaxBackups: orDefault(opts.MaxBackups, 5),
		}
		fileLevel := zapcore.InfoLevel
		if opts.Verbose {
			fileLevel = zapcore.DebugLevel
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encCfg),
			zapcore.AddSync(sink),
			zap.NewAtomicLevelAt(fileLevel),
		))
		closeFn = func() { _ = sink.Close() }
	}

	lg := zap.New(zapcore.NewTee(cores...))
	return lg, func() {
		_ = lg.Sync()
		closeFn()
	}, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
