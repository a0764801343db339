// Package logging builds the zap logger used for diagnostics. Answers and
// progress lines go to stdout separately; the logger writes to stderr and
// optionally to a rotated JSON file.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a logger writing human-readable lines to stderr at Info
// (Debug when verbose), plus JSON lines to logFile when it is set.
func New(verbose bool, logFile string) *zap.Logger {
	return newLogger(os.Stderr, verbose, logFile)
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

func newLogger(console io.Writer, verbose bool, logFile string) *zap.Logger {
	level := zap.InfoLevel
	if verbose {
		level = zap.DebugLevel
	}

	consoleConfig := zap.NewDevelopmentEncoderConfig()
	consoleConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	consoleConfig.TimeKey = ""
	if !verbose {
		consoleConfig.CallerKey = ""
	}
	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleConfig),
			zapcore.Lock(zapcore.AddSync(console)),
			level,
		),
	}

	if logFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // Megabytes
			MaxBackups: 3,
			MaxAge:     28, // Days
			Compress:   true,
		}

		fileConfig := zap.NewProductionEncoderConfig()
		fileConfig.TimeKey = "timestamp"
		fileConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		fileConfig.MessageKey = "message"
		fileConfig.EncodeLevel = zapcore.CapitalLevelEncoder

		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(fileConfig),
			zapcore.AddSync(rotator),
			zap.DebugLevel,
		))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}
