// Package logging builds the zap logger used for the client's status channel.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	// Level is a zap level name; "info" when empty.
	Level string
	// File, if set, also receives JSON-encoded entries with rotation.
	File string
	// Color enables ANSI level colors on the console.
	Color bool
	// Highlight, if set, rewrites messages on the console only. The log file
	// always receives the plain message.
	Highlight func(zapcore.Entry) string

	MaxSizeMB  int
	MaxBackups int
}

// New returns a logger writing human readable lines to console.
func New(opts Options, console zapcore.WriteSyncer) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(opts.Level))); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
	}

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder(opts.Color, opts.Highlight), console, level),
	}

	if opts.File != "" {
		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 10
		}
		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxSize,
			MaxBackups: opts.MaxBackups,
		})
		cores = append(cores, zapcore.NewCore(fileEncoder(), fileWriter, level))
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}

// consoleEncoder prints "LEVEL message key=value" without timestamps, the way
// a command-line tool reports status.
func consoleEncoder(color bool, highlight func(zapcore.Entry) string) zapcore.Encoder {
	cfg := zapcore.EncoderConfig{
		LevelKey:         "level",
		MessageKey:       "msg",
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
	if color {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	enc := zapcore.NewConsoleEncoder(cfg)
	if highlight != nil {
		return highlightEncoder{Encoder: enc, highlight: highlight}
	}
	return enc
}

type highlightEncoder struct {
	zapcore.Encoder
	highlight func(zapcore.Entry) string
}

func (e highlightEncoder) Clone() zapcore.Encoder {
	return highlightEncoder{Encoder: e.Encoder.Clone(), highlight: e.highlight}
}

func (e highlightEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	ent.Message = e.highlight(ent)
	return e.Encoder.EncodeEntry(ent, fields)
}

func fileEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05.000Z07:00")
	return zapcore.NewJSONEncoder(cfg)
}
