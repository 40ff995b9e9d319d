// Package logger builds the process logger: a colored console writer on
// stderr plus a rotated JSON log file.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls the log sinks.
type Config struct {
	Level      string `mapstructure:"level" env:"LEVEL"`
	File       string `mapstructure:"file" env:"FILE"`
	Console    bool   `mapstructure:"console" env:"CONSOLE"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" env:"MAX_SIZE_MB"`
	MaxBackups int    `mapstructure:"max_backups" env:"MAX_BACKUPS"`
}

// DefaultConfig logs info and above to the console and output.log.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		File:       "output.log",
		Console:    true,
		MaxSizeMB:  10,
		MaxBackups: 3,
	}
}

// ParseLevel accepts zerolog level names, case-insensitively.
func ParseLevel(s string) (zerolog.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", s)
	}
	return lvl, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns the root logger and a closer for the file sink.
func New(cfg Config) (zerolog.Logger, io.Closer, error) {
	return newWithConsole(cfg, os.Stderr)
}

func newWithConsole(cfg Config, console io.Writer) (zerolog.Logger, io.Closer, error) {
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}

	var (
		writers []io.Writer
		closer  io.Closer = nopCloser{}
	)
	if cfg.Console {
		writers = append(writers, zerolog.ConsoleWriter{Out: console, TimeFormat: time.TimeOnly})
	}
	if cfg.File != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
		writers = append(writers, file)
		closer = file
	}
	if len(writers) == 0 {
		return zerolog.Nop(), closer, nil
	}

	log := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lvl).
		With().
		Timestamp().
		Logger()
	return log, closer, nil
}
