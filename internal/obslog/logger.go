// Package obslog wraps zerolog the way the teacher project did
// (internal/utils/logger.go): a package-level Logger, console + rotating
// file + filtered error-file multi-writer, and a handful of package-level
// shortcut functions so call sites don't carry a logger value around.
package obslog

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the process-wide structured logger.
var Logger zerolog.Logger

// Config configures log level, destination and rotation.
type Config struct {
	Level      string // trace, debug, info, warn, error, fatal, panic
	LogDir     string
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// DefaultConfig mirrors teacher's defaults.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		LogDir:     "logs",
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
}

// Init sets up the global Logger: colored console output, a rotating main
// log file, and a rotating error-only log file.
func Init(cfg Config) error {
	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	mainLog := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.LogDir, "crawlkit.log"),
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	errorLog := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.LogDir, "crawlkit_error.log"),
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	console := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}

	multi := zerolog.MultiLevelWriter(console, mainLog, &levelFilteredWriter{w: errorLog, min: zerolog.ErrorLevel})

	Logger = zerolog.New(multi).With().Timestamp().Caller().Logger()
	log.Logger = Logger

	Logger.Info().Str("level", cfg.Level).Str("log_dir", cfg.LogDir).Msg("logger initialized")
	return nil
}

// levelFilteredWriter only passes writes at or above a minimum level,
// matching teacher's FilteredWriter shape.
type levelFilteredWriter struct {
	w   io.Writer
	min zerolog.Level
}

func (f *levelFilteredWriter) Write(p []byte) (int, error) {
	return f.w.Write(p)
}

func (f *levelFilteredWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level >= f.min {
		return f.w.Write(p)
	}
	return len(p), nil
}

func Info(msg string)                            { Logger.Info().Msg(msg) }
func Infof(format string, args ...interface{})   { Logger.Info().Msgf(format, args...) }
func Warn(msg string)                            { Logger.Warn().Msg(msg) }
func Warnf(format string, args ...interface{})   { Logger.Warn().Msgf(format, args...) }
func Debug(msg string)                           { Logger.Debug().Msg(msg) }
func Debugf(format string, args ...interface{})  { Logger.Debug().Msgf(format, args...) }
func Error(err error, msg string)                { Logger.Error().Err(err).Msg(msg) }
func Errorf(format string, args ...interface{})  { Logger.Error().Msgf(format, args...) }
func Fatal(err error, msg string)                { Logger.Fatal().Err(err).Msg(msg) }
