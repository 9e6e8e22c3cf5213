package logger

import (
	"log/slog"
	"os"
)

var Logger *slog.Logger

// Init sets up structured JSON logging. Debug level and source locations
// are enabled outside of release mode.
func Init(env string) {
	level := slog.LevelInfo
	if env == "dev" || env == "debug" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	Logger = slog.New(slog.NewJSONHandler(os.Stdout, opts))
	Logger.Debug("structured logging initialized", "level", level.String())
}

func Info(msg string, args ...any) {
	if Logger != nil {
		Logger.Info(msg, args...)
	}
}

func Error(msg string, args ...any) {
	if Logger != nil {
		Logger.Error(msg, args...)
	}
}

func Debug(msg string, args ...any) {
	if Logger != nil {
		Logger.Debug(msg, args...)
	}
}

func Warn(msg string, args ...any) {
	if Logger != nil {
		Logger.Warn(msg, args...)
	}
}
