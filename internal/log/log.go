package log

import (
	"io"
	"os"

	"github.com/paularlott/logger"
	logslog "github.com/paularlott/logger/slog"
)

var defaultLogger logger.Logger

func init() {
	defaultLogger = newLogger("info", "console", os.Stdout)
}

func newLogger(level, format string, w io.Writer) logger.Logger {
	return logslog.New(logslog.Config{
		Level:  level,
		Format: format,
		Writer: w,
	})
}

// Configure replaces the package logger. Output goes to stderr so command
// output on stdout stays machine readable.
func Configure(level, format string) {
	defaultLogger = newLogger(level, format, os.Stderr)
}

// SetOutput redirects the package logger, mostly for tests.
func SetOutput(level string, w io.Writer) {
	defaultLogger = newLogger(level, "console", w)
}

func Info(msg string, keysAndValues ...any) {
	defaultLogger.Info(msg, keysAndValues...)
}

func Warn(msg string, keysAndValues ...any) {
	defaultLogger.Warn(msg, keysAndValues...)
}

func Error(msg string, keysAndValues ...any) {
	defaultLogger.Error(msg, keysAndValues...)
}

func Debug(msg string, keysAndValues ...any) {
	defaultLogger.Debug(msg, keysAndValues...)
}
