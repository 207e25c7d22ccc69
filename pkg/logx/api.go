package logx

import (
	"fmt"
	"io"
)

// defaultLogger is the package-level logger used by the convenience API.
var defaultLogger = NewFromEnv()

// SetDefaultLogger replaces the package-level logger.
func SetDefaultLogger(logger *Logger) { defaultLogger = logger }

// GetDefaultLogger returns the package-level logger.
func GetDefaultLogger() *Logger { return defaultLogger }

// SetLevel sets the level on the package-level logger.
func SetLevel(level Level) { defaultLogger.SetLevel(level) }

// SetOutput sets the output on the package-level logger.
func SetOutput(w io.Writer) { defaultLogger.SetOutput(w) }

func Debug(msg string) { defaultLogger.log(LevelDebug, msg, nil) }
func Info(msg string)  { defaultLogger.log(LevelInfo, msg, nil) }
func Warn(msg string)  { defaultLogger.log(LevelWarn, msg, nil) }
func Error(msg string) { defaultLogger.log(LevelError, msg, nil) }

func Fatal(msg string) {
	defaultLogger.log(LevelFatal, msg, nil)
	defaultLogger.exit(1)
}

func Debugf(format string, args ...any) {
	defaultLogger.log(LevelDebug, fmt.Sprintf(format, args...), nil)
}

func Infof(format string, args ...any) {
	defaultLogger.log(LevelInfo, fmt.Sprintf(format, args...), nil)
}

func Warnf(format string, args ...any) {
	defaultLogger.log(LevelWarn, fmt.Sprintf(format, args...), nil)
}

func Errorf(format string, args ...any) {
	defaultLogger.log(LevelError, fmt.Sprintf(format, args...), nil)
}

func Fatalf(format string, args ...any) {
	defaultLogger.log(LevelFatal, fmt.Sprintf(format, args...), nil)
	defaultLogger.exit(1)
}

// WithFields starts an entry on the package-level logger.
func WithFields(fields Fields) *Entry { return defaultLogger.WithFields(fields) }

// WithField starts an entry with one field.
func WithField(key string, value any) *Entry { return defaultLogger.WithField(key, value) }

// WithError starts an entry carrying an error.
func WithError(err error) *Entry { return defaultLogger.WithError(err) }
