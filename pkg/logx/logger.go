package logx

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level is a logging level.
type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
	LevelOff
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	case LevelOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a level name, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "FATAL":
		return LevelFatal
	case "OFF":
		return LevelOff
	default:
		return LevelInfo
	}
}

// Fields is a set of structured log fields.
type Fields map[string]any

// Format selects the output encoding.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// Logger writes leveled, optionally structured log lines.
type Logger struct {
	mu       sync.Mutex
	level    Level
	format   Format
	writer   io.Writer
	exitFunc func(int)
}

// NewLogger builds a logger from explicit settings.
func NewLogger(level Level, format Format, w io.Writer) *Logger {
	if w == nil {
		w = os.Stdout
	}
	return &Logger{level: level, format: format, writer: w, exitFunc: os.Exit}
}

// NewFromEnv builds a logger from LOG_LEVEL and LOG_FORMAT.
func NewFromEnv() *Logger {
	format := FormatConsole
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		format = FormatJSON
	}
	return NewLogger(ParseLevel(os.Getenv("LOG_LEVEL")), format, os.Stdout)
}

// SetLevel changes the minimum level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// SetOutput changes the destination writer.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer = w
}

// WithFields starts a chainable entry with fields.
func (l *Logger) WithFields(fields Fields) *Entry {
	return newEntry(l).WithFields(fields)
}

// WithField starts a chainable entry with one field.
func (l *Logger) WithField(key string, value any) *Entry {
	return newEntry(l).WithField(key, value)
}

// WithError starts a chainable entry carrying an error.
func (l *Logger) WithError(err error) *Entry {
	return newEntry(l).WithError(err)
}

func (l *Logger) log(level Level, msg string, fields Fields) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level || l.level == LevelOff {
		return
	}

	now := time.Now()
	switch l.format {
	case FormatJSON:
		rec := map[string]any{
			"time":    now.Format(time.RFC3339Nano),
			"level":   level.String(),
			"message": msg,
		}
		for k, v := range fields {
			rec[k] = v
		}
		b, err := json.Marshal(rec)
		if err != nil {
			fmt.Fprintf(l.writer, `{"level":"ERROR","message":"logx: marshal failed: %v"}`+"\n", err)
			return
		}
		l.writer.Write(append(b, '\n'))

	default:
		var sb strings.Builder
		fmt.Fprintf(&sb, "%s [%-5s] %s", now.Format("2006-01-02 15:04:05.000"), level.String(), msg)
		if len(fields) > 0 {
			sb.WriteString(" |")
			for k, v := range fields {
				fmt.Fprintf(&sb, " %s=%v", k, v)
			}
		}
		sb.WriteByte('\n')
		io.WriteString(l.writer, sb.String())
	}
}

func (l *Logger) exit(code int) {
	if l.exitFunc != nil {
		l.exitFunc(code)
	}
}
