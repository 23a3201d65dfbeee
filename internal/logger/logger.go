package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger keeps the printf-style call sites used across the service while
// emitting structured logrus entries underneath.
type Logger struct {
	entry *logrus.Entry
}

// New builds a logger for the given level ("debug", "info", "warn", "error")
// and format ("json" or "text").
func New(level, format string) *Logger {
	return NewWithOutput(level, format, os.Stdout)
}

func NewWithOutput(level, format string, out io.Writer) *Logger {
	base := logrus.New()
	base.SetOutput(out)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)

	if format == "json" {
		base.SetFormatter(&logrus.JSONFormatter{})
	} else {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return &Logger{entry: logrus.NewEntry(base)}
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *Logger {
	return NewWithOutput("error", "text", io.Discard)
}

// With returns a child logger carrying the given fields on every entry.
func (l *Logger) With(fields map[string]interface{}) *Logger {
	return &Logger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *Logger) Info(msg string, args ...interface{}) {
	l.entry.Infof(msg, args...)
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	l.entry.Debugf(msg, args...)
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	l.entry.Warnf(msg, args...)
}

func (l *Logger) Error(msg string, args ...interface{}) {
	l.entry.Errorf(msg, args...)
}

// Fatal logs and exits the process.
func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.entry.Fatalf(msg, args...)
}
