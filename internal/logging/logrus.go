package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Config selects level and output format.
type Config struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" | "text"
}

// LogrusLogger implements Logger on top of a logrus entry.
type LogrusLogger struct {
	base  *logrus.Logger
	entry *logrus.Entry
}

// NewLogrusLogger builds a root logger writing to stdout.
func NewLogrusLogger(cfg Config) *LogrusLogger {
	return NewLogrusLoggerTo(os.Stdout, cfg)
}

// NewLogrusLoggerTo is NewLogrusLogger with an explicit writer.
func NewLogrusLoggerTo(w io.Writer, cfg Config) *LogrusLogger {
	l := logrus.New()
	l.SetOutput(w)

	if strings.EqualFold(cfg.Format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	ll := &LogrusLogger{base: l, entry: logrus.NewEntry(l)}
	ll.SetLevel(cfg.Level)
	return ll
}

// SetLevel changes the level of the root logger and every child derived
// from it. Unknown levels fall back to info.
func (l *LogrusLogger) SetLevel(level string) {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil || level == "" {
		lvl = logrus.InfoLevel
	}
	l.base.SetLevel(lvl)
}

func toFields(fields []Field) logrus.Fields {
	out := make(logrus.Fields, len(fields))
	for _, f := range fields {
		out[f.Key] = f.Value
	}
	return out
}

func (l *LogrusLogger) Debug(msg string, fields ...Field) {
	l.entry.WithFields(toFields(fields)).Debug(msg)
}

func (l *LogrusLogger) Info(msg string, fields ...Field) {
	l.entry.WithFields(toFields(fields)).Info(msg)
}

func (l *LogrusLogger) Warn(msg string, fields ...Field) {
	l.entry.WithFields(toFields(fields)).Warn(msg)
}

func (l *LogrusLogger) Error(msg string, fields ...Field) {
	l.entry.WithFields(toFields(fields)).Error(msg)
}

func (l *LogrusLogger) With(fields ...Field) Logger {
	return &LogrusLogger{base: l.base, entry: l.entry.WithFields(toFields(fields))}
}
