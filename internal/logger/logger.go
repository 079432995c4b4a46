// Package logger builds the structured logrus logger shared by the binaries.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"taskmanager/internal/config"
)

// New creates a logger writing to stdout, or to cfg.File when set.
func New(cfg config.Log, service string) (*logrus.Logger, io.Closer, error) {
	var (
		out    io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f
	}

	l, err := NewWithWriter(cfg, service, out)
	if err != nil {
		closer.Close()
		return nil, nil, err
	}
	return l, closer, nil
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(cfg config.Log, service string, out io.Writer) (*logrus.Logger, error) {
	l := logrus.New()
	l.SetOutput(out)

	switch cfg.Format {
	case "text":
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	default:
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "ts",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	}

	level := logrus.InfoLevel
	if cfg.Level != "" {
		lvl, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = lvl
	}
	l.SetLevel(level)

	if service != "" {
		l.AddHook(serviceHook(service))
	}
	return l, nil
}

// Discard returns a logger that drops everything. Used by tests and the TUI.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type serviceHook string

func (h serviceHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h serviceHook) Fire(e *logrus.Entry) error {
	if _, ok := e.Data["service"]; !ok {
		e.Data["service"] = string(h)
	}
	return nil
}
