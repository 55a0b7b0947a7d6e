package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/polemica/internal/model"
)

// Log is the process-wide logger. It discards output until Init runs.
var Log = Discard()

// Init replaces Log with a logger built from cfg
func Init(cfg model.LogConfig) error {
	l, err := New(cfg)
	if err != nil {
		return err
	}
	Log = l
	return nil
}

// New builds a logrus logger from configuration. Output goes to stderr so
// rendered reports on stdout stay machine-readable; a file path adds a second
// sink.
func New(cfg model.LogConfig) (*logrus.Logger, error) {
	log := logrus.New()

	switch cfg.Format {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05Z07:00",
		})
	default:
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	writers := []io.Writer{os.Stderr}
	if cfg.File != "" {
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		writers = append(writers, file)
	}
	log.SetOutput(io.MultiWriter(writers...))

	return log, nil
}

// Discard returns a logger that drops everything. Used as the default when a
// component is built without one.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// OrDefault returns l, or the process-wide logger when l is nil
func OrDefault(l logrus.FieldLogger) logrus.FieldLogger {
	if l == nil {
		return Log
	}
	return l
}
