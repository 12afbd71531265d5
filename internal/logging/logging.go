package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxFileSizeMB  = 10
	maxFileBackups = 5
	maxFileAgeDays = 30
)

type Config struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// Dir enables file output, one file per day, next to stderr.
	Dir string `mapstructure:"dir"`
}

// New builds the application logger.
//
// The returned closer flushes the log file, if any, and must be called
// before exiting.
func New(cfg Config) (*logrus.Logger, io.Closer, error) {
	return newAt(cfg, os.Stderr, time.Now())
}

func newAt(cfg Config, stderr io.Writer, now time.Time) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()

	level := logrus.InfoLevel

	if cfg.Level != "" {
		parsed, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "invalid log level '%s'", cfg.Level)
		}

		level = parsed
	}

	logger.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, nil, errors.Newf("unknown log format '%s'", cfg.Format)
	}

	if cfg.Dir == "" {
		logger.SetOutput(stderr)

		return logger, io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, nil, errors.Wrap(err, "could not create log directory")
	}

	file := &lumberjack.Logger{
		Filename:   FilePath(cfg.Dir, now),
		MaxSize:    maxFileSizeMB,
		MaxBackups: maxFileBackups,
		MaxAge:     maxFileAgeDays,
	}

	logger.SetOutput(io.MultiWriter(stderr, file))

	return logger, file, nil
}

// FilePath returns the log file used on a given day.
func FilePath(dir string, day time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("chatlist_%s.log", day.Format(time.DateOnly)))
}
