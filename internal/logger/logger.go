package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

type Config struct {
	Level  string
	Format string
}

// PrepareLogger configures the standard logrus logger.
func PrepareLogger(config Config) error {
	return Prepare(log.StandardLogger(), config, os.Stdout)
}

func Prepare(logger *log.Logger, config Config, out io.Writer) error {
	level, err := log.ParseLevel(config.Level)
	if err != nil {
		return fmt.Errorf("failed to parse log level %q: %w", config.Level, err)
	}

	switch strings.ToLower(config.Format) {
	case "", "text":
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&log.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q", config.Format)
	}
	logger.SetOutput(out)
	logger.SetLevel(level)
	return nil
}
