package log

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the root logger for one of the binaries. Development gets
// human-readable console output at debug level; production emits plain
// JSON at info so log shippers can parse it.
func New(environment, service string) zerolog.Logger {
	level := zerolog.InfoLevel
	if environment != "production" {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(os.Stdout)
	if environment != "production" {
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	return logger.Level(level).With().
		Timestamp().
		Str("service", service).
		Str("env", environment).
		Logger()
}
