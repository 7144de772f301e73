// Package logging holds the process wide zerolog logger.
package logging

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type Config struct {
	Level    string // debug, info, warn or error
	Position bool   // annotate events with the caller's file:line
}

var logger zerolog.Logger

func init() {
	setOutput(os.Stderr, false)
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
}

// Setup points the logger at w and applies conf.
func Setup(w io.Writer, conf Config) error {
	switch conf.Level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn", "":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		return errors.Errorf("logging: unknown level %q", conf.Level)
	}

	setOutput(w, conf.Position)
	return nil
}

func setOutput(w io.Writer, pos bool) {
	logger = zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).With().Timestamp().Logger()
	if pos {
		logger = logger.With().Caller().Logger()
	}
}

func Debug() *zerolog.Event {
	return logger.Debug()
}

func Info() *zerolog.Event {
	return logger.Info()
}

func Warn() *zerolog.Event {
	return logger.Warn()
}

func Error() *zerolog.Event {
	return logger.Error()
}
