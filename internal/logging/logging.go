package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New builds the root logger. Level is one of debug, info, warn, error;
// unknown values mean info. Pretty switches to a human-readable console format.
func New(level string, pretty bool) zerolog.Logger {
	return NewWithWriter(os.Stdout, level, pretty)
}

// NewWithWriter is New with an explicit output.
func NewWithWriter(out io.Writer, level string, pretty bool) zerolog.Logger {
	lvl := zerolog.InfoLevel
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = zerolog.DebugLevel
	case "warn":
		lvl = zerolog.WarnLevel
	case "error":
		lvl = zerolog.ErrorLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339

	if pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}
	l := zerolog.New(out).Level(lvl).With().Timestamp().Caller().Logger()
	log.Logger = l
	return l
}
