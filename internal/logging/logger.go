package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config captures the settings needed to build a zerolog logger.
type Config struct {
	// Level is the textual log level (trace, debug, info, warn, error).
	Level string
	// Format is json or console.
	Format string
}

// levelAliases are accepted on top of the names zerolog knows.
var levelAliases = map[string]string{
	"warning": "warn",
	"off":     "disabled",
}

// ParseLevel converts textual levels into zerolog levels, defaulting to info
// for blank or unknown input.
func ParseLevel(raw string) zerolog.Level {
	name := strings.ToLower(strings.TrimSpace(raw))
	if alias, ok := levelAliases[name]; ok {
		name = alias
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// New builds a logger writing to w (stderr when nil).
func New(w io.Writer, cfg Config) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if strings.ToLower(strings.TrimSpace(cfg.Format)) != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(ParseLevel(cfg.Level)).With().Timestamp().Logger()
}
