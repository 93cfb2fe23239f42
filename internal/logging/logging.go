package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Level string // zerolog level name, e.g. "debug"
	Env   string // "DEV" selects the coloured console writer
	File  string // optional rotating log file
}

// Setup configures the global zerolog logger. The returned func flushes and closes the log file.
func Setup(opts Options) (func() error, error) {
	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var console io.Writer = os.Stderr
	if opts.Env == "DEV" {
		console = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}

	closer := func() error { return nil }
	writer := console
	if opts.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		writer = zerolog.MultiLevelWriter(console, rotating)
		closer = rotating.Close
	}

	log.Logger = zerolog.New(writer).With().Timestamp().Logger()
	if err != nil && opts.Level != "" {
		log.Warn().Str("level", opts.Level).Msg("unknown log level, using info")
	}
	return closer, nil
}
