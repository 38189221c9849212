package app

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SetupLogging points the global zerolog logger at a console writer on
// stderr and, when cfg.LogFile is set, a rotating JSON log file. The returned
// closer flushes the file sink and is never nil.
func SetupLogging(cfg Config, stderr io.Writer) io.Closer {
	if stderr == nil {
		stderr = os.Stderr
	}
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	console := zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.RFC3339}
	if cfg.LogFile == "" {
		log.Logger = zerolog.New(console).With().Timestamp().Logger()
		return nopCloser{}
	}
	maxSize := cfg.LogMaxSizeMB
	if maxSize <= 0 {
		maxSize = DefaultLogMaxSize
	}
	file := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    maxSize,
		MaxBackups: cfg.LogMaxBackups,
	}
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(console, file)).With().Timestamp().Logger()
	return file
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
