package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	isDevelopment = false // if running in debug mode

	logFile io.Writer

	AdHocLogger zerolog.Logger

	once sync.Once

	globalLogger zerolog.Logger
)

func init() {
	// Create a general logger that can be easily accessed for
	// when you do not want to create a new logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	AdHocLogger = zerolog.New(os.Stderr).With().Timestamp().Str("service", "ad-hoc-logger").Caller().Logger()
}

// GetLogger returns the process wide logger, building it on first use.
func GetLogger(serviceName string) zerolog.Logger {
	once.Do(func() {
		globalLogger = newLogger(serviceName, isDevelopment, os.Stderr, logFile)
	})
	return globalLogger
}

// newLogger writes JSON to out in production. In development it writes a human
// readable console format to out and, when file is set, JSON to file as well.
func newLogger(serviceName string, development bool, out io.Writer, file io.Writer) zerolog.Logger {
	if !development {
		return zerolog.New(out).With().Timestamp().Str("service", serviceName).Logger()
	}

	consoleWriter := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339,
		FormatLevel: func(i any) string {
			return strings.ToUpper(fmt.Sprintf("[%5s]", i))
		},
		FormatMessage: func(i any) string {
			return fmt.Sprintf("| %s |", i)
		},
		FormatCaller: func(i any) string {
			return filepath.Base(fmt.Sprintf("%s", i))
		},
		PartsExclude: []string{
			zerolog.TimestampFieldName,
		}}

	writers := []io.Writer{consoleWriter}
	if file != nil {
		writers = append(writers, file)
	}
	return zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(zerolog.TraceLevel).With().Timestamp().Str("service", serviceName).Caller().Logger()
}

// SetLevel sets the global level from its name ("trace", "debug", "info", ...).
func SetLevel(level string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}

func SetDevelopment(value bool) {
	isDevelopment = value
}

func SetLogFile(file io.Writer) {
	logFile = file
}
