// Package logging configures the zerolog loggers shared by the transaction
// packages. Every package keeps a component logger from GetLogger; element
// and transaction work adds the element identity or the transaction shape
// with ForElement and ForTransaction so log lines can be followed per
// package across the pre-transaction, install/erase and post-transaction
// stages.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mkulik-rh/rpm/pkg/paths"
	"github.com/mkulik-rh/rpm/pkg/types"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options controls where log output goes
type Options struct {
	Verbosity int
	// Console receives human readable output, os.Stderr when nil
	Console io.Writer
	// File is the JSON log file, paths.LogFile() when empty
	File string
	// NoFile disables the log file
	NoFile bool
}

// LevelFor maps a -v count to a level: warn, info, debug, then trace
func LevelFor(verbosity int) zerolog.Level {
	switch {
	case verbosity <= 0:
		return zerolog.WarnLevel
	case verbosity == 1:
		return zerolog.InfoLevel
	case verbosity == 2:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// Setup replaces the global logger. The console writer honours NO_COLOR.
// A log file that cannot be opened is returned as an error after the
// console logger is installed, so logging keeps working either way.
func Setup(opts Options) (string, error) {
	zerolog.SetGlobalLevel(LevelFor(opts.Verbosity))

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	writers := []io.Writer{zerolog.ConsoleWriter{
		Out:        console,
		TimeFormat: time.Kitchen,
		NoColor:    os.Getenv("NO_COLOR") != "",
	}}

	var (
		file    string
		fileErr error
	)
	if !opts.NoFile {
		file = opts.File
		if file == "" {
			file = paths.LogFile()
		}
		var fh *os.File
		fh, fileErr = openLogFile(file)
		if fileErr == nil {
			writers = append(writers, fh)
		} else {
			file = ""
		}
	}

	ctx := zerolog.New(io.MultiWriter(writers...)).With().Timestamp()
	if opts.Verbosity >= 2 {
		ctx = ctx.Caller()
	}
	log.Logger = ctx.Logger()
	return file, fileErr
}

// SetupLogger installs the console and default log file for a -v count
func SetupLogger(verbosity int) {
	file, err := Setup(Options{Verbosity: verbosity})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create log file, logging to console only")
	}
	log.Debug().Int("verbosity", verbosity).Str("logFile", file).Msg("Logger initialized")
}

// GetLogger returns a contextualized logger with the given name
func GetLogger(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// WithFields returns a component logger with additional fields
func WithFields(component string, fields map[string]interface{}) zerolog.Logger {
	return log.With().Str("component", component).Fields(fields).Logger()
}

// ForElement returns a component logger carrying an element's identity
func ForElement(component, nevra string, typ types.ElementType) zerolog.Logger {
	return log.With().
		Str("component", component).
		Str("nevra", nevra).
		Stringer("type", typ).
		Logger()
}

// ForTransaction returns a component logger carrying the transaction shape
func ForTransaction(component string, flags types.TransFlags, installs, erases int) zerolog.Logger {
	return log.With().
		Str("component", component).
		Stringer("flags", flags).
		Int("installs", installs).
		Int("erases", erases).
		Logger()
}

func openLogFile(logPath string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return file, nil
}

// LogOperationStart logs the start of an operation and returns a function to log its completion
func LogOperationStart(logger zerolog.Logger, operation string) func() {
	start := time.Now()
	logger.Debug().
		Str("operation", operation).
		Msg("Operation started")

	return func() {
		logger.Debug().
			Str("operation", operation).
			Dur("duration", time.Since(start)).
			Msg("Operation completed")
	}
}
