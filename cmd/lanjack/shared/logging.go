// Package shared holds helpers common to the lanjack subcommands.
package shared

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
)

// SetupLogger configures console logging on stderr. noColor forces
// plain output for both log lines and lipgloss-styled text.
func SetupLogger(debug, noColor bool) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           logLevel(debug),
		ReportTimestamp: true,
	})

	if noColor {
		logger.SetColorProfile(termenv.Ascii)
		DisableColors()
	}

	return logger
}

// DisableColors forces plain lipgloss output process-wide.
func DisableColors() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// SetupFileLogger logs to path, for commands that own the terminal and
// cannot share stderr with the UI. An empty path discards logs. The
// returned func closes the file and must be called on the way out.
func SetupFileLogger(path string, debug bool) (*log.Logger, func(), error) {
	if path == "" {
		logger := log.NewWithOptions(io.Discard, log.Options{Level: logLevel(debug)})
		return logger, func() {}, nil
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := log.NewWithOptions(file, log.Options{
		Level:           logLevel(debug),
		ReportTimestamp: true,
	})

	return logger, func() { _ = file.Close() }, nil
}

func logLevel(debug bool) log.Level {
	if debug {
		return log.DebugLevel
	}
	return log.InfoLevel
}
