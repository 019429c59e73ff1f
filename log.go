package main

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

// setupLog sets up logging to a file when ISABEL_LOGFILE is set, and
// discards it otherwise. The returned closer must run before exit.
func setupLog() (func() error, error) {
	// Log to file, if set
	logFile := os.Getenv("ISABEL_LOGFILE")
	if logFile != "" {
		if os.Getenv("DEBUG") != "" {
			log.SetLevel(log.DebugLevel)
		}
		f, err := tea.LogToFile(logFile, "isabel")
		if err != nil {
			return nil, fmt.Errorf("error setting up log: %w", err)
		}
		log.SetOutput(f)
		log.SetReportTimestamp(true)
		return f.Close, nil
	}
	log.SetOutput(io.Discard)
	return func() error { return nil }, nil
}
