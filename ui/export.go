package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	homedir "github.com/mitchellh/go-homedir"

	"github.com/trastamara/isabel-chat/internal/export"
	"github.com/trastamara/isabel-chat/internal/transcript"
)

// exportedMsg reports a finished transcript export.
type exportedMsg struct {
	path  string
	pages int
	size  int64
	err   error
}

// exportCmd writes the conversation to a dated PDF in dir. The turns
// and citations are snapshots, so the session can keep moving while
// the file is written.
func exportCmd(ex *export.Exporter, turns []transcript.Turn, cites []transcript.Citation, dir string) tea.Cmd {
	return func() tea.Msg {
		dir, err := homedir.Expand(dir)
		if err != nil {
			return exportedMsg{err: err}
		}
		if dir == "" {
			dir = "."
		}

		path := filepath.Join(dir, export.Filename(time.Now()))
		f, err := os.Create(path)
		if err != nil {
			return exportedMsg{err: err}
		}

		pages, err := ex.WriteTo(f, turns, cites)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
			return exportedMsg{err: err}
		}

		info, err := os.Stat(path)
		if err != nil {
			return exportedMsg{err: err}
		}

		log.Info("transcript exported", "path", path, "pages", pages, "bytes", info.Size())
		return exportedMsg{path: path, pages: pages, size: info.Size()}
	}
}

func exportedNote(msg exportedMsg) string {
	return fmt.Sprintf("Guardado %s · %d págs. · %s",
		msg.path, msg.pages, humanize.Bytes(uint64(msg.size))) //nolint:gosec
}
