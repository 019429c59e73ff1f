package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/trastamara/isabel-chat/internal/speech"
)

// speechStartedMsg is sent once playback has been handed to an engine,
// or refused.
type speechStartedMsg struct {
	utterance *speech.Utterance
	err       error
}

// speechDoneMsg is sent when an utterance finishes, fails, or is cut
// off by a newer one.
type speechDoneMsg struct {
	utterance *speech.Utterance
	err       error
}

func speakCmd(ctrl *speech.Controller, text string) tea.Cmd {
	return func() tea.Msg {
		u, err := ctrl.Start(text)
		return speechStartedMsg{utterance: u, err: err}
	}
}

func waitSpeechCmd(u *speech.Utterance) tea.Cmd {
	return func() tea.Msg {
		return speechDoneMsg{utterance: u, err: u.Wait()}
	}
}
