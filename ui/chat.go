package ui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/log"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/termenv"

	"github.com/trastamara/isabel-chat/internal/backend"
	"github.com/trastamara/isabel-chat/internal/transcript"
)

// StatusConnected is the status text shown while the backend answers
// the health probe. The status subcommand prints it too.
func StatusConnected(model string) string {
	return "En línea · " + model
}

// StatusUnavailable is the status text shown while the backend is
// unreachable or unhealthy.
const StatusUnavailable = "Servidor no disponible"

const statusCheckingText = "Comprobando servidor…"

type (
	healthTickMsg           struct{}
	statusMessageTimeoutMsg struct{}
	copiedMsg               struct{}
)

// healthMsg carries the result of one backend probe.
type healthMsg struct {
	info *backend.Health
	err  error
}

// chatMsg carries the answer for the turn it was requested under. The
// handle keeps late answers from landing on newer turns.
type chatMsg struct {
	handle transcript.Handle
	resp   *backend.ChatResponse
	err    error
}

// submit sends the composed question off and parks a placeholder turn
// for the answer. An empty composer is a no-op.
func (m *model) submit() tea.Cmd {
	query := strings.TrimSpace(m.composer.Value())
	if query == "" {
		return nil
	}

	m.composer.Reset()
	m.convo.Append(transcript.RoleUser, query)
	handle := m.convo.Begin(pendingText)
	m.inflight++
	m.refreshTranscript()
	m.viewport.GotoBottom()

	log.Debug("question submitted", "handle", handle, "chars", len(query))
	return tea.Batch(sendChatCmd(m.client, handle, query, m.cfg.TopK), m.spin.Tick)
}

func (m *model) refreshTranscript() {
	m.viewport.SetContent(m.renderConversation())
}

// COMMANDS

func checkHealthCmd(client *backend.Client) tea.Cmd {
	return func() tea.Msg {
		info, err := client.Health(context.Background())
		if err != nil {
			log.Debug("health probe failed", "error", err)
			return healthMsg{err: err}
		}
		return healthMsg{info: info}
	}
}

func healthTick(every time.Duration) tea.Cmd {
	return tea.Tick(every, func(time.Time) tea.Msg {
		return healthTickMsg{}
	})
}

func sendChatCmd(client *backend.Client, handle transcript.Handle, query string, k int) tea.Cmd {
	return func() tea.Msg {
		resp, err := client.Chat(context.Background(), query, k)
		return chatMsg{handle: handle, resp: resp, err: err}
	}
}

func copyAnswerCmd(text string) tea.Cmd {
	return func() tea.Msg {
		// Copy using OSC 52
		termenv.Copy(text)
		// Copy using native system clipboard
		_ = clipboard.WriteAll(text)
		return copiedMsg{}
	}
}

// RENDERING

// renderConversation lays the whole transcript out for the viewport.
// Sources are attached under the most recent resolved answer; earlier
// ones have had theirs replaced.
func (m model) renderConversation() string {
	width := max(0, min(int(m.cfg.GlamourMaxWidth), m.viewport.Width-2)) //nolint:gosec

	turns := m.convo.Turns()
	cites := m.convo.Citations()

	lastAnswered := -1
	for i, t := range turns {
		if t.Role == transcript.RoleAssistant && !t.Pending && !t.Failed {
			lastAnswered = i
		}
	}

	var b strings.Builder
	for i, t := range turns {
		b.WriteString("\n")
		switch t.Role {
		case transcript.RoleUser:
			b.WriteString(userLabelStyle(userLabel) + "\n")
			b.WriteString(wordwrap.String(t.Text, width) + "\n")
		case transcript.RoleAssistant:
			b.WriteString(assistantLabelStyle(assistantLabel) + "\n")
			switch {
			case t.Pending:
				b.WriteString(pendingStyle(pendingText) + "\n")
			case t.Failed:
				b.WriteString(failedStyle(wordwrap.String(t.Text, width)) + "\n")
			default:
				b.WriteString(m.renderAnswer(t.Text, width) + "\n")
			}
			if i == lastAnswered && len(cites) > 0 {
				renderCitations(&b, cites, width)
			}
		}
	}
	return b.String()
}

func (m model) renderAnswer(text string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.cfg.GlamourStyle),
		glamour.WithWordWrap(width),
	)
	if err == nil {
		var out string
		if out, err = r.Render(text); err == nil {
			return strings.Trim(out, "\n")
		}
	}
	log.Error("error rendering with Glamour", "error", err)
	return wordwrap.String(text, width)
}

func renderCitations(b *strings.Builder, cites []transcript.Citation, width int) {
	b.WriteString("\n" + citationHeadStyle("Fuentes") + "\n")
	for _, c := range cites {
		line := "• " + c.Filename
		if c.Page > 0 {
			line += fmt.Sprintf(" · pág. %d", c.Page)
		}
		if c.Snippet != "" {
			line += " · " + strings.Join(strings.Fields(c.Snippet), " ")
		}
		if c.Score > 0 {
			line += fmt.Sprintf(" · %.2f", c.Score)
		}
		line = truncate.StringWithTail(line, uint(max(0, width)), ellipsis) //nolint:gosec
		b.WriteString(citationStyle(line) + "\n")
	}
}

// statusNote picks the single line of state worth showing right now.
func (m model) statusNote() (string, bool) {
	if m.state == chatStateStatusMessage {
		return m.statusMessage, m.statusIsError
	}
	if m.inflight > 0 {
		return m.spin.View() + " " + pendingText, false
	}
	if m.utterance != nil {
		return speakingText, false
	}
	switch m.health {
	case healthUp:
		return StatusConnected(m.modelName), false
	case healthDown:
		return StatusUnavailable, true
	default:
		return statusCheckingText, false
	}
}

func (m model) statusBarView(b *strings.Builder) {
	const (
		minPercent               float64 = 0.0
		maxPercent               float64 = 1.0
		percentToStringMagnitude float64 = 100.0
	)

	logo := isabelLogoView()

	// Scroll percent
	percent := math.Max(minPercent, math.Min(maxPercent, m.viewport.ScrollPercent()))
	scrollPercent := statusBarScrollPosStyle(fmt.Sprintf(" %3.f%% ", percent*percentToStringMagnitude))

	helpNote := statusBarHelpStyle(" esc ayuda ")

	noteText, isError := m.statusNote()
	noteStyle := statusBarNoteStyle
	if isError {
		noteStyle = statusBarErrorStyle
	}
	note := truncate.StringWithTail(" "+noteText+" ", uint(max(0, //nolint:gosec
		m.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(scrollPercent)-
			ansi.PrintableRuneWidth(helpNote),
	)), ellipsis)
	note = noteStyle(note)

	// Empty space
	padding := max(0,
		m.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(note)-
			ansi.PrintableRuneWidth(scrollPercent)-
			ansi.PrintableRuneWidth(helpNote),
	)
	emptySpace := noteStyle(strings.Repeat(" ", padding))

	fmt.Fprintf(b, "%s%s%s%s%s",
		logo,
		note,
		emptySpace,
		scrollPercent,
		helpNote,
	)
}
