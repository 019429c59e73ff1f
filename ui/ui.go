// Package ui provides the terminal chat UI for talking to Isabel.
package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	runewidth "github.com/mattn/go-runewidth"
	te "github.com/muesli/termenv"

	"github.com/trastamara/isabel-chat/internal/backend"
	"github.com/trastamara/isabel-chat/internal/export"
	"github.com/trastamara/isabel-chat/internal/speech"
	"github.com/trastamara/isabel-chat/internal/transcript"
)

const (
	statusMessageTimeout = time.Second * 3 // how long to show status messages like "copied!"
	ellipsis             = "…"

	statusBarHeight = 1
	composerHeight  = 1
)

// Texts the UI shows verbatim. Several are pinned by tests, so change
// them deliberately.
const (
	welcomeText = "¡Hola! Soy **Isabel I de Castilla**. Pregúntame lo que quieras sobre mi vida y mi reinado."
	pendingText = "Pensando…"

	chatErrorText         = "No he podido responder. Comprueba que el servidor esté en marcha e inténtalo de nuevo."
	speechUnsupportedText = "Lectura en voz alta no disponible: no se encontró ningún motor de voz"
	noAnswerYetText       = "Aún no hay ninguna respuesta"
	copiedText            = "Respuesta copiada"
	speakingText          = "Leyendo la respuesta en voz alta (ctrl+x detiene)"

	userLabel      = "Tú"
	assistantLabel = "Isabel"
)

var chatHelpHeight int

// NewProgram returns a new Tea program running the chat session.
func NewProgram(cfg Config) *tea.Program {
	log.Debug(
		"Starting isabel",
		"backend", cfg.BackendURL,
		"top_k", cfg.TopK,
		"speech_engine", cfg.SpeechEngine,
	)

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	return tea.NewProgram(newModel(cfg), opts...)
}

// healthState is the last known result of the backend probe.
type healthState int

const (
	healthChecking healthState = iota
	healthUp
	healthDown
)

func (h healthState) String() string {
	return map[healthState]string{
		healthChecking: "checking",
		healthUp:       "up",
		healthDown:     "down",
	}[h]
}

type chatState int

const (
	chatStateReady chatState = iota
	chatStateStatusMessage
)

type model struct {
	cfg Config

	client   *backend.Client
	convo    *transcript.Log
	speech   *speech.Controller
	exporter *export.Exporter

	composer textinput.Model
	viewport viewport.Model
	spin     spinner.Model

	ready    bool
	width    int
	height   int
	showHelp bool

	health    healthState
	modelName string

	// Number of chat requests in flight. Answers address their own
	// turn by handle, so several may overlap.
	inflight int

	// Current speech playback, nil when idle.
	utterance *speech.Utterance

	state              chatState
	statusMessage      string
	statusIsError      bool
	statusMessageTimer *time.Timer
}

func newModel(cfg Config) model {
	if cfg.GlamourStyle == "" || cfg.GlamourStyle == styles.AutoStyle {
		if te.HasDarkBackground() {
			cfg.GlamourStyle = styles.DarkStyle
		} else {
			cfg.GlamourStyle = styles.LightStyle
		}
	}
	if cfg.GlamourMaxWidth == 0 {
		cfg.GlamourMaxWidth = 100
	}
	if cfg.HealthInterval <= 0 {
		cfg.HealthInterval = 30 * time.Second
	}

	ti := textinput.New()
	ti.Placeholder = "Escribe tu pregunta…"
	ti.Prompt = "> "
	ti.PromptStyle = promptStyle
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	convo := transcript.New()
	convo.Append(transcript.RoleAssistant, welcomeText)

	return model{
		cfg:    cfg,
		client: backend.New(cfg.BackendURL),
		convo:  convo,
		speech: speech.NewController(speech.Engines(speech.Config{
			Engine:     cfg.SpeechEngine,
			Voice:      cfg.SpeechVoice,
			PiperBin:   cfg.PiperBin,
			PiperModel: cfg.PiperModel,
		})...),
		exporter: export.New(export.Options{
			Title:       cfg.Title,
			Institution: cfg.Institution,
			Student:     cfg.Student,
			LogoPath:    cfg.LogoPath,
		}),
		composer: ti,
		viewport: viewport.New(0, 0),
		spin:     sp,
	}
}

func (m model) Init() tea.Cmd {
	log.Debug("Init() called", "health_interval", m.cfg.HealthInterval)
	return tea.Batch(
		textinput.Blink,
		checkHealthCmd(m.client),
		healthTick(m.cfg.HealthInterval),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {

		// Ctrl+C always quits no matter what the session is doing.
		case "ctrl+c":
			m.speech.Cancel()
			return m, tea.Quit

		case "esc":
			m.toggleHelp()
			return m, nil

		case "enter":
			cmd := m.submit()
			return m, cmd

		case "ctrl+s":
			answer, ok := m.convo.LastAnswer()
			if !ok {
				cmd := m.showStatusMessage(noAnswerYetText, false)
				return m, cmd
			}
			return m, speakCmd(m.speech, answer)

		case "ctrl+x":
			m.speech.Cancel()
			return m, nil

		case "ctrl+y":
			answer, ok := m.convo.LastAnswer()
			if !ok {
				cmd := m.showStatusMessage(noAnswerYetText, false)
				return m, cmd
			}
			return m, copyAnswerCmd(answer)

		case "ctrl+e":
			return m, exportCmd(m.exporter, m.convo.Turns(), m.convo.Citations(), m.cfg.OutDir)

		case "ctrl+r":
			m.health = healthChecking
			return m, checkHealthCmd(m.client)

		// Keys the composer has no use for scroll the conversation.
		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd

		default:
			var cmd tea.Cmd
			m.composer, cmd = m.composer.Update(msg)
			return m, cmd
		}

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	// Window size is received when starting up and on every resize.
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)
		m.ready = true
		m.refreshTranscript()
		m.viewport.GotoBottom()
		return m, nil

	case healthTickMsg:
		return m, tea.Batch(
			checkHealthCmd(m.client),
			healthTick(m.cfg.HealthInterval),
		)

	case healthMsg:
		if msg.err != nil {
			m.health = healthDown
			m.modelName = ""
		} else {
			m.health = healthUp
			m.modelName = msg.info.Model
		}
		log.Debug("health updated", "state", m.health, "model", m.modelName)
		return m, nil

	case chatMsg:
		m.inflight--
		if msg.err != nil {
			log.Error("chat request failed", "handle", msg.handle, "error", msg.err)
			if err := m.convo.Fail(msg.handle, chatErrorText); err != nil {
				log.Error("marking turn failed", "handle", msg.handle, "error", err)
			}
		} else {
			if err := m.convo.Resolve(msg.handle, msg.resp.Answer); err != nil {
				log.Error("resolving turn", "handle", msg.handle, "error", err)
			}
			m.convo.SetCitations(msg.resp.Citations())
		}
		m.refreshTranscript()
		m.viewport.GotoBottom()
		return m, nil

	case spinner.TickMsg:
		if m.inflight <= 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case speechStartedMsg:
		if msg.err != nil {
			if errors.Is(msg.err, speech.ErrNoEngine) {
				cmd := m.showStatusMessage(speechUnsupportedText, true)
				return m, cmd
			}
			log.Error("speech start failed", "error", msg.err)
			cmd := m.showStatusMessage("No se pudo iniciar la lectura: "+msg.err.Error(), true)
			return m, cmd
		}
		m.utterance = msg.utterance
		return m, waitSpeechCmd(msg.utterance)

	case speechDoneMsg:
		// A newer utterance may already have replaced this one.
		if msg.utterance != m.utterance {
			return m, nil
		}
		m.utterance = nil
		if msg.err != nil {
			log.Error("speech playback failed", "error", msg.err)
			cmd := m.showStatusMessage("La lectura ha fallado: "+msg.err.Error(), true)
			return m, cmd
		}
		return m, nil

	case exportedMsg:
		if msg.err != nil {
			log.Error("export failed", "error", msg.err)
			cmd := m.showStatusMessage("No se pudo exportar: "+msg.err.Error(), true)
			return m, cmd
		}
		cmd := m.showStatusMessage(exportedNote(msg), false)
		return m, cmd

	case copiedMsg:
		cmd := m.showStatusMessage(copiedText, false)
		return m, cmd

	case statusMessageTimeoutMsg:
		m.state = chatStateReady
		return m, nil
	}

	return m, nil
}

func (m model) View() string {
	if !m.ready {
		return "\n  Iniciando…"
	}

	var b strings.Builder
	fmt.Fprint(&b, m.viewport.View()+"\n")
	fmt.Fprint(&b, m.composer.View()+"\n")
	m.statusBarView(&b)

	if m.showHelp {
		fmt.Fprint(&b, "\n"+m.helpView())
	}

	return b.String()
}

func (m *model) setSize(w, h int) {
	m.width = w
	m.height = h
	m.composer.Width = max(0, w-4)
	m.viewport.Width = w
	m.viewport.Height = max(0, h-composerHeight-statusBarHeight)

	if m.showHelp {
		if chatHelpHeight == 0 {
			chatHelpHeight = strings.Count(m.helpView(), "\n")
		}
		m.viewport.Height = max(0, m.viewport.Height-(statusBarHeight+chatHelpHeight))
	}
}

func (m *model) toggleHelp() {
	m.showHelp = !m.showHelp
	m.setSize(m.width, m.height)
	if m.viewport.PastBottom() {
		m.viewport.GotoBottom()
	}
}

// showStatusMessage displays a note in the status bar for a few
// seconds. The returned command must be sent back through Update.
func (m *model) showStatusMessage(text string, isError bool) tea.Cmd {
	m.state = chatStateStatusMessage
	m.statusMessage = text
	m.statusIsError = isError
	if m.statusMessageTimer != nil {
		m.statusMessageTimer.Stop()
	}
	m.statusMessageTimer = time.NewTimer(statusMessageTimeout)

	return waitForStatusMessageTimeout(m.statusMessageTimer)
}

func waitForStatusMessageTimeout(t *time.Timer) tea.Cmd {
	return func() tea.Msg {
		<-t.C
		return statusMessageTimeoutMsg{}
	}
}

func (m model) helpView() (s string) {
	s += "\n"
	s += "enter      enviar la pregunta\n"
	s += "ctrl+s     leer la última respuesta en voz alta\n"
	s += "ctrl+x     detener la lectura\n"
	s += "ctrl+y     copiar la última respuesta\n"
	s += "ctrl+e     exportar la conversación a PDF\n"
	s += "ctrl+r     volver a comprobar el servidor\n"
	s += "pgup/pgdn  desplazar la conversación\n"
	s += "esc        cerrar esta ayuda\n"
	s += "ctrl+c     salir"

	s = indent(s, 2)

	// Fill up empty cells with spaces for background coloring
	if m.width > 0 {
		lines := strings.Split(s, "\n")
		for i := 0; i < len(lines); i++ {
			l := runewidth.StringWidth(lines[i])
			n := max(m.width-l, 0)
			lines[i] += strings.Repeat(" ", n)
		}

		s = strings.Join(lines, "\n")
	}

	return helpViewStyle(s)
}

// Lightweight version of reflow's indent function.
func indent(s string, n int) string {
	if n <= 0 || s == "" {
		return s
	}
	l := strings.Split(s, "\n")
	b := strings.Builder{}
	i := strings.Repeat(" ", n)
	for _, v := range l {
		fmt.Fprintf(&b, "%s%s\n", i, v)
	}
	return b.String()
}
