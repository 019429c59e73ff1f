package ui

import "time"

// Config contains the resolved configuration for a chat session. Env
// values are parsed first; the command line then overrides whatever it
// binds explicitly.
type Config struct {
	BackendURL      string `env:"ISABEL_BACKEND" envDefault:"http://localhost:8000"`
	TopK            int    `env:"ISABEL_TOP_K"   envDefault:"5"`
	GlamourMaxWidth uint
	GlamourStyle    string `env:"GLAMOUR_STYLE"`
	EnableMouse     bool

	// Cover fields for exported transcripts.
	Title       string
	Institution string
	Student     string
	LogoPath    string

	// Where exported transcripts are written.
	OutDir string

	// Speech synthesis. Engine is "auto", a known engine name, or
	// empty for auto.
	SpeechEngine string
	SpeechVoice  string
	PiperBin     string
	PiperModel   string `env:"ISABEL_PIPER_MODEL"`

	// HealthInterval is the backend re-poll period.
	HealthInterval time.Duration `env:"ISABEL_HEALTH_INTERVAL" envDefault:"30s"`
}
