package speech

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Engine synthesizes and plays one piece of text. Speak blocks until
// playback finishes or ctx is cancelled.
type Engine interface {
	Name() string
	Available() bool
	Speak(ctx context.Context, text string) error
}

// Config selects and tunes the synthesis engines.
type Config struct {
	// Engine forces one engine by name; empty or "auto" probes the
	// platform default order.
	Engine string
	// Voice is passed to say/espeak when set.
	Voice string
	// PiperBin is the piper binary; defaults to "piper".
	PiperBin string
	// PiperModel is the path to a piper voice model. Piper is only
	// probed when a model is configured.
	PiperModel string
}

// Engines returns the probe list for cfg: the forced engine alone, or
// the default order (say, espeak-ng, espeak, piper).
func Engines(cfg Config) []Engine {
	say := &commandEngine{name: "say", bin: "say", voiceFlag: "-v", voice: cfg.Voice}
	espeakNG := &commandEngine{name: "espeak-ng", bin: "espeak-ng", voiceFlag: "-v", voice: cfg.Voice}
	espeak := &commandEngine{name: "espeak", bin: "espeak", voiceFlag: "-v", voice: cfg.Voice}
	piper := newPiperEngine(cfg.PiperBin, cfg.PiperModel)

	switch cfg.Engine {
	case "", "auto":
		return []Engine{say, espeakNG, espeak, piper}
	case "say":
		return []Engine{say}
	case "espeak-ng":
		return []Engine{espeakNG}
	case "espeak":
		return []Engine{espeak}
	case "piper":
		return []Engine{piper}
	default:
		return nil
	}
}

// KnownEngines lists the accepted values for Config.Engine.
func KnownEngines() []string {
	return []string{"auto", "say", "espeak-ng", "espeak", "piper"}
}

// commandEngine speaks through a self-playing system synthesizer such
// as macOS say or espeak.
type commandEngine struct {
	name      string
	bin       string
	voiceFlag string
	voice     string
}

func (e *commandEngine) Name() string {
	return e.name
}

// Available reports whether the binary is on PATH.
func (e *commandEngine) Available() bool {
	_, err := exec.LookPath(e.bin)
	return err == nil
}

// Speak runs the synthesizer with the text as its argument. Cancelling
// ctx kills the process.
func (e *commandEngine) Speak(ctx context.Context, text string) error {
	var args []string
	if e.voice != "" {
		args = append(args, e.voiceFlag, e.voice)
	}
	args = append(args, text)

	cmd := exec.CommandContext(ctx, e.bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", e.name, err, msg)
		}
		return fmt.Errorf("%s: %w", e.name, err)
	}
	return nil
}
