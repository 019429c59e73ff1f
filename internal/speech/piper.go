package speech

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// piperEngine synthesizes raw PCM through the piper binary and plays
// it on the default audio device. Unlike the command engines it does
// not play audio itself, so cancellation stops the player rather than
// the synthesis process.
type piperEngine struct {
	bin   string
	model string
}

func newPiperEngine(bin, model string) *piperEngine {
	if bin == "" {
		bin = "piper"
	}
	return &piperEngine{bin: bin, model: model}
}

func (e *piperEngine) Name() string {
	return "piper"
}

// Available requires both a configured, readable voice model and the
// binary on PATH.
func (e *piperEngine) Available() bool {
	if e.model == "" {
		return false
	}
	if _, err := os.Stat(e.model); err != nil {
		return false
	}
	_, err := exec.LookPath(e.bin)
	return err == nil
}

func (e *piperEngine) Speak(ctx context.Context, text string) error {
	cmd := exec.CommandContext(ctx, e.bin, "--model", e.model, "--output-raw")
	cmd.Stdin = strings.NewReader(text + "\n")

	pcm, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("piper: %w", err)
	}
	if len(pcm) == 0 {
		return fmt.Errorf("piper: no audio produced")
	}

	return playPCM(ctx, pcm)
}
