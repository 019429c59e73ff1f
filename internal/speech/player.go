package speech

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Piper voices emit 16-bit little-endian mono PCM at 22.05 kHz.
const (
	sampleRate = 22050
	channels   = 1
)

var (
	otoCtx  *oto.Context
	otoErr  error
	otoOnce sync.Once
)

// audioContext initializes the process-wide audio context on first
// use.
func audioContext() (*oto.Context, error) {
	otoOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channels,
			Format:       oto.FormatSignedInt16LE,
		})
		if err != nil {
			otoErr = fmt.Errorf("audio device: %w", err)
			return
		}
		<-ready
		otoCtx = ctx
	})
	return otoCtx, otoErr
}

// playPCM plays data to completion, stopping early when ctx is
// cancelled.
func playPCM(ctx context.Context, data []byte) error {
	actx, err := audioContext()
	if err != nil {
		return err
	}

	p := actx.NewPlayer(bytes.NewReader(data))
	defer p.Close() //nolint:errcheck
	p.Play()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !p.IsPlaying() {
				return nil
			}
		}
	}
}
