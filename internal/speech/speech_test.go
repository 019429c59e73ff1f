package speech

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"
)

// fakeEngine is a controllable engine double: Speak reports start on a
// channel and blocks until released or cancelled.
type fakeEngine struct {
	available bool
	started   chan string
	release   chan struct{}

	mu     sync.Mutex
	spoken []string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		available: true,
		started:   make(chan string, 4),
		release:   make(chan struct{}),
	}
}

func (e *fakeEngine) Name() string { return "fake" }

func (e *fakeEngine) Available() bool { return e.available }

func (e *fakeEngine) Speak(ctx context.Context, text string) error {
	e.started <- text
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-e.release:
		e.mu.Lock()
		e.spoken = append(e.spoken, text)
		e.mu.Unlock()
		return nil
	}
}

func (e *fakeEngine) playedTexts() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.spoken))
	copy(out, e.spoken)
	return out
}

func waitStarted(t *testing.T, e *fakeEngine, want string) {
	t.Helper()
	select {
	case got := <-e.started:
		if got != want {
			t.Fatalf("started %q, want %q", got, want)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for %q to start", want)
	}
}

// TestStartNewestWins tests the single-utterance rule: starting a new
// playback cancels the active one, and only the newest is heard.
func TestStartNewestWins(t *testing.T) {
	eng := newFakeEngine()
	c := NewController(eng)

	a, err := c.Start("primero")
	if err != nil {
		t.Fatalf("Start(primero) = %v", err)
	}
	waitStarted(t, eng, "primero")

	b, err := c.Start("segundo")
	if err != nil {
		t.Fatalf("Start(segundo) = %v", err)
	}

	if err := a.Wait(); err != nil {
		t.Errorf("cancelled utterance Wait() = %v, want nil", err)
	}
	waitStarted(t, eng, "segundo")

	eng.release <- struct{}{}
	if err := b.Wait(); err != nil {
		t.Errorf("Wait() = %v, want nil", err)
	}

	if got := eng.playedTexts(); !reflect.DeepEqual(got, []string{"segundo"}) {
		t.Errorf("fully played = %q, want only the newest", got)
	}
	if c.Active() {
		t.Error("Active() = true after playback finished")
	}
}

// TestCancel tests stopping playback through the controller and
// through the utterance handle.
func TestCancel(t *testing.T) {
	tests := []struct {
		name   string
		cancel func(c *Controller, u *Utterance)
	}{
		{name: "controller", cancel: func(c *Controller, _ *Utterance) { c.Cancel() }},
		{name: "handle", cancel: func(_ *Controller, u *Utterance) { u.Cancel() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := newFakeEngine()
			c := NewController(eng)

			u, err := c.Start("hola")
			if err != nil {
				t.Fatalf("Start() = %v", err)
			}
			waitStarted(t, eng, "hola")

			tt.cancel(c, u)
			if err := u.Wait(); err != nil {
				t.Errorf("Wait() = %v, want nil after cancel", err)
			}
			if c.Active() {
				t.Error("Active() = true after cancel")
			}
			if played := eng.playedTexts(); len(played) != 0 {
				t.Errorf("fully played = %q, want none", played)
			}
		})
	}
}

// TestCancelIdle tests that cancelling with nothing playing is a
// no-op.
func TestCancelIdle(t *testing.T) {
	c := NewController(newFakeEngine())
	c.Cancel()
	if c.Active() {
		t.Error("Active() = true on idle controller")
	}
}

// TestStartNoEngine tests that a machine without synthesizers reports
// ErrNoEngine at playback time.
func TestStartNoEngine(t *testing.T) {
	eng := newFakeEngine()
	eng.available = false
	c := NewController(eng)

	if _, err := c.Start("hola"); !errors.Is(err, ErrNoEngine) {
		t.Errorf("Start() = %v, want ErrNoEngine", err)
	}
}

// TestStartEmptyText tests that unspeakable input is rejected before
// touching any engine.
func TestStartEmptyText(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "empty", text: ""},
		{name: "whitespace", text: "  \n\t "},
		{name: "markdown with no speakable text", text: "![escudo](escudo.png)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController(newFakeEngine())
			if _, err := c.Start(tt.text); !errors.Is(err, ErrEmptyText) {
				t.Errorf("Start(%q) = %v, want ErrEmptyText", tt.text, err)
			}
		})
	}
}

// TestSequentialPlayback tests that utterances played back to back both
// complete.
func TestSequentialPlayback(t *testing.T) {
	eng := newFakeEngine()
	c := NewController(eng)

	for _, text := range []string{"uno", "dos"} {
		u, err := c.Start(text)
		if err != nil {
			t.Fatalf("Start(%q) = %v", text, err)
		}
		waitStarted(t, eng, text)
		eng.release <- struct{}{}
		if err := u.Wait(); err != nil {
			t.Fatalf("Wait(%q) = %v", text, err)
		}
	}

	if got := eng.playedTexts(); !reflect.DeepEqual(got, []string{"uno", "dos"}) {
		t.Errorf("fully played = %q", got)
	}
}

// TestEngines tests the probe list construction.
func TestEngines(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantNames []string
	}{
		{
			name:      "auto order",
			cfg:       Config{},
			wantNames: []string{"say", "espeak-ng", "espeak", "piper"},
		},
		{
			name:      "forced say",
			cfg:       Config{Engine: "say"},
			wantNames: []string{"say"},
		},
		{
			name:      "forced piper",
			cfg:       Config{Engine: "piper", PiperModel: "/tmp/voz.onnx"},
			wantNames: []string{"piper"},
		},
		{
			name:      "unknown engine",
			cfg:       Config{Engine: "festival"},
			wantNames: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var names []string
			for _, e := range Engines(tt.cfg) {
				names = append(names, e.Name())
			}
			if !reflect.DeepEqual(names, tt.wantNames) {
				t.Errorf("Engines() = %q, want %q", names, tt.wantNames)
			}
		})
	}
}

// TestPiperUnavailableWithoutModel tests that piper is never selected
// without a configured voice model.
func TestPiperUnavailableWithoutModel(t *testing.T) {
	e := newPiperEngine("", "")
	if e.Available() {
		t.Error("Available() = true without a model")
	}
}
