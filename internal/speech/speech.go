// Package speech plays assistant answers aloud through platform
// text-to-speech engines. The audio resource is owned by at most one
// utterance at a time: starting a new playback cancels the previous
// one. Engines are probed lazily, so a machine without any synthesizer
// only reports that at the moment playback is requested.
package speech

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	// ErrNoEngine means no text-to-speech engine is available on
	// this machine.
	ErrNoEngine = errors.New("speech: no text-to-speech engine available")
	// ErrEmptyText means there was nothing speakable in the input.
	ErrEmptyText = errors.New("speech: nothing to speak")
)

// Utterance is the owned handle for one playback.
type Utterance struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Cancel stops this playback. Cancelling a finished utterance is a
// no-op.
func (u *Utterance) Cancel() {
	u.cancel()
}

// Done is closed when playback ends, whether it finished, failed, or
// was cancelled.
func (u *Utterance) Done() <-chan struct{} {
	return u.done
}

// Wait blocks until playback ends and returns its error. Cancellation
// is not an error: a cancelled utterance waits out to nil.
func (u *Utterance) Wait() error {
	<-u.done
	return u.err
}

// Controller owns the speech resource. It is safe for concurrent use;
// cancellation crosses goroutines.
type Controller struct {
	mu      sync.Mutex
	engines []Engine
	engine  Engine
	probed  bool
	current *Utterance
}

// NewController builds a controller probing the given engines in
// order. With no arguments it probes the platform defaults.
func NewController(engines ...Engine) *Controller {
	if len(engines) == 0 {
		engines = Engines(Config{})
	}
	return &Controller{engines: engines}
}

// Start flattens text to speakable form and begins playback, cancelling
// any in-progress utterance first (newest wins). The engine probe runs
// on first use so ErrNoEngine surfaces at playback time, not at
// program start.
func (c *Controller) Start(text string) (*Utterance, error) {
	flat := Flatten(text)
	if strings.TrimSpace(flat) == "" {
		return nil, ErrEmptyText
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	eng, err := c.resolveLocked()
	if err != nil {
		return nil, err
	}

	if c.current != nil {
		c.current.cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	u := &Utterance{cancel: cancel, done: make(chan struct{})}
	c.current = u

	go func() {
		err := eng.Speak(ctx, flat)
		if ctx.Err() != nil {
			err = nil
		}
		u.err = err

		c.mu.Lock()
		if c.current == u {
			c.current = nil
		}
		c.mu.Unlock()

		close(u.done)
	}()

	return u, nil
}

// Cancel stops the active utterance, if any.
func (c *Controller) Cancel() {
	c.mu.Lock()
	u := c.current
	c.mu.Unlock()

	if u != nil {
		u.cancel()
	}
}

// Active reports whether an utterance is currently playing.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

func (c *Controller) resolveLocked() (Engine, error) {
	if !c.probed {
		c.probed = true
		for _, e := range c.engines {
			if e.Available() {
				c.engine = e
				log.Debug("speech engine selected", "engine", e.Name())
				break
			}
		}
	}
	if c.engine == nil {
		return nil, ErrNoEngine
	}
	return c.engine, nil
}
