// Package transcript holds the in-memory state of a chat session: the
// ordered turn sequence, handles for pending assistant turns, and the
// citation set belonging to the most recent answer.
package transcript

import "errors"

// ErrNoSuchTurn is returned when a handle does not address a turn.
var ErrNoSuchTurn = errors.New("transcript: no such turn")

// Role identifies the author of a turn.
type Role int

const (
	// RoleUser marks a turn typed by the student.
	RoleUser Role = iota
	// RoleAssistant marks a turn produced by the backend.
	RoleAssistant
)

// String returns the wire-level role name.
func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return "unknown"
	}
}

// Turn is one message in the conversation. Insertion order is display
// order. A turn is mutable only while pending; once resolved it is
// immutable.
type Turn struct {
	Role    Role
	Text    string
	Pending bool
	Failed  bool
}

// Citation is a source snippet returned alongside an answer. Page is
// 1-based; zero means the backend sent no page number. Score is the
// retrieval relevance, zero when absent.
type Citation struct {
	Filename string
	Page     int
	Snippet  string
	Score    float64
}

// Handle addresses a pending assistant turn created by Begin. It stays
// valid no matter how many turns are appended after it, so a slow
// response still resolves its own bubble.
type Handle int

// Log is the conversation state. It is owned by the UI event loop and
// is not safe for concurrent use.
type Log struct {
	turns     []Turn
	citations []Citation
}

// New returns an empty conversation log.
func New() *Log {
	return &Log{}
}

// Append adds a completed turn to the end of the log.
func (l *Log) Append(role Role, text string) {
	l.turns = append(l.turns, Turn{Role: role, Text: text})
}

// Begin appends a pending assistant turn holding placeholder text and
// returns the handle that Resolve or Fail must use to address it.
func (l *Log) Begin(placeholder string) Handle {
	l.turns = append(l.turns, Turn{Role: RoleAssistant, Text: placeholder, Pending: true})
	return Handle(len(l.turns) - 1)
}

// Resolve replaces the pending turn's placeholder with the answer text.
func (l *Log) Resolve(h Handle, text string) error {
	t, err := l.pending(h)
	if err != nil {
		return err
	}
	t.Text = text
	t.Pending = false
	return nil
}

// Fail marks the pending turn as errored and sets its display text,
// typically a fixed error message.
func (l *Log) Fail(h Handle, text string) error {
	t, err := l.pending(h)
	if err != nil {
		return err
	}
	t.Text = text
	t.Pending = false
	t.Failed = true
	return nil
}

func (l *Log) pending(h Handle) (*Turn, error) {
	i := int(h)
	if i < 0 || i >= len(l.turns) {
		return nil, ErrNoSuchTurn
	}
	t := &l.turns[i]
	if !t.Pending {
		return nil, ErrNoSuchTurn
	}
	return t, nil
}

// Turns returns a copy of the ordered turn sequence.
func (l *Log) Turns() []Turn {
	out := make([]Turn, len(l.turns))
	copy(out, l.turns)
	return out
}

// Len reports the number of turns.
func (l *Log) Len() int {
	return len(l.turns)
}

// LastAnswer returns the newest resolved assistant answer, skipping
// pending and failed turns.
func (l *Log) LastAnswer() (string, bool) {
	for i := len(l.turns) - 1; i >= 0; i-- {
		t := l.turns[i]
		if t.Role == RoleAssistant && !t.Pending && !t.Failed {
			return t.Text, true
		}
	}
	return "", false
}

// SetCitations replaces the citation set wholesale. Citations belong to
// the current answer only; they are never accumulated across answers.
func (l *Log) SetCitations(cs []Citation) {
	l.citations = make([]Citation, len(cs))
	copy(l.citations, cs)
}

// Citations returns a copy of the current citation set.
func (l *Log) Citations() []Citation {
	out := make([]Citation, len(l.citations))
	copy(out, l.citations)
	return out
}
