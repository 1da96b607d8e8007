package conversation

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Session is the ordered, append-only transcript of one case.
// Insertion order is the only ordering guarantee; turns are never
// reordered or removed once appended. A session is owned by exactly
// one active conversation and must not be shared across cases.
type Session struct {
	id        string
	turns     []Turn
	startedAt time.Time
}

// NewSession creates an empty session with a ULID identifier
func NewSession() *Session {
	now := time.Now()
	entropy := ulid.Monotonic(rand.Reader, 0)
	return &Session{
		id:        "SES-" + ulid.MustNew(ulid.Timestamp(now), entropy).String(),
		startedAt: now,
	}
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// StartedAt returns the session creation time
func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

// Append adds a turn to the end of the transcript
func (s *Session) Append(turn Turn) {
	s.turns = append(s.turns, turn)
}

// Turns returns a copy of the transcript in insertion order
func (s *Session) Turns() []Turn {
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of turns in the transcript
func (s *Session) Len() int {
	return len(s.turns)
}
