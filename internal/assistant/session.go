package assistant

import (
	"context"
	"fmt"
	"strings"
	"sync"

	pkgerrors "github.com/yungbote/complaintdesk-backend/internal/pkg/errors"
)

type SessionState string

const (
	StateIdle      SessionState = "idle"
	StateSending   SessionState = "sending"
	StateStreaming SessionState = "streaming"
	StateDone      SessionState = "done"
	StateFailed    SessionState = "failed"
)

// FallbackMessage is appended to the conversation when a send fails. The
// caller may re-invoke Send explicitly; there is no automatic retry.
const FallbackMessage = "Sorry, I encountered an error. Please try again."

// Session is one drafting conversation against the assistant backend. At
// most one exchange may be in flight: Send while sending or streaming is
// rejected with ErrConflict, not queued. Cancelling the ctx passed to Send
// aborts the underlying request and fails the exchange.
type Session struct {
	client *Client

	mu      sync.Mutex
	state   SessionState
	history []Message
	partial string
}

// NewSession starts an Idle session seeded with the given opening turns
// (typically a single assistant greeting).
func NewSession(client *Client, opening ...Message) *Session {
	return &Session{
		client:  client,
		state:   StateIdle,
		history: append([]Message{}, opening...),
	}
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// History returns a copy of the completed turns, including fallback
// messages from failed sends.
func (s *Session) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message{}, s.history...)
}

// Partial returns the assistant message accumulated so far during an
// in-flight stream, so callers can render token by token.
func (s *Session) Partial() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.partial
}

// Send issues one exchange: the full prior history plus the new user turn.
// onDelta (optional) observes each content fragment in order. On success it
// returns the complete assistant reply, already appended to the history.
func (s *Session) Send(ctx context.Context, userText string, onDelta func(delta string)) (string, error) {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return "", fmt.Errorf("%w: empty message", pkgerrors.ErrValidation)
	}

	s.mu.Lock()
	if s.state == StateSending || s.state == StateStreaming {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: send already in flight", pkgerrors.ErrConflict)
	}
	s.state = StateSending
	s.partial = ""
	s.history = append(s.history, Message{Role: "user", Content: userText})
	turns := append([]Message{}, s.history...)
	s.mu.Unlock()

	body, err := s.client.OpenStream(ctx, turns)
	if err != nil {
		s.fail()
		return "", fmt.Errorf("%w: %v", pkgerrors.ErrTransport, err)
	}
	defer body.Close()

	s.mu.Lock()
	s.state = StateStreaming
	s.mu.Unlock()

	full, err := DecodeStream(body, func(delta string) {
		s.mu.Lock()
		s.partial += delta
		s.mu.Unlock()
		if onDelta != nil {
			onDelta(delta)
		}
	})
	if err != nil {
		s.fail()
		return "", fmt.Errorf("%w: %v", pkgerrors.ErrTransport, err)
	}

	s.mu.Lock()
	s.state = StateDone
	s.partial = ""
	s.history = append(s.history, Message{Role: "assistant", Content: full})
	s.mu.Unlock()
	return full, nil
}

func (s *Session) fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateFailed
	s.partial = ""
	s.history = append(s.history, Message{Role: "assistant", Content: FallbackMessage})
}
