package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/complaintdesk-backend/internal/assistant"
	pkgerrors "github.com/yungbote/complaintdesk-backend/internal/pkg/errors"
	"github.com/yungbote/complaintdesk-backend/internal/pkg/logger"
	"github.com/yungbote/complaintdesk-backend/internal/realtime"
	"github.com/yungbote/complaintdesk-backend/internal/requestdata"
)

// DraftGreeting opens every drafting session.
const DraftGreeting = "Hi! I can help you write your complaint. Tell me what happened and I will draft it with you."

// AssistantService runs one drafting conversation per user against the
// assistant backend. Fragments stream to the caller and, mirrored, to the
// user's SSE channel so other open tabs render the same draft.
type AssistantService interface {
	SendDraftMessage(ctx context.Context, userText string, onDelta func(delta string)) (string, error)
	DraftHistory(ctx context.Context) ([]assistant.Message, error)
	ResetDraft(ctx context.Context) error
}

type assistantService struct {
	log    *logger.Logger
	client *assistant.Client
	emit   SSEEmitter

	mu       sync.Mutex
	sessions map[uuid.UUID]*assistant.Session
}

func NewAssistantService(log *logger.Logger, client *assistant.Client, emit SSEEmitter) AssistantService {
	return &assistantService{
		log:      log.With("service", "AssistantService"),
		client:   client,
		emit:     emit,
		sessions: make(map[uuid.UUID]*assistant.Session),
	}
}

func (s *assistantService) session(userID uuid.UUID) *assistant.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		sess = assistant.NewSession(s.client, assistant.Message{Role: "assistant", Content: DraftGreeting})
		s.sessions[userID] = sess
	}
	return sess
}

func (s *assistantService) SendDraftMessage(ctx context.Context, userText string, onDelta func(delta string)) (string, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return "", fmt.Errorf("%w: not authenticated", pkgerrors.ErrPermissionDenied)
	}
	sess := s.session(rd.UserID)
	channel := realtime.UserChannel(rd.UserID)

	full, err := sess.Send(ctx, userText, func(delta string) {
		if onDelta != nil {
			onDelta(delta)
		}
		s.emit.Emit(ctx, realtime.SSEMessage{
			Channel: channel,
			Event:   realtime.SSEEventAssistantDelta,
			Data:    map[string]any{"delta": delta},
		})
	})
	if err != nil {
		s.emit.Emit(ctx, realtime.SSEMessage{
			Channel: channel,
			Event:   realtime.SSEEventAssistantError,
			Data:    map[string]any{"message": assistant.FallbackMessage},
		})
		s.log.Warn("draft exchange failed", "user_id", rd.UserID, "error", err)
		return "", err
	}

	s.emit.Emit(ctx, realtime.SSEMessage{
		Channel: channel,
		Event:   realtime.SSEEventAssistantDone,
		Data:    map[string]any{"content": full},
	})
	return full, nil
}

func (s *assistantService) DraftHistory(ctx context.Context) ([]assistant.Message, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: not authenticated", pkgerrors.ErrPermissionDenied)
	}
	return s.session(rd.UserID).History(), nil
}

// ResetDraft discards the user's drafting conversation. A send still in
// flight keeps its old session; the next message starts the fresh one.
func (s *assistantService) ResetDraft(ctx context.Context) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return fmt.Errorf("%w: not authenticated", pkgerrors.ErrPermissionDenied)
	}
	s.mu.Lock()
	delete(s.sessions, rd.UserID)
	s.mu.Unlock()
	return nil
}
