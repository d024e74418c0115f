package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	pkgerrors "github.com/yungbote/complaintdesk-backend/internal/pkg/errors"
	"github.com/yungbote/complaintdesk-backend/internal/pkg/logger"
	"github.com/yungbote/complaintdesk-backend/internal/realtime"
	"github.com/yungbote/complaintdesk-backend/internal/repos"
	"github.com/yungbote/complaintdesk-backend/internal/requestdata"
	"github.com/yungbote/complaintdesk-backend/internal/types"
)

// MessageView is a conversation message stamped with its sender's display
// name, respecting anonymity: an anonymous submitter's messages show the
// anonymous display name to everyone but themselves.
type MessageView struct {
	types.Message
	SenderName string `json:"sender_name"`
}

// ConversationService is the per-complaint discussion thread. A client
// catches up with Replay, then receives everything after its watermark via
// Subscribe; message ids are the dedup key for the overlap between the two.
type ConversationService interface {
	AppendMessage(ctx context.Context, complaintID uuid.UUID, content string, metadata datatypes.JSON) (*MessageView, error)
	Replay(ctx context.Context, complaintID uuid.UUID) ([]*MessageView, error)
	Subscribe(ctx context.Context, complaintID uuid.UUID, fn func(realtime.SSEMessage)) (*realtime.Subscription, error)
}

type conversationService struct {
	db            *gorm.DB
	log           *logger.Logger
	messageRepo   repos.MessageRepo
	complaintRepo repos.ComplaintRepo
	userRepo      repos.UserRepo
	hub           *realtime.SSEHub
	notifier      ComplaintNotifier
}

func NewConversationService(
	db *gorm.DB,
	log *logger.Logger,
	messageRepo repos.MessageRepo,
	complaintRepo repos.ComplaintRepo,
	userRepo repos.UserRepo,
	hub *realtime.SSEHub,
	notifier ComplaintNotifier,
) ConversationService {
	return &conversationService{
		db:            db,
		log:           log.With("service", "ConversationService"),
		messageRepo:   messageRepo,
		complaintRepo: complaintRepo,
		userRepo:      userRepo,
		hub:           hub,
		notifier:      notifier,
	}
}

// accessComplaint loads the complaint and verifies the caller may read its
// conversation. Denied access reports ErrNotFound to avoid existence leaks.
func (vs *conversationService) accessComplaint(ctx context.Context, complaintID uuid.UUID) (*requestdata.RequestData, *types.Complaint, error) {
	rd, err := requireAuth(ctx)
	if err != nil {
		return nil, nil, err
	}
	complaint, err := vs.complaintRepo.GetByID(ctx, nil, complaintID)
	if err != nil {
		return nil, nil, err
	}
	if !canViewComplaint(rd, complaint) {
		return nil, nil, pkgerrors.ErrNotFound
	}
	return rd, complaint, nil
}

func (vs *conversationService) AppendMessage(ctx context.Context, complaintID uuid.UUID, content string, metadata datatypes.JSON) (*MessageView, error) {
	rd, complaint, err := vs.accessComplaint(ctx, complaintID)
	if err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: empty message", pkgerrors.ErrValidation)
	}
	if len(content) > types.MaxMessageLength {
		return nil, fmt.Errorf("%w: message exceeds %d characters", pkgerrors.ErrValidation, types.MaxMessageLength)
	}

	msg := &types.Message{
		ID:          uuid.New(),
		ComplaintID: complaintID,
		SenderID:    rd.UserID,
		Content:     content,
	}
	if len(metadata) > 0 {
		msg.Metadata = metadata
	}
	if _, err := vs.messageRepo.Create(ctx, nil, msg); err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}

	senderName := ""
	if user, err := vs.userRepo.GetByID(ctx, nil, rd.UserID); err == nil {
		senderName = user.Name
	}
	// The broadcast reaches every viewer on the complaint channel, the
	// sender's own tabs included, so it carries the redacted name when the
	// sender is an anonymous submitter. The payload keeps the real
	// sender_id; a client showing its own user's messages resolves the
	// name locally by that id, the same way Replay does.
	broadcastName := senderName
	if complaint.IsAnonymous && rd.UserID == complaint.SubmitterID {
		broadcastName = types.AnonymousDisplayName
	}
	vs.notifier.MessageCreated(complaintID, msg, broadcastName)
	return &MessageView{Message: *msg, SenderName: senderName}, nil
}

// Replay returns the full conversation in total order: ascending creation
// time with the message id breaking ties, the same order every reader sees.
func (vs *conversationService) Replay(ctx context.Context, complaintID uuid.UUID) ([]*MessageView, error) {
	rd, complaint, err := vs.accessComplaint(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	messages, err := vs.messageRepo.ListByComplaint(ctx, nil, complaintID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	seen := map[uuid.UUID]bool{}
	ids := make([]uuid.UUID, 0, len(messages))
	for _, m := range messages {
		if !seen[m.SenderID] {
			seen[m.SenderID] = true
			ids = append(ids, m.SenderID)
		}
	}
	names := map[uuid.UUID]string{}
	if len(ids) > 0 {
		users, err := vs.userRepo.GetByIDs(ctx, nil, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to load senders: %w", err)
		}
		for _, u := range users {
			names[u.ID] = u.Name
		}
	}

	views := make([]*MessageView, 0, len(messages))
	for _, m := range messages {
		name := names[m.SenderID]
		if complaint.IsAnonymous && m.SenderID == complaint.SubmitterID && rd.UserID != complaint.SubmitterID {
			name = types.AnonymousDisplayName
		}
		views = append(views, &MessageView{Message: *m, SenderName: name})
	}
	return views, nil
}

// Subscribe attaches fn to the complaint's live channel after an access
// check. The returned handle must be closed by the caller; nothing else
// ends the subscription.
func (vs *conversationService) Subscribe(ctx context.Context, complaintID uuid.UUID, fn func(realtime.SSEMessage)) (*realtime.Subscription, error) {
	if _, _, err := vs.accessComplaint(ctx, complaintID); err != nil {
		return nil, err
	}
	return vs.hub.Subscribe(realtime.ComplaintChannel(complaintID), fn), nil
}

// MessageWatermark absorbs the overlap between a Replay and a live
// subscription. Prime it with the replayed thread, then gate live messages
// through Admit.
type MessageWatermark struct {
	mu   sync.Mutex
	seen map[uuid.UUID]struct{}
}

func NewMessageWatermark(history []*MessageView) *MessageWatermark {
	w := &MessageWatermark{seen: make(map[uuid.UUID]struct{}, len(history))}
	for _, m := range history {
		w.seen[m.ID] = struct{}{}
	}
	return w
}

// Admit reports whether the message id has not been seen before, recording
// it either way.
func (w *MessageWatermark) Admit(id uuid.UUID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.seen[id]; ok {
		return false
	}
	w.seen[id] = struct{}{}
	return true
}
