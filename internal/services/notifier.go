package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/complaintdesk-backend/internal/realtime"
	"github.com/yungbote/complaintdesk-backend/internal/types"
)

// ComplaintNotifier publishes complaint lifecycle and chat events. Lifecycle
// events go to the complaint channel so every viewer of that complaint sees
// the change; creation additionally goes to the submitter's user channel so
// list views refresh without a complaint subscription.
type ComplaintNotifier interface {
	ComplaintCreated(complaint *types.ComplaintView)
	StatusChanged(complaintID uuid.UUID, previous, next types.ComplaintStatus)
	Resolved(complaintID uuid.UUID, note string)
	Deleted(complaintID uuid.UUID)
	MessageCreated(complaintID uuid.UUID, msg *types.Message, senderName string)
}

type complaintNotifier struct {
	emit SSEEmitter
}

func NewComplaintNotifier(emit SSEEmitter) ComplaintNotifier {
	return &complaintNotifier{emit: emit}
}

func (n *complaintNotifier) ComplaintCreated(complaint *types.ComplaintView) {
	if n == nil || n.emit == nil || complaint == nil {
		return
	}
	data := map[string]any{"complaint": complaint}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: realtime.ComplaintChannel(complaint.ID),
		Event:   realtime.SSEEventComplaintCreated,
		Data:    data,
	})
	if complaint.SubmitterID != nil {
		n.emit.Emit(context.Background(), realtime.SSEMessage{
			Channel: realtime.UserChannel(*complaint.SubmitterID),
			Event:   realtime.SSEEventComplaintCreated,
			Data:    data,
		})
	}
}

func (n *complaintNotifier) StatusChanged(complaintID uuid.UUID, previous, next types.ComplaintStatus) {
	if n == nil || n.emit == nil || complaintID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: realtime.ComplaintChannel(complaintID),
		Event:   realtime.SSEEventComplaintStatusChanged,
		Data: map[string]any{
			"complaint_id": complaintID,
			"previous":     previous,
			"status":       next,
		},
	})
}

func (n *complaintNotifier) Resolved(complaintID uuid.UUID, note string) {
	if n == nil || n.emit == nil || complaintID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: realtime.ComplaintChannel(complaintID),
		Event:   realtime.SSEEventComplaintResolved,
		Data: map[string]any{
			"complaint_id":    complaintID,
			"status":          types.StatusResolved,
			"resolution_note": note,
		},
	})
}

func (n *complaintNotifier) Deleted(complaintID uuid.UUID) {
	if n == nil || n.emit == nil || complaintID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: realtime.ComplaintChannel(complaintID),
		Event:   realtime.SSEEventComplaintDeleted,
		Data:    map[string]any{"complaint_id": complaintID},
	})
}

func (n *complaintNotifier) MessageCreated(complaintID uuid.UUID, msg *types.Message, senderName string) {
	if n == nil || n.emit == nil || complaintID == uuid.Nil || msg == nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: realtime.ComplaintChannel(complaintID),
		Event:   realtime.SSEEventMessageCreated,
		Data: map[string]any{
			"complaint_id": complaintID,
			"message":      msg,
			"sender_name":  senderName,
		},
	})
}
