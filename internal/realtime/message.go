package realtime

import "github.com/google/uuid"

type SSEEvent string

const (
	SSEEventComplaintCreated       SSEEvent = "ComplaintCreated"
	SSEEventComplaintStatusChanged SSEEvent = "ComplaintStatusChanged"
	SSEEventComplaintResolved      SSEEvent = "ComplaintResolved"
	SSEEventComplaintDeleted       SSEEvent = "ComplaintDeleted"
	SSEEventMessageCreated         SSEEvent = "MessageCreated"
	SSEEventAssistantDelta         SSEEvent = "AssistantDelta"
	SSEEventAssistantDone          SSEEvent = "AssistantDone"
	SSEEventAssistantError         SSEEvent = "AssistantError"
)

type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}

// ComplaintChannel is the hub channel name carrying all events for one
// complaint (status changes and chat messages alike).
func ComplaintChannel(complaintID uuid.UUID) string {
	return "complaint:" + complaintID.String()
}

// UserChannel carries events addressed to a single user across all of
// their open tabs.
func UserChannel(userID uuid.UUID) string {
	return "user:" + userID.String()
}
