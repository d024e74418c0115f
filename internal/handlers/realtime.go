package handlers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/complaintdesk-backend/internal/pkg/logger"
	"github.com/yungbote/complaintdesk-backend/internal/realtime"
	"github.com/yungbote/complaintdesk-backend/internal/requestdata"
	"github.com/yungbote/complaintdesk-backend/internal/services"
)

// RealtimeHandler serves the SSE stream and channel membership. One stream
// per session: a reconnecting tab replaces its previous client, so each
// login session holds at most one live connection.
type RealtimeHandler struct {
	log              *logger.Logger
	hub              *realtime.SSEHub
	complaintService services.ComplaintService

	mu      sync.RWMutex
	clients map[uuid.UUID]*realtime.SSEClient // keyed by session id
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub, complaintService services.ComplaintService) *RealtimeHandler {
	return &RealtimeHandler{
		log:              log.With("handler", "RealtimeHandler"),
		hub:              hub,
		complaintService: complaintService,
		clients:          make(map[uuid.UUID]*realtime.SSEClient),
	}
}

func (h *RealtimeHandler) Stream(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	if rd.SessionID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	h.mu.Lock()
	if existing, ok := h.clients[rd.SessionID]; ok {
		h.hub.CloseClient(existing)
		delete(h.clients, rd.SessionID)
	}
	client := h.hub.NewSSEClient(rd.UserID)
	h.clients[rd.SessionID] = client
	h.mu.Unlock()

	// Every stream carries the user's own channel from the start.
	h.hub.AddChannel(client, realtime.UserChannel(rd.UserID))
	h.log.Debug("SSE stream open", "user_id", rd.UserID, "session_id", rd.SessionID)

	h.hub.ServeHTTP(c.Writer, c.Request, client)

	h.mu.Lock()
	if h.clients[rd.SessionID] == client {
		delete(h.clients, rd.SessionID)
	}
	h.mu.Unlock()
	h.hub.CloseClient(client)
}

// Subscribe attaches the session's stream to a complaint channel after an
// access check against the complaint itself.
func (h *RealtimeHandler) Subscribe(c *gin.Context) {
	client, complaintID, ok := h.sessionClientAndComplaint(c)
	if !ok {
		return
	}
	if _, err := h.complaintService.GetComplaint(c.Request.Context(), complaintID); err != nil {
		RespondServiceError(c, err)
		return
	}
	h.hub.AddChannel(client, realtime.ComplaintChannel(complaintID))
	RespondOK(c, gin.H{"subscribed": complaintID})
}

func (h *RealtimeHandler) Unsubscribe(c *gin.Context) {
	client, complaintID, ok := h.sessionClientAndComplaint(c)
	if !ok {
		return
	}
	h.hub.RemoveChannel(client, realtime.ComplaintChannel(complaintID))
	RespondOK(c, gin.H{"unsubscribed": complaintID})
}

func (h *RealtimeHandler) sessionClientAndComplaint(c *gin.Context) (*realtime.SSEClient, uuid.UUID, bool) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.SessionID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return nil, uuid.Nil, false
	}
	var req struct {
		ComplaintID uuid.UUID `json:"complaint_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.ComplaintID == uuid.Nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return nil, uuid.Nil, false
	}

	h.mu.RLock()
	client, exists := h.clients[rd.SessionID]
	h.mu.RUnlock()
	if !exists {
		RespondError(c, http.StatusConflict, "no_stream", nil)
		return nil, uuid.Nil, false
	}
	return client, req.ComplaintID, true
}
