package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/complaintdesk-backend/internal/services"
)

type ConversationHandler struct {
	conversationService services.ConversationService
}

func NewConversationHandler(conversationService services.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService}
}

// Append posts one message to a complaint's conversation.
func (vh *ConversationHandler) Append(c *gin.Context) {
	complaintID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var req struct {
		Content  string         `json:"content"`
		Metadata datatypes.JSON `json:"metadata"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	view, err := vh.conversationService.AppendMessage(c.Request.Context(), complaintID, req.Content, req.Metadata)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, view)
}

// Replay returns the full conversation in replay order. Clients reconcile
// against their live stream by message id.
func (vh *ConversationHandler) Replay(c *gin.Context) {
	complaintID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	views, err := vh.conversationService.Replay(c.Request.Context(), complaintID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"messages": views})
}
