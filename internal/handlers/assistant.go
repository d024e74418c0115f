package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/complaintdesk-backend/internal/services"
)

type AssistantHandler struct {
	assistantService services.AssistantService
}

func NewAssistantHandler(assistantService services.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistantService: assistantService}
}

// Chat sends one drafting message and streams the reply back as SSE data
// frames, closing with a [DONE] sentinel.
func (ah *AssistantHandler) Chat(c *gin.Context) {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		RespondError(c, http.StatusInternalServerError, "internal", fmt.Errorf("streaming unsupported"))
		return
	}
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	flusher.Flush()

	_, err := ah.assistantService.SendDraftMessage(c.Request.Context(), req.Message, func(delta string) {
		frame, merr := json.Marshal(gin.H{"delta": delta})
		if merr != nil {
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", frame)
		flusher.Flush()
	})
	if err != nil {
		// Headers are gone; report the failure in-stream.
		frame, _ := json.Marshal(gin.H{"error": err.Error()})
		fmt.Fprintf(c.Writer, "data: %s\n\n", frame)
		flusher.Flush()
		return
	}
	fmt.Fprint(c.Writer, "data: [DONE]\n\n")
	flusher.Flush()
}

func (ah *AssistantHandler) History(c *gin.Context) {
	history, err := ah.assistantService.DraftHistory(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"messages": history})
}

func (ah *AssistantHandler) Reset(c *gin.Context) {
	if err := ah.assistantService.ResetDraft(c.Request.Context()); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"reset": true})
}
