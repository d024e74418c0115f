package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/complaintdesk-backend/internal/services"
	"github.com/yungbote/complaintdesk-backend/internal/types"
)

type HubHandler struct {
	hubService services.HubService
}

func NewHubHandler(hubService services.HubService) *HubHandler {
	return &HubHandler{hubService: hubService}
}

func (hh *HubHandler) Create(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Location string `json:"location"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	hub := types.Hub{Name: req.Name, Location: req.Location}
	if err := hh.hubService.CreateHub(c.Request.Context(), &hub); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, hub)
}

func (hh *HubHandler) Get(c *gin.Context) {
	hubID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	hub, err := hh.hubService.GetHub(c.Request.Context(), hubID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, hub)
}

func (hh *HubHandler) List(c *gin.Context) {
	hubs, err := hh.hubService.ListHubs(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"hubs": hubs})
}
