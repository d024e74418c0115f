package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/complaintdesk-backend/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (uh *UserHandler) GetMe(c *gin.Context) {
	user, err := uh.userService.GetProfile(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, user)
}

func (uh *UserHandler) UpdateName(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := uh.userService.UpdateName(c.Request.Context(), req.Name); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"name": req.Name})
}
