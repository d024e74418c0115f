package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/yungbote/complaintdesk-backend/internal/pkg/errors"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondServiceError maps the service sentinel errors onto HTTP statuses.
func RespondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pkgerrors.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, pkgerrors.ErrPermissionDenied):
		RespondError(c, http.StatusForbidden, "permission_denied", err)
	case errors.Is(err, pkgerrors.ErrValidation):
		RespondError(c, http.StatusBadRequest, "validation", err)
	case errors.Is(err, pkgerrors.ErrConflict):
		RespondError(c, http.StatusConflict, "conflict", err)
	case errors.Is(err, pkgerrors.ErrTransport):
		RespondError(c, http.StatusBadGateway, "upstream", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal", err)
	}
}
