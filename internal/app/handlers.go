package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/complaintdesk-backend/internal/handlers"
	"github.com/yungbote/complaintdesk-backend/internal/middleware"
	"github.com/yungbote/complaintdesk-backend/internal/pkg/logger"
	"github.com/yungbote/complaintdesk-backend/internal/realtime"
	"github.com/yungbote/complaintdesk-backend/internal/server"
)

type Middleware struct {
	Auth *middleware.AuthMiddleware
}

type Handlers struct {
	Auth         *handlers.AuthHandler
	User         *handlers.UserHandler
	Hub          *handlers.HubHandler
	Complaint    *handlers.ComplaintHandler
	Conversation *handlers.ConversationHandler
	Assistant    *handlers.AssistantHandler
	Realtime     *handlers.RealtimeHandler
}

func wireHandlers(log *logger.Logger, serviceset Services, hub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Auth:         handlers.NewAuthHandler(serviceset.Auth),
		User:         handlers.NewUserHandler(serviceset.User),
		Hub:          handlers.NewHubHandler(serviceset.Hub),
		Complaint:    handlers.NewComplaintHandler(serviceset.Complaint, serviceset.Mailer, serviceset.Bucket),
		Conversation: handlers.NewConversationHandler(serviceset.Conversation),
		Assistant:    handlers.NewAssistantHandler(serviceset.Assistant),
		Realtime:     handlers.NewRealtimeHandler(log, hub, serviceset.Complaint),
	}
}

func wireMiddleware(log *logger.Logger, serviceset Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: middleware.NewAuthMiddleware(log, serviceset.Auth),
	}
}

func wireRouter(cfg Config, handlerset Handlers, middlewareset Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AllowOrigins:        cfg.AllowOrigins,
		AuthMiddleware:      middlewareset.Auth,
		AuthHandler:         handlerset.Auth,
		UserHandler:         handlerset.User,
		HubHandler:          handlerset.Hub,
		ComplaintHandler:    handlerset.Complaint,
		ConversationHandler: handlerset.Conversation,
		AssistantHandler:    handlerset.Assistant,
		RealtimeHandler:     handlerset.Realtime,
	})
}
