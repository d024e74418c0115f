package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yungbote/complaintdesk-backend/internal/handlers"
	"github.com/yungbote/complaintdesk-backend/internal/middleware"
)

type RouterConfig struct {
	AllowOrigins []string

	AuthMiddleware *middleware.AuthMiddleware

	AuthHandler         *handlers.AuthHandler
	UserHandler         *handlers.UserHandler
	HubHandler          *handlers.HubHandler
	ComplaintHandler    *handlers.ComplaintHandler
	ConversationHandler *handlers.ConversationHandler
	AssistantHandler    *handlers.AssistantHandler
	RealtimeHandler     *handlers.RealtimeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)
	router.POST("/refresh", cfg.AuthHandler.Refresh)

	// Protected
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())

	protected.POST("/logout", cfg.AuthHandler.Logout)

	protected.GET("/user", cfg.UserHandler.GetMe)
	protected.PATCH("/user/name", cfg.UserHandler.UpdateName)

	protected.GET("/hubs", cfg.HubHandler.List)
	protected.GET("/hubs/:id", cfg.HubHandler.Get)
	protected.POST("/hubs", cfg.HubHandler.Create)

	protected.POST("/complaints", cfg.ComplaintHandler.Create)
	protected.GET("/complaints", cfg.ComplaintHandler.List)
	protected.GET("/complaints/stats", cfg.ComplaintHandler.Stats)
	protected.GET("/complaints/:id", cfg.ComplaintHandler.Get)
	protected.PATCH("/complaints/:id", cfg.ComplaintHandler.UpdateDetails)
	protected.PATCH("/complaints/:id/status", cfg.ComplaintHandler.UpdateStatus)
	protected.POST("/complaints/:id/resolve", cfg.ComplaintHandler.Resolve)
	protected.POST("/complaints/:id/reopen", cfg.ComplaintHandler.Reopen)
	protected.PATCH("/complaints/:id/star", cfg.ComplaintHandler.SetStarred)
	protected.POST("/complaints/:id/forward", cfg.ComplaintHandler.Forward)
	protected.DELETE("/complaints/:id", cfg.ComplaintHandler.Delete)
	protected.POST("/attachments", cfg.ComplaintHandler.UploadAttachment)

	protected.GET("/complaints/:id/messages", cfg.ConversationHandler.Replay)
	protected.POST("/complaints/:id/messages", cfg.ConversationHandler.Append)

	protected.POST("/assistant/chat", cfg.AssistantHandler.Chat)
	protected.GET("/assistant/history", cfg.AssistantHandler.History)
	protected.POST("/assistant/reset", cfg.AssistantHandler.Reset)

	protected.GET("/sse/stream", cfg.RealtimeHandler.Stream)
	protected.POST("/sse/subscribe", cfg.RealtimeHandler.Subscribe)
	protected.POST("/sse/unsubscribe", cfg.RealtimeHandler.Unsubscribe)

	return router
}
