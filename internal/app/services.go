package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/complaintdesk-backend/internal/assistant"
	"github.com/yungbote/complaintdesk-backend/internal/pkg/logger"
	"github.com/yungbote/complaintdesk-backend/internal/realtime"
	"github.com/yungbote/complaintdesk-backend/internal/realtime/bus"
	"github.com/yungbote/complaintdesk-backend/internal/services"
)

type Services struct {
	Auth         services.AuthService
	User         services.UserService
	Hub          services.HubService
	Complaint    services.ComplaintService
	Conversation services.ConversationService
	Assistant    services.AssistantService
	Mailer       services.MailerService
	Bucket       services.BucketService

	Emitter services.SSEEmitter
	Bus     bus.Bus
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, hub *realtime.SSEHub) (Services, error) {
	log.Info("Wiring services...")

	// With Redis every process publishes to the shared channel and feeds
	// its own hub through the forwarder; without it events go straight to
	// the local hub.
	var emitter services.SSEEmitter = &services.HubEmitter{Hub: hub}
	var eventBus bus.Bus
	if cfg.RedisAddr != "" {
		b, err := bus.NewRedisBus(log)
		if err != nil {
			return Services{}, fmt.Errorf("init redis bus: %w", err)
		}
		eventBus = b
		emitter = &services.RedisEmitter{Bus: b}
	}

	notifier := services.NewComplaintNotifier(emitter)

	authService := services.NewAuthService(db, log, reposet.User, reposet.UserToken, cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	userService := services.NewUserService(db, log, reposet.User)
	hubService := services.NewHubService(db, log, reposet.Hub)
	complaintService := services.NewComplaintService(db, log, reposet.Complaint, reposet.Message, reposet.User, notifier)
	conversationService := services.NewConversationService(db, log, reposet.Message, reposet.Complaint, reposet.User, hub, notifier)

	assistantClient, err := assistant.NewClient(assistant.ClientConfig{
		BaseURL: cfg.AssistantBaseURL,
		APIKey:  cfg.AssistantAPIKey,
		Model:   cfg.AssistantModel,
	})
	if err != nil {
		return Services{}, fmt.Errorf("init assistant client: %w", err)
	}
	assistantService := services.NewAssistantService(log, assistantClient, emitter)

	var mailerService services.MailerService
	if cfg.MailAPIKey != "" {
		mailerService, err = services.NewMailerService(log, reposet.Complaint, reposet.User, services.MailerConfig{
			APIURL:      cfg.MailAPIURL,
			APIKey:      cfg.MailAPIKey,
			FromAddress: cfg.MailFromAddress,
		})
		if err != nil {
			return Services{}, fmt.Errorf("init mailer: %w", err)
		}
	}

	bucketService, err := services.NewBucketService(log)
	if err != nil {
		log.Warn("Bucket service unavailable, attachment upload disabled", "error", err)
		bucketService = nil
	}

	return Services{
		Auth:         authService,
		User:         userService,
		Hub:          hubService,
		Complaint:    complaintService,
		Conversation: conversationService,
		Assistant:    assistantService,
		Mailer:       mailerService,
		Bucket:       bucketService,
		Emitter:      emitter,
		Bus:          eventBus,
	}, nil
}
