package app

import (
	"strings"
	"time"

	"github.com/yungbote/complaintdesk-backend/internal/pkg/logger"
	"github.com/yungbote/complaintdesk-backend/internal/utils"
)

type Config struct {
	HTTPAddr     string
	AllowOrigins []string

	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// Redis is optional; without it events stay in-process.
	RedisAddr string

	AssistantBaseURL string
	AssistantAPIKey  string
	AssistantModel   string

	MailAPIURL      string
	MailAPIKey      string
	MailFromAddress string
}

func LoadConfig(log *logger.Logger) Config {
	origins := strings.Split(utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173", log), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return Config{
		HTTPAddr:     utils.GetEnv("HTTP_ADDR", ":8080", log),
		AllowOrigins: origins,

		JWTSecretKey:    utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log),
		AccessTokenTTL:  time.Duration(utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)) * time.Second,
		RefreshTokenTTL: time.Duration(utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)) * time.Second,

		RedisAddr: utils.GetEnv("REDIS_ADDR", "", log),

		AssistantBaseURL: utils.GetEnv("ASSISTANT_BASE_URL", "https://api.openai.com", log),
		AssistantAPIKey:  utils.GetEnv("ASSISTANT_API_KEY", "", log),
		AssistantModel:   utils.GetEnv("ASSISTANT_MODEL", "gpt-4o-mini", log),

		MailAPIURL:      utils.GetEnv("MAIL_API_URL", "https://api.resend.com", log),
		MailAPIKey:      utils.GetEnv("MAIL_API_KEY", "", log),
		MailFromAddress: utils.GetEnv("MAIL_FROM_ADDRESS", "complaints@localhost", log),
	}
}
