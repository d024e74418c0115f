package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/complaintdesk-backend/internal/pkg/logger"
	"github.com/yungbote/complaintdesk-backend/internal/repos"
)

type Repos struct {
	User      repos.UserRepo
	UserToken repos.UserTokenRepo
	Hub       repos.HubRepo
	Complaint repos.ComplaintRepo
	Message   repos.MessageRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:      repos.NewUserRepo(db, log),
		UserToken: repos.NewUserTokenRepo(db, log),
		Hub:       repos.NewHubRepo(db, log),
		Complaint: repos.NewComplaintRepo(db, log),
		Message:   repos.NewMessageRepo(db, log),
	}
}
