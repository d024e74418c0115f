package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/yungbote/complaintdesk-backend/internal/pkg/errors"
	"github.com/yungbote/complaintdesk-backend/internal/pkg/logger"
	"github.com/yungbote/complaintdesk-backend/internal/repos"
	"github.com/yungbote/complaintdesk-backend/internal/requestdata"
	"github.com/yungbote/complaintdesk-backend/internal/types"
)

type UserService interface {
	GetProfile(ctx context.Context) (*types.User, error)
	UpdateName(ctx context.Context, name string) error
	GetNamesByIDs(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]string, error)
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) UserService {
	return &userService{
		db:       db,
		log:      log.With("service", "UserService"),
		userRepo: userRepo,
	}
}

func (us *userService) GetProfile(ctx context.Context) (*types.User, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: not authenticated", pkgerrors.ErrPermissionDenied)
	}
	return us.userRepo.GetByID(ctx, nil, rd.UserID)
}

func (us *userService) UpdateName(ctx context.Context, name string) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return fmt.Errorf("%w: not authenticated", pkgerrors.ErrPermissionDenied)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name required", pkgerrors.ErrValidation)
	}
	return us.userRepo.UpdateName(ctx, nil, rd.UserID, name)
}

// GetNamesByIDs resolves display names in one batch query, for stamping
// sender names onto replayed conversation messages.
func (us *userService) GetNamesByIDs(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	if len(userIDs) == 0 {
		return map[uuid.UUID]string{}, nil
	}
	users, err := us.userRepo.GetByIDs(ctx, nil, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	names := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names, nil
}
