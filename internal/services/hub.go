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

type HubService interface {
	CreateHub(ctx context.Context, hub *types.Hub) error
	GetHub(ctx context.Context, hubID uuid.UUID) (*types.Hub, error)
	ListHubs(ctx context.Context) ([]*types.Hub, error)
}

type hubService struct {
	db      *gorm.DB
	log     *logger.Logger
	hubRepo repos.HubRepo
}

func NewHubService(db *gorm.DB, log *logger.Logger, hubRepo repos.HubRepo) HubService {
	return &hubService{
		db:      db,
		log:     log.With("service", "HubService"),
		hubRepo: hubRepo,
	}
}

func (hs *hubService) CreateHub(ctx context.Context, hub *types.Hub) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.Role != types.RoleAdministrator {
		return fmt.Errorf("%w: only administrators manage hubs", pkgerrors.ErrPermissionDenied)
	}
	hub.Name = strings.TrimSpace(hub.Name)
	if hub.Name == "" {
		return fmt.Errorf("%w: hub name required", pkgerrors.ErrValidation)
	}
	hub.ID = uuid.New()
	if _, err := hs.hubRepo.Create(ctx, nil, hub); err != nil {
		return fmt.Errorf("failed to create hub: %w", err)
	}
	hs.log.Info("hub created", "hub_id", hub.ID, "name", hub.Name)
	return nil
}

func (hs *hubService) GetHub(ctx context.Context, hubID uuid.UUID) (*types.Hub, error) {
	return hs.hubRepo.GetByID(ctx, nil, hubID)
}

func (hs *hubService) ListHubs(ctx context.Context) ([]*types.Hub, error) {
	return hs.hubRepo.List(ctx, nil)
}
