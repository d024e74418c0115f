package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/yungbote/complaintdesk-backend/internal/pkg/errors"
	"github.com/yungbote/complaintdesk-backend/internal/pkg/logger"
	"github.com/yungbote/complaintdesk-backend/internal/types"
)

type HubRepo interface {
	Create(ctx context.Context, tx *gorm.DB, hub *types.Hub) (*types.Hub, error)
	GetByID(ctx context.Context, tx *gorm.DB, hubID uuid.UUID) (*types.Hub, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Hub, error)
}

type hubRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHubRepo(db *gorm.DB, baseLog *logger.Logger) HubRepo {
	return &hubRepo{db: db, log: baseLog.With("repo", "HubRepo")}
}

func (r *hubRepo) Create(ctx context.Context, tx *gorm.DB, hub *types.Hub) (*types.Hub, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(hub).Error; err != nil {
		return nil, err
	}
	return hub, nil
}

func (r *hubRepo) GetByID(ctx context.Context, tx *gorm.DB, hubID uuid.UUID) (*types.Hub, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var hub types.Hub
	if err := transaction.WithContext(ctx).First(&hub, "id = ?", hubID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return &hub, nil
}

func (r *hubRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Hub, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var hubs []*types.Hub
	if err := transaction.WithContext(ctx).Order("name asc").Find(&hubs).Error; err != nil {
		return nil, err
	}
	return hubs, nil
}
