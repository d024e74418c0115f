package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/complaintdesk-backend/internal/pkg/logger"
	"github.com/yungbote/complaintdesk-backend/internal/types"
)

type MessageRepo interface {
	Create(ctx context.Context, tx *gorm.DB, msg *types.Message) (*types.Message, error)

	// ListByComplaint returns the full thread ordered by created_at asc with
	// id as a tiebreak, so replay order is total even for equal timestamps.
	ListByComplaint(ctx context.Context, tx *gorm.DB, complaintID uuid.UUID) ([]*types.Message, error)

	DeleteByComplaint(ctx context.Context, tx *gorm.DB, complaintID uuid.UUID) error
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
	return &messageRepo{db: db, log: baseLog.With("repo", "MessageRepo")}
}

func (r *messageRepo) Create(ctx context.Context, tx *gorm.DB, msg *types.Message) (*types.Message, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *messageRepo) ListByComplaint(ctx context.Context, tx *gorm.DB, complaintID uuid.UUID) ([]*types.Message, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var msgs []*types.Message
	if err := transaction.WithContext(ctx).
		Where("complaint_id = ?", complaintID).
		Order("created_at asc, id asc").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *messageRepo) DeleteByComplaint(ctx context.Context, tx *gorm.DB, complaintID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Delete(&types.Message{}, "complaint_id = ?", complaintID).Error
}
