package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/yungbote/complaintdesk-backend/internal/pkg/errors"
	"github.com/yungbote/complaintdesk-backend/internal/pkg/logger"
	"github.com/yungbote/complaintdesk-backend/internal/types"
)

// ComplaintFilter narrows List. Nil/empty fields match everything.
type ComplaintFilter struct {
	Status      *types.ComplaintStatus
	Category    *types.ComplaintCategory
	Urgency     *types.ComplaintUrgency
	SubmitterID *uuid.UUID
	HubID       *uuid.UUID
	Starred     *bool
}

// StatusCount is one row of the grouped dashboard counts.
type StatusCount struct {
	Status types.ComplaintStatus `json:"status"`
	Count  int64                 `json:"count"`
}

type CategoryCount struct {
	Category types.ComplaintCategory `json:"category"`
	Count    int64                   `json:"count"`
}

type UrgencyCount struct {
	Urgency types.ComplaintUrgency `json:"urgency"`
	Count   int64                  `json:"count"`
}

type ComplaintRepo interface {
	Create(ctx context.Context, tx *gorm.DB, complaint *types.Complaint) (*types.Complaint, error)
	GetByID(ctx context.Context, tx *gorm.DB, complaintID uuid.UUID) (*types.Complaint, error)
	List(ctx context.Context, tx *gorm.DB, filter ComplaintFilter) ([]*types.Complaint, error)

	// UpdateFields applies the given column set in a single UPDATE so
	// compound mutations (resolve = note + status) cannot partially apply.
	UpdateFields(ctx context.Context, tx *gorm.DB, complaintID uuid.UUID, fields map[string]any) error

	Delete(ctx context.Context, tx *gorm.DB, complaintID uuid.UUID) error

	CountByStatus(ctx context.Context, tx *gorm.DB, hubID *uuid.UUID) ([]StatusCount, error)
	CountByCategory(ctx context.Context, tx *gorm.DB, hubID *uuid.UUID) ([]CategoryCount, error)
	CountByUrgency(ctx context.Context, tx *gorm.DB, hubID *uuid.UUID) ([]UrgencyCount, error)
}

type complaintRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewComplaintRepo(db *gorm.DB, baseLog *logger.Logger) ComplaintRepo {
	return &complaintRepo{db: db, log: baseLog.With("repo", "ComplaintRepo")}
}

func (r *complaintRepo) Create(ctx context.Context, tx *gorm.DB, complaint *types.Complaint) (*types.Complaint, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(complaint).Error; err != nil {
		return nil, err
	}
	return complaint, nil
}

func (r *complaintRepo) GetByID(ctx context.Context, tx *gorm.DB, complaintID uuid.UUID) (*types.Complaint, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var complaint types.Complaint
	if err := transaction.WithContext(ctx).First(&complaint, "id = ?", complaintID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return &complaint, nil
}

func (r *complaintRepo) List(ctx context.Context, tx *gorm.DB, filter ComplaintFilter) ([]*types.Complaint, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Model(&types.Complaint{})
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.Category != nil {
		q = q.Where("category = ?", *filter.Category)
	}
	if filter.Urgency != nil {
		q = q.Where("urgency = ?", *filter.Urgency)
	}
	if filter.SubmitterID != nil {
		q = q.Where("submitter_id = ?", *filter.SubmitterID)
	}
	if filter.HubID != nil {
		q = q.Where("hub_id = ?", *filter.HubID)
	}
	if filter.Starred != nil {
		q = q.Where("starred = ?", *filter.Starred)
	}

	var complaints []*types.Complaint
	if err := q.Order("created_at desc").Find(&complaints).Error; err != nil {
		return nil, err
	}
	return complaints, nil
}

func (r *complaintRepo) UpdateFields(ctx context.Context, tx *gorm.DB, complaintID uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(fields) == 0 {
		return nil
	}
	fields["updated_at"] = time.Now().UTC()
	res := transaction.WithContext(ctx).
		Model(&types.Complaint{}).
		Where("id = ?", complaintID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ErrNotFound
	}
	return nil
}

func (r *complaintRepo) Delete(ctx context.Context, tx *gorm.DB, complaintID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).Delete(&types.Complaint{}, "id = ?", complaintID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ErrNotFound
	}
	return nil
}

func (r *complaintRepo) CountByStatus(ctx context.Context, tx *gorm.DB, hubID *uuid.UUID) ([]StatusCount, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Model(&types.Complaint{})
	if hubID != nil {
		q = q.Where("hub_id = ?", *hubID)
	}
	var out []StatusCount
	if err := q.Select("status, count(*) as count").Group("status").Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *complaintRepo) CountByCategory(ctx context.Context, tx *gorm.DB, hubID *uuid.UUID) ([]CategoryCount, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Model(&types.Complaint{})
	if hubID != nil {
		q = q.Where("hub_id = ?", *hubID)
	}
	var out []CategoryCount
	if err := q.Select("category, count(*) as count").Group("category").Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *complaintRepo) CountByUrgency(ctx context.Context, tx *gorm.DB, hubID *uuid.UUID) ([]UrgencyCount, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Model(&types.Complaint{})
	if hubID != nil {
		q = q.Where("hub_id = ?", *hubID)
	}
	var out []UrgencyCount
	if err := q.Select("urgency, count(*) as count").Group("urgency").Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
