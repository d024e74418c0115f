package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/yungbote/complaintdesk-backend/internal/pkg/errors"
	"github.com/yungbote/complaintdesk-backend/internal/pkg/logger"
	"github.com/yungbote/complaintdesk-backend/internal/realtime"
	"github.com/yungbote/complaintdesk-backend/internal/repos"
	"github.com/yungbote/complaintdesk-backend/internal/requestdata"
	"github.com/yungbote/complaintdesk-backend/internal/types"
)

func testLogger() *logger.Logger {
	log, err := logger.New("dev")
	if err != nil {
		panic(err)
	}
	return log
}

func authedCtx(userID uuid.UUID, role types.Role, hubID *uuid.UUID) context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
		UserID:    userID,
		SessionID: uuid.New(),
		Role:      role,
		HubID:     hubID,
	})
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*types.User
}

func newFakeUserRepo(users ...*types.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[uuid.UUID]*types.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, user *types.User) (*types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		return u, nil
	}
	return nil, pkgerrors.ErrNotFound
}

func (r *fakeUserRepo) GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.User
	for _, id := range userIDs {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, pkgerrors.ErrNotFound
}

func (r *fakeUserRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, tx, email)
	return err == nil, nil
}

func (r *fakeUserRepo) UpdateName(ctx context.Context, tx *gorm.DB, userID uuid.UUID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return pkgerrors.ErrNotFound
	}
	u.Name = name
	return nil
}

type fakeComplaintRepo struct {
	mu         sync.Mutex
	complaints map[uuid.UUID]*types.Complaint

	// lastFields captures the column set of the most recent UpdateFields
	// call so tests can assert compound updates land in one write.
	lastFields map[string]any
}

func newFakeComplaintRepo(complaints ...*types.Complaint) *fakeComplaintRepo {
	r := &fakeComplaintRepo{complaints: map[uuid.UUID]*types.Complaint{}}
	for _, c := range complaints {
		r.complaints[c.ID] = c
	}
	return r
}

func (r *fakeComplaintRepo) Create(ctx context.Context, tx *gorm.DB, complaint *types.Complaint) (*types.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if complaint.CreatedAt.IsZero() {
		complaint.CreatedAt = time.Now()
	}
	r.complaints[complaint.ID] = complaint
	return complaint, nil
}

func (r *fakeComplaintRepo) GetByID(ctx context.Context, tx *gorm.DB, complaintID uuid.UUID) (*types.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.complaints[complaintID]
	if !ok {
		return nil, pkgerrors.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *fakeComplaintRepo) List(ctx context.Context, tx *gorm.DB, filter repos.ComplaintFilter) ([]*types.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.Complaint
	for _, c := range r.complaints {
		if filter.SubmitterID != nil && c.SubmitterID != *filter.SubmitterID {
			continue
		}
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		if filter.HubID != nil && (c.HubID == nil || *c.HubID != *filter.HubID) {
			continue
		}
		copied := *c
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeComplaintRepo) UpdateFields(ctx context.Context, tx *gorm.DB, complaintID uuid.UUID, fields map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.complaints[complaintID]
	if !ok {
		return pkgerrors.ErrNotFound
	}
	r.lastFields = fields
	for column, value := range fields {
		switch column {
		case "status":
			c.Status = value.(types.ComplaintStatus)
		case "resolution_note":
			if value == nil {
				c.ResolutionNote = nil
			} else {
				note := value.(string)
				c.ResolutionNote = &note
			}
		case "starred":
			c.Starred = value.(bool)
		case "title":
			c.Title = value.(string)
		case "description":
			c.Description = value.(string)
		case "attachment_url":
			if value == nil {
				c.AttachmentURL = nil
			} else {
				url := value.(string)
				c.AttachmentURL = &url
			}
		}
	}
	c.UpdatedAt = time.Now()
	return nil
}

func (r *fakeComplaintRepo) Delete(ctx context.Context, tx *gorm.DB, complaintID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.complaints[complaintID]; !ok {
		return pkgerrors.ErrNotFound
	}
	delete(r.complaints, complaintID)
	return nil
}

func (r *fakeComplaintRepo) CountByStatus(ctx context.Context, tx *gorm.DB, hubID *uuid.UUID) ([]repos.StatusCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[types.ComplaintStatus]int64{}
	for _, c := range r.complaints {
		if hubID != nil && (c.HubID == nil || *c.HubID != *hubID) {
			continue
		}
		counts[c.Status]++
	}
	var out []repos.StatusCount
	for status, n := range counts {
		out = append(out, repos.StatusCount{Status: status, Count: n})
	}
	return out, nil
}

func (r *fakeComplaintRepo) CountByCategory(ctx context.Context, tx *gorm.DB, hubID *uuid.UUID) ([]repos.CategoryCount, error) {
	return nil, nil
}

func (r *fakeComplaintRepo) CountByUrgency(ctx context.Context, tx *gorm.DB, hubID *uuid.UUID) ([]repos.UrgencyCount, error) {
	return nil, nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []*types.Message
}

func (r *fakeMessageRepo) Create(ctx context.Context, tx *gorm.DB, msg *types.Message) (*types.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	r.messages = append(r.messages, msg)
	return msg, nil
}

func (r *fakeMessageRepo) ListByComplaint(ctx context.Context, tx *gorm.DB, complaintID uuid.UUID) ([]*types.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.Message
	for _, m := range r.messages {
		if m.ComplaintID == complaintID {
			copied := *m
			out = append(out, &copied)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fakeMessageRepo) DeleteByComplaint(ctx context.Context, tx *gorm.DB, complaintID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.messages[:0]
	for _, m := range r.messages {
		if m.ComplaintID != complaintID {
			kept = append(kept, m)
		}
	}
	r.messages = kept
	return nil
}

// recordingEmitter captures broadcasts for assertions.
type recordingEmitter struct {
	mu       sync.Mutex
	messages []realtime.SSEMessage
}

func (e *recordingEmitter) Emit(ctx context.Context, msg realtime.SSEMessage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.messages = append(e.messages, msg)
}

func (e *recordingEmitter) byEvent(event realtime.SSEEvent) []realtime.SSEMessage {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []realtime.SSEMessage
	for _, m := range e.messages {
		if m.Event == event {
			out = append(out, m)
		}
	}
	return out
}
