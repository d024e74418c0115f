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

const (
	maxTitleLength       = 200
	maxDescriptionLength = 5000
)

type CreateComplaintInput struct {
	Title         string                  `json:"title"`
	Description   string                  `json:"description"`
	Category      types.ComplaintCategory `json:"category"`
	Urgency       types.ComplaintUrgency  `json:"urgency"`
	HubID         *uuid.UUID              `json:"hub_id"`
	IsAnonymous   bool                    `json:"is_anonymous"`
	AttachmentURL *string                 `json:"attachment_url"`
}

type UpdateDetailsInput struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	AttachmentURL *string `json:"attachment_url"`
}

// ComplaintStats is the dashboard aggregate, grouped three ways over the
// caller's visible complaints.
type ComplaintStats struct {
	Total      int64                 `json:"total"`
	ByStatus   []repos.StatusCount   `json:"by_status"`
	ByCategory []repos.CategoryCount `json:"by_category"`
	ByUrgency  []repos.UrgencyCount  `json:"by_urgency"`
}

// ComplaintService owns the complaint lifecycle. Status may move between
// any two workflow states, but only reviewing roles may move it; submitters
// own their complaint's content, reviewers own its workflow fields. Every
// mutation lands in a single UPDATE and is broadcast after commit.
type ComplaintService interface {
	CreateComplaint(ctx context.Context, input CreateComplaintInput) (*types.ComplaintView, error)
	GetComplaint(ctx context.Context, complaintID uuid.UUID) (*types.ComplaintView, error)
	ListComplaints(ctx context.Context, filter repos.ComplaintFilter) ([]*types.ComplaintView, error)
	UpdateStatus(ctx context.Context, complaintID uuid.UUID, status types.ComplaintStatus) error
	ResolveComplaint(ctx context.Context, complaintID uuid.UUID, note string) error
	ReopenComplaint(ctx context.Context, complaintID uuid.UUID) error
	SetStarred(ctx context.Context, complaintID uuid.UUID, starred bool) error
	UpdateDetails(ctx context.Context, complaintID uuid.UUID, input UpdateDetailsInput) error
	DeleteComplaint(ctx context.Context, complaintID uuid.UUID) error
	Stats(ctx context.Context) (*ComplaintStats, error)
}

type complaintService struct {
	db            *gorm.DB
	log           *logger.Logger
	complaintRepo repos.ComplaintRepo
	messageRepo   repos.MessageRepo
	userRepo      repos.UserRepo
	notifier      ComplaintNotifier
}

func NewComplaintService(
	db *gorm.DB,
	log *logger.Logger,
	complaintRepo repos.ComplaintRepo,
	messageRepo repos.MessageRepo,
	userRepo repos.UserRepo,
	notifier ComplaintNotifier,
) ComplaintService {
	return &complaintService{
		db:            db,
		log:           log.With("service", "ComplaintService"),
		complaintRepo: complaintRepo,
		messageRepo:   messageRepo,
		userRepo:      userRepo,
		notifier:      notifier,
	}
}

func requireAuth(ctx context.Context) (*requestdata.RequestData, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: not authenticated", pkgerrors.ErrPermissionDenied)
	}
	return rd, nil
}

func (cs *complaintService) CreateComplaint(ctx context.Context, input CreateComplaintInput) (*types.ComplaintView, error) {
	rd, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	if input.Title == "" || len(input.Title) > maxTitleLength {
		return nil, fmt.Errorf("%w: title must be 1-%d characters", pkgerrors.ErrValidation, maxTitleLength)
	}
	if input.Description == "" || len(input.Description) > maxDescriptionLength {
		return nil, fmt.Errorf("%w: description must be 1-%d characters", pkgerrors.ErrValidation, maxDescriptionLength)
	}
	if !input.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", pkgerrors.ErrValidation, input.Category)
	}
	if input.Urgency == "" {
		input.Urgency = types.UrgencyNormal
	}
	if !input.Urgency.Valid() {
		return nil, fmt.Errorf("%w: unknown urgency %q", pkgerrors.ErrValidation, input.Urgency)
	}
	hubID := input.HubID
	if hubID == nil {
		hubID = rd.HubID
	}

	complaint := &types.Complaint{
		ID:            uuid.New(),
		Title:         input.Title,
		Description:   input.Description,
		Category:      input.Category,
		Status:        types.StatusPending,
		Urgency:       input.Urgency,
		SubmitterID:   rd.UserID,
		HubID:         hubID,
		IsAnonymous:   input.IsAnonymous,
		AttachmentURL: input.AttachmentURL,
	}
	if _, err := cs.complaintRepo.Create(ctx, nil, complaint); err != nil {
		return nil, fmt.Errorf("failed to create complaint: %w", err)
	}

	view := cs.buildView(ctx, rd, complaint)
	cs.notifier.ComplaintCreated(view)
	cs.log.Info("complaint created",
		"complaint_id", complaint.ID,
		"category", complaint.Category,
		"urgency", complaint.Urgency,
		"anonymous", complaint.IsAnonymous)
	return view, nil
}

func (cs *complaintService) GetComplaint(ctx context.Context, complaintID uuid.UUID) (*types.ComplaintView, error) {
	rd, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}
	complaint, err := cs.complaintRepo.GetByID(ctx, nil, complaintID)
	if err != nil {
		return nil, err
	}
	if !canViewComplaint(rd, complaint) {
		// Do not reveal whether the complaint exists.
		return nil, pkgerrors.ErrNotFound
	}
	return cs.buildView(ctx, rd, complaint), nil
}

func (cs *complaintService) ListComplaints(ctx context.Context, filter repos.ComplaintFilter) ([]*types.ComplaintView, error) {
	rd, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}
	switch {
	case !rd.Role.CanReview():
		// Submitters only ever see their own complaints.
		filter.SubmitterID = &rd.UserID
	case rd.Role == types.RoleReviewer && rd.HubID != nil:
		filter.HubID = rd.HubID
	}

	complaints, err := cs.complaintRepo.List(ctx, nil, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list complaints: %w", err)
	}

	names, err := cs.submitterNames(ctx, complaints)
	if err != nil {
		return nil, err
	}
	views := make([]*types.ComplaintView, 0, len(complaints))
	for _, c := range complaints {
		views = append(views, redact(rd, c, names[c.SubmitterID]))
	}
	return views, nil
}

func (cs *complaintService) UpdateStatus(ctx context.Context, complaintID uuid.UUID, status types.ComplaintStatus) error {
	rd, err := requireAuth(ctx)
	if err != nil {
		return err
	}
	if !rd.Role.CanReview() {
		return fmt.Errorf("%w: only reviewers change complaint status", pkgerrors.ErrPermissionDenied)
	}
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", pkgerrors.ErrValidation, status)
	}

	complaint, err := cs.complaintRepo.GetByID(ctx, nil, complaintID)
	if err != nil {
		return err
	}
	if complaint.Status == status {
		return nil
	}
	if err := cs.complaintRepo.UpdateFields(ctx, nil, complaintID, map[string]any{"status": status}); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	cs.notifier.StatusChanged(complaintID, complaint.Status, status)
	if status == types.StatusResolved {
		note := ""
		if complaint.ResolutionNote != nil {
			note = *complaint.ResolutionNote
		}
		cs.notifier.Resolved(complaintID, note)
	}
	cs.log.Info("complaint status changed",
		"complaint_id", complaintID,
		"from", complaint.Status,
		"to", status,
		"by", rd.UserID)
	return nil
}

// ResolveComplaint writes the resolution note and the Resolved status in one
// UPDATE so no reader ever observes the note without the status or vice
// versa.
func (cs *complaintService) ResolveComplaint(ctx context.Context, complaintID uuid.UUID, note string) error {
	rd, err := requireAuth(ctx)
	if err != nil {
		return err
	}
	if !rd.Role.CanReview() {
		return fmt.Errorf("%w: only reviewers resolve complaints", pkgerrors.ErrPermissionDenied)
	}
	note = strings.TrimSpace(note)
	if note == "" {
		return fmt.Errorf("%w: resolution note required", pkgerrors.ErrValidation)
	}

	complaint, err := cs.complaintRepo.GetByID(ctx, nil, complaintID)
	if err != nil {
		return err
	}
	if err := cs.complaintRepo.UpdateFields(ctx, nil, complaintID, map[string]any{
		"resolution_note": note,
		"status":          types.StatusResolved,
	}); err != nil {
		return fmt.Errorf("failed to resolve complaint: %w", err)
	}

	if complaint.Status != types.StatusResolved {
		cs.notifier.StatusChanged(complaintID, complaint.Status, types.StatusResolved)
	}
	cs.notifier.Resolved(complaintID, note)
	cs.log.Info("complaint resolved", "complaint_id", complaintID, "by", rd.UserID)
	return nil
}

// ReopenComplaint moves a complaint back to Pending and clears the stale
// resolution note in the same UPDATE.
func (cs *complaintService) ReopenComplaint(ctx context.Context, complaintID uuid.UUID) error {
	rd, err := requireAuth(ctx)
	if err != nil {
		return err
	}
	if !rd.Role.CanReview() {
		return fmt.Errorf("%w: only reviewers reopen complaints", pkgerrors.ErrPermissionDenied)
	}

	complaint, err := cs.complaintRepo.GetByID(ctx, nil, complaintID)
	if err != nil {
		return err
	}
	if complaint.Status == types.StatusPending && complaint.ResolutionNote == nil {
		return fmt.Errorf("%w: complaint is already open", pkgerrors.ErrConflict)
	}
	if err := cs.complaintRepo.UpdateFields(ctx, nil, complaintID, map[string]any{
		"status":          types.StatusPending,
		"resolution_note": nil,
	}); err != nil {
		return fmt.Errorf("failed to reopen complaint: %w", err)
	}
	if complaint.Status != types.StatusPending {
		cs.notifier.StatusChanged(complaintID, complaint.Status, types.StatusPending)
	}
	cs.log.Info("complaint reopened", "complaint_id", complaintID, "by", rd.UserID)
	return nil
}

func (cs *complaintService) SetStarred(ctx context.Context, complaintID uuid.UUID, starred bool) error {
	rd, err := requireAuth(ctx)
	if err != nil {
		return err
	}
	if !rd.Role.CanReview() {
		return fmt.Errorf("%w: only reviewers star complaints", pkgerrors.ErrPermissionDenied)
	}
	return cs.complaintRepo.UpdateFields(ctx, nil, complaintID, map[string]any{"starred": starred})
}

// UpdateDetails lets the submitter amend title, description and attachment
// while the complaint is still Pending; administrators may amend at any
// time. Category, urgency and anonymity stay as set at creation.
func (cs *complaintService) UpdateDetails(ctx context.Context, complaintID uuid.UUID, input UpdateDetailsInput) error {
	rd, err := requireAuth(ctx)
	if err != nil {
		return err
	}
	complaint, err := cs.complaintRepo.GetByID(ctx, nil, complaintID)
	if err != nil {
		return err
	}
	if rd.Role != types.RoleAdministrator {
		if complaint.SubmitterID != rd.UserID {
			return fmt.Errorf("%w: not your complaint", pkgerrors.ErrPermissionDenied)
		}
		if complaint.Status != types.StatusPending {
			return fmt.Errorf("%w: complaint already in review", pkgerrors.ErrConflict)
		}
	}

	fields := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" || len(title) > maxTitleLength {
			return fmt.Errorf("%w: title must be 1-%d characters", pkgerrors.ErrValidation, maxTitleLength)
		}
		fields["title"] = title
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" || len(description) > maxDescriptionLength {
			return fmt.Errorf("%w: description must be 1-%d characters", pkgerrors.ErrValidation, maxDescriptionLength)
		}
		fields["description"] = description
	}
	if input.AttachmentURL != nil {
		// Empty string removes the attachment.
		if url := strings.TrimSpace(*input.AttachmentURL); url == "" {
			fields["attachment_url"] = nil
		} else {
			fields["attachment_url"] = url
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return cs.complaintRepo.UpdateFields(ctx, nil, complaintID, fields)
}

// DeleteComplaint removes the complaint and its conversation together.
// Submitters may withdraw their own complaint until it is resolved;
// administrators may delete anything.
func (cs *complaintService) DeleteComplaint(ctx context.Context, complaintID uuid.UUID) error {
	rd, err := requireAuth(ctx)
	if err != nil {
		return err
	}
	complaint, err := cs.complaintRepo.GetByID(ctx, nil, complaintID)
	if err != nil {
		return err
	}
	if rd.Role != types.RoleAdministrator {
		if complaint.SubmitterID != rd.UserID {
			return fmt.Errorf("%w: not your complaint", pkgerrors.ErrPermissionDenied)
		}
		if complaint.Status == types.StatusResolved {
			return fmt.Errorf("%w: resolved complaints cannot be withdrawn", pkgerrors.ErrConflict)
		}
	}

	err = runTx(ctx, cs.db, func(tx *gorm.DB) error {
		if err := cs.messageRepo.DeleteByComplaint(ctx, tx, complaintID); err != nil {
			return fmt.Errorf("failed to delete conversation: %w", err)
		}
		if err := cs.complaintRepo.Delete(ctx, tx, complaintID); err != nil {
			return fmt.Errorf("failed to delete complaint: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	cs.notifier.Deleted(complaintID)
	cs.log.Info("complaint deleted", "complaint_id", complaintID, "by", rd.UserID)
	return nil
}

func (cs *complaintService) Stats(ctx context.Context) (*ComplaintStats, error) {
	rd, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if !rd.Role.CanReview() {
		return nil, fmt.Errorf("%w: only reviewers read complaint stats", pkgerrors.ErrPermissionDenied)
	}
	var hubID *uuid.UUID
	if rd.Role == types.RoleReviewer {
		hubID = rd.HubID
	}

	byStatus, err := cs.complaintRepo.CountByStatus(ctx, nil, hubID)
	if err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}
	byCategory, err := cs.complaintRepo.CountByCategory(ctx, nil, hubID)
	if err != nil {
		return nil, fmt.Errorf("failed to count by category: %w", err)
	}
	byUrgency, err := cs.complaintRepo.CountByUrgency(ctx, nil, hubID)
	if err != nil {
		return nil, fmt.Errorf("failed to count by urgency: %w", err)
	}

	stats := &ComplaintStats{
		ByStatus:   byStatus,
		ByCategory: byCategory,
		ByUrgency:  byUrgency,
	}
	for _, c := range byStatus {
		stats.Total += c.Count
	}
	return stats, nil
}

func canViewComplaint(rd *requestdata.RequestData, complaint *types.Complaint) bool {
	if complaint.SubmitterID == rd.UserID {
		return true
	}
	if rd.Role == types.RoleAdministrator {
		return true
	}
	if rd.Role == types.RoleReviewer {
		if rd.HubID == nil || complaint.HubID == nil {
			return true
		}
		return *rd.HubID == *complaint.HubID
	}
	return false
}

// redact produces the read model. Anonymous complaints hide the submitter's
// identity from everyone except the submitter, including administrators.
func redact(rd *requestdata.RequestData, complaint *types.Complaint, submitterName string) *types.ComplaintView {
	view := &types.ComplaintView{Complaint: *complaint}
	if complaint.IsAnonymous && complaint.SubmitterID != rd.UserID {
		view.SubmitterName = types.AnonymousDisplayName
		return view
	}
	id := complaint.SubmitterID
	view.SubmitterID = &id
	view.SubmitterName = submitterName
	return view
}

func (cs *complaintService) buildView(ctx context.Context, rd *requestdata.RequestData, complaint *types.Complaint) *types.ComplaintView {
	name := ""
	if user, err := cs.userRepo.GetByID(ctx, nil, complaint.SubmitterID); err == nil {
		name = user.Name
	}
	return redact(rd, complaint, name)
}

func (cs *complaintService) submitterNames(ctx context.Context, complaints []*types.Complaint) (map[uuid.UUID]string, error) {
	seen := map[uuid.UUID]bool{}
	ids := make([]uuid.UUID, 0, len(complaints))
	for _, c := range complaints {
		if !seen[c.SubmitterID] {
			seen[c.SubmitterID] = true
			ids = append(ids, c.SubmitterID)
		}
	}
	if len(ids) == 0 {
		return map[uuid.UUID]string{}, nil
	}
	users, err := cs.userRepo.GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load submitters: %w", err)
	}
	names := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names, nil
}
