package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	pkgerrors "github.com/yungbote/complaintdesk-backend/internal/pkg/errors"
	"github.com/yungbote/complaintdesk-backend/internal/pkg/pointers"
	"github.com/yungbote/complaintdesk-backend/internal/realtime"
	"github.com/yungbote/complaintdesk-backend/internal/repos"
	"github.com/yungbote/complaintdesk-backend/internal/types"
)

type complaintFixture struct {
	service   ComplaintService
	emitter   *recordingEmitter
	repo      *fakeComplaintRepo
	messages  *fakeMessageRepo
	submitter *types.User
	reviewer  *types.User
	admin     *types.User
}

func newComplaintFixture(t *testing.T, complaints ...*types.Complaint) *complaintFixture {
	t.Helper()
	submitter := &types.User{ID: uuid.New(), Name: "Sam Submitter", Role: types.RoleSubmitter}
	reviewer := &types.User{ID: uuid.New(), Name: "Rae Reviewer", Role: types.RoleReviewer}
	admin := &types.User{ID: uuid.New(), Name: "Ada Admin", Role: types.RoleAdministrator}

	repo := newFakeComplaintRepo(complaints...)
	emitter := &recordingEmitter{}
	messages := &fakeMessageRepo{}
	service := NewComplaintService(
		nil,
		testLogger(),
		repo,
		messages,
		newFakeUserRepo(submitter, reviewer, admin),
		NewComplaintNotifier(emitter),
	)
	return &complaintFixture{
		service:   service,
		emitter:   emitter,
		repo:      repo,
		messages:  messages,
		submitter: submitter,
		reviewer:  reviewer,
		admin:     admin,
	}
}

func pendingComplaint(submitterID uuid.UUID, anonymous bool) *types.Complaint {
	return &types.Complaint{
		ID:          uuid.New(),
		Title:       "Broken payment flow",
		Description: "Checkout fails on the last step.",
		Category:    types.CategoryPayments,
		Status:      types.StatusPending,
		Urgency:     types.UrgencyHigh,
		SubmitterID: submitterID,
		IsAnonymous: anonymous,
	}
}

func TestCreateComplaintDefaultsAndBroadcast(t *testing.T) {
	f := newComplaintFixture(t)
	ctx := authedCtx(f.submitter.ID, types.RoleSubmitter, nil)

	view, err := f.service.CreateComplaint(ctx, CreateComplaintInput{
		Title:       "  Hub is noisy  ",
		Description: "Construction noise all day.",
		Category:    types.CategoryHub,
	})
	if err != nil {
		t.Fatalf("CreateComplaint: %v", err)
	}
	if view.Status != types.StatusPending {
		t.Fatalf("status: want=%s got=%s", types.StatusPending, view.Status)
	}
	if view.Urgency != types.UrgencyNormal {
		t.Fatalf("urgency: want=%s got=%s", types.UrgencyNormal, view.Urgency)
	}
	if view.Title != "Hub is noisy" {
		t.Fatalf("title not trimmed: %q", view.Title)
	}
	if view.SubmitterName != f.submitter.Name {
		t.Fatalf("submitter name: want=%q got=%q", f.submitter.Name, view.SubmitterName)
	}
	if created := f.emitter.byEvent(realtime.SSEEventComplaintCreated); len(created) != 2 {
		t.Fatalf("created broadcasts: want=2 got=%d", len(created))
	}
}

func TestCreateComplaintValidation(t *testing.T) {
	f := newComplaintFixture(t)
	ctx := authedCtx(f.submitter.ID, types.RoleSubmitter, nil)

	cases := []struct {
		name  string
		input CreateComplaintInput
	}{
		{
			name:  "empty_title",
			input: CreateComplaintInput{Description: "d", Category: types.CategoryOthers},
		},
		{
			name:  "empty_description",
			input: CreateComplaintInput{Title: "t", Category: types.CategoryOthers},
		},
		{
			name:  "bad_category",
			input: CreateComplaintInput{Title: "t", Description: "d", Category: "Gossip"},
		},
		{
			name:  "bad_urgency",
			input: CreateComplaintInput{Title: "t", Description: "d", Category: types.CategoryOthers, Urgency: "Apocalyptic"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.service.CreateComplaint(ctx, tc.input); !errors.Is(err, pkgerrors.ErrValidation) {
				t.Fatalf("want=ErrValidation got=%v", err)
			}
		})
	}
}

func TestUpdateStatusRoleMatrix(t *testing.T) {
	cases := []struct {
		name    string
		role    types.Role
		wantErr error
	}{
		{name: "submitter_denied", role: types.RoleSubmitter, wantErr: pkgerrors.ErrPermissionDenied},
		{name: "reviewer_allowed", role: types.RoleReviewer},
		{name: "admin_allowed", role: types.RoleAdministrator},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newComplaintFixture(t)
			complaint := pendingComplaint(f.submitter.ID, false)
			f.repo.complaints[complaint.ID] = complaint

			var actor uuid.UUID
			switch tc.role {
			case types.RoleSubmitter:
				actor = f.submitter.ID
			case types.RoleReviewer:
				actor = f.reviewer.ID
			default:
				actor = f.admin.ID
			}

			err := f.service.UpdateStatus(authedCtx(actor, tc.role, nil), complaint.ID, types.StatusInReview)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("want=%v got=%v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("UpdateStatus: %v", err)
			}
			changed := f.emitter.byEvent(realtime.SSEEventComplaintStatusChanged)
			if len(changed) != 1 {
				t.Fatalf("status broadcasts: want=1 got=%d", len(changed))
			}
		})
	}
}

func TestUpdateStatusAnyTransitionAllowed(t *testing.T) {
	f := newComplaintFixture(t)
	note := "handled off-platform"
	complaint := pendingComplaint(f.submitter.ID, false)
	complaint.Status = types.StatusResolved
	complaint.ResolutionNote = &note
	f.repo.complaints[complaint.ID] = complaint
	ctx := authedCtx(f.reviewer.ID, types.RoleReviewer, nil)

	// Resolved straight back to Pending, skipping In Review.
	if err := f.service.UpdateStatus(ctx, complaint.ID, types.StatusPending); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	got, _ := f.repo.GetByID(ctx, nil, complaint.ID)
	if got.Status != types.StatusPending {
		t.Fatalf("status: want=%s got=%s", types.StatusPending, got.Status)
	}
	// A plain status change never touches the note.
	if got.ResolutionNote == nil || *got.ResolutionNote != note {
		t.Fatalf("resolution note changed by status update: %v", got.ResolutionNote)
	}
}

func TestResolveComplaintSingleUpdate(t *testing.T) {
	f := newComplaintFixture(t)
	complaint := pendingComplaint(f.submitter.ID, false)
	f.repo.complaints[complaint.ID] = complaint
	ctx := authedCtx(f.reviewer.ID, types.RoleReviewer, nil)

	if err := f.service.ResolveComplaint(ctx, complaint.ID, "Refund issued."); err != nil {
		t.Fatalf("ResolveComplaint: %v", err)
	}

	// Note and status must land in the same write.
	if len(f.repo.lastFields) != 2 {
		t.Fatalf("update columns: want=2 got=%v", f.repo.lastFields)
	}
	if f.repo.lastFields["status"] != types.StatusResolved {
		t.Fatalf("status column missing from resolve update: %v", f.repo.lastFields)
	}
	if f.repo.lastFields["resolution_note"] != "Refund issued." {
		t.Fatalf("note column missing from resolve update: %v", f.repo.lastFields)
	}

	resolved := f.emitter.byEvent(realtime.SSEEventComplaintResolved)
	if len(resolved) != 1 {
		t.Fatalf("resolved broadcasts: want=1 got=%d", len(resolved))
	}
	payload, ok := resolved[0].Data.(map[string]any)
	if !ok {
		t.Fatalf("resolved payload type: %T", resolved[0].Data)
	}
	if payload["status"] != types.StatusResolved {
		t.Fatalf("resolved payload status: want=%s got=%v", types.StatusResolved, payload["status"])
	}
	if payload["resolution_note"] != "Refund issued." {
		t.Fatalf("resolved payload note: got=%v", payload["resolution_note"])
	}

	if err := f.service.ResolveComplaint(ctx, complaint.ID, "  "); !errors.Is(err, pkgerrors.ErrValidation) {
		t.Fatalf("empty note: want=ErrValidation got=%v", err)
	}
}

func TestReopenComplaintClearsNote(t *testing.T) {
	f := newComplaintFixture(t)
	note := "done"
	complaint := pendingComplaint(f.submitter.ID, false)
	complaint.Status = types.StatusResolved
	complaint.ResolutionNote = &note
	f.repo.complaints[complaint.ID] = complaint
	ctx := authedCtx(f.reviewer.ID, types.RoleReviewer, nil)

	if err := f.service.ReopenComplaint(ctx, complaint.ID); err != nil {
		t.Fatalf("ReopenComplaint: %v", err)
	}
	got, _ := f.repo.GetByID(ctx, nil, complaint.ID)
	if got.Status != types.StatusPending {
		t.Fatalf("status: want=%s got=%s", types.StatusPending, got.Status)
	}
	if got.ResolutionNote != nil {
		t.Fatalf("resolution note not cleared: %v", *got.ResolutionNote)
	}

	if err := f.service.ReopenComplaint(ctx, complaint.ID); !errors.Is(err, pkgerrors.ErrConflict) {
		t.Fatalf("reopen already-open complaint: want=ErrConflict got=%v", err)
	}
}

func TestAnonymousRedaction(t *testing.T) {
	f := newComplaintFixture(t)
	complaint := pendingComplaint(f.submitter.ID, true)
	f.repo.complaints[complaint.ID] = complaint

	view, err := f.service.GetComplaint(authedCtx(f.reviewer.ID, types.RoleReviewer, nil), complaint.ID)
	if err != nil {
		t.Fatalf("GetComplaint as reviewer: %v", err)
	}
	if view.SubmitterID != nil {
		t.Fatalf("submitter id leaked to reviewer: %v", view.SubmitterID)
	}
	if view.SubmitterName != types.AnonymousDisplayName {
		t.Fatalf("submitter name: want=%q got=%q", types.AnonymousDisplayName, view.SubmitterName)
	}

	// Administrators see the same redaction.
	view, err = f.service.GetComplaint(authedCtx(f.admin.ID, types.RoleAdministrator, nil), complaint.ID)
	if err != nil {
		t.Fatalf("GetComplaint as admin: %v", err)
	}
	if view.SubmitterID != nil || view.SubmitterName != types.AnonymousDisplayName {
		t.Fatalf("submitter identity leaked to admin: id=%v name=%q", view.SubmitterID, view.SubmitterName)
	}

	// The submitter sees their own identity.
	view, err = f.service.GetComplaint(authedCtx(f.submitter.ID, types.RoleSubmitter, nil), complaint.ID)
	if err != nil {
		t.Fatalf("GetComplaint as submitter: %v", err)
	}
	if view.SubmitterID == nil || *view.SubmitterID != f.submitter.ID {
		t.Fatalf("submitter cannot see own id: %v", view.SubmitterID)
	}
	if view.SubmitterName != f.submitter.Name {
		t.Fatalf("submitter name: want=%q got=%q", f.submitter.Name, view.SubmitterName)
	}
}

func TestListComplaintsScopedToSubmitter(t *testing.T) {
	f := newComplaintFixture(t)
	mine := pendingComplaint(f.submitter.ID, false)
	other := pendingComplaint(uuid.New(), false)
	f.repo.complaints[mine.ID] = mine
	f.repo.complaints[other.ID] = other

	views, err := f.service.ListComplaints(authedCtx(f.submitter.ID, types.RoleSubmitter, nil), repos.ComplaintFilter{})
	if err != nil {
		t.Fatalf("ListComplaints: %v", err)
	}
	if len(views) != 1 || views[0].ID != mine.ID {
		t.Fatalf("submitter list scope: want only own complaint, got=%d", len(views))
	}

	views, err = f.service.ListComplaints(authedCtx(f.reviewer.ID, types.RoleReviewer, nil), repos.ComplaintFilter{})
	if err != nil {
		t.Fatalf("ListComplaints as reviewer: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("reviewer list scope: want=2 got=%d", len(views))
	}

	mine.Status = types.StatusResolved
	f.repo.complaints[mine.ID] = mine
	views, err = f.service.ListComplaints(authedCtx(f.reviewer.ID, types.RoleReviewer, nil), repos.ComplaintFilter{
		Status: pointers.Ptr(types.StatusResolved),
	})
	if err != nil {
		t.Fatalf("ListComplaints filtered: %v", err)
	}
	if len(views) != 1 || views[0].ID != mine.ID {
		t.Fatalf("status filter: want=1 resolved complaint got=%d", len(views))
	}
}

func TestGetComplaintHidesForeignComplaint(t *testing.T) {
	f := newComplaintFixture(t)
	other := pendingComplaint(uuid.New(), false)
	f.repo.complaints[other.ID] = other

	_, err := f.service.GetComplaint(authedCtx(f.submitter.ID, types.RoleSubmitter, nil), other.ID)
	if !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("foreign complaint: want=ErrNotFound got=%v", err)
	}
}

func TestUpdateDetailsOwnership(t *testing.T) {
	f := newComplaintFixture(t)
	complaint := pendingComplaint(f.submitter.ID, false)
	f.repo.complaints[complaint.ID] = complaint

	newTitle := "Clearer title"
	err := f.service.UpdateDetails(authedCtx(f.submitter.ID, types.RoleSubmitter, nil), complaint.ID, UpdateDetailsInput{Title: &newTitle})
	if err != nil {
		t.Fatalf("UpdateDetails: %v", err)
	}
	got, _ := f.repo.GetByID(authedCtx(f.submitter.ID, types.RoleSubmitter, nil), nil, complaint.ID)
	if got.Title != newTitle {
		t.Fatalf("title: want=%q got=%q", newTitle, got.Title)
	}

	url := "https://storage.googleapis.com/bucket/attachments/x.png"
	err = f.service.UpdateDetails(authedCtx(f.submitter.ID, types.RoleSubmitter, nil), complaint.ID, UpdateDetailsInput{AttachmentURL: &url})
	if err != nil {
		t.Fatalf("UpdateDetails attachment: %v", err)
	}
	got, _ = f.repo.GetByID(authedCtx(f.submitter.ID, types.RoleSubmitter, nil), nil, complaint.ID)
	if got.AttachmentURL == nil || *got.AttachmentURL != url {
		t.Fatalf("attachment url: want=%q got=%v", url, got.AttachmentURL)
	}
	empty := ""
	if err := f.service.UpdateDetails(authedCtx(f.submitter.ID, types.RoleSubmitter, nil), complaint.ID, UpdateDetailsInput{AttachmentURL: &empty}); err != nil {
		t.Fatalf("UpdateDetails clear attachment: %v", err)
	}
	got, _ = f.repo.GetByID(authedCtx(f.submitter.ID, types.RoleSubmitter, nil), nil, complaint.ID)
	if got.AttachmentURL != nil {
		t.Fatalf("attachment url not cleared: %v", *got.AttachmentURL)
	}

	// Once in review, the submitter may no longer edit.
	complaint.Status = types.StatusInReview
	f.repo.complaints[complaint.ID] = complaint
	err = f.service.UpdateDetails(authedCtx(f.submitter.ID, types.RoleSubmitter, nil), complaint.ID, UpdateDetailsInput{Title: &newTitle})
	if !errors.Is(err, pkgerrors.ErrConflict) {
		t.Fatalf("edit in review: want=ErrConflict got=%v", err)
	}

	// Administrators may.
	if err := f.service.UpdateDetails(authedCtx(f.admin.ID, types.RoleAdministrator, nil), complaint.ID, UpdateDetailsInput{Title: &newTitle}); err != nil {
		t.Fatalf("UpdateDetails as admin: %v", err)
	}
}

func TestDeleteComplaintGuards(t *testing.T) {
	f := newComplaintFixture(t)
	complaint := pendingComplaint(f.submitter.ID, false)
	f.repo.complaints[complaint.ID] = complaint

	strangerCtx := authedCtx(uuid.New(), types.RoleSubmitter, nil)
	if err := f.service.DeleteComplaint(strangerCtx, complaint.ID); !errors.Is(err, pkgerrors.ErrPermissionDenied) {
		t.Fatalf("stranger delete: want=ErrPermissionDenied got=%v", err)
	}

	subCtx := authedCtx(f.submitter.ID, types.RoleSubmitter, nil)
	complaint.Status = types.StatusResolved
	if err := f.service.DeleteComplaint(subCtx, complaint.ID); !errors.Is(err, pkgerrors.ErrConflict) {
		t.Fatalf("withdraw resolved: want=ErrConflict got=%v", err)
	}

	complaint.Status = types.StatusPending
	if err := f.service.DeleteComplaint(subCtx, complaint.ID); err != nil {
		t.Fatalf("withdraw pending: %v", err)
	}
	if _, err := f.repo.GetByID(subCtx, nil, complaint.ID); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("complaint still present after delete: %v", err)
	}
	if deleted := f.emitter.byEvent(realtime.SSEEventComplaintDeleted); len(deleted) != 1 {
		t.Fatalf("deleted broadcasts: want=1 got=%d", len(deleted))
	}
}

func TestDeleteComplaintAdminRemovesThread(t *testing.T) {
	f := newComplaintFixture(t)
	complaint := pendingComplaint(f.submitter.ID, false)
	complaint.Status = types.StatusResolved
	f.repo.complaints[complaint.ID] = complaint

	adminCtx := authedCtx(f.admin.ID, types.RoleAdministrator, nil)
	for _, content := range []string{"first", "second"} {
		msg := &types.Message{ID: uuid.New(), ComplaintID: complaint.ID, SenderID: f.submitter.ID, Content: content}
		if _, err := f.messages.Create(adminCtx, nil, msg); err != nil {
			t.Fatalf("seed message: %v", err)
		}
	}

	// Administrators may delete even resolved complaints.
	if err := f.service.DeleteComplaint(adminCtx, complaint.ID); err != nil {
		t.Fatalf("DeleteComplaint as admin: %v", err)
	}
	if _, err := f.repo.GetByID(adminCtx, nil, complaint.ID); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("complaint still present after delete: %v", err)
	}
	remaining, err := f.messages.ListByComplaint(adminCtx, nil, complaint.ID)
	if err != nil {
		t.Fatalf("ListByComplaint: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("conversation survived delete: want=0 got=%d", len(remaining))
	}
}

func TestStatsRequiresReviewer(t *testing.T) {
	f := newComplaintFixture(t)
	complaint := pendingComplaint(f.submitter.ID, false)
	f.repo.complaints[complaint.ID] = complaint

	if _, err := f.service.Stats(authedCtx(f.submitter.ID, types.RoleSubmitter, nil)); !errors.Is(err, pkgerrors.ErrPermissionDenied) {
		t.Fatalf("stats as submitter: want=ErrPermissionDenied got=%v", err)
	}
	stats, err := f.service.Stats(authedCtx(f.reviewer.ID, types.RoleReviewer, nil))
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total == 0 {
		t.Fatalf("stats total: want>0 got=0")
	}
}
