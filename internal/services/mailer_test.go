package services

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	pkgerrors "github.com/yungbote/complaintdesk-backend/internal/pkg/errors"
	"github.com/yungbote/complaintdesk-backend/internal/types"
)

func newMailerFixture(t *testing.T, handler http.HandlerFunc) (MailerService, *complaintFixture, func()) {
	t.Helper()
	f := newComplaintFixture(t)
	server := httptest.NewServer(handler)

	ms, err := NewMailerService(testLogger(), f.repo, newFakeUserRepo(f.submitter, f.reviewer, f.admin), MailerConfig{
		APIURL:      server.URL,
		APIKey:      "test-key",
		FromAddress: "complaints@desk.example",
	})
	if err != nil {
		t.Fatalf("NewMailerService: %v", err)
	}
	return ms, f, server.Close
}

func TestForwardComplaintSendsPerRecipient(t *testing.T) {
	var mu sync.Mutex
	var payloads []emailPayload

	ms, f, stop := newMailerFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token")
		}
		var p emailPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		mu.Lock()
		payloads = append(payloads, p)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	defer stop()

	complaint := pendingComplaint(f.submitter.ID, false)
	f.repo.complaints[complaint.ID] = complaint

	ctx := authedCtx(f.reviewer.ID, types.RoleReviewer, nil)
	err := ms.ForwardComplaint(ctx, complaint.ID, []string{"a@example.com", "b@example.com"}, "please handle")
	if err != nil {
		t.Fatalf("ForwardComplaint: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(payloads) != 2 {
		t.Fatalf("emails sent: want=2 got=%d", len(payloads))
	}
	for _, p := range payloads {
		if p.From != "complaints@desk.example" {
			t.Fatalf("from: got=%q", p.From)
		}
		if !strings.Contains(p.Subject, complaint.Title) {
			t.Fatalf("subject missing title: %q", p.Subject)
		}
		if !strings.Contains(p.HTML, "Sam Submitter") {
			t.Fatalf("body missing submitter name: %q", p.HTML)
		}
		if !strings.Contains(p.HTML, "please handle") {
			t.Fatalf("body missing remark: %q", p.HTML)
		}
	}
}

func TestForwardComplaintRedactsAnonymousSubmitter(t *testing.T) {
	var mu sync.Mutex
	var bodies []string
	ms, f, stop := newMailerFixture(t, func(w http.ResponseWriter, r *http.Request) {
		var p emailPayload
		_ = json.NewDecoder(r.Body).Decode(&p)
		mu.Lock()
		bodies = append(bodies, p.HTML)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	defer stop()

	complaint := pendingComplaint(f.submitter.ID, true)
	f.repo.complaints[complaint.ID] = complaint

	ctx := authedCtx(f.reviewer.ID, types.RoleReviewer, nil)
	if err := ms.ForwardComplaint(ctx, complaint.ID, []string{"a@example.com"}, ""); err != nil {
		t.Fatalf("ForwardComplaint: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(bodies) != 1 {
		t.Fatalf("emails sent: want=1 got=%d", len(bodies))
	}
	if strings.Contains(bodies[0], "Sam Submitter") {
		t.Fatalf("anonymous submitter name leaked: %q", bodies[0])
	}
	if !strings.Contains(bodies[0], types.AnonymousDisplayName) {
		t.Fatalf("body missing anonymous display name: %q", bodies[0])
	}
}

func TestForwardComplaintValidation(t *testing.T) {
	ms, f, stop := newMailerFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	defer stop()

	complaint := pendingComplaint(f.submitter.ID, false)
	f.repo.complaints[complaint.ID] = complaint
	revCtx := authedCtx(f.reviewer.ID, types.RoleReviewer, nil)

	if err := ms.ForwardComplaint(revCtx, complaint.ID, nil, ""); !errors.Is(err, pkgerrors.ErrValidation) {
		t.Fatalf("no recipients: want=ErrValidation got=%v", err)
	}
	if err := ms.ForwardComplaint(revCtx, complaint.ID, []string{"not-an-address"}, ""); !errors.Is(err, pkgerrors.ErrValidation) {
		t.Fatalf("bad recipient: want=ErrValidation got=%v", err)
	}

	subCtx := authedCtx(f.submitter.ID, types.RoleSubmitter, nil)
	if err := ms.ForwardComplaint(subCtx, complaint.ID, []string{"a@example.com"}, ""); !errors.Is(err, pkgerrors.ErrPermissionDenied) {
		t.Fatalf("submitter forward: want=ErrPermissionDenied got=%v", err)
	}
}

func TestForwardComplaintRetriesServerErrors(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	ms, f, stop := newMailerFixture(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()
		if n == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	defer stop()

	complaint := pendingComplaint(f.submitter.ID, false)
	f.repo.complaints[complaint.ID] = complaint

	ctx := authedCtx(f.reviewer.ID, types.RoleReviewer, nil)
	if err := ms.ForwardComplaint(ctx, complaint.ID, []string{"a@example.com"}, ""); err != nil {
		t.Fatalf("ForwardComplaint: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if attempts != 2 {
		t.Fatalf("attempts: want=2 got=%d", attempts)
	}
}

func TestForwardComplaintMissingComplaint(t *testing.T) {
	ms, f, stop := newMailerFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	defer stop()

	ctx := authedCtx(f.reviewer.ID, types.RoleReviewer, nil)
	if err := ms.ForwardComplaint(ctx, uuid.New(), []string{"a@example.com"}, ""); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("missing complaint: want=ErrNotFound got=%v", err)
	}
}
