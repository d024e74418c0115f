package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/complaintdesk-backend/internal/pkg/errors"
	"github.com/yungbote/complaintdesk-backend/internal/pkg/httpx"
	"github.com/yungbote/complaintdesk-backend/internal/pkg/logger"
	"github.com/yungbote/complaintdesk-backend/internal/repos"
	"github.com/yungbote/complaintdesk-backend/internal/types"
)

// MailerService forwards a complaint summary to external addresses through
// a Resend-compatible email API.
type MailerService interface {
	ForwardComplaint(ctx context.Context, complaintID uuid.UUID, recipients []string, remark string) error
}

type mailerService struct {
	log           *logger.Logger
	complaintRepo repos.ComplaintRepo
	userRepo      repos.UserRepo
	httpClient    *http.Client
	apiURL        string
	apiKey        string
	fromAddress   string
}

type MailerConfig struct {
	APIURL      string
	APIKey      string
	FromAddress string
}

func NewMailerService(
	log *logger.Logger,
	complaintRepo repos.ComplaintRepo,
	userRepo repos.UserRepo,
	cfg MailerConfig,
) (MailerService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("mailer: api key required")
	}
	if cfg.FromAddress == "" {
		return nil, fmt.Errorf("mailer: from address required")
	}
	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = "https://api.resend.com"
	}
	return &mailerService{
		log:           log.With("service", "MailerService"),
		complaintRepo: complaintRepo,
		userRepo:      userRepo,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		apiURL:        apiURL,
		apiKey:        cfg.APIKey,
		fromAddress:   cfg.FromAddress,
	}, nil
}

type emailPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type mailerHTTPError struct {
	StatusCode int
	Body       string
}

func (e *mailerHTTPError) Error() string {
	return fmt.Sprintf("email api error: status=%d body=%s", e.StatusCode, e.Body)
}

func (e *mailerHTTPError) HTTPStatusCode() int {
	return e.StatusCode
}

// ForwardComplaint renders the complaint into an email and delivers one
// message per recipient, in parallel. Anonymity carries over: the submitter
// line is redacted for anonymous complaints.
func (ms *mailerService) ForwardComplaint(ctx context.Context, complaintID uuid.UUID, recipients []string, remark string) error {
	rd, err := requireAuth(ctx)
	if err != nil {
		return err
	}
	if !rd.Role.CanReview() {
		return fmt.Errorf("%w: only reviewers forward complaints", errors.ErrPermissionDenied)
	}
	if len(recipients) == 0 {
		return fmt.Errorf("%w: at least one recipient required", errors.ErrValidation)
	}
	for _, r := range recipients {
		if _, err := mail.ParseAddress(r); err != nil {
			return fmt.Errorf("%w: invalid recipient %q", errors.ErrValidation, r)
		}
	}

	complaint, err := ms.complaintRepo.GetByID(ctx, nil, complaintID)
	if err != nil {
		return err
	}
	submitterName := types.AnonymousDisplayName
	if !complaint.IsAnonymous {
		if user, err := ms.userRepo.GetByID(ctx, nil, complaint.SubmitterID); err == nil {
			submitterName = user.Name
		}
	}

	subject := fmt.Sprintf("[%s] Complaint forwarded: %s", complaint.Urgency, complaint.Title)
	body := ms.renderHTML(complaint, submitterName, remark)

	g, gctx := errgroup.WithContext(ctx)
	for _, recipient := range recipients {
		g.Go(func() error {
			return ms.send(gctx, emailPayload{
				From:    ms.fromAddress,
				To:      []string{recipient},
				Subject: subject,
				HTML:    body,
			})
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to forward complaint: %w", err)
	}
	ms.log.Info("complaint forwarded",
		"complaint_id", complaintID,
		"recipients", len(recipients),
		"by", rd.UserID)
	return nil
}

func (ms *mailerService) renderHTML(complaint *types.Complaint, submitterName, remark string) string {
	var b strings.Builder
	b.WriteString("<h2>" + html.EscapeString(complaint.Title) + "</h2>")
	b.WriteString("<p><strong>Submitted by:</strong> " + html.EscapeString(submitterName) + "</p>")
	b.WriteString("<p><strong>Category:</strong> " + html.EscapeString(string(complaint.Category)) + "</p>")
	b.WriteString("<p><strong>Urgency:</strong> " + html.EscapeString(string(complaint.Urgency)) + "</p>")
	b.WriteString("<p><strong>Status:</strong> " + html.EscapeString(string(complaint.Status)) + "</p>")
	b.WriteString("<p>" + html.EscapeString(complaint.Description) + "</p>")
	if complaint.ResolutionNote != nil && *complaint.ResolutionNote != "" {
		b.WriteString("<p><strong>Resolution:</strong> " + html.EscapeString(*complaint.ResolutionNote) + "</p>")
	}
	if remark = strings.TrimSpace(remark); remark != "" {
		b.WriteString("<hr><p><em>" + html.EscapeString(remark) + "</em></p>")
	}
	return b.String()
}

func (ms *mailerService) send(ctx context.Context, payload emailPayload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return httpx.DoWithRetry(ctx, httpx.RetryConfig{}, func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, "POST", ms.apiURL+"/emails", bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+ms.apiKey)

		resp, err := ms.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return resp, &mailerHTTPError{StatusCode: resp.StatusCode, Body: string(body)}
		}
		return resp, nil
	})
}
