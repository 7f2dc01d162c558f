package tracking

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/salesdeck/crm-api/internal/email"
	"github.com/salesdeck/crm-api/internal/model"
	"github.com/salesdeck/crm-api/internal/repository"
	"github.com/salesdeck/crm-api/internal/service/scoring"
	apperrors "github.com/salesdeck/crm-api/pkg/errors"
	"github.com/salesdeck/crm-api/pkg/logger"
)

// SendRequest describes a tracked outbound email.
type SendRequest struct {
	DealID    *uuid.UUID `json:"deal_id"`
	ContactID *uuid.UUID `json:"contact_id"`
	To        string     `json:"to" binding:"required,email"`
	Subject   string     `json:"subject" binding:"required"`
	BodyHTML  string     `json:"body_html" binding:"required"`
}

// Service records email sends and their open/click callbacks, and
// feeds scoring through derived activity rows.
type Service struct {
	sends      repository.EmailRepository
	activities repository.ActivityRepository
	scoring    *scoring.Service
	emails     email.Service
	baseURL    string
	logger     *logger.Logger
}

func NewService(
	sends repository.EmailRepository,
	activities repository.ActivityRepository,
	scoringSvc *scoring.Service,
	emails email.Service,
	baseURL string,
	log *logger.Logger,
) *Service {
	return &Service{
		sends:      sends,
		activities: activities,
		scoring:    scoringSvc,
		emails:     emails,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     log,
	}
}

// Send persists the send record, appends the EMAIL_SENT activity and
// dispatches the email with the tracking pixel appended.
func (s *Service) Send(ctx context.Context, req *SendRequest) (*model.EmailSend, error) {
	if req.DealID == nil && req.ContactID == nil {
		return nil, apperrors.BadRequest("tracked email needs a deal or a contact", nil)
	}

	send := &model.EmailSend{
		DealID:    req.DealID,
		ContactID: req.ContactID,
		Recipient: req.To,
		Subject:   req.Subject,
		BodyHTML:  req.BodyHTML,
	}
	if err := s.sends.CreateSend(ctx, send); err != nil {
		return nil, fmt.Errorf("failed to record email send: %w", err)
	}

	s.appendActivity(ctx, send, model.ActivityTypeEmailSent,
		fmt.Sprintf("Email sent to %s: %s", req.To, req.Subject))

	pixel := fmt.Sprintf(`<img src="%s/api/v1/track/open/%s" width="1" height="1" alt="" />`, s.baseURL, send.ID)
	if err := s.emails.Send(ctx, req.To, req.Subject, req.BodyHTML+pixel); err != nil {
		return nil, fmt.Errorf("failed to dispatch email: %w", err)
	}

	return send, nil
}

// RecordOpen handles the pixel callback.
func (s *Service) RecordOpen(ctx context.Context, sendID uuid.UUID) error {
	send, err := s.sends.GetSend(ctx, sendID)
	if err != nil {
		return apperrors.NotFound("email send", err)
	}

	event := &model.TrackingEvent{
		EmailSendID: send.ID,
		Kind:        model.TrackingKindOpen,
	}
	if err := s.sends.RecordEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to record open event: %w", err)
	}

	s.appendActivity(ctx, send, model.ActivityTypeEmailOpened,
		fmt.Sprintf("Email opened: %s", send.Subject))
	s.refreshScore(ctx, send)

	return nil
}

// RecordClick handles the redirect callback and returns the original
// destination.
func (s *Service) RecordClick(ctx context.Context, sendID uuid.UUID, url string) (string, error) {
	if url == "" {
		return "", apperrors.BadRequest("missing redirect url", nil)
	}

	send, err := s.sends.GetSend(ctx, sendID)
	if err != nil {
		return "", apperrors.NotFound("email send", err)
	}

	event := &model.TrackingEvent{
		EmailSendID: send.ID,
		Kind:        model.TrackingKindClick,
		URL:         &url,
	}
	if err := s.sends.RecordEvent(ctx, event); err != nil {
		return "", fmt.Errorf("failed to record click event: %w", err)
	}

	s.appendActivity(ctx, send, model.ActivityTypeLinkClicked,
		fmt.Sprintf("Link clicked: %s", url))
	s.refreshScore(ctx, send)

	return url, nil
}

func (s *Service) appendActivity(ctx context.Context, send *model.EmailSend, activityType, content string) {
	activity := &model.Activity{
		DealID:    send.DealID,
		ContactID: send.ContactID,
		Type:      activityType,
		Content:   content,
	}
	if err := s.activities.Create(ctx, activity); err != nil {
		s.logger.Error(err, "failed to append tracking activity", "send_id", send.ID.String())
	}
}

// refreshScore recomputes the deal score after an engagement signal.
// Best-effort: the callback must respond fast and never fail on this.
func (s *Service) refreshScore(ctx context.Context, send *model.EmailSend) {
	if send.DealID == nil {
		return
	}
	s.scoring.RefreshDeal(ctx, *send.DealID)
}
