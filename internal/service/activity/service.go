package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/salesdeck/crm-api/internal/model"
	"github.com/salesdeck/crm-api/internal/repository"
	apperrors "github.com/salesdeck/crm-api/pkg/errors"
	"github.com/salesdeck/crm-api/pkg/logger"
)

var validTypes = map[string]bool{
	model.ActivityTypeCall:        true,
	model.ActivityTypeEmail:       true,
	model.ActivityTypeNote:        true,
	model.ActivityTypeMeeting:     true,
	model.ActivityTypeSystem:      true,
	model.ActivityTypeStageChange: true,
	model.ActivityTypeAlert:       true,
	model.ActivityTypeEmailSent:   true,
	model.ActivityTypeEmailOpened: true,
	model.ActivityTypeLinkClicked: true,
	model.ActivityTypeFollowUp:    true,
}

type Service struct {
	activities repository.ActivityRepository
	deals      repository.DealRepository
	logger     *logger.Logger
}

func NewService(activities repository.ActivityRepository, deals repository.DealRepository, log *logger.Logger) *Service {
	return &Service{
		activities: activities,
		deals:      deals,
		logger:     log,
	}
}

// Create appends an activity and refreshes the deal's last-activity
// timestamp, which the staleness sweeps key off.
func (s *Service) Create(ctx context.Context, req *model.CreateActivityRequest, actorID *uuid.UUID) (*model.Activity, error) {
	if !validTypes[req.Type] {
		return nil, apperrors.BadRequest(fmt.Sprintf("unknown activity type %q", req.Type), nil)
	}
	if req.DealID == nil && req.ContactID == nil {
		return nil, apperrors.BadRequest("activity needs a deal or a contact", nil)
	}

	activity := &model.Activity{
		DealID:     req.DealID,
		ContactID:  req.ContactID,
		Type:       req.Type,
		Content:    req.Content,
		ActorID:    actorID,
		OccurredAt: time.Now(),
	}

	if err := s.activities.Create(ctx, activity); err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}

	if req.DealID != nil {
		s.touchDeal(ctx, *req.DealID, activity.OccurredAt)
	}

	return activity, nil
}

func (s *Service) ListByDeal(ctx context.Context, dealID uuid.UUID) ([]*model.Activity, error) {
	return s.activities.ListByDeal(ctx, dealID)
}

func (s *Service) ListByContact(ctx context.Context, contactID uuid.UUID) ([]*model.Activity, error) {
	return s.activities.ListByContact(ctx, contactID)
}

func (s *Service) touchDeal(ctx context.Context, dealID uuid.UUID, at time.Time) {
	deal, err := s.deals.Get(ctx, dealID)
	if err != nil {
		s.logger.Error(err, "failed to load deal for activity touch", "deal_id", dealID.String())
		return
	}
	if at.After(deal.LastActivityAt) {
		deal.LastActivityAt = at
		if err := s.deals.Update(ctx, deal); err != nil {
			s.logger.Error(err, "failed to refresh deal last activity", "deal_id", dealID.String())
		}
	}
}
