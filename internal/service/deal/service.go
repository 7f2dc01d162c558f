package deal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/salesdeck/crm-api/internal/email"
	"github.com/salesdeck/crm-api/internal/model"
	"github.com/salesdeck/crm-api/internal/repository"
	"github.com/salesdeck/crm-api/internal/service/notification"
	apperrors "github.com/salesdeck/crm-api/pkg/errors"
	"github.com/salesdeck/crm-api/pkg/logger"
)

// Evaluator is the workflow rule evaluator the deal write path calls
// synchronously after every create and update.
type Evaluator interface {
	Evaluate(ctx context.Context, deal *model.Deal) []model.RuleMatch
}

type Service struct {
	deals      repository.DealRepository
	activities repository.ActivityRepository
	users      repository.UserRepository
	evaluator  Evaluator
	notifier   notification.Service
	emails     email.Service
	logger     *logger.Logger
}

func NewService(
	deals repository.DealRepository,
	activities repository.ActivityRepository,
	users repository.UserRepository,
	evaluator Evaluator,
	notifier notification.Service,
	emails email.Service,
	log *logger.Logger,
) *Service {
	return &Service{
		deals:      deals,
		activities: activities,
		users:      users,
		evaluator:  evaluator,
		notifier:   notifier,
		emails:     emails,
		logger:     log,
	}
}

// Create ingests a deal. Owner may be null; the assignment sweep picks
// up unowned leads.
func (s *Service) Create(ctx context.Context, req *model.CreateDealRequest, actorID *uuid.UUID) (*model.Deal, error) {
	stage := req.Stage
	if stage == "" {
		stage = model.StageLead
	}

	deal := &model.Deal{
		Name:           req.Name,
		Value:          req.Value,
		Stage:          stage,
		Probability:    req.Probability,
		CompanyID:      req.CompanyID,
		ContactID:      req.ContactID,
		OwnerID:        req.OwnerID,
		NextFollowUpAt: req.NextFollowUpAt,
		LastActivityAt: time.Now(),
	}

	if err := s.deals.Create(ctx, deal); err != nil {
		return nil, fmt.Errorf("failed to create deal: %w", err)
	}

	s.appendActivity(ctx, deal.ID, model.ActivityTypeSystem, "Deal created", actorID)
	s.applyWorkflow(ctx, deal)

	return deal, nil
}

// Update applies non-nil fields. Rescheduling a follow-up resets the
// notified flag so the reminder sweep fires again for the new time.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateDealRequest, actorID *uuid.UUID) (*model.Deal, error) {
	deal, err := s.deals.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("deal", err)
	}

	previousStage := deal.Stage

	if req.Name != nil {
		deal.Name = *req.Name
	}
	if req.Value != nil {
		deal.Value = *req.Value
	}
	if req.Probability != nil {
		deal.Probability = *req.Probability
	}
	if req.Stage != nil {
		deal.Stage = *req.Stage
	}
	if req.CompanyID != nil {
		deal.CompanyID = req.CompanyID
	}
	if req.ContactID != nil {
		deal.ContactID = req.ContactID
	}
	if req.OwnerID != nil {
		deal.OwnerID = req.OwnerID
	}
	if req.NextFollowUpAt != nil && !timesEqual(deal.NextFollowUpAt, req.NextFollowUpAt) {
		deal.NextFollowUpAt = req.NextFollowUpAt
		deal.FollowUpNotified = false
	}

	stageChanged := deal.Stage != previousStage
	if stageChanged {
		deal.LastActivityAt = time.Now()
	}

	if err := s.deals.Update(ctx, deal); err != nil {
		return nil, fmt.Errorf("failed to update deal: %w", err)
	}

	if stageChanged {
		s.appendActivity(ctx, deal.ID, model.ActivityTypeStageChange,
			fmt.Sprintf("Stage changed from %q to %q", previousStage, deal.Stage), actorID)
	}

	s.applyWorkflow(ctx, deal)

	return deal, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Deal, error) {
	deal, err := s.deals.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("deal", err)
	}
	return deal, nil
}

func (s *Service) List(ctx context.Context, filters *model.DealFilters) ([]*model.Deal, error) {
	deals, err := s.deals.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list deals: %w", err)
	}
	return deals, nil
}

// ChangeStage is the kanban drag-and-drop path.
func (s *Service) ChangeStage(ctx context.Context, id uuid.UUID, stage string, actorID *uuid.UUID) (*model.Deal, error) {
	return s.Update(ctx, id, &model.UpdateDealRequest{Stage: &stage}, actorID)
}

// applyWorkflow evaluates the active rules and acts on the matches.
// Failures here never block the deal write; they are logged only.
func (s *Service) applyWorkflow(ctx context.Context, deal *model.Deal) {
	matches := s.evaluator.Evaluate(ctx, deal)

	dirty := false
	for _, match := range matches {
		switch match.ActionType {
		case model.ActionCCManager:
			s.ccManager(ctx, deal, match)
		case model.ActionSendNotification:
			// The evaluator already notified the owner per match.
		case model.ActionChangeStage:
			if match.ActionValue != nil && *match.ActionValue != deal.Stage {
				s.appendActivity(ctx, deal.ID, model.ActivityTypeStageChange,
					fmt.Sprintf("Stage changed from %q to %q by rule %q", deal.Stage, *match.ActionValue, match.RuleName), nil)
				deal.Stage = *match.ActionValue
				dirty = true
			}
		case model.ActionAssignTo:
			if match.ActionValue != nil {
				if ownerID, err := uuid.Parse(*match.ActionValue); err == nil {
					deal.OwnerID = &ownerID
					dirty = true
				}
			}
		}
	}

	if dirty {
		if err := s.deals.Update(ctx, deal); err != nil {
			s.logger.Error(err, "failed to persist workflow actions", "deal_id", deal.ID.String())
		}
	}
}

func (s *Service) ccManager(ctx context.Context, deal *model.Deal, match model.RuleMatch) {
	if deal.OwnerID == nil {
		return
	}
	owner, err := s.users.Get(ctx, *deal.OwnerID)
	if err != nil || owner.ManagerID == nil {
		return
	}
	manager, err := s.users.Get(ctx, *owner.ManagerID)
	if err != nil {
		return
	}

	if err := s.emails.Send(ctx, manager.Email,
		fmt.Sprintf("FYI: deal %s triggered rule %s", deal.Name, match.RuleName),
		fmt.Sprintf("<p>Deal <b>%s</b> (owner %s) matched workflow rule %q.</p>", deal.Name, owner.Name, match.RuleName),
	); err != nil {
		s.logger.Error(err, "failed to cc manager", "deal_id", deal.ID.String())
	}
}

func (s *Service) appendActivity(ctx context.Context, dealID uuid.UUID, activityType, content string, actorID *uuid.UUID) {
	activity := &model.Activity{
		DealID:  &dealID,
		Type:    activityType,
		Content: content,
		ActorID: actorID,
	}
	if err := s.activities.Create(ctx, activity); err != nil {
		s.logger.Error(err, "failed to append activity", "deal_id", dealID.String(), "type", activityType)
	}
}

func timesEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
