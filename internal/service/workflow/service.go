package workflow

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"

	"github.com/salesdeck/crm-api/internal/model"
	"github.com/salesdeck/crm-api/internal/repository"
	"github.com/salesdeck/crm-api/internal/repository/postgres"
	"github.com/salesdeck/crm-api/internal/service/notification"
	apperrors "github.com/salesdeck/crm-api/pkg/errors"
	"github.com/salesdeck/crm-api/pkg/logger"
)

const (
	activeRulesKey = "workflow:active_rules"
	rulesCacheTTL  = 30 * time.Second
)

// Service evaluates admin-defined IF/THEN rules against deals and
// manages the rule CRUD. Evaluation is called synchronously on every
// deal write and must never fail that write.
type Service struct {
	rules    repository.WorkflowRuleRepository
	notifier notification.Service
	cache    *cache.Cache
	logger   *logger.Logger
}

func NewService(rules repository.WorkflowRuleRepository, notifier notification.Service, log *logger.Logger) *Service {
	return &Service{
		rules:    rules,
		notifier: notifier,
		cache:    cache.New(rulesCacheTTL, 2*rulesCacheTTL),
		logger:   log,
	}
}

// Evaluate matches deal field values against all active rules and
// returns the triggered actions. Rule-storage failures degrade to an
// empty match set.
func (s *Service) Evaluate(ctx context.Context, deal *model.Deal) []model.RuleMatch {
	rules := s.activeRules(ctx)

	var matches []model.RuleMatch
	for _, rule := range rules {
		fieldValue, ok := resolveField(deal, rule.TriggerField)
		if !ok {
			continue
		}
		if !compare(rule.TriggerOp, fieldValue, rule.TriggerValue) {
			continue
		}

		matches = append(matches, model.RuleMatch{
			RuleID:      rule.ID,
			RuleName:    rule.Name,
			ActionType:  rule.ActionType,
			ActionValue: rule.ActionValue,
		})

		if deal.OwnerID != nil {
			s.notifier.Notify(ctx, *deal.OwnerID,
				model.NotificationTypeWorkflowMatch,
				fmt.Sprintf("Workflow rule triggered: %s", rule.Name),
				fmt.Sprintf("Deal %q matched rule %q (action: %s)", deal.Name, rule.Name, rule.ActionType),
				&deal.ID,
			)
		}
	}

	return matches
}

func (s *Service) activeRules(ctx context.Context) []*model.WorkflowRule {
	if cached, ok := s.cache.Get(activeRulesKey); ok {
		return cached.([]*model.WorkflowRule)
	}

	rules, err := s.rules.ListActive(ctx)
	if err != nil {
		if postgres.IsUndefinedTable(err) {
			s.logger.Debug("workflow_rules relation missing, evaluation disabled")
		} else {
			s.logger.Error(err, "failed to load active workflow rules")
		}
		return nil
	}

	s.cache.Set(activeRulesKey, rules, rulesCacheTTL)
	return rules
}

// resolveField maps a trigger field name to the deal's current value,
// rendered as text the operators compare against.
func resolveField(deal *model.Deal, field string) (string, bool) {
	switch field {
	case model.TriggerFieldDealValue:
		return strconv.FormatFloat(deal.Value, 'f', -1, 64), true
	case model.TriggerFieldProbability:
		return strconv.Itoa(deal.Probability), true
	case model.TriggerFieldStage:
		return deal.Stage, true
	case model.TriggerFieldIsStale:
		return strconv.FormatBool(deal.IsStale), true
	case model.TriggerFieldColdPool:
		return strconv.FormatBool(deal.ColdPool), true
	}
	return "", false
}

// compare applies a trigger operator. Numeric operators parse both
// sides as floats and never match on a parse failure; eq/neq/contains
// are case-insensitive.
func compare(op, fieldValue, ruleValue string) bool {
	switch op {
	case model.TriggerOpGT, model.TriggerOpGTE, model.TriggerOpLT, model.TriggerOpLTE:
		left, errL := strconv.ParseFloat(strings.TrimSpace(fieldValue), 64)
		right, errR := strconv.ParseFloat(strings.TrimSpace(ruleValue), 64)
		if errL != nil || errR != nil {
			return false
		}
		switch op {
		case model.TriggerOpGT:
			return left > right
		case model.TriggerOpGTE:
			return left >= right
		case model.TriggerOpLT:
			return left < right
		default:
			return left <= right
		}
	case model.TriggerOpEQ:
		return strings.EqualFold(fieldValue, ruleValue)
	case model.TriggerOpNEQ:
		return !strings.EqualFold(fieldValue, ruleValue)
	case model.TriggerOpContains:
		return strings.Contains(strings.ToLower(fieldValue), strings.ToLower(ruleValue))
	}
	return false
}

// CreateRule validates and stores a new rule.
func (s *Service) CreateRule(ctx context.Context, req *model.CreateWorkflowRuleRequest, createdBy uuid.UUID) (*model.WorkflowRule, error) {
	if err := validateAction(req.ActionType, req.ActionValue); err != nil {
		return nil, err
	}

	rule := &model.WorkflowRule{
		Name:         req.Name,
		Active:       true,
		TriggerField: req.TriggerField,
		TriggerOp:    req.TriggerOp,
		TriggerValue: req.TriggerValue,
		ActionType:   req.ActionType,
		ActionValue:  req.ActionValue,
		CreatedBy:    createdBy,
	}

	if err := s.rules.Create(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to create workflow rule: %w", err)
	}

	s.cache.Delete(activeRulesKey)
	return rule, nil
}

// UpdateRule applies non-nil fields to an existing rule.
func (s *Service) UpdateRule(ctx context.Context, id uuid.UUID, req *model.UpdateWorkflowRuleRequest) (*model.WorkflowRule, error) {
	rule, err := s.rules.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("workflow rule", err)
	}

	if req.Name != nil {
		rule.Name = *req.Name
	}
	if req.Active != nil {
		rule.Active = *req.Active
	}
	if req.TriggerField != nil {
		rule.TriggerField = *req.TriggerField
	}
	if req.TriggerOp != nil {
		rule.TriggerOp = *req.TriggerOp
	}
	if req.TriggerValue != nil {
		rule.TriggerValue = *req.TriggerValue
	}
	if req.ActionType != nil {
		rule.ActionType = *req.ActionType
	}
	if req.ActionValue != nil {
		rule.ActionValue = req.ActionValue
	}

	if err := validateAction(rule.ActionType, rule.ActionValue); err != nil {
		return nil, err
	}

	if err := s.rules.Update(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to update workflow rule: %w", err)
	}

	s.cache.Delete(activeRulesKey)
	return rule, nil
}

func (s *Service) GetRule(ctx context.Context, id uuid.UUID) (*model.WorkflowRule, error) {
	rule, err := s.rules.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("workflow rule", err)
	}
	return rule, nil
}

func (s *Service) ListRules(ctx context.Context) ([]*model.WorkflowRule, error) {
	return s.rules.List(ctx)
}

func (s *Service) DeleteRule(ctx context.Context, id uuid.UUID) error {
	if err := s.rules.Delete(ctx, id); err != nil {
		return apperrors.NotFound("workflow rule", err)
	}
	s.cache.Delete(activeRulesKey)
	return nil
}

// validateAction enforces the action/value pairing the evaluator's
// callers rely on.
func validateAction(actionType string, actionValue *string) error {
	switch actionType {
	case model.ActionChangeStage:
		if actionValue == nil || strings.TrimSpace(*actionValue) == "" {
			return apperrors.BadRequest("change_stage requires an action value", nil)
		}
	case model.ActionAssignTo:
		if actionValue == nil {
			return apperrors.BadRequest("assign_to requires an action value", nil)
		}
		if _, err := uuid.Parse(*actionValue); err != nil {
			return apperrors.BadRequest("assign_to action value must be a user id", err)
		}
	}
	return nil
}
